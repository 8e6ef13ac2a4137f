package source

import (
	"testing"
	"time"
)

func TestTriggerFireWhileAttached(t *testing.T) {
	trigger := NewTrigger()
	if err := trigger.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	defer func() { _ = trigger.Detach() }()

	trigger.Fire(true, "manual")

	select {
	case sig := <-trigger.Signals():
		if !sig.Force {
			t.Error("expected forcing signal")
		}
		if sig.Payload != "manual" {
			t.Errorf("payload = %v, want manual", sig.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no signal received")
	}
}

func TestTriggerSilentWhileDetached(t *testing.T) {
	trigger := NewTrigger()

	trigger.Fire(false, nil)

	select {
	case sig := <-trigger.Signals():
		t.Fatalf("unexpected signal %+v from detached trigger", sig)
	default:
	}
}

func TestTriggerDetachStopsDelivery(t *testing.T) {
	trigger := NewTrigger()
	if err := trigger.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := trigger.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if trigger.Attached() {
		t.Error("trigger still attached after Detach")
	}

	trigger.Fire(false, nil)

	select {
	case <-trigger.Signals():
		t.Fatal("signal delivered after detach")
	default:
	}
}

func TestTriggerChannelStableAcrossAttachCycles(t *testing.T) {
	trigger := NewTrigger()
	ch := trigger.Signals()

	for i := 0; i < 3; i++ {
		if err := trigger.Attach(); err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
		if err := trigger.Detach(); err != nil {
			t.Fatalf("Detach() error = %v", err)
		}
	}

	if trigger.Signals() != ch {
		t.Error("Signals() channel changed across attach cycles")
	}
}

func TestTriggerFireNeverBlocks(t *testing.T) {
	trigger := NewTrigger()
	if err := trigger.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	// Nobody is draining; fire past the buffer depth.
	for i := 0; i < signalBuffer*2; i++ {
		trigger.Fire(false, i)
	}

	received := 0
	for {
		select {
		case <-trigger.Signals():
			received++
		default:
			if received != signalBuffer {
				t.Errorf("received %d buffered signals, want %d", received, signalBuffer)
			}
			return
		}
	}
}
