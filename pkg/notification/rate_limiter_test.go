package notification

import (
	"testing"
	"time"
)

func TestTokenBucketRateLimiter_Allow(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Errorf("request %d denied within capacity", i)
		}
	}

	if limiter.Allow() {
		t.Error("request allowed past capacity")
	}
}

func TestTokenBucketRateLimiter_Refill(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(1, 20*time.Millisecond)

	if !limiter.Allow() {
		t.Fatal("first request denied")
	}
	if limiter.Allow() {
		t.Fatal("request allowed with empty bucket")
	}

	time.Sleep(30 * time.Millisecond)

	if !limiter.Allow() {
		t.Error("request denied after refill interval")
	}
}

func TestTokenBucketRateLimiter_Reset(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(2, time.Hour)

	limiter.Allow()
	limiter.Allow()
	if limiter.Allow() {
		t.Fatal("request allowed with empty bucket")
	}

	limiter.Reset()

	if !limiter.Allow() {
		t.Error("request denied after reset")
	}
}

func TestTokenBucketRateLimiter_RefillCapped(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(2, 20*time.Millisecond)

	time.Sleep(100 * time.Millisecond)

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow() {
			allowed++
		}
	}

	if allowed != 2 {
		t.Errorf("allowed %d requests after long idle, want capacity 2", allowed)
	}
}
