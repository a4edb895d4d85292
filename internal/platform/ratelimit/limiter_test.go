package ratelimit

import (
	"testing"
	"time"
)

func TestNewRejectsInvalidArgs(t *testing.T) {
	if New(0, 1, 0) != nil {
		t.Fatal("expected nil limiter for zero rps")
	}
	if New(1, 0, 0) != nil {
		t.Fatal("expected nil limiter for zero burst")
	}
	var l *MapLimiter
	if !l.Allow("PERSON_1", time.Now()) {
		t.Fatal("nil limiter must allow")
	}
}

func TestAllowEnforcesBurstPerKey(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if !l.Allow("PERSON_1", now) || !l.Allow("PERSON_1", now) {
		t.Fatal("expected burst of two to pass")
	}
	if l.Allow("PERSON_1", now) {
		t.Fatal("expected third call to be limited")
	}
	if !l.Allow("PERSON_2", now) {
		t.Fatal("other keys must have their own bucket")
	}
	if !l.Allow("PERSON_1", now.Add(time.Second)) {
		t.Fatal("expected token refill after one second")
	}
}

func TestAllowIgnoresBlankKeys(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()
	for i := 0; i < 5; i++ {
		if !l.Allow("  ", now) {
			t.Fatal("blank key must not be limited")
		}
	}
	if l.Len() != 0 {
		t.Fatalf("len = %d, want 0", l.Len())
	}
}

func TestEvictDropsIdleKeys(t *testing.T) {
	l := New(1, 1, time.Minute)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Allow("PERSON_1", start)
	l.Allow("PERSON_2", start.Add(50*time.Second))

	l.Evict(start.Add(90 * time.Second))

	if l.Len() != 1 {
		t.Fatalf("len = %d, want 1", l.Len())
	}
}
