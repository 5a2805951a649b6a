package bot

import (
	"testing"
	"time"
)

func TestLimiter_PerUserBuckets(t *testing.T) {
	l := NewLimiter(1, 2)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	if !l.Allow(1) || !l.Allow(1) {
		t.Fatalf("burst of 2 should pass")
	}
	if l.Allow(1) {
		t.Fatalf("burst exhausted, third call should be denied")
	}
	if !l.Allow(2) {
		t.Fatalf("other users have their own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow(1) {
		t.Fatalf("bucket should refill after one second")
	}
}

func TestLimiter_DisabledAndNil(t *testing.T) {
	var nilL *Limiter
	if !nilL.Allow(1) {
		t.Fatalf("nil limiter must allow")
	}

	l := NewLimiter(0, 0)
	for i := 0; i < 10; i++ {
		if !l.Allow(1) {
			t.Fatalf("disabled limiter denied call %d", i)
		}
	}
	if l.Len() != 0 {
		t.Fatalf("disabled limiter tracked %d users", l.Len())
	}
}

func TestLimiter_EvictsIdleBuckets(t *testing.T) {
	l := NewLimiter(10, 1)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	l.Allow(7)
	now = now.Add(11 * time.Minute)
	l.lookups = 4999
	l.Allow(8)

	if l.Len() != 1 {
		t.Fatalf("Len = %d after eviction, want 1", l.Len())
	}
}
