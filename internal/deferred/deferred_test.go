package deferred

import "testing"

func TestPushThenNextReleasesAfterRingWraps(t *testing.T) {
	q := New(2)
	released := false
	q.Push(func() { released = true })

	q.Next() // rotates to bucket 1, empty
	if released {
		t.Fatal("should not release before the ring wraps back")
	}
	q.Next() // rotates back to bucket 0, where our push landed
	if !released {
		t.Fatal("expected release once the ring wraps back to the original bucket")
	}
}

func TestClearRunsEverythingImmediately(t *testing.T) {
	q := New(3)
	count := 0
	q.Push(func() { count++ })
	q.Next()
	q.Push(func() { count++ })
	q.Clear()
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if q.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after Clear", q.Pending())
	}
}

func TestDefaultRingSizeAppliesBelowMinimum(t *testing.T) {
	q := New(1)
	if len(q.buckets) != DefaultRingSize {
		t.Errorf("len(buckets) = %d, want %d", len(q.buckets), DefaultRingSize)
	}
}

func TestPendingCountsAcrossBuckets(t *testing.T) {
	q := New(2)
	q.Push(func() {})
	q.Next()
	q.Push(func() {})
	if q.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", q.Pending())
	}
}
