// Package deferred implements the GPU object destruction queue: a FIFO
// of per-in-flight-frame release stacks, so a resource destroyed while
// a previous frame's command buffer might still reference it is only
// actually released once that frame's GPU work is known complete.
package deferred

// Queue rotates through ringSize buckets; Push appends to the current
// bucket, Next rotates to the following bucket and runs everything
// still queued there (which is only safe once the GPU work submitted
// ringSize-1 frames ago has completed).
type Queue struct {
	buckets [][]func()
	current int
}

// DefaultRingSize matches the renderer's double/triple buffering
// depth (N >= 2, per the contract that a pushed object is released no
// earlier than frame F+N and no later than F+N+1).
const DefaultRingSize = 2

// New returns a Queue with ringSize buckets. ringSize must be >= 2.
func New(ringSize int) *Queue {
	if ringSize < 2 {
		ringSize = DefaultRingSize
	}
	return &Queue{buckets: make([][]func(), ringSize)}
}

// Push appends release to the current frame's bucket.
func (q *Queue) Push(release func()) {
	q.buckets[q.current] = append(q.buckets[q.current], release)
}

// Next rotates to the following bucket and runs (then clears)
// whatever was queued there from ringSize frames ago.
func (q *Queue) Next() {
	q.current = (q.current + 1) % len(q.buckets)
	bucket := q.buckets[q.current]
	q.buckets[q.current] = nil
	for _, release := range bucket {
		release()
	}
}

// Clear runs every queued release across all buckets immediately; used
// at device teardown after a full device wait, when nothing can still
// be in flight.
func (q *Queue) Clear() {
	for i, bucket := range q.buckets {
		for _, release := range bucket {
			release()
		}
		q.buckets[i] = nil
	}
}

// Pending returns the total number of releases still queued across all
// buckets, for tests and diagnostics.
func (q *Queue) Pending() int {
	n := 0
	for _, bucket := range q.buckets {
		n += len(bucket)
	}
	return n
}
