// Package task implements the engine's task + promise handle: asset
// decode runs on a worker via Run, and the render thread polls it with
// non-blocking Status/Progress/Ready/Get calls rather than awaiting it.
package task

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Status is the task's lifecycle state, as observed by a poller.
type Status int32

const (
	Pending Status = iota
	Running
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task is a handle to work running on a background goroutine. There is
// no cancellation: a caller that drops the handle leaves the worker to
// finish with its result unread. Abandon sets a flag that workers can
// poll through Progress.Abandoned() to stop early; dropping the handle
// alone does not set it.
type Task[T any] struct {
	status   atomic.Int32
	progress atomic.Uint32 // bit-pattern of a float32 in [0, 1]
	result   T
	err      error
	done     chan struct{}
	abandon  atomic.Bool
}

// Run starts fn on a new goroutine (through an errgroup whose Wait is
// never called, so fn's error reaches the caller only through the Task)
// and returns immediately with a handle to poll. A panic in fn is not
// turned into a Failed status.
func Run[T any](fn func(p *Progress) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	t.status.Store(int32(Pending))

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		t.status.Store(int32(Running))
		result, err := fn(&Progress{t: t})
		t.result = result
		t.err = err
		if err != nil {
			t.status.Store(int32(Failed))
		} else {
			t.status.Store(int32(Succeeded))
		}
		close(t.done)
		return err
	})

	return t
}

// Progress lets a running task report fractional completion back to
// the poller without blocking on it.
type Progress struct {
	t interface {
		setProgress(float32)
		Abandoned() bool
	}
}

func (p *Progress) Set(fraction float32) { p.t.setProgress(fraction) }

// Abandoned reports whether the poller has dropped interest in this
// task's result; long-running work should check it periodically.
func (p *Progress) Abandoned() bool { return p.t.Abandoned() }

func (t *Task[T]) setProgress(fraction float32) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	t.progress.Store(math.Float32bits(fraction))
}

// Status returns the task's current lifecycle state.
func (t *Task[T]) Status() Status { return Status(t.status.Load()) }

// Progress returns the last fraction reported by the worker, in [0,1].
func (t *Task[T]) Progress() float32 { return math.Float32frombits(t.progress.Load()) }

// Ready reports whether the task has finished, successfully or not.
func (t *Task[T]) Ready() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Get returns the task's result if Ready, blocking is never performed:
// callers must check Ready first. Calling Get before Ready returns the
// zero value and false.
func (t *Task[T]) Get() (T, error, bool) {
	if !t.Ready() {
		var zero T
		return zero, nil, false
	}
	return t.result, t.err, true
}

// Abandon marks the task as no longer wanted by its poller. The
// worker keeps running to completion; Abandoned lets it poll for an
// early exit.
func (t *Task[T]) Abandon() { t.abandon.Store(true) }

// Abandoned reports whether Abandon has been called.
func (t *Task[T]) Abandoned() bool { return t.abandon.Load() }
