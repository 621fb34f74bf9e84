// Package kerr defines the sentinel error kinds shared across the
// engine's packages, so callers can classify failures with
// errors.Is/errors.As regardless of which component raised them.
package kerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into one of the engine's recognized error
// categories.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	CorruptAsset
	UnsupportedFeature
	AllocFailed
	PipelineBuildFailed
	SwapchainLost
	FatalDeviceError
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case CorruptAsset:
		return "corrupt asset"
	case UnsupportedFeature:
		return "unsupported feature"
	case AllocFailed:
		return "allocation failed"
	case PipelineBuildFailed:
		return "pipeline build failed"
	case SwapchainLost:
		return "swapchain lost"
	case FatalDeviceError:
		return "fatal device error"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind and the component/asset
// context that produced it.
type Error struct {
	Kind   Kind
	Op     string
	Target string
	Cause  error
}

func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Target, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, kerr.Sentinel(kerr.NotFound)) match any *Error
// of the same Kind, whatever its Op, Target and Cause.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == te.Kind
}

// New constructs an *Error classified by kind.
func New(kind Kind, op, target string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, Cause: cause}
}

// Sentinel returns a comparable *Error of the given kind with no
// cause, for use as a matcher with errors.Is.
func Sentinel(kind Kind) *Error { return &Error{Kind: kind} }

// Of reports the Kind of err if it (or something it wraps) is a
// *Error, and Unknown otherwise.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
