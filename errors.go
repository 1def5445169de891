package vkp

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrChainStale indicates the swapchain no longer matches the surface
	// (out of date or suboptimal). It is recoverable: rebuild the
	// size-dependent resources and try the next frame.
	ErrChainStale = errors.New("presentation chain is stale")

	// ErrDeviceLost indicates the logical device was lost. Nothing built on
	// the connection can be trusted afterwards.
	ErrDeviceLost = errors.New("device lost")

	// ErrTimeout indicates a bounded wait expired before the driver
	// signaled. It is distinct from a rejection: the work may still finish.
	ErrTimeout = errors.New("wait timed out")
)

// SetupError is an unrecoverable construction failure: no usable physical
// device, a rejected device or swapchain creation, a missing shader. The
// caller decides whether that terminates the process; this package only
// guarantees no further driver calls are made on the failed object.
type SetupError struct {
	Stage string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup failed at %s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

func setupErr(stage string, err error) error {
	return &SetupError{Stage: stage, Err: err}
}

func setupErrf(stage string, format string, args ...interface{}) error {
	return &SetupError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

// SubmissionError is a rejected queue submission or present. The frame it
// belongs to is dropped; the loop continues to the next redraw.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s rejected: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// resultErr maps a native result to the package taxonomy. Success and
// Suboptimal both map to nil; suboptimal is reported out of band by the
// calls that can produce it.
func resultErr(res vk.Result) error {
	switch res {
	case vk.Success, vk.Suboptimal:
		return nil
	case vk.ErrorOutOfDate:
		return ErrChainStale
	case vk.ErrorDeviceLost:
		return ErrDeviceLost
	case vk.Timeout:
		return ErrTimeout
	default:
		return vk.Error(res)
	}
}
