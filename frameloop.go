package vkp

import (
	"log"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// FrameLoop drives a Presenter through the acquire, submit, present cycle
// and owns the rebuild and frame overlap policy. It works against the
// Presenter interface only, so it runs the same against a swapchain or a
// test double.
type FrameLoop struct {
	Presenter Presenter

	// OverlapDepth is how many submitted frames may be outstanding. One
	// blocks after every present, two keeps the previous frame's marker
	// and reclaims it before the submission after next.
	OverlapDepth int

	// AcquireTimeout bounds the wait for a free image, zero or less waits
	// forever
	AcquireTimeout time.Duration

	// CurrentExtent supplies the surface size for rebuilds
	CurrentExtent func() vk.Extent2D

	// BeforeSubmit runs after an image is acquired and before its work is
	// submitted, for per frame updates such as uniforms.
	BeforeSubmit func(imageIndex int) error

	pending []Marker
}

// NewFrameLoop creates a loop with the given overlap depth, clamped to
// [1, FrameLag].
func NewFrameLoop(presenter Presenter, overlapDepth int, currentExtent func() vk.Extent2D) *FrameLoop {
	if overlapDepth < 1 {
		overlapDepth = 1
	}
	if overlapDepth > FrameLag {
		overlapDepth = FrameLag
	}
	return &FrameLoop{
		Presenter:     presenter,
		OverlapDepth:  overlapDepth,
		CurrentExtent: currentExtent,
	}
}

// InFlight returns how many submitted frames have not yet been reclaimed.
func (l *FrameLoop) InFlight() int {
	return len(l.pending)
}

// DrawFrame runs one full cycle. A stale or suboptimal chain is not an
// error: the frame is skipped, the resources are rebuilt at the current
// extent, and the next call starts fresh. ErrTimeout and ErrDeviceLost
// come back to the caller.
func (l *FrameLoop) DrawFrame() error {
	imageIndex, suboptimal, err := l.Presenter.Acquire(l.AcquireTimeout)
	if err == ErrChainStale {
		return l.rebuild()
	}
	if err != nil {
		return err
	}
	if suboptimal {
		// the image is usable but stale, skip it rather than present
		// content sized for the old surface
		return l.rebuild()
	}

	if l.BeforeSubmit != nil {
		err = l.BeforeSubmit(imageIndex)
		if err != nil {
			return err
		}
	}

	err = l.reclaim()
	if err != nil {
		return err
	}

	marker, err := l.Presenter.Submit(imageIndex)
	if err != nil {
		return err
	}

	suboptimal, err = l.Presenter.Present(imageIndex)
	if err == ErrChainStale {
		l.retire(marker)
		return l.rebuild()
	}
	if err != nil {
		l.retire(marker)
		return err
	}

	if l.OverlapDepth <= 1 {
		l.retire(marker)
	} else {
		l.pending = append(l.pending, marker)
	}

	if suboptimal {
		return l.rebuild()
	}
	return nil
}

// reclaim frees completed markers and, when the overlap limit is reached,
// blocks on the oldest so a new submission never exceeds the depth.
func (l *FrameLoop) reclaim() error {
	for len(l.pending) > 0 && l.pending[0].Poll() {
		l.pending[0].Free()
		l.pending = l.pending[1:]
	}
	for len(l.pending) >= l.OverlapDepth {
		err := l.pending[0].Wait(0)
		if err != nil {
			return err
		}
		l.pending[0].Free()
		l.pending = l.pending[1:]
	}
	return nil
}

// retire waits out a single marker and frees it. There is nothing to
// retry here, so a failed wait is logged and the marker freed anyway.
func (l *FrameLoop) retire(marker Marker) {
	if err := marker.Wait(0); err != nil {
		log.Printf("frame wait failed: %v", err)
	}
	marker.Free()
}

// Rebuild drains outstanding work and rebuilds the presenter's resources
// at the current extent.
func (l *FrameLoop) Rebuild() error {
	return l.rebuild()
}

func (l *FrameLoop) rebuild() error {
	l.Drain()
	return l.Presenter.Rebuild(l.CurrentExtent())
}

// Drain waits for every outstanding frame and frees its marker. Call
// before destroying resources the frames reference.
func (l *FrameLoop) Drain() {
	for _, m := range l.pending {
		if err := m.Wait(0); err != nil {
			log.Printf("frame wait failed: %v", err)
		}
		m.Free()
	}
	l.pending = nil
}
