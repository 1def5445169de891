package vkp

import (
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// FrameLag is how many frames may be in flight at once. Two keeps the GPU
// fed while the CPU records the next frame without letting it run away.
const FrameLag = 2

// Marker tracks the completion of one submitted frame's device work.
type Marker interface {
	// Wait blocks until the work completes, a non positive timeout waits
	// forever. Returns ErrTimeout when the deadline passes first.
	Wait(timeout time.Duration) error

	// Poll reports whether the work has completed without blocking.
	Poll() bool

	// Free releases the marker once the caller is done observing it.
	Free()
}

// Presenter runs the acquire, submit, present cycle for a set of
// presentable images. Implementations map device conditions onto the
// package error values: ErrChainStale when the image set no longer matches
// the surface, ErrTimeout on expired waits and ErrDeviceLost when the
// device is gone.
type Presenter interface {
	// Acquire obtains the next image index to draw into. The suboptimal
	// flag means the image is usable but the set should be rebuilt soon.
	Acquire(timeout time.Duration) (imageIndex int, suboptimal bool, err error)

	// Submit hands the recorded work for an acquired image to the device
	// and returns a Marker for its completion.
	Submit(imageIndex int) (Marker, error)

	// Present queues the submitted image for display.
	Present(imageIndex int) (suboptimal bool, err error)

	// Rebuild replaces the image set for a new extent.
	Rebuild(extent vk.Extent2D) error

	// ImageCount returns the number of presentable images.
	ImageCount() int
}

// fenceMarker adapts a per frame fence to the Marker interface. The fences
// are pooled and recycled, so Free never destroys one.
type fenceMarker struct {
	fence *Fence
}

func (m *fenceMarker) Wait(timeout time.Duration) error {
	return m.fence.Wait(timeout)
}

func (m *fenceMarker) Poll() bool {
	return m.fence.Signaled()
}

func (m *fenceMarker) Free() {}

// SwapchainPresenter drives a Core's swapchain through the frame cycle,
// with FrameLag frames of semaphores and fences.
type SwapchainPresenter struct {
	Connection *Connection
	Core       *Core

	frameIndex int

	imageAcquiredSemaphores [FrameLag]vk.Semaphore
	drawCompleteSemaphores  [FrameLag]vk.Semaphore
	inFlightFences          [FrameLag]*Fence

	// imagesInFlight remembers which frame fence last targeted each image
	imagesInFlight []*Fence
}

// NewSwapchainPresenter creates the sync objects for the frame cycle. The
// fences start signaled so the first wait on each frame slot returns
// immediately.
func NewSwapchainPresenter(conn *Connection, core *Core) (*SwapchainPresenter, error) {
	p := &SwapchainPresenter{
		Connection: conn,
		Core:       core,
	}

	for i := 0; i < FrameLag; i++ {
		var err error
		p.imageAcquiredSemaphores[i], err = conn.Device.VKCreateSemaphore()
		if err != nil {
			p.Destroy()
			return nil, err
		}
		p.drawCompleteSemaphores[i], err = conn.Device.VKCreateSemaphore()
		if err != nil {
			p.Destroy()
			return nil, err
		}
		p.inFlightFences[i], err = conn.Device.CreateSignaledFence()
		if err != nil {
			p.Destroy()
			return nil, err
		}
	}

	p.imagesInFlight = make([]*Fence, core.ImageCount())
	return p, nil
}

func (p *SwapchainPresenter) ImageCount() int {
	return p.Core.ImageCount()
}

// Acquire waits for the current frame slot to be free, then asks the
// swapchain for the next image.
func (p *SwapchainPresenter) Acquire(timeout time.Duration) (int, bool, error) {
	err := p.inFlightFences[p.frameIndex].Wait(timeout)
	if err != nil {
		return 0, false, err
	}

	var imageIndex uint32
	result := vk.AcquireNextImage(p.Connection.Device.VKDevice, p.Core.Swapchain.VKSwapchain,
		timeoutNanos(timeout), p.imageAcquiredSemaphores[p.frameIndex], vk.NullFence, &imageIndex)

	suboptimal := result == vk.Suboptimal
	err = resultErr(result)
	if err != nil {
		return 0, false, err
	}
	return int(imageIndex), suboptimal, nil
}

// Submit queues the image's recorded command buffer. The submission waits
// on the acquire semaphore at the color output stage and signals the draw
// complete semaphore and the frame fence.
func (p *SwapchainPresenter) Submit(imageIndex int) (Marker, error) {
	if p.imagesInFlight[imageIndex] != nil {
		err := p.imagesInFlight[imageIndex].Wait(0)
		if err != nil {
			return nil, err
		}
	}
	p.imagesInFlight[imageIndex] = p.inFlightFences[p.frameIndex]

	fence := p.inFlightFences[p.frameIndex]
	err := fence.Reset()
	if err != nil {
		return nil, err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{p.imageAcquiredSemaphores[p.frameIndex]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{p.Core.CommandBuffers[imageIndex].VK()},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{p.drawCompleteSemaphores[p.frameIndex]},
	}

	result := vk.QueueSubmit(p.Connection.GraphicsQueue.VKQueue, 1, []vk.SubmitInfo{submitInfo}, fence.VKFence)
	err = resultErr(result)
	if err != nil {
		if err == ErrDeviceLost {
			return nil, err
		}
		return nil, &SubmissionError{Op: "submit", Err: err}
	}

	return &fenceMarker{fence: fence}, nil
}

// Present queues the image for display and advances to the next frame
// slot.
func (p *SwapchainPresenter) Present(imageIndex int) (bool, error) {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{p.drawCompleteSemaphores[p.frameIndex]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{p.Core.Swapchain.VKSwapchain},
		PImageIndices:      []uint32{uint32(imageIndex)},
	}

	result := vk.QueuePresent(p.Connection.PresentQueue.VKQueue, &presentInfo)

	p.frameIndex = (p.frameIndex + 1) % FrameLag

	suboptimal := result == vk.Suboptimal
	err := resultErr(result)
	if err != nil {
		return false, err
	}
	return suboptimal, nil
}

// Rebuild replaces the swapchain resources for the new extent and drops
// the stale per image fence tracking.
func (p *SwapchainPresenter) Rebuild(extent vk.Extent2D) error {
	err := p.Core.Rebuild(extent)
	if err != nil {
		return err
	}
	p.imagesInFlight = make([]*Fence, p.Core.ImageCount())
	return nil
}

// Destroy tears down the sync objects. The core is owned by the caller.
func (p *SwapchainPresenter) Destroy() {
	p.Connection.Device.WaitIdle()
	for i := 0; i < FrameLag; i++ {
		if p.imageAcquiredSemaphores[i] != vk.NullSemaphore {
			p.Connection.Device.VKDestroySemaphore(p.imageAcquiredSemaphores[i])
			p.imageAcquiredSemaphores[i] = vk.NullSemaphore
		}
		if p.drawCompleteSemaphores[i] != vk.NullSemaphore {
			p.Connection.Device.VKDestroySemaphore(p.drawCompleteSemaphores[i])
			p.drawCompleteSemaphores[i] = vk.NullSemaphore
		}
		if p.inFlightFences[i] != nil {
			p.inFlightFences[i].Destroy()
			p.inFlightFences[i] = nil
		}
	}
}
