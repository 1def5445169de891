package vkp

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return resultErr(vk.QueueWaitIdle(q.VKQueue))
}

// SubmitWaitIdle submits the command buffers and blocks until the queue
// drains again. Useful for one shot work such as resource uploads and
// compute dispatches.
func (q *Queue) SubmitWaitIdle(buffers ...*CommandBuffer) error {
	var submitInfo = vk.SubmitInfo{}
	submitInfo.SType = vk.StructureTypeSubmitInfo
	submitInfo.CommandBufferCount = uint32(len(buffers))

	b := make([]vk.CommandBuffer, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKCommandBuffer
	}

	submitInfo.PCommandBuffers = b

	err := resultErr(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence))
	if err != nil {
		return &SubmissionError{Op: "submit", Err: err}
	}

	err = resultErr(vk.QueueWaitIdle(q.VKQueue))
	if err != nil {
		return &SubmissionError{Op: "wait idle", Err: err}
	}

	return nil
}

// SubmitWithFence submits the command buffers and signals fence when they
// complete. It does not block.
func (q *Queue) SubmitWithFence(fence *Fence, buffers ...*CommandBuffer) error {
	var submitInfo = vk.SubmitInfo{}
	submitInfo.SType = vk.StructureTypeSubmitInfo
	submitInfo.CommandBufferCount = uint32(len(buffers))

	b := make([]vk.CommandBuffer, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKCommandBuffer
	}

	submitInfo.PCommandBuffers = b

	err := resultErr(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, fence.VKFence))
	if err != nil {
		return &SubmissionError{Op: "submit", Err: err}
	}

	return nil
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device.String(), q.QueueFamily.String())
}
