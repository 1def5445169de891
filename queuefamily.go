package vkp

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// QueueFamily is one of a physical device's queue families together with
// the kinds of work it accepts.
type QueueFamily struct {
	Index                   int
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

func (q *QueueFamily) hasFlag(bit vk.QueueFlagBits) bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(bit) != 0
}

// IsGraphics reports whether the family accepts graphics work.
func (q *QueueFamily) IsGraphics() bool {
	return q.hasFlag(vk.QueueGraphicsBit)
}

// IsCompute reports whether the family accepts compute work.
func (q *QueueFamily) IsCompute() bool {
	return q.hasFlag(vk.QueueComputeBit)
}

// IsTransfer reports whether the family accepts transfer work.
func (q *QueueFamily) IsTransfer() bool {
	return q.hasFlag(vk.QueueTransferBit)
}

// SupportsPresent reports whether the family can present to the surface.
// A failed support query counts as no.
func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supported vk.Bool32
	res := vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, uint32(q.Index), surface, &supported)
	return res == vk.Success && supported == vk.True
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Compute: %v Graphics: %v Transfer: %v }", q.Index, q.IsCompute(), q.IsGraphics(), q.IsTransfer())
}

// QueueFamilySlice narrows the families a device reports down to the ones
// a particular workload needs.
type QueueFamilySlice []*QueueFamily

// Filter returns the families f accepts, keeping enumeration order.
func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	ret := make(QueueFamilySlice, 0, len(ql))
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

// FilterGraphics keeps families that accept graphics work.
func (ql QueueFamilySlice) FilterGraphics() QueueFamilySlice {
	return ql.Filter((*QueueFamily).IsGraphics)
}

// FilterCompute keeps families that accept compute work.
func (ql QueueFamilySlice) FilterCompute() QueueFamilySlice {
	return ql.Filter((*QueueFamily).IsCompute)
}

// FilterTransfer keeps families that accept transfer work.
func (ql QueueFamilySlice) FilterTransfer() QueueFamilySlice {
	return ql.Filter((*QueueFamily).IsTransfer)
}

// FilterGraphicsAndPresent keeps families that can both draw and present
// to the surface. The swapchain path wants a single such family so one
// queue serves both roles.
func (ql QueueFamilySlice) FilterGraphicsAndPresent(surface vk.Surface) QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics() && q.SupportsPresent(surface)
	})
}
