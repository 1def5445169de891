package vkp

import (
	"time"

	vk "github.com/vulkan-go/vulkan"
)

type Fence struct {
	Device  *Device
	VKFence vk.Fence
}

func (d *Device) VKGetFenceStatus(f vk.Fence) vk.Result {
	return vk.GetFenceStatus(d.VKDevice, f)
}

func (d *Device) VKDestroyFence(f vk.Fence) {
	vk.DestroyFence(d.VKDevice, f, nil)
}

func (d *Device) VKCreateFence(signaled bool) (vk.Fence, error) {
	var fence vk.Fence
	var fenceCreateInfo = vk.FenceCreateInfo{}
	fenceCreateInfo.SType = vk.StructureTypeFenceCreateInfo
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	} else {
		fenceCreateInfo.Flags = 0
	}
	err := vk.Error(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence))
	if err != nil {
		return vk.NullFence, setupErr("fence", err)
	}
	return fence, nil
}

func (d *Device) CreateFence() (*Fence, error) {

	fence, err := d.VKCreateFence(false)
	if err != nil {
		return nil, err
	}

	var ret Fence
	ret.VKFence = fence
	ret.Device = d
	return &ret, nil

}

// CreateSignaledFence creates a fence that starts out signaled, which is
// what per frame fences want so the first wait doesn't hang.
func (d *Device) CreateSignaledFence() (*Fence, error) {

	fence, err := d.VKCreateFence(true)
	if err != nil {
		return nil, err
	}

	var ret Fence
	ret.VKFence = fence
	ret.Device = d
	return &ret, nil

}

// WaitForFences waits until all (or any) of the fences signal. A timeout of
// zero or less waits forever. Expiry of the timeout is reported as
// ErrTimeout, a lost device as ErrDeviceLost.
func (d *Device) WaitForFences(waitForAll bool, ts time.Duration, fences ...*Fence) error {

	f := make([]vk.Fence, len(fences))
	for i := range fences {
		f[i] = fences[i].VKFence
	}

	var wait vk.Bool32
	if waitForAll {
		wait = vk.True
	} else {
		wait = vk.False
	}

	return resultErr(vk.WaitForFences(d.VKDevice, uint32(len(fences)), f, wait, timeoutNanos(ts)))
}

// timeoutNanos converts a duration to the nanosecond timeout the device
// expects, with zero or less meaning wait forever.
func timeoutNanos(ts time.Duration) uint64 {
	if ts > 0 {
		return uint64(ts.Nanoseconds())
	}
	return uint64(vk.MaxUint64)
}

func (d *Device) ResetFences(fences ...*Fence) error {
	f := make([]vk.Fence, len(fences))
	for i := range fences {
		f[i] = fences[i].VKFence
	}
	return vk.Error(vk.ResetFences(d.VKDevice, uint32(len(fences)), f))
}

// Wait blocks until the fence signals or the timeout expires. A timeout of
// zero or less waits forever.
func (f *Fence) Wait(timeout time.Duration) error {
	return f.Device.WaitForFences(true, timeout, f)
}

// Signaled reports whether the fence has signaled, without blocking.
func (f *Fence) Signaled() bool {
	return f.Device.VKGetFenceStatus(f.VKFence) == vk.Success
}

func (f *Fence) Reset() error {
	return f.Device.ResetFences(f)
}

func (f *Fence) Destroy() {
	vk.DestroyFence(f.Device.VKDevice, f.VKFence, nil)
}
