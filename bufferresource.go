package vkp

import (
	vk "github.com/vulkan-go/vulkan"
)

// BufferResource is a buffer based resource, for example
// vertex buffer, uniform buffer or storage buffer, which has been allocated
// from a larger pool of device memory. Vulkan limits the number of
// memory allocations that can be done by an application, so applications
// should manage their own pools of memory. A BufferResource is a buffer
// which has been managed by the ResourceManager.
type BufferResource struct {
	Buffer
	ResourcePool    *BufferResourcePool
	Allocation      *Allocation
	Usage           vk.BufferUsageFlagBits
	StagingResource *BufferResource
}

// RequiresStaging indicates that this particular buffer resource
// must be staged before it can be used. This is primarily
// indicative that the BufferResource is stored in device memory.
func (r *BufferResource) RequiresStaging() bool {
	return r.ResourcePool.NeedsStaging
}

// AllocateStagingResource will allocate an appropriate resource
// which can be used for staging this resource. Once allocated
// it must be explicitly free'd. The staging resource is allocated
// from a resource pool called 'staging', which the program must create
func (r *BufferResource) AllocateStagingResource() error {
	if !r.ResourcePool.NeedsStaging {
		return setupErrf("pool", "resource does not require staging")
	}
	stagingPool := r.ResourcePool.ResourceManager.GetStagingPool()
	if stagingPool == nil {
		return setupErrf("pool", "no pool named %q exists for staging resources", StagingPoolName)
	}
	var err error
	r.StagingResource, err = stagingPool.AllocateBuffer(r.Buffer.Size, vk.BufferUsageTransferSrcBit)
	return err
}

// FreeStagingResource will free the staged resource associated with this resource
func (r *BufferResource) FreeStagingResource() {
	if r.StagingResource != nil {
		r.StagingResource.Free()
		r.StagingResource = nil
	}
}

// CmdCopyBufferFromStagedResource will populate this buffer from the previously
// allocated staged resource
func (c *CommandBuffer) CmdCopyBufferFromStagedResource(resource *BufferResource) {
	vk.CmdCopyBuffer(c.VK(), resource.StagingResource.Buffer.VKBuffer, resource.Buffer.VKBuffer, 1, []vk.BufferCopy{
		{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      vk.DeviceSize(resource.Buffer.Size),
		},
	})
}

// Bytes returns a byte slice representing the mapped memory, which can be
// read from or copied to. The pool memory must be mapped first and the
// resource must not require staging.
func (r *BufferResource) Bytes() []byte {
	if r.RequiresStaging() {
		return nil
	}

	if r.ResourcePool.Memory.Ptr == nil {
		return nil
	}
	const m = 0x7fffffff
	s := r.Allocation.Offset
	e := r.Allocation.Offset + r.Allocation.Size

	data := (*[m]byte)(r.ResourcePool.Memory.Ptr)[s:e]

	return data
}

func (r *BufferResource) Destroy() {
	r.Free()
}

// Free this resource and its associated resources
func (r *BufferResource) Free() {
	if r.StagingResource != nil {
		r.StagingResource.Free()
		r.StagingResource = nil
	}
	if r.Allocation != nil {
		r.ResourcePool.Allocator.Free(r.Allocation)
		r.Allocation = nil
	}
	if r.Buffer.VKBuffer != vk.NullBuffer {
		r.Buffer.Destroy()
	}
}
