package vkp

import (
	vk "github.com/vulkan-go/vulkan"
)

// HostBoundBuffer pairs a buffer with host visible memory and the object
// whose bytes it carries. Map() re-copies the object into the buffer, which
// is how per frame uniform data gets to the device.
type HostBoundBuffer struct {
	HostBuffer       *Buffer
	HostMemory       *DeviceMemory
	HostMemoryOffset uint64
	BufferObject     BufferObject
}

func (d *Device) CreateHostVertexBuffer(bo BufferObject, sharingMode vk.SharingMode) (*HostBoundBuffer, error) {
	return d.createHostBuffer(bo, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), sharingMode)
}

func (d *Device) CreateHostUniformBuffer(bo BufferObject, sharingMode vk.SharingMode) (*HostBoundBuffer, error) {
	return d.createHostBuffer(bo, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), sharingMode)
}

func (d *Device) createHostBuffer(bo BufferObject, usage vk.BufferUsageFlags, sharingMode vk.SharingMode) (*HostBoundBuffer, error) {
	buffer, dmemory, err := d.CreateAndBindBufferAndMemory(uint64(len(bo.Bytes())), 0, usage,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit, sharingMode)

	if err != nil {
		return nil, err
	}

	hbb := &HostBoundBuffer{
		HostBuffer:       buffer,
		HostMemory:       dmemory,
		HostMemoryOffset: 0,
		BufferObject:     bo,
	}

	return hbb, nil
}

// CreateAndBindBufferAndMemory creates a buffer, allocates memory matching
// its requirements and binds the two together.
func (d *Device) CreateAndBindBufferAndMemory(size uint64, offset uint64, usage vk.BufferUsageFlags, mprops vk.MemoryPropertyFlagBits, sharing vk.SharingMode) (*Buffer, *DeviceMemory, error) {

	buffer, err := d.CreateBufferWithOptions(size, usage, sharing)
	if err != nil {
		return nil, nil, err
	}
	memory, err := d.AllocateForBuffer(buffer, mprops)
	if err != nil {
		buffer.Destroy()
		return nil, nil, err
	}
	err = buffer.Bind(memory, offset)
	if err != nil {
		memory.Destroy()
		buffer.Destroy()
		return nil, nil, setupErr("buffer", err)
	}
	return buffer, memory, nil
}

// Map copies the current bytes of the bound object into the host buffer.
func (h *HostBoundBuffer) Map() error {
	data := h.BufferObject.Bytes()

	pm, err := h.HostMemory.MapWithSize(len(data))
	if err != nil {
		return err
	}

	const m = 0x7fffffff
	outData := (*[m]byte)(pm)[:len(data)]

	copy(outData, data)

	h.HostMemory.Unmap()

	return nil
}

func (h *HostBoundBuffer) Destroy() {
	if h.HostMemory != nil {
		h.HostMemory.Destroy()
	}
	if h.HostBuffer != nil {
		h.HostBuffer.Destroy()
	}
}
