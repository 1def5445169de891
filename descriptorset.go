package vkp

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSet is a binding of resources to a descriptor, per a specific DescriptorSetLayout
type DescriptorSet struct {
	Device                *Device
	DescriptorPool        *DescriptorPool
	VKDescriptorSet       vk.DescriptorSet
	VKWriteDescriptorSets []vk.WriteDescriptorSet
}

func (d *Device) NewDescriptorSet() *DescriptorSet {
	return &DescriptorSet{Device: d}
}

// AddBuffer adds a specific buffer to this descriptor set
func (du *DescriptorSet) AddBuffer(dstBinding int, dtype vk.DescriptorType, b *Buffer, offset int) {
	var descriptorBufferInfo = vk.DescriptorBufferInfo{}
	descriptorBufferInfo.Buffer = b.VKBuffer
	descriptorBufferInfo.Offset = vk.DeviceSize(offset)
	descriptorBufferInfo.Range = vk.DeviceSize(b.Size)

	var writeDescriptorSet = vk.WriteDescriptorSet{}
	writeDescriptorSet.SType = vk.StructureTypeWriteDescriptorSet
	writeDescriptorSet.DstBinding = uint32(dstBinding)
	writeDescriptorSet.DescriptorCount = 1
	writeDescriptorSet.DescriptorType = dtype
	writeDescriptorSet.PBufferInfo = []vk.DescriptorBufferInfo{descriptorBufferInfo}

	if du.VKWriteDescriptorSets == nil {
		du.VKWriteDescriptorSets = make([]vk.WriteDescriptorSet, 0)
	}
	du.VKWriteDescriptorSets = append(du.VKWriteDescriptorSets, writeDescriptorSet)
}

// AddStorageImage adds an image view as a storage image binding, used by
// compute shaders writing pixels directly.
func (du *DescriptorSet) AddStorageImage(dstBinding int, layout vk.ImageLayout, imageView vk.ImageView) {

	var descriptorImageInfo = vk.DescriptorImageInfo{}
	descriptorImageInfo.ImageView = imageView
	descriptorImageInfo.ImageLayout = layout

	var writeDescriptorSet = vk.WriteDescriptorSet{}
	writeDescriptorSet.SType = vk.StructureTypeWriteDescriptorSet
	writeDescriptorSet.DstBinding = uint32(dstBinding)
	writeDescriptorSet.DescriptorCount = 1
	writeDescriptorSet.DescriptorType = vk.DescriptorTypeStorageImage
	writeDescriptorSet.PImageInfo = []vk.DescriptorImageInfo{descriptorImageInfo}

	if du.VKWriteDescriptorSets == nil {
		du.VKWriteDescriptorSets = make([]vk.WriteDescriptorSet, 0)
	}
	du.VKWriteDescriptorSets = append(du.VKWriteDescriptorSets, writeDescriptorSet)

}

// Write modifies the descriptor set
func (du *DescriptorSet) Write() {
	for i := range du.VKWriteDescriptorSets {
		du.VKWriteDescriptorSets[i].DstSet = du.VKDescriptorSet
	}
	vk.UpdateDescriptorSets(du.Device.VKDevice, uint32(len(du.VKWriteDescriptorSets)), du.VKWriteDescriptorSets, 0, nil)
}
