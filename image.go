package vkp

import (
	vk "github.com/vulkan-go/vulkan"
)

type Image struct {
	Device   *Device
	VKImage  vk.Image
	VKFormat vk.Format
	Extent   vk.Extent2D
	Size     uint64
}

func (i *Image) VKMemoryRequirements() vk.MemoryRequirements {
	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(i.Device.VKDevice, i.VKImage, &memRequirements)
	return memRequirements
}

func (d *Device) CreateImage(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags) (*Image, error) {
	var imageInfo = vk.ImageCreateInfo{}
	imageInfo.SType = vk.StructureTypeImageCreateInfo
	imageInfo.ImageType = vk.ImageType2d
	imageInfo.Extent.Width = extent.Width
	imageInfo.Extent.Height = extent.Height
	imageInfo.Extent.Depth = 1
	imageInfo.MipLevels = 1
	imageInfo.ArrayLayers = 1
	imageInfo.Format = format
	imageInfo.Tiling = tiling
	imageInfo.InitialLayout = vk.ImageLayoutUndefined
	imageInfo.Usage = usage
	imageInfo.Samples = vk.SampleCount1Bit
	imageInfo.SharingMode = vk.SharingModeExclusive

	var image vk.Image

	err := vk.Error(vk.CreateImage(d.VKDevice, &imageInfo, nil, &image))
	if err != nil {
		return nil, setupErr("image", err)
	}

	var ret Image

	ret.Device = d
	ret.VKImage = image
	ret.VKFormat = format
	ret.Extent = extent

	return &ret, nil
}

func (d *Device) CreateImageWithOptions(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlagBits) (*Image, error) {
	return d.CreateImage(extent, format, tiling, vk.ImageUsageFlags(usage))
}

// BoundImage is an image with its own dedicated device memory allocation.
type BoundImage struct {
	Image
	DeviceMemory *DeviceMemory
}

func (d *Device) CreateBoundImage(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, props vk.MemoryPropertyFlagBits) (*BoundImage, error) {
	i, err := d.CreateImage(extent, format, tiling, usage)
	if err != nil {
		return nil, err
	}

	mr := i.VKMemoryRequirements()

	mr.Deref()

	mem, err := d.Allocate(int(mr.Size), mr.MemoryTypeBits, props)
	if err != nil {
		i.Destroy()
		return nil, err
	}

	boundImage := &BoundImage{}

	boundImage.Device = d
	boundImage.VKImage = i.VKImage
	boundImage.DeviceMemory = mem
	boundImage.VKFormat = i.VKFormat
	boundImage.Extent = extent
	boundImage.Size = uint64(mr.Size)

	err = vk.Error(vk.BindImageMemory(d.VKDevice, i.VKImage, mem.VKDeviceMemory, 0))
	if err != nil {
		mem.Destroy()
		i.Destroy()
		return nil, setupErr("image", err)
	}

	return boundImage, nil

}

func (b *BoundImage) Destroy() {
	b.Image.Destroy()
	if b.DeviceMemory != nil {
		b.DeviceMemory.Destroy()
		b.DeviceMemory = nil
	}
}

// CmdTransitionImageLayout records a pipeline barrier moving image between
// the layout pairs this package renders and reads back with.
func (cb *CommandBuffer) CmdTransitionImageLayout(image vk.Image, oldLayout, newLayout vk.ImageLayout) {
	var barrier = vk.ImageMemoryBarrier{}
	barrier.SType = vk.StructureTypeImageMemoryBarrier
	barrier.OldLayout = oldLayout
	barrier.NewLayout = newLayout
	barrier.SrcQueueFamilyIndex = vk.QueueFamilyIgnored
	barrier.DstQueueFamilyIndex = vk.QueueFamilyIgnored
	barrier.Image = image
	barrier.SubresourceRange.AspectMask = vk.ImageAspectFlags(vk.ImageAspectColorBit)
	barrier.SubresourceRange.BaseMipLevel = 0
	barrier.SubresourceRange.LevelCount = 1
	barrier.SubresourceRange.BaseArrayLayer = 0
	barrier.SubresourceRange.LayerCount = 1

	var sourceStage, destStage vk.PipelineStageFlags

	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)

		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)

	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutGeneral:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderWriteBit)

		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)

	case oldLayout == vk.ImageLayoutColorAttachmentOptimal && newLayout == vk.ImageLayoutTransferSrcOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)

		sourceStage = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)

	case oldLayout == vk.ImageLayoutGeneral && newLayout == vk.ImageLayoutTransferSrcOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessShaderWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)

		sourceStage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)

	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)

		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)

	default:
		sourceStage = vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	}

	vk.CmdPipelineBarrier(cb.VK(), sourceStage, destStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

}

// CmdCopyImageToBuffer records a tightly packed copy of the image contents
// into buffer. The image must be in TransferSrcOptimal layout.
func (cb *CommandBuffer) CmdCopyImageToBuffer(image *Image, buffer *Buffer) {
	vk.CmdCopyImageToBuffer(cb.VK(), image.VKImage, vk.ImageLayoutTransferSrcOptimal, buffer.VKBuffer, 1, []vk.BufferImageCopy{
		{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: vk.Offset3D{},
			ImageExtent: vk.Extent3D{
				Width: image.Extent.Width, Height: image.Extent.Height, Depth: 1,
			},
		},
	})
}

func (i *Image) Destroy() {
	vk.DestroyImage(i.Device.VKDevice, i.VKImage, nil)
}
