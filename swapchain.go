package vkp

import (
	vk "github.com/vulkan-go/vulkan"
)

type Swapchain struct {
	Extent      vk.Extent2D
	Format      vk.Format
	Device      *Device
	VKSwapchain vk.Swapchain
}

func (s *Swapchain) Destroy() {
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

func (s *Swapchain) GetImages() ([]*Image, error) {
	var imageCount uint32
	err := vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil))
	if err != nil {
		return nil, setupErr("swapchain", err)
	}

	swapchainImages := make([]vk.Image, imageCount)
	err = vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages))
	if err != nil {
		return nil, setupErr("swapchain", err)
	}

	ret := make([]*Image, imageCount)
	for i := range swapchainImages {
		ret[i] = &Image{}
		ret[i].Device = s.Device
		ret[i].VKImage = swapchainImages[i]
		ret[i].VKFormat = s.Format
		ret[i].Extent = s.Extent
	}

	return ret, nil
}

type CreateSwapchainOptions struct {
	OldSwapchain              *Swapchain
	ActualSize                vk.Extent2D
	DesiredNumSwapchainImages int
}

// clampImageCount resolves the number of swapchain images: one more than
// the surface minimum so acquisition never serializes on the presentation
// engine, held below the surface maximum when one exists.
func clampImageCount(desired, min, max uint32) uint32 {
	if desired == 0 {
		desired = min + 1
	}
	if desired < min {
		desired = min
	}
	if max > 0 && desired > max {
		desired = max
	}
	return desired
}

// chooseSwapExtent resolves the extent the swapchain images should have.
// Most platforms report the window size in CurrentExtent; the MaxUint32
// sentinel means the surface takes whatever size we pick, clamped to the
// supported range.
func chooseSwapExtent(caps *vk.SurfaceCapabilities, desired vk.Extent2D) vk.Extent2D {
	caps.CurrentExtent.Deref()
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}

	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	ext := desired
	if ext.Width < caps.MinImageExtent.Width {
		ext.Width = caps.MinImageExtent.Width
	}
	if ext.Width > caps.MaxImageExtent.Width {
		ext.Width = caps.MaxImageExtent.Width
	}
	if ext.Height < caps.MinImageExtent.Height {
		ext.Height = caps.MinImageExtent.Height
	}
	if ext.Height > caps.MaxImageExtent.Height {
		ext.Height = caps.MaxImageExtent.Height
	}
	return ext
}

// chooseCompositeAlpha picks the first composite alpha mode the surface
// supports, in a fixed preference order.
func chooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	candidates := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for _, c := range candidates {
		if supported&vk.CompositeAlphaFlags(c) != 0 {
			return c
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

func (p *Device) DefaultNumSwapchainImages(surface vk.Surface) (int, error) {
	caps, err := p.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return 0, err
	}
	caps.Deref()

	return int(clampImageCount(0, caps.MinImageCount, caps.MaxImageCount)), nil
}

// CreateSwapchain builds a swapchain using the first surface format the
// device reports, FIFO presentation (upgraded to mailbox when available)
// and the first supported composite alpha mode. Passing an OldSwapchain in
// options lets the implementation recycle resources across a rebuild; the
// old chain still belongs to the caller and must be destroyed.
func (p *Device) CreateSwapchain(surface vk.Surface, graphicsQueue, presentQueue *Queue, options *CreateSwapchainOptions) (*Swapchain, error) {

	modes, err := p.PhysicalDevice.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, setupErr("swapchain", err)
	}

	presentMode := vk.PresentModeFifo
	m := modes.Filter(vk.PresentModeMailbox)
	if len(m) > 0 {
		presentMode = m[0]
	}

	formats, err := p.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, setupErr("swapchain", err)
	}
	if len(formats) == 0 {
		return nil, setupErrf("swapchain", "surface reports no formats")
	}

	format := formats[0]
	format.Deref()

	caps, err := p.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, setupErr("swapchain", err)
	}
	caps.Deref()

	var desired vk.Extent2D
	if options != nil {
		desired = options.ActualSize
	}
	swapchainSize := chooseSwapExtent(caps, desired)

	var desiredSwapChainImages uint32
	if options != nil {
		desiredSwapChainImages = uint32(options.DesiredNumSwapchainImages)
	}
	desiredSwapChainImages = clampImageCount(desiredSwapChainImages, caps.MinImageCount, caps.MaxImageCount)

	var swapchain vk.Swapchain

	createInfo := &vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface,
		MinImageCount:   desiredSwapChainImages,
		ImageFormat:     format.Format,
		ImageColorSpace: format.ColorSpace,
		ImageExtent: vk.Extent2D{
			Width:  swapchainSize.Width,
			Height: swapchainSize.Height,
		},
		PresentMode:      presentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   chooseCompositeAlpha(caps.SupportedCompositeAlpha),
		OldSwapchain:     vk.NullSwapchain,
	}

	if options != nil && options.OldSwapchain != nil {
		createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
	}

	if graphicsQueue.QueueFamily.Index != presentQueue.QueueFamily.Index {
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(graphicsQueue.QueueFamily.Index), uint32(presentQueue.QueueFamily.Index)}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
	} else {
		createInfo.QueueFamilyIndexCount = 0
		createInfo.PQueueFamilyIndices = nil
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	err = vk.Error(vk.CreateSwapchain(p.VKDevice, createInfo, nil, &swapchain))
	if err != nil {
		return nil, setupErr("swapchain", err)
	}

	var ret Swapchain
	ret.VKSwapchain = swapchain
	ret.Device = p
	ret.Extent = vk.Extent2D{
		Width:  swapchainSize.Width,
		Height: swapchainSize.Height,
	}
	ret.Format = format.Format

	return &ret, nil

}
