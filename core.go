package vkp

import (
	vk "github.com/vulkan-go/vulkan"
)

// CoreConfig carries the application supplied pieces of a Core: how to set
// up the pipeline, how to record a frame, and optional render pass tweaks.
// The same config drives both initial construction and every rebuild, so
// the two can never drift apart.
type CoreConfig struct {
	// DesiredNumSwapchainImages requests a specific image count, zero uses
	// the surface minimum plus one.
	DesiredNumSwapchainImages int

	// ClearColor used when recording render passes
	ClearColor [4]float32

	// ConfigurePipeline populates the pipeline config, shader stages,
	// vertex descriptors and layout. Called once per build, with the
	// extent dependent defaults already applied.
	ConfigurePipeline func(config *GraphicsPipelineConfig, extent vk.Extent2D) error

	// ConfigureRenderPass may adjust the generated render pass info
	ConfigureRenderPass func(renderPass *vk.RenderPassCreateInfo)

	// RecordCommands records the draw commands for one swapchain image.
	// The command buffer is already inside Begin/BeginRenderPass and the
	// pipeline is bound.
	RecordCommands func(cb *CommandBuffer, imageIndex int, core *Core) error
}

// Core is everything whose lifetime is tied to the surface size: the
// swapchain and its images, views, render pass, pipeline, framebuffers and
// per image command buffers. Rebuild tears the whole set down and builds
// it again as one unit, there is no partial rebuild.
type Core struct {
	Connection *Connection
	Config     *CoreConfig

	Swapchain           *Swapchain
	SwapchainImages     []*Image
	SwapchainImageViews []*ImageView

	VKRenderPass vk.RenderPass

	PipelineCache  *PipelineCache
	PipelineConfig *GraphicsPipelineConfig
	Pipeline       *GraphicsPipeline

	Framebuffers   []vk.Framebuffer
	CommandBuffers []*CommandBuffer
}

// NewCore constructs the full size dependent resource set for the
// connection's surface at the given extent.
func NewCore(conn *Connection, config *CoreConfig, extent vk.Extent2D) (*Core, error) {
	core := &Core{
		Connection: conn,
		Config:     config,
	}

	err := core.build(extent, nil)
	if err != nil {
		core.teardown()
		return nil, err
	}
	return core, nil
}

// ImageCount returns the number of swapchain images actually created,
// which may exceed the requested count.
func (c *Core) ImageCount() int {
	return len(c.SwapchainImages)
}

// Extent returns the extent the current resource set was built for.
func (c *Core) Extent() vk.Extent2D {
	return c.Swapchain.Extent
}

// Rebuild replaces the entire resource set for a new extent. The old
// swapchain is handed to the new one so the implementation can recycle
// resources, then destroyed. Drawing must be quiesced first; Rebuild waits
// for the device to go idle.
func (c *Core) Rebuild(extent vk.Extent2D) error {
	err := c.Connection.Device.WaitIdle()
	if err != nil {
		return err
	}

	oldSwapchain := c.Swapchain
	c.Swapchain = nil
	c.teardown()

	err = c.build(extent, oldSwapchain)

	if oldSwapchain != nil {
		oldSwapchain.Destroy()
	}

	if err != nil {
		c.teardown()
		return err
	}
	return nil
}

// build runs the one construction path shared by NewCore and Rebuild.
// Order matters: swapchain, images, views, render pass, pipeline,
// framebuffers, command buffers.
func (c *Core) build(extent vk.Extent2D, oldSwapchain *Swapchain) error {
	conn := c.Connection

	desired := c.Config.DesiredNumSwapchainImages
	if desired == 0 {
		desired = conn.DefaultNumSwapchainImages
	}

	options := &CreateSwapchainOptions{
		ActualSize:                extent,
		DesiredNumSwapchainImages: desired,
		OldSwapchain:              oldSwapchain,
	}

	swapchain, err := conn.Device.CreateSwapchain(conn.VKSurface, conn.GraphicsQueue, conn.PresentQueue, options)
	if err != nil {
		return err
	}
	c.Swapchain = swapchain

	c.SwapchainImages, err = swapchain.GetImages()
	if err != nil {
		return err
	}

	c.SwapchainImageViews = make([]*ImageView, len(c.SwapchainImages))
	for i, image := range c.SwapchainImages {
		view, err := image.CreateImageView()
		if err != nil {
			return err
		}
		c.SwapchainImageViews[i] = view
	}

	err = c.createRenderPass()
	if err != nil {
		return err
	}

	c.PipelineCache, err = conn.Device.CreatePipelineCache()
	if err != nil {
		return err
	}

	err = c.createPipeline()
	if err != nil {
		return err
	}

	err = c.createFramebuffers()
	if err != nil {
		return err
	}

	err = c.createCommandBuffers()
	if err != nil {
		return err
	}

	return c.recordCommandBuffers()
}

// VKRenderPassCreateInfo builds the default single color attachment render
// pass matching the swapchain format.
func (c *Core) VKRenderPassCreateInfo() vk.RenderPassCreateInfo {
	attachmentDescriptions := []vk.AttachmentDescription{{
		Format:         c.Swapchain.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachments := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDescriptions := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachments,
	}}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      subpassDescriptions,
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
}

func (c *Core) createRenderPass() error {
	renderPassCreateInfo := c.VKRenderPassCreateInfo()

	if c.Config.ConfigureRenderPass != nil {
		c.Config.ConfigureRenderPass(&renderPassCreateInfo)
	}

	var renderPass vk.RenderPass

	err := vk.Error(vk.CreateRenderPass(c.Connection.Device.VKDevice, &renderPassCreateInfo, nil, &renderPass))
	if err != nil {
		return setupErr("render pass", err)
	}

	c.VKRenderPass = renderPass

	return nil
}

func (c *Core) createPipeline() error {
	if c.Config.ConfigurePipeline == nil {
		return nil
	}

	config := c.Connection.Device.CreateGraphicsPipelineConfig()
	err := c.Config.ConfigurePipeline(config, c.Swapchain.Extent)
	if err != nil {
		return err
	}
	c.PipelineConfig = config

	createInfo, err := config.VKGraphicsPipelineCreateInfo(c.Swapchain.Extent)
	if err != nil {
		return err
	}
	createInfo.RenderPass = c.VKRenderPass

	pipelines := make([]vk.Pipeline, 1)
	err = vk.Error(vk.CreateGraphicsPipelines(c.Connection.Device.VKDevice, c.PipelineCache.VKPipelineCache,
		1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines))
	if err != nil {
		return setupErr("graphics pipeline", err)
	}

	c.Pipeline = &GraphicsPipeline{Device: c.Connection.Device, VKPipeline: pipelines[0]}
	return nil
}

func (c *Core) createFramebuffers() error {
	c.Framebuffers = make([]vk.Framebuffer, len(c.SwapchainImageViews))
	for i, view := range c.SwapchainImageViews {
		attachments := []vk.ImageView{
			view.VKImageView,
		}
		fbCreateInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      c.VKRenderPass,
			Layers:          1,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           c.Swapchain.Extent.Width,
			Height:          c.Swapchain.Extent.Height,
		}
		err := vk.Error(vk.CreateFramebuffer(c.Connection.Device.VKDevice, &fbCreateInfo, nil, &c.Framebuffers[i]))
		if err != nil {
			return setupErr("framebuffer", err)
		}
	}
	return nil
}

func (c *Core) createCommandBuffers() error {
	var err error
	c.CommandBuffers, err = c.Connection.GraphicsCommandPool.AllocateBuffers(len(c.SwapchainImageViews))
	return err
}

func (c *Core) recordCommandBuffers() error {
	if c.Config.RecordCommands == nil {
		return nil
	}
	for i, cb := range c.CommandBuffers {
		err := c.recordCommandBuffer(cb, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) recordCommandBuffer(cb *CommandBuffer, imageIndex int) error {
	err := cb.Begin()
	if err != nil {
		return setupErr("command buffer", err)
	}

	cb.CmdBeginRenderPass(c.VKRenderPass, c.Framebuffers[imageIndex], c.Swapchain.Extent, c.Config.ClearColor)
	if c.Pipeline != nil {
		cb.CmdBindGraphicsPipeline(c.Pipeline)
	}

	err = c.Config.RecordCommands(cb, imageIndex, c)
	if err != nil {
		return err
	}

	cb.CmdEndRenderPass()
	return cb.End()
}

// RefreshCommandBuffer re-records the command buffer for one image, used
// when per frame resources bound by the recording change.
func (c *Core) RefreshCommandBuffer(imageIndex int) error {
	cb := c.CommandBuffers[imageIndex]
	err := cb.ResetAndRelease()
	if err != nil {
		return err
	}
	return c.recordCommandBuffer(cb, imageIndex)
}

// teardown destroys everything except the swapchain field when it has
// already been taken for old chain inheritance.
func (c *Core) teardown() {
	device := c.Connection.Device

	if c.CommandBuffers != nil {
		c.Connection.GraphicsCommandPool.FreeBuffers(c.CommandBuffers)
		c.CommandBuffers = nil
	}

	for i := range c.Framebuffers {
		vk.DestroyFramebuffer(device.VKDevice, c.Framebuffers[i], nil)
	}
	c.Framebuffers = nil

	if c.Pipeline != nil {
		c.Pipeline.Destroy()
		c.Pipeline = nil
	}
	if c.PipelineConfig != nil {
		c.PipelineConfig.Destroy()
		c.PipelineConfig = nil
	}
	if c.PipelineCache != nil {
		c.PipelineCache.Destroy()
		c.PipelineCache = nil
	}

	if c.VKRenderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(device.VKDevice, c.VKRenderPass, nil)
		c.VKRenderPass = vk.NullRenderPass
	}

	for _, view := range c.SwapchainImageViews {
		view.Destroy()
	}
	c.SwapchainImageViews = nil
	c.SwapchainImages = nil

	if c.Swapchain != nil {
		c.Swapchain.Destroy()
		c.Swapchain = nil
	}
}

// Destroy releases the whole resource set. The device is drained first so
// in flight frames can finish.
func (c *Core) Destroy() {
	c.Connection.Device.WaitIdle()
	c.teardown()
}
