package vkp

import (
	vk "github.com/vulkan-go/vulkan"
)

type GraphicsPipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
}

func (g *GraphicsPipeline) Destroy() {
	vk.DestroyPipeline(g.Device.VKDevice, g.VKPipeline, nil)
}

type ComputePipeline struct {
	Device                          *Device
	VKPipeline                      vk.Pipeline
	VKPipelineShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
	VKPipelineLayout                vk.PipelineLayout
}

func (c *ComputePipeline) Destroy() {
	vk.DestroyPipeline(c.Device.VKDevice, c.VKPipeline, nil)
}

type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	var pipelineCacheCreate = vk.PipelineCacheCreateInfo{}
	pipelineCacheCreate.SType = vk.StructureTypePipelineCacheCreateInfo

	var pipelineCache vk.PipelineCache

	err := vk.Error(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache))
	if err != nil {
		return nil, setupErr("pipeline cache", err)
	}

	var ret PipelineCache
	ret.Device = d
	ret.VKPipelineCache = pipelineCache
	return &ret, nil
}

func (p *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(p.Device.VKDevice, p.VKPipelineCache, nil)
}

func (c *ComputePipeline) SetPipelineLayout(layout *PipelineLayout) {
	c.VKPipelineLayout = layout.VKPipelineLayout
}

func (c *ComputePipeline) SetShaderStage(entryPoint string, shaderModule *ShaderModule) {
	c.VKPipelineShaderStageCreateInfo = shaderModule.VKPipelineShaderStageCreateInfo(vk.ShaderStageComputeBit, entryPoint)
}

func (d *Device) CreateComputePipelines(pc *PipelineCache, cp ...*ComputePipeline) error {

	pipelines := make([]vk.Pipeline, len(cp))

	ci := make([]vk.ComputePipelineCreateInfo, len(cp))

	for i, p := range cp {
		var pipelineCreateInfo = vk.ComputePipelineCreateInfo{}
		pipelineCreateInfo.SType = vk.StructureTypeComputePipelineCreateInfo
		pipelineCreateInfo.Stage = p.VKPipelineShaderStageCreateInfo
		pipelineCreateInfo.Layout = p.VKPipelineLayout
		ci[i] = pipelineCreateInfo
	}

	err := vk.Error(vk.CreateComputePipelines(
		d.VKDevice, pc.VKPipelineCache,
		uint32(len(ci)), ci,
		nil, pipelines))

	if err != nil {
		return setupErr("compute pipeline", err)
	}

	for i := range pipelines {
		cp[i].Device = d
		cp[i].VKPipeline = pipelines[i]
	}

	return nil

}

// CreateGraphicsPipeline builds a single graphics pipeline from a completed
// config, a render pass and the extent the pipeline viewport should cover.
func (d *Device) CreateGraphicsPipeline(config *GraphicsPipelineConfig, renderPass vk.RenderPass, extent vk.Extent2D) (*GraphicsPipeline, error) {

	createInfo, err := config.VKGraphicsPipelineCreateInfo(extent)
	if err != nil {
		return nil, err
	}
	createInfo.RenderPass = renderPass

	pipelines := make([]vk.Pipeline, 1)

	err = vk.Error(vk.CreateGraphicsPipelines(d.VKDevice, vk.NullPipelineCache,
		1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines))
	if err != nil {
		return nil, setupErr("graphics pipeline", err)
	}

	return &GraphicsPipeline{Device: d, VKPipeline: pipelines[0]}, nil
}
