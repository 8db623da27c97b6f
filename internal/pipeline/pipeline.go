// Package pipeline owns the fixed-function description of how the mesh is
// drawn: the render pass, the descriptor layout for the per-image uniforms,
// the pipeline layout and the graphics pipeline itself.
package pipeline

import (
	"log"

	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/frame-presenter/internal/device"
	"github.com/vkngwrapper/frame-presenter/internal/shaders"
	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

// Pipeline holds the objects that depend on the swapchain's format and extent
// and are therefore rebuilt with it.
type Pipeline struct {
	RenderPass core1_0.RenderPass
	Layout     core1_0.PipelineLayout
	Pipeline   core1_0.Pipeline

	Format core1_0.Format
	Extent core1_0.Extent2D
}

func (p *Pipeline) DestroyPipeline() {
	if p.Pipeline != nil {
		p.Pipeline.Destroy(nil)
		p.Pipeline = nil
	}
}

func (p *Pipeline) DestroyLayout() {
	if p.Layout != nil {
		p.Layout.Destroy(nil)
		p.Layout = nil
	}
}

func (p *Pipeline) DestroyRenderPass() {
	if p.RenderPass != nil {
		p.RenderPass.Destroy(nil)
		p.RenderPass = nil
	}
}

// Destroy releases the pipeline, its layout and the render pass in that order.
func (p *Pipeline) Destroy() {
	p.DestroyPipeline()
	p.DestroyLayout()
	p.DestroyRenderPass()
}

// Builder creates pipelines for a device. The descriptor set layout does not
// depend on the swapchain and outlives every pipeline built from it.
type Builder struct {
	device  core1_0.Device
	shaders *shaders.Set
	cache   *Cache

	DescriptorSetLayout core1_0.DescriptorSetLayout
}

func NewBuilder(ctx *device.Context, set *shaders.Set, cache *Cache) (*Builder, error) {
	layout, _, err := ctx.Device.CreateDescriptorSetLayout(nil, DescriptorSetLayoutCreateInfo())
	if err != nil {
		return nil, vkerr.Fatal(err, "create descriptor set layout")
	}

	return &Builder{
		device:              ctx.Device,
		shaders:             set,
		cache:               cache,
		DescriptorSetLayout: layout,
	}, nil
}

// Build creates the render pass, pipeline layout and graphics pipeline for
// the given surface format and extent. On failure everything created so far
// is released.
func (b *Builder) Build(format core1_0.Format, extent core1_0.Extent2D) (*Pipeline, error) {
	p := &Pipeline{Format: format, Extent: extent}

	var err error
	p.RenderPass, _, err = b.device.CreateRenderPass(nil, RenderPassCreateInfo(format))
	if err != nil {
		return nil, vkerr.Fatal(err, "create render pass")
	}

	p.Layout, _, err = b.device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{
			b.DescriptorSetLayout,
		},
	})
	if err != nil {
		p.Destroy()
		return nil, vkerr.Fatal(err, "create pipeline layout")
	}

	vertShader, _, err := b.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: b.shaders.Vertex,
	})
	if err != nil {
		p.Destroy()
		return nil, vkerr.Fatal(err, "create vertex shader module")
	}
	defer vertShader.Destroy(nil)

	fragShader, _, err := b.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: b.shaders.Fragment,
	})
	if err != nil {
		p.Destroy()
		return nil, vkerr.Fatal(err, "create fragment shader module")
	}
	defer fragShader.Destroy(nil)

	var cache core1_0.PipelineCache
	if b.cache != nil {
		cache = b.cache.Handle
	}

	start := hrtime.Now()
	pipelines, _, err := b.device.CreateGraphicsPipelines(cache, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: vertShader,
					Name:   shaders.EntryPoint,
				},
				{
					Stage:  core1_0.StageFragment,
					Module: fragShader,
					Name:   shaders.EntryPoint,
				},
			},
			VertexInputState:   VertexInputState(),
			InputAssemblyState: InputAssemblyState(),
			ViewportState:      ViewportState(extent),
			RasterizationState: RasterizationState(),
			MultisampleState:   MultisampleState(),
			ColorBlendState:    ColorBlendState(),
			Layout:             p.Layout,
			RenderPass:         p.RenderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	})
	if err != nil {
		p.Destroy()
		return nil, vkerr.Fatal(err, "create graphics pipeline")
	}
	p.Pipeline = pipelines[0]

	log.Printf("graphics pipeline for %dx%d built in %s\n", extent.Width, extent.Height, hrtime.Since(start))

	return p, nil
}

func (b *Builder) Destroy() {
	if b.DescriptorSetLayout != nil {
		b.DescriptorSetLayout.Destroy(nil)
		b.DescriptorSetLayout = nil
	}
}
