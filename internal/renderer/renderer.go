// Package renderer is the single owner of every GPU object the presenter
// creates. It builds them in dependency order, rebuilds the swapchain-bound
// ones when the surface goes stale and tears everything down in reverse.
package renderer

import (
	"log"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"

	"github.com/vkngwrapper/frame-presenter/internal/config"
	"github.com/vkngwrapper/frame-presenter/internal/device"
	"github.com/vkngwrapper/frame-presenter/internal/frame"
	"github.com/vkngwrapper/frame-presenter/internal/geometry"
	"github.com/vkngwrapper/frame-presenter/internal/pipeline"
	"github.com/vkngwrapper/frame-presenter/internal/resources"
	"github.com/vkngwrapper/frame-presenter/internal/shaders"
	"github.com/vkngwrapper/frame-presenter/internal/swapchain"
)

// Window is what the renderer needs from the windowing collaborator.
type Window interface {
	frame.Window
	swapchain.FramebufferSizer
}

// Assets are the static inputs of a renderer.
type Assets struct {
	Shaders   *shaders.Set
	Mesh      *geometry.Mesh
	Transform geometry.TransformFunc
}

type Renderer struct {
	window    Window
	surface   khr_surface.Surface
	transform geometry.TransformFunc

	ctx        *device.Context
	swapchains *swapchain.Manager
	cache      *pipeline.Cache
	builder    *pipeline.Builder
	allocator  *resources.Allocator

	commandPool core1_0.CommandPool
	mesh        *resources.MeshBuffers

	// Rebuilt with the swapchain.
	pipeline     *pipeline.Pipeline
	framebuffers []core1_0.Framebuffer
	uniforms     *resources.UniformBuffers
	descriptors  *resources.Descriptors
	commands     *resources.DrawCommands

	scheduler *frame.Scheduler
}

// New selects a device for surface and builds everything needed to draw
// assets into it. The renderer takes ownership of the surface.
func New(cfg config.Config, instance core1_0.Instance, surface khr_surface.Surface, window Window, assets Assets) (*Renderer, error) {
	r := &Renderer{
		window:    window,
		surface:   surface,
		transform: assets.Transform,
	}
	if r.transform == nil {
		r.transform = geometry.Spin
	}

	var err error
	r.ctx, err = device.Select(instance, surface)
	if err != nil {
		return nil, err
	}

	r.swapchains = swapchain.NewManager(r.ctx, surface, window)
	_, err = r.swapchains.Create()
	if err != nil {
		return nil, err
	}

	r.cache, err = pipeline.OpenCache(r.ctx.Device, r.ctx.Properties, cfg.PipelineCachePath)
	if err != nil {
		return nil, err
	}

	r.builder, err = pipeline.NewBuilder(r.ctx, assets.Shaders, r.cache)
	if err != nil {
		return nil, err
	}

	r.commandPool, err = resources.CreateCommandPool(r.ctx)
	if err != nil {
		return nil, err
	}

	r.allocator = resources.NewAllocator(r.ctx, r.commandPool)
	r.mesh, err = r.allocator.UploadMesh(assets.Mesh)
	if err != nil {
		return nil, err
	}

	err = r.createSwapchainObjects()
	if err != nil {
		return nil, err
	}

	r.scheduler, err = frame.New(r, &syncFactory{device: r.ctx.Device}, frame.Options{
		FramesInFlight: cfg.FramesInFlight,
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// createSwapchainObjects builds everything that depends on the current
// swapchain's format, extent or image count.
func (r *Renderer) createSwapchainObjects() error {
	sc := r.swapchains.Current()

	var err error
	r.pipeline, err = r.builder.Build(sc.Format, sc.Extent)
	if err != nil {
		return err
	}

	r.framebuffers, err = pipeline.CreateFramebuffers(r.ctx.Device, r.pipeline.RenderPass, sc.ImageViews, sc.Extent)
	if err != nil {
		return err
	}

	r.uniforms, err = r.allocator.CreateUniformBuffers(sc.ImageCount())
	if err != nil {
		return err
	}

	r.descriptors, err = resources.CreateDescriptors(r.ctx.Device, r.builder.DescriptorSetLayout, r.uniforms)
	if err != nil {
		return err
	}

	r.commands, err = resources.RecordDrawCommands(r.ctx.Device, r.commandPool, r.pipeline, r.framebuffers, r.mesh, r.descriptors)
	return err
}

// destroySwapchainObjects releases what createSwapchainObjects built, newest
// first.
func (r *Renderer) destroySwapchainObjects() {
	r.commands.Free()
	r.commands = nil

	r.descriptors.Destroy()
	r.descriptors = nil

	r.uniforms.Destroy()
	r.uniforms = nil

	pipeline.DestroyFramebuffers(r.framebuffers)
	r.framebuffers = nil

	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}
}

// Recreate waits for the device to go idle, then rebuilds the swapchain and
// everything derived from it. While the window has no drawable area it
// reports false and leaves the current objects in place.
func (r *Renderer) Recreate() (bool, error) {
	width, height := r.window.FramebufferSize()
	if width == 0 || height == 0 {
		return false, nil
	}

	err := r.ctx.WaitIdle()
	if err != nil {
		return false, err
	}

	r.destroySwapchainObjects()

	sc, err := r.swapchains.Recreate()
	if err != nil {
		return false, err
	}

	err = r.createSwapchainObjects()
	if err != nil {
		return false, err
	}

	log.Printf("renderer: recreated for %dx%d\n", sc.Extent.Width, sc.Extent.Height)
	return true, nil
}

// Run drives the frame loop until the window closes.
func (r *Renderer) Run() error {
	return r.scheduler.Run(r.window)
}

func (r *Renderer) Stats() frame.Stats {
	return r.scheduler.Stats()
}

// Extent is the extent of the current swapchain and of the pipeline and
// framebuffers built for it.
func (r *Renderer) Extent() core1_0.Extent2D {
	return r.swapchains.Current().Extent
}
