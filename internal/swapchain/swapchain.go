// Package swapchain builds, tears down and rebuilds the ring of presentable
// images negotiated with the window surface.
package swapchain

import (
	"log"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/frame-presenter/internal/device"
	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

type Swapchain struct {
	Handle        khr_swapchain.Swapchain
	Images        []core1_0.Image
	ImageViews    []core1_0.ImageView
	Format        core1_0.Format
	SurfaceFormat khr_surface.SurfaceFormat
	PresentMode   khr_surface.PresentMode
	Extent        core1_0.Extent2D
}

func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

// FramebufferSizer reports the window's drawable size in pixels.
type FramebufferSizer interface {
	FramebufferSize() (int, int)
}

// Manager exclusively owns the current swapchain. It borrows the device
// context and the surface.
type Manager struct {
	ctx       *device.Context
	surface   khr_surface.Surface
	window    FramebufferSizer
	extension khr_swapchain.Extension

	current *Swapchain
}

func NewManager(ctx *device.Context, surface khr_surface.Surface, window FramebufferSizer) *Manager {
	return &Manager{
		ctx:       ctx,
		surface:   surface,
		window:    window,
		extension: khr_swapchain.CreateExtensionFromDevice(ctx.Device),
	}
}

func (m *Manager) Extension() khr_swapchain.Extension {
	return m.extension
}

func (m *Manager) Current() *Swapchain {
	return m.current
}

// Create negotiates a plan against the surface's current capabilities and
// builds the swapchain and one view per image.
func (m *Manager) Create() (*Swapchain, error) {
	support, err := device.QuerySurfaceSupport(m.ctx.PhysicalDevice, m.surface)
	if err != nil {
		return nil, vkerr.Fatal(err, "query surface support")
	}
	if !support.Adequate() {
		return nil, vkerr.Fatalf("surface reports no formats or present modes")
	}

	width, height := m.window.FramebufferSize()
	plan := NewPlan(support, m.ctx.GraphicsFamily, m.ctx.PresentFamily, width, height)

	handle, _, err := m.extension.CreateSwapchain(m.ctx.Device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: m.surface,

		MinImageCount:    plan.ImageCount,
		ImageFormat:      plan.Format.Format,
		ImageColorSpace:  plan.Format.ColorSpace,
		ImageExtent:      plan.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   plan.SharingMode,
		QueueFamilyIndices: plan.QueueFamilyIndices,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    plan.PresentMode,
		Clipped:        true,
	})
	if err != nil {
		return nil, vkerr.Fatal(err, "create swapchain")
	}

	swapchain := &Swapchain{
		Handle:        handle,
		Format:        plan.Format.Format,
		SurfaceFormat: plan.Format,
		PresentMode:   plan.PresentMode,
		Extent:        plan.Extent,
	}
	m.current = swapchain

	swapchain.Images, _, err = handle.SwapchainImages()
	if err != nil {
		return nil, vkerr.Fatal(err, "get swapchain images")
	}

	for _, image := range swapchain.Images {
		view, _, err := m.ctx.Device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   swapchain.Format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return nil, vkerr.Fatal(err, "create swapchain image view")
		}

		swapchain.ImageViews = append(swapchain.ImageViews, view)
	}

	log.Printf("swapchain: %dx%d, %d images, format %s, present mode %s",
		swapchain.Extent.Width, swapchain.Extent.Height, len(swapchain.Images), swapchain.Format, swapchain.PresentMode)

	return swapchain, nil
}

// DestroyViews releases the per-image views; the images belong to the swapchain.
func (m *Manager) DestroyViews() {
	if m.current == nil {
		return
	}

	for _, imageView := range m.current.ImageViews {
		imageView.Destroy(nil)
	}
	m.current.ImageViews = nil
}

// Destroy releases the views and the swapchain itself. The caller must have
// waited for the device to go idle.
func (m *Manager) Destroy() {
	if m.current == nil {
		return
	}

	m.DestroyViews()
	if m.current.Handle != nil {
		m.current.Handle.Destroy(nil)
	}
	m.current = nil
}

// Recreate is Destroy followed by Create against fresh surface capabilities.
func (m *Manager) Recreate() (*Swapchain, error) {
	m.Destroy()
	return m.Create()
}
