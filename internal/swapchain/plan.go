package swapchain

import (
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"

	"github.com/vkngwrapper/frame-presenter/internal/device"
)

// Plan is every negotiated swapchain parameter, derived from the surface's
// capabilities before anything is created.
type Plan struct {
	Format      khr_surface.SurfaceFormat
	PresentMode khr_surface.PresentMode
	Extent      core1_0.Extent2D
	ImageCount  int

	SharingMode        core1_0.SharingMode
	QueueFamilyIndices []int
}

// NewPlan negotiates against support. framebufferWidth and framebufferHeight
// are only consulted when the surface leaves the extent to the client.
func NewPlan(support device.SurfaceSupport, graphicsFamily, presentFamily int, framebufferWidth, framebufferHeight int) Plan {
	plan := Plan{
		Format:      ChooseSurfaceFormat(support.Formats),
		PresentMode: ChoosePresentMode(support.PresentModes),
		Extent:      ChooseExtent(support.Capabilities, framebufferWidth, framebufferHeight),
		ImageCount:  ChooseImageCount(support.Capabilities),
	}
	plan.SharingMode, plan.QueueFamilyIndices = ChooseSharingMode(graphicsFamily, presentFamily)

	return plan
}

// ChooseSurfaceFormat prefers 8-bit BGRA sRGB, falling back to the first
// format the surface reports.
func ChooseSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

// ChoosePresentMode prefers mailbox; FIFO is always available.
func ChoosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// ChooseExtent uses the surface's current extent unless it reports the
// "undefined" sentinel, in which case the framebuffer size clamped to the
// capability bounds is used.
func ChooseExtent(capabilities *khr_surface.SurfaceCapabilities, framebufferWidth, framebufferHeight int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(framebufferWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(framebufferHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image beyond the minimum, capped by a nonzero maximum.
func ChooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}

	return imageCount
}

// ChooseSharingMode shares images concurrently only when drawing and
// presenting happen on different queue families.
func ChooseSharingMode(graphicsFamily, presentFamily int) (core1_0.SharingMode, []int) {
	if graphicsFamily != presentFamily {
		return core1_0.SharingModeConcurrent, []int{graphicsFamily, presentFamily}
	}

	return core1_0.SharingModeExclusive, nil
}

func clamp(value, low, high int) int {
	if value < low {
		value = low
	}
	if value > high {
		value = high
	}
	return value
}
