package pipeline

import (
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

// CreateFramebuffers creates one framebuffer per swapchain image view, in
// image order.
func CreateFramebuffers(device core1_0.Device, renderPass core1_0.RenderPass, views []core1_0.ImageView, extent core1_0.Extent2D) ([]core1_0.Framebuffer, error) {
	var framebuffers []core1_0.Framebuffer
	for i, view := range views {
		framebuffer, _, err := device.CreateFramebuffer(nil, FramebufferCreateInfo(renderPass, view, extent))
		if err != nil {
			DestroyFramebuffers(framebuffers)
			return nil, vkerr.Fatal(err, "create framebuffer %d", i)
		}

		framebuffers = append(framebuffers, framebuffer)
	}

	return framebuffers, nil
}

func DestroyFramebuffers(framebuffers []core1_0.Framebuffer) {
	for _, framebuffer := range framebuffers {
		framebuffer.Destroy(nil)
	}
}
