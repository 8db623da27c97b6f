package renderer

import (
	"time"

	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/frame-presenter/internal/frame"
	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

type fence struct {
	device core1_0.Device
	handle core1_0.Fence
}

func (f *fence) Wait() error {
	_, err := f.device.WaitForFences(true, common.NoTimeout, []core1_0.Fence{f.handle})
	return err
}

func (f *fence) Reset() error {
	_, err := f.device.ResetFences([]core1_0.Fence{f.handle})
	return err
}

func (f *fence) Destroy() {
	f.handle.Destroy(nil)
}

type semaphore struct {
	handle core1_0.Semaphore
}

func (s *semaphore) Destroy() {
	s.handle.Destroy(nil)
}

type syncFactory struct {
	device core1_0.Device
}

func (f *syncFactory) NewSemaphore() (frame.Semaphore, error) {
	handle, _, err := f.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, vkerr.Fatal(err, "create semaphore")
	}
	return &semaphore{handle: handle}, nil
}

func (f *syncFactory) NewFence(signaled bool) (frame.Fence, error) {
	var options core1_0.FenceCreateInfo
	if signaled {
		options.Flags = core1_0.FenceCreateSignaled
	}

	handle, _, err := f.device.CreateFence(nil, options)
	if err != nil {
		return nil, vkerr.Fatal(err, "create fence")
	}
	return &fence{device: f.device, handle: handle}, nil
}

func (r *Renderer) ImageCount() int {
	return r.swapchains.Current().ImageCount()
}

func (r *Renderer) AcquireNextImage(signal frame.Semaphore) (int, error) {
	imageIndex, res, err := r.swapchains.Current().Handle.AcquireNextImage(common.NoTimeout, signal.(*semaphore).handle, nil)
	if err := vkerr.Surface(res, err, "acquire next image"); err != nil {
		return -1, err
	}
	return imageIndex, nil
}

func (r *Renderer) UpdateUniforms(image int, elapsed time.Duration) error {
	extent := r.swapchains.Current().Extent
	aspectRatio := float32(extent.Width) / float32(extent.Height)

	ubo := r.transform(elapsed, aspectRatio)
	return r.uniforms.Write(image, &ubo)
}

func (r *Renderer) Submit(image int, wait, signal frame.Semaphore, inFlight frame.Fence) error {
	_, err := r.ctx.GraphicsQueue.Submit(inFlight.(*fence).handle, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{wait.(*semaphore).handle},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{r.commands.Buffers[image]},
			SignalSemaphores: []core1_0.Semaphore{signal.(*semaphore).handle},
		},
	})
	return vkerr.Fatal(err, "submit image %d", image)
}

func (r *Renderer) Present(image int, wait frame.Semaphore) error {
	res, err := r.swapchains.Extension().QueuePresent(r.ctx.PresentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait.(*semaphore).handle},
		Swapchains:     []khr_swapchain.Swapchain{r.swapchains.Current().Handle},
		ImageIndices:   []int{image},
	})
	return vkerr.Surface(res, err, "present image %d", image)
}
