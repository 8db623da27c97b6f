// Package window is the SDL2 windowing collaborator: it owns the native
// window, pumps its events once per loop iteration and hands out the Vulkan
// surface the presentation pipeline draws into.
package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
)

type Window struct {
	window *sdl.Window

	closed    bool
	minimized bool
	resized   bool
}

// Open initializes SDL video and creates a resizable Vulkan-capable window.
// SDL must be driven from the thread that called Open.
func Open(title string, width, height int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	return &Window{window: window}, nil
}

func (w *Window) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

func (w *Window) RequiredExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

func (w *Window) CreateSurface(instance core1_0.Instance) (khr_surface.Surface, error) {
	surfaceLoader := khr_surface.CreateExtensionFromInstance(instance)

	surface, err := vkng_sdl2.CreateSurface(instance, surfaceLoader, w.window)
	if err != nil {
		return nil, errors.Wrap(err, "create surface")
	}
	return surface, nil
}

// PollEvents drains the SDL event queue.
func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			w.closed = true
		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_MINIMIZED:
				w.minimized = true
			case sdl.WINDOWEVENT_RESTORED:
				w.minimized = false
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
				w.resized = true
			}
		}
	}
}

func (w *Window) ShouldClose() bool {
	return w.closed
}

// Paused reports whether there is nothing visible to draw into.
func (w *Window) Paused() bool {
	if w.minimized {
		return true
	}
	width, height := w.FramebufferSize()
	return width == 0 || height == 0
}

// TakeResized reports a resize seen since the last call.
func (w *Window) TakeResized() bool {
	resized := w.resized
	w.resized = false
	return resized
}

func (w *Window) FramebufferSize() (int, int) {
	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

// Wait blocks briefly while paused so the loop does not spin.
func (w *Window) Wait() {
	sdl.Delay(16)
}

func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
