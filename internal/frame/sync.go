package frame

import "time"

// Fence is a GPU to CPU completion signal.
type Fence interface {
	// Wait blocks until the fence is signaled.
	Wait() error
	Reset() error
	Destroy()
}

// Semaphore orders one queue operation after another on the GPU. The CPU
// never observes it.
type Semaphore interface {
	Destroy()
}

type SyncFactory interface {
	NewSemaphore() (Semaphore, error)
	NewFence(signaled bool) (Fence, error)
}

// Target is the swapchain side of a frame: everything the scheduler drives
// once per iteration.
type Target interface {
	ImageCount() int

	// AcquireNextImage returns the index of the next presentable image and
	// arranges for signal to fire once it may be rendered to. A stale surface
	// is reported with a vkerr.ErrStale error.
	AcquireNextImage(signal Semaphore) (int, error)
	UpdateUniforms(image int, elapsed time.Duration) error
	// Submit queues the image's command buffer after wait, signaling signal and
	// fence on completion.
	Submit(image int, wait, signal Semaphore, fence Fence) error
	Present(image int, wait Semaphore) error

	// Recreate rebuilds the swapchain and every object derived from it once
	// the device is idle. It reports false, without error, when the surface
	// currently has no area and recreation has to wait.
	Recreate() (bool, error)
}

// slot is one of the rotating synchronization sets.
type slot struct {
	imageAvailable Semaphore
	renderFinished Semaphore
	inFlight       Fence
}

func (s *slot) destroy() {
	if s.imageAvailable != nil {
		s.imageAvailable.Destroy()
		s.imageAvailable = nil
	}
	if s.renderFinished != nil {
		s.renderFinished.Destroy()
		s.renderFinished = nil
	}
	if s.inFlight != nil {
		s.inFlight.Destroy()
		s.inFlight = nil
	}
}

func newSlot(factory SyncFactory) (slot, error) {
	var s slot
	var err error

	s.imageAvailable, err = factory.NewSemaphore()
	if err != nil {
		return s, err
	}

	s.renderFinished, err = factory.NewSemaphore()
	if err != nil {
		s.destroy()
		return s, err
	}

	s.inFlight, err = factory.NewFence(true)
	if err != nil {
		s.destroy()
		return s, err
	}

	return s, nil
}
