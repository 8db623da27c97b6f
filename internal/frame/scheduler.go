// Package frame drives the steady-state render loop: it bounds how far the
// CPU may run ahead of the GPU with a fixed ring of frame slots and keeps two
// slots from ever rendering into the same swapchain image at once.
package frame

import (
	"time"

	"github.com/loov/hrtime"

	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

// DefaultFramesInFlight is the number of frame slots used when none is given.
const DefaultFramesInFlight = 2

type Stats struct {
	Frames        int
	Submissions   int
	Presents      int
	Recreations   int
	StaleAcquires int
	StalePresents int
}

type Options struct {
	FramesInFlight int
	// Clock returns the time since the scheduler started. It defaults to a
	// monotonic high resolution clock.
	Clock func() time.Duration
}

// Scheduler owns the synchronization set and borrows the target it draws to.
type Scheduler struct {
	target  Target
	factory SyncFactory
	clock   func() time.Duration

	slots   []slot
	current int

	// imagesInFlight[i] is the fence of the slot that last submitted work for
	// image i, or nil.
	imagesInFlight []Fence

	stale bool
	stats Stats
}

func New(target Target, factory SyncFactory, options Options) (*Scheduler, error) {
	framesInFlight := options.FramesInFlight
	if framesInFlight <= 0 {
		framesInFlight = DefaultFramesInFlight
	}

	clock := options.Clock
	if clock == nil {
		start := hrtime.Now()
		clock = func() time.Duration {
			return hrtime.Since(start)
		}
	}

	s := &Scheduler{
		target:         target,
		factory:        factory,
		clock:          clock,
		imagesInFlight: make([]Fence, target.ImageCount()),
	}

	for i := 0; i < framesInFlight; i++ {
		sl, err := newSlot(factory)
		if err != nil {
			s.Destroy()
			return nil, vkerr.Fatal(err, "create synchronization set for frame slot %d", i)
		}
		s.slots = append(s.slots, sl)
	}

	return s, nil
}

func (s *Scheduler) FramesInFlight() int {
	return len(s.slots)
}

func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Invalidate marks the swapchain stale, for instance after a window resize.
// It is rebuilt before the next acquire.
func (s *Scheduler) Invalidate() {
	s.stale = true
}

// DrawFrame runs one iteration of the frame protocol for the current slot.
// Stale surfaces are handled here and never returned.
func (s *Scheduler) DrawFrame() error {
	if s.stale {
		ready, err := s.recreate()
		if err != nil || !ready {
			return err
		}
	}

	sl := &s.slots[s.current]

	err := sl.inFlight.Wait()
	if err != nil {
		return vkerr.Fatal(err, "wait for frame slot %d", s.current)
	}

	imageIndex, err := s.target.AcquireNextImage(sl.imageAvailable)
	if vkerr.IsStale(err) {
		s.stats.StaleAcquires++
		s.stale = true

		_, err = s.recreate()
		if err != nil {
			return err
		}
		return s.replaceImageAvailable(sl)
	} else if err != nil {
		return err
	}

	if imageIndex < 0 || imageIndex >= len(s.imagesInFlight) {
		return vkerr.Fatalf("acquired image %d of %d", imageIndex, len(s.imagesInFlight))
	}

	if owner := s.imagesInFlight[imageIndex]; owner != nil && owner != sl.inFlight {
		err = owner.Wait()
		if err != nil {
			return vkerr.Fatal(err, "wait for image %d", imageIndex)
		}
	}
	s.imagesInFlight[imageIndex] = sl.inFlight

	err = s.target.UpdateUniforms(imageIndex, s.clock())
	if err != nil {
		return err
	}

	err = sl.inFlight.Reset()
	if err != nil {
		return vkerr.Fatal(err, "reset fence of frame slot %d", s.current)
	}

	err = s.target.Submit(imageIndex, sl.imageAvailable, sl.renderFinished, sl.inFlight)
	if err != nil {
		return err
	}
	s.stats.Submissions++

	err = s.target.Present(imageIndex, sl.renderFinished)
	s.current = (s.current + 1) % len(s.slots)

	if vkerr.IsStale(err) {
		s.stats.StalePresents++
		s.stale = true
	} else if err != nil {
		return err
	}
	s.stats.Presents++
	s.stats.Frames++

	if s.stale {
		_, err = s.recreate()
		return err
	}

	return nil
}

// recreate rebuilds the target. It reports false when the rebuild has been
// postponed, in which case the swapchain stays stale.
func (s *Scheduler) recreate() (bool, error) {
	ready, err := s.target.Recreate()
	if err != nil {
		return false, err
	}
	if !ready {
		return false, nil
	}

	s.stale = false
	s.stats.Recreations++
	s.imagesInFlight = make([]Fence, s.target.ImageCount())
	return true, nil
}

// replaceImageAvailable swaps in a fresh semaphore after a stale acquire, which
// may still have signaled the old one.
func (s *Scheduler) replaceImageAvailable(sl *slot) error {
	semaphore, err := s.factory.NewSemaphore()
	if err != nil {
		return vkerr.Fatal(err, "replace image available semaphore")
	}

	sl.imageAvailable.Destroy()
	sl.imageAvailable = semaphore
	return nil
}

// Drain blocks until every frame slot's last submission has completed.
func (s *Scheduler) Drain() error {
	for i := range s.slots {
		err := s.slots[i].inFlight.Wait()
		if err != nil {
			return vkerr.Fatal(err, "drain frame slot %d", i)
		}
	}
	return nil
}

// Window is the part of the windowing collaborator the loop needs.
type Window interface {
	ShouldClose() bool
	PollEvents()
	TakeResized() bool
	Paused() bool
	Wait()
}

// Run draws frames until the window asks to close, then drains the slots.
func (s *Scheduler) Run(window Window) error {
	for !window.ShouldClose() {
		window.PollEvents()
		if window.ShouldClose() {
			break
		}

		if window.TakeResized() {
			s.Invalidate()
		}

		if window.Paused() {
			window.Wait()
			continue
		}

		err := s.DrawFrame()
		if err != nil {
			return err
		}
	}

	return s.Drain()
}

// Destroy releases the synchronization set. The GPU must be idle.
func (s *Scheduler) Destroy() {
	for i := range s.slots {
		s.slots[i].destroy()
	}
	s.slots = nil
	s.imagesInFlight = nil
}
