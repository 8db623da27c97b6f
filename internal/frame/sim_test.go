package frame

import (
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

type simFence struct {
	gpu       *simGPU
	signaled  bool
	destroyed bool
}

func (f *simFence) Wait() error {
	if f.signaled {
		return nil
	}
	return f.gpu.completeThrough(f)
}

func (f *simFence) Reset() error {
	if f.gpu.pendingFor(f) {
		return errors.New("reset a fence still owned by pending work")
	}
	f.signaled = false
	return nil
}

func (f *simFence) Destroy() {
	f.destroyed = true
}

type simSemaphore struct {
	signaled  bool
	destroyed bool
}

func (s *simSemaphore) Destroy() {
	s.destroyed = true
}

type simWork struct {
	image int
	fence *simFence
}

// simGPU stands in for the device, its queues and the presentation engine.
// Submitted work only completes when a fence wait forces it, when the device
// goes idle for a recreation, or every completeEvery acquires.
type simGPU struct {
	imageCount    int
	completeEvery int
	pick          func(available int) int

	staleAcquireAt map[int]bool
	signalOnStale  bool
	stalePresentAt map[int]bool
	zeroArea       bool

	pending    []simWork
	available  []int
	fences     []*simFence
	semaphores []*simSemaphore

	acquires     int
	presents     int
	recreations  int
	maxPending   int
	events       []string
	uniformTimes []time.Duration
}

func newSimGPU(imageCount int) *simGPU {
	g := &simGPU{
		imageCount:     imageCount,
		pick:           func(int) int { return 0 },
		staleAcquireAt: map[int]bool{},
		stalePresentAt: map[int]bool{},
	}
	g.resetImages()
	return g
}

// lifo hands back the most recently presented image first, so acquisition
// order drifts away from slot order.
func lifo(available int) int {
	return available - 1
}

func seeded(seed int64) func(int) int {
	r := rand.New(rand.NewSource(seed))
	return r.Intn
}

func (g *simGPU) resetImages() {
	g.available = g.available[:0]
	for i := 0; i < g.imageCount; i++ {
		g.available = append(g.available, i)
	}
}

func (g *simGPU) pendingFor(f *simFence) bool {
	for _, w := range g.pending {
		if w.fence == f {
			return true
		}
	}
	return false
}

func (g *simGPU) completeThrough(f *simFence) error {
	for i, w := range g.pending {
		if w.fence == f {
			for _, done := range g.pending[:i+1] {
				done.fence.signaled = true
			}
			g.pending = g.pending[i+1:]
			return nil
		}
	}
	return errors.New("deadlock: waiting on a fence no pending work will signal")
}

func (g *simGPU) completeAll() {
	for _, w := range g.pending {
		w.fence.signaled = true
	}
	g.pending = nil
}

func (g *simGPU) unsignaledFences() int {
	count := 0
	for _, f := range g.fences {
		if !f.destroyed && !f.signaled {
			count++
		}
	}
	return count
}

func (g *simGPU) NewSemaphore() (Semaphore, error) {
	s := &simSemaphore{}
	g.semaphores = append(g.semaphores, s)
	return s, nil
}

func (g *simGPU) NewFence(signaled bool) (Fence, error) {
	f := &simFence{gpu: g, signaled: signaled}
	g.fences = append(g.fences, f)
	return f, nil
}

func (g *simGPU) ImageCount() int {
	return g.imageCount
}

func (g *simGPU) AcquireNextImage(signal Semaphore) (int, error) {
	g.acquires++
	g.events = append(g.events, "acquire")
	sem := signal.(*simSemaphore)

	if sem.signaled {
		return -1, errors.New("image available semaphore still holds a signal")
	}

	if g.staleAcquireAt[g.acquires] {
		if g.signalOnStale {
			sem.signaled = true
		}
		return -1, vkerr.Surface(khr_swapchain.VKErrorOutOfDate, nil, "acquire next image")
	}

	if g.completeEvery > 0 && g.acquires%g.completeEvery == 0 && len(g.pending) > 0 {
		g.pending[0].fence.signaled = true
		g.pending = g.pending[1:]
	}

	if len(g.available) == 0 {
		return -1, errors.New("no presentable image available")
	}

	idx := g.pick(len(g.available))
	image := g.available[idx]
	g.available = append(g.available[:idx], g.available[idx+1:]...)
	sem.signaled = true
	return image, nil
}

func (g *simGPU) UpdateUniforms(image int, elapsed time.Duration) error {
	g.events = append(g.events, "uniforms")
	for _, w := range g.pending {
		if w.image == image {
			return errors.Newf("uniforms of image %d written while the gpu reads them", image)
		}
	}
	g.uniformTimes = append(g.uniformTimes, elapsed)
	return nil
}

func (g *simGPU) Submit(image int, wait, signal Semaphore, fence Fence) error {
	g.events = append(g.events, "submit")

	waitSem := wait.(*simSemaphore)
	if !waitSem.signaled {
		return errors.New("submit waits on a semaphore nothing signals")
	}
	waitSem.signaled = false

	f := fence.(*simFence)
	if f.signaled || g.pendingFor(f) {
		return errors.New("submit with a fence that is not reset")
	}
	for _, w := range g.pending {
		if w.image == image {
			return errors.Newf("image %d rendered by two submissions at once", image)
		}
	}

	g.pending = append(g.pending, simWork{image: image, fence: f})
	if len(g.pending) > g.maxPending {
		g.maxPending = len(g.pending)
	}
	signal.(*simSemaphore).signaled = true
	return nil
}

func (g *simGPU) Present(image int, wait Semaphore) error {
	g.presents++
	g.events = append(g.events, "present")

	waitSem := wait.(*simSemaphore)
	if !waitSem.signaled {
		return errors.New("present waits on a semaphore nothing signals")
	}
	waitSem.signaled = false
	g.available = append(g.available, image)

	if g.stalePresentAt[g.presents] {
		return vkerr.Surface(khr_swapchain.VKSuboptimal, nil, "present image %d", image)
	}
	return nil
}

func (g *simGPU) Recreate() (bool, error) {
	g.events = append(g.events, "recreate")
	if g.zeroArea {
		return false, nil
	}

	g.completeAll()
	g.resetImages()
	g.recreations++
	return true, nil
}

// nth returns the position of the n-th (1-based) occurrence of event.
func (g *simGPU) nth(event string, n int) int {
	for i, e := range g.events {
		if e == event {
			n--
			if n == 0 {
				return i
			}
		}
	}
	return -1
}

type fakeWindow struct {
	polls      int
	closeAfter int
	pausedAt   map[int]bool
	resizedAt  map[int]bool
	waits      int
}

func (w *fakeWindow) ShouldClose() bool {
	return w.polls >= w.closeAfter
}

func (w *fakeWindow) PollEvents() {
	w.polls++
}

func (w *fakeWindow) TakeResized() bool {
	return w.resizedAt[w.polls]
}

func (w *fakeWindow) Paused() bool {
	return w.pausedAt[w.polls]
}

func (w *fakeWindow) Wait() {
	w.waits++
}
