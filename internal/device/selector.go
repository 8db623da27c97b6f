// Package device picks the physical GPU and queue families the presentation
// pipeline runs on and opens the logical device over them.
package device

import (
	"log"

	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

// RequiredExtensions must all be exposed by a device for it to be selected.
var RequiredExtensions = []string{khr_swapchain.ExtensionName}

type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

type SurfaceSupport struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// Adequate reports whether a swapchain can be built at all.
func (s SurfaceSupport) Adequate() bool {
	return s.Capabilities != nil && len(s.Formats) > 0 && len(s.PresentModes) > 0
}

type QueueFamily struct {
	Graphics bool
}

// Candidate is a physical device as seen by the selector.
type Candidate interface {
	Name() string
	QueueFamilies() []QueueFamily
	PresentSupport(family int) (bool, error)
	Extensions() (map[string]bool, error)
	SurfaceSupport() (SurfaceSupport, error)
}

// FindQueueFamilies prefers a single family that can both draw and present;
// otherwise it takes the first graphics family and the first present family.
func FindQueueFamilies(candidate Candidate) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}

	for queueFamilyIdx, queueFamily := range candidate.QueueFamilies() {
		supported, err := candidate.PresentSupport(queueFamilyIdx)
		if err != nil {
			return indices, err
		}

		if queueFamily.Graphics && supported {
			family := queueFamilyIdx
			return QueueFamilyIndices{GraphicsFamily: &family, PresentFamily: &family}, nil
		}

		if queueFamily.Graphics && indices.GraphicsFamily == nil {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		if supported && indices.PresentFamily == nil {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}
	}

	return indices, nil
}

func checkExtensionSupport(candidate Candidate) bool {
	extensions, err := candidate.Extensions()
	if err != nil {
		return false
	}

	for _, extension := range RequiredExtensions {
		if !extensions[extension] {
			return false
		}
	}

	return true
}

// Suitable reports whether the candidate can render and present, and the queue
// families it would use.
func Suitable(candidate Candidate) (QueueFamilyIndices, bool) {
	indices, err := FindQueueFamilies(candidate)
	if err != nil {
		log.Printf("device %s: queue family query failed: %v", candidate.Name(), err)
		return indices, false
	}
	if !indices.IsComplete() {
		return indices, false
	}

	if !checkExtensionSupport(candidate) {
		return indices, false
	}

	support, err := candidate.SurfaceSupport()
	if err != nil {
		log.Printf("device %s: surface query failed: %v", candidate.Name(), err)
		return indices, false
	}

	return indices, support.Adequate()
}

// Pick returns the index of the first suitable candidate. Having none is
// unrecoverable.
func Pick(candidates []Candidate) (int, QueueFamilyIndices, error) {
	for i, candidate := range candidates {
		indices, ok := Suitable(candidate)
		if ok {
			return i, indices, nil
		}
	}

	return -1, QueueFamilyIndices{}, vkerr.Fatalf("failed to find a suitable GPU among %d devices", len(candidates))
}
