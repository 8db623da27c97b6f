package renderer

import (
	"log"

	"github.com/cockroachdb/errors"
)

// StageResult is the outcome of one teardown stage.
type StageResult struct {
	Stage string
	Err   error
}

// TeardownReport lists every teardown stage in the order it ran.
type TeardownReport struct {
	Stages []StageResult
}

// Err combines the failures of every stage, or returns nil.
func (r TeardownReport) Err() error {
	var combined error
	for _, stage := range r.Stages {
		if stage.Err != nil {
			combined = errors.CombineErrors(combined, errors.Wrapf(stage.Err, "teardown %s", stage.Stage))
		}
	}
	return combined
}

type stage struct {
	name string
	run  func() error
}

// runStages runs every stage even after one fails, so a single failure does
// not leak everything created before it.
func runStages(stages []stage) TeardownReport {
	var report TeardownReport
	for _, s := range stages {
		err := s.run()
		if err != nil {
			log.Printf("teardown: %s: %v\n", s.name, err)
		}
		report.Stages = append(report.Stages, StageResult{Stage: s.name, Err: err})
	}
	return report
}

func always(release func()) func() error {
	return func() error {
		release()
		return nil
	}
}

// Teardown waits for the device to go idle and destroys every object in the
// reverse of construction order, the surface last. The instance the renderer
// was created from is left to the caller.
func (r *Renderer) Teardown() TeardownReport {
	return runStages([]stage{
		{"wait idle", func() error {
			if r.ctx == nil {
				return nil
			}
			return r.ctx.WaitIdle()
		}},
		{"sync objects", always(func() {
			if r.scheduler != nil {
				r.scheduler.Destroy()
			}
		})},
		{"command buffers", always(func() {
			r.commands.Free()
			r.commands = nil
		})},
		{"descriptor pool", always(func() {
			r.descriptors.Destroy()
			r.descriptors = nil
		})},
		{"uniform buffers", always(func() {
			r.uniforms.Destroy()
			r.uniforms = nil
		})},
		{"geometry buffers", always(func() {
			r.mesh.Destroy()
			r.mesh = nil
		})},
		{"command pool", always(func() {
			if r.commandPool != nil {
				r.commandPool.Destroy(nil)
				r.commandPool = nil
			}
		})},
		{"framebuffers", always(func() {
			for _, framebuffer := range r.framebuffers {
				framebuffer.Destroy(nil)
			}
			r.framebuffers = nil
		})},
		{"pipeline", always(func() {
			if r.pipeline != nil {
				r.pipeline.DestroyPipeline()
			}
		})},
		{"pipeline layout", always(func() {
			if r.pipeline != nil {
				r.pipeline.DestroyLayout()
			}
		})},
		{"pipeline cache", func() error {
			defer r.cache.Destroy()
			return r.cache.Save()
		}},
		{"descriptor set layout", always(func() {
			if r.builder != nil {
				r.builder.Destroy()
			}
		})},
		{"render pass", always(func() {
			if r.pipeline != nil {
				r.pipeline.DestroyRenderPass()
				r.pipeline = nil
			}
		})},
		{"image views", always(func() {
			if r.swapchains != nil {
				r.swapchains.DestroyViews()
			}
		})},
		{"swapchain", always(func() {
			if r.swapchains != nil {
				r.swapchains.Destroy()
			}
		})},
		{"device", always(func() {
			if r.ctx != nil {
				r.ctx.Destroy()
			}
		})},
		{"surface", always(func() {
			if r.surface != nil {
				r.surface.Destroy(nil)
				r.surface = nil
			}
		})},
	})
}
