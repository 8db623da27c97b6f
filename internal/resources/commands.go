package resources

import (
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/frame-presenter/internal/device"
	"github.com/vkngwrapper/frame-presenter/internal/pipeline"
	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

// ClearColor is opaque black.
var ClearColor = core1_0.ClearValueFloat{0, 0, 0, 1}

func CreateCommandPool(ctx *device.Context) (core1_0.CommandPool, error) {
	pool, _, err := ctx.Device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: ctx.GraphicsFamily,
	})
	if err != nil {
		return nil, vkerr.Fatal(err, "create command pool")
	}
	return pool, nil
}

// DrawCommands is the set of pre-recorded command buffers, one per
// swapchain image.
type DrawCommands struct {
	device  core1_0.Device
	Buffers []core1_0.CommandBuffer
}

// RecordDrawCommands records, for each image, a render pass over its
// framebuffer that clears to ClearColor and draws the indexed mesh with that
// image's descriptor set bound.
func RecordDrawCommands(device core1_0.Device, pool core1_0.CommandPool, p *pipeline.Pipeline, framebuffers []core1_0.Framebuffer, mesh *MeshBuffers, descriptors *Descriptors) (*DrawCommands, error) {
	if len(descriptors.Sets) != len(framebuffers) {
		return nil, vkerr.Fatalf("%d descriptor sets for %d framebuffers", len(descriptors.Sets), len(framebuffers))
	}

	buffers, _, err := device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: len(framebuffers),
	})
	if err != nil {
		return nil, vkerr.Exhausted(err, "allocate command buffers")
	}
	commands := &DrawCommands{device: device, Buffers: buffers}

	for bufferIdx, buffer := range buffers {
		_, err = buffer.Begin(core1_0.CommandBufferBeginInfo{})
		if err != nil {
			commands.Free()
			return nil, vkerr.Fatal(err, "begin command buffer %d", bufferIdx)
		}

		err = buffer.CmdBeginRenderPass(core1_0.SubpassContentsInline,
			core1_0.RenderPassBeginInfo{
				RenderPass:  p.RenderPass,
				Framebuffer: framebuffers[bufferIdx],
				RenderArea: core1_0.Rect2D{
					Offset: core1_0.Offset2D{X: 0, Y: 0},
					Extent: p.Extent,
				},
				ClearValues: []core1_0.ClearValue{
					ClearColor,
				},
			})
		if err != nil {
			commands.Free()
			return nil, vkerr.Fatal(err, "begin render pass %d", bufferIdx)
		}

		buffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, p.Pipeline)
		buffer.CmdBindVertexBuffers([]core1_0.Buffer{mesh.Vertex.Buffer}, []int{0})
		buffer.CmdBindIndexBuffer(mesh.Index.Buffer, 0, mesh.IndexType)
		buffer.CmdBindDescriptorSets(core1_0.PipelineBindPointGraphics, p.Layout, []core1_0.DescriptorSet{
			descriptors.Sets[bufferIdx],
		}, nil)
		buffer.CmdDrawIndexed(mesh.IndexCount, 1, 0, 0, 0)
		buffer.CmdEndRenderPass()

		_, err = buffer.End()
		if err != nil {
			commands.Free()
			return nil, vkerr.Fatal(err, "end command buffer %d", bufferIdx)
		}
	}

	return commands, nil
}

// Free returns the command buffers to their pool.
func (c *DrawCommands) Free() {
	if c == nil || len(c.Buffers) == 0 {
		return
	}
	c.device.FreeCommandBuffers(c.Buffers)
	c.Buffers = nil
}
