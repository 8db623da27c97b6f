package resources

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/core/mocks"

	"github.com/vkngwrapper/frame-presenter/internal/geometry"
	"github.com/vkngwrapper/frame-presenter/internal/pipeline"
	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

type drawFixture struct {
	device       *mocks.MockDevice
	pool         *mocks.MockCommandPool
	pipeline     *pipeline.Pipeline
	framebuffers []core1_0.Framebuffer
	mesh         *MeshBuffers
	descriptors  *Descriptors
}

func newDrawFixture(ctrl *gomock.Controller, images int) *drawFixture {
	quad := geometry.Quad()
	f := &drawFixture{
		device: mocks.NewMockDevice(ctrl),
		pool:   mocks.NewMockCommandPool(ctrl),
		pipeline: &pipeline.Pipeline{
			RenderPass: mocks.EasyMockRenderPass(ctrl),
			Layout:     mocks.EasyMockPipelineLayout(ctrl),
			Pipeline:   mocks.EasyMockPipeline(ctrl),
			Extent:     core1_0.Extent2D{Width: 800, Height: 600},
		},
		mesh: &MeshBuffers{
			Vertex:     &Buffer{Buffer: mocks.EasyMockBuffer(ctrl)},
			Index:      &Buffer{Buffer: mocks.EasyMockBuffer(ctrl)},
			IndexCount: quad.IndexCount(),
			IndexType:  quad.IndexType(),
		},
		descriptors: &Descriptors{},
	}
	for i := 0; i < images; i++ {
		f.framebuffers = append(f.framebuffers, mocks.EasyMockFramebuffer(ctrl))
		f.descriptors.Sets = append(f.descriptors.Sets, mocks.EasyMockDescriptorSet(ctrl))
	}
	return f
}

func (f *drawFixture) expectAllocate(ctrl *gomock.Controller) []core1_0.CommandBuffer {
	var buffers []core1_0.CommandBuffer
	for range f.framebuffers {
		buffers = append(buffers, mocks.EasyMockCommandBuffer(ctrl))
	}
	f.device.EXPECT().AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        f.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: len(f.framebuffers),
	}).Return(buffers, core1_0.VKSuccess, nil)
	return buffers
}

func (f *drawFixture) expectRecording(buffer *mocks.MockCommandBuffer, imageIdx int) {
	gomock.InOrder(
		buffer.EXPECT().Begin(core1_0.CommandBufferBeginInfo{}).Return(core1_0.VKSuccess, nil),
		buffer.EXPECT().CmdBeginRenderPass(core1_0.SubpassContentsInline, core1_0.RenderPassBeginInfo{
			RenderPass:  f.pipeline.RenderPass,
			Framebuffer: f.framebuffers[imageIdx],
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: f.pipeline.Extent,
			},
			ClearValues: []core1_0.ClearValue{ClearColor},
		}).Return(nil),
		buffer.EXPECT().CmdBindPipeline(core1_0.PipelineBindPointGraphics, f.pipeline.Pipeline),
		buffer.EXPECT().CmdBindVertexBuffers([]core1_0.Buffer{f.mesh.Vertex.Buffer}, []int{0}),
		buffer.EXPECT().CmdBindIndexBuffer(f.mesh.Index.Buffer, 0, core1_0.IndexTypeUInt32),
		buffer.EXPECT().CmdBindDescriptorSets(core1_0.PipelineBindPointGraphics, f.pipeline.Layout,
			[]core1_0.DescriptorSet{f.descriptors.Sets[imageIdx]}, nil),
		buffer.EXPECT().CmdDrawIndexed(6, 1, uint32(0), 0, uint32(0)),
		buffer.EXPECT().CmdEndRenderPass(),
		buffer.EXPECT().End().Return(core1_0.VKSuccess, nil),
	)
}

func TestRecordDrawCommands(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDrawFixture(ctrl, 3)
	buffers := f.expectAllocate(ctrl)
	for i, buffer := range buffers {
		f.expectRecording(buffer.(*mocks.MockCommandBuffer), i)
	}

	commands, err := RecordDrawCommands(f.device, f.pool, f.pipeline, f.framebuffers, f.mesh, f.descriptors)
	require.NoError(t, err)
	require.Equal(t, buffers, commands.Buffers)

	f.device.EXPECT().FreeCommandBuffers(buffers)
	commands.Free()
	require.Nil(t, commands.Buffers)

	// A second Free is a no-op.
	commands.Free()
}

func TestRecordDrawCommandsFreesOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDrawFixture(ctrl, 2)
	buffers := f.expectAllocate(ctrl)
	f.expectRecording(buffers[0].(*mocks.MockCommandBuffer), 0)

	second := buffers[1].(*mocks.MockCommandBuffer)
	second.EXPECT().Begin(core1_0.CommandBufferBeginInfo{}).
		Return(core1_0.VKErrorOutOfDeviceMemory, errors.New("out of device memory"))
	f.device.EXPECT().FreeCommandBuffers(buffers)

	commands, err := RecordDrawCommands(f.device, f.pool, f.pipeline, f.framebuffers, f.mesh, f.descriptors)
	require.Error(t, err)
	require.Nil(t, commands)
	require.Equal(t, vkerr.KindFatal, vkerr.KindOf(err))
}

func TestRecordDrawCommandsAllocationExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDrawFixture(ctrl, 2)
	f.device.EXPECT().AllocateCommandBuffers(gomock.Any()).
		Return(nil, core1_0.VKErrorOutOfDeviceMemory, errors.New("out of device memory"))

	_, err := RecordDrawCommands(f.device, f.pool, f.pipeline, f.framebuffers, f.mesh, f.descriptors)
	require.Error(t, err)
	require.Equal(t, vkerr.KindExhausted, vkerr.KindOf(err))
}

func TestRecordDrawCommandsRejectsDescriptorMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDrawFixture(ctrl, 2)
	f.descriptors.Sets = f.descriptors.Sets[:1]

	_, err := RecordDrawCommands(f.device, f.pool, f.pipeline, f.framebuffers, f.mesh, f.descriptors)
	require.Error(t, err)
}
