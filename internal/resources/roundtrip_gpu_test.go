//go:build gpu

package resources

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/frame-presenter/internal/device"
	"github.com/vkngwrapper/frame-presenter/internal/geometry"
	"github.com/vkngwrapper/frame-presenter/internal/instance"
	"github.com/vkngwrapper/frame-presenter/internal/window"
)

func init() {
	runtime.LockOSThread()
}

func openAllocator(t *testing.T) *Allocator {
	win, err := window.Open("resources test", 64, 64)
	require.NoError(t, err)
	t.Cleanup(win.Destroy)

	inst, err := instance.Create(win.ProcAddr(), instance.Options{
		ApplicationName: "resources test",
		Extensions:      win.RequiredExtensions(),
	})
	require.NoError(t, err)
	t.Cleanup(inst.Destroy)

	surface, err := win.CreateSurface(inst.Instance)
	require.NoError(t, err)
	t.Cleanup(func() { surface.Destroy(nil) })

	ctx, err := device.Select(inst.Instance, surface)
	require.NoError(t, err)
	t.Cleanup(ctx.Destroy)

	pool, err := CreateCommandPool(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Destroy(nil) })

	return NewAllocator(ctx, pool)
}

func TestStagingRoundTrip(t *testing.T) {
	allocator := openAllocator(t)
	quad := geometry.Quad()

	mesh, err := allocator.UploadMesh(quad)
	require.NoError(t, err)
	defer mesh.Destroy()

	require.Equal(t, 6, mesh.IndexCount)
	require.Equal(t, core1_0.IndexTypeUInt32, mesh.IndexType)

	wantVertices, err := Encode(quad.Vertices)
	require.NoError(t, err)
	gotVertices, err := allocator.ReadBack(mesh.Vertex, len(wantVertices))
	require.NoError(t, err)
	require.Equal(t, wantVertices, gotVertices)

	wantIndices, err := Encode(quad.Indices)
	require.NoError(t, err)
	gotIndices, err := allocator.ReadBack(mesh.Index, len(wantIndices))
	require.NoError(t, err)
	require.Equal(t, wantIndices, gotIndices)
}
