package resources

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/frame-presenter/internal/geometry"
	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

func memoryProperties() *core1_0.PhysicalDeviceMemoryProperties {
	return &core1_0.PhysicalDeviceMemoryProperties{
		MemoryTypes: []core1_0.MemoryType{
			{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
			{PropertyFlags: core1_0.MemoryPropertyDeviceLocal | core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
		},
	}
}

func TestFindMemoryTypeFirstMatch(t *testing.T) {
	props := memoryProperties()

	index, err := FindMemoryType(props, 0xf, core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)
	require.Equal(t, 0, index)

	index, err = FindMemoryType(props, 0xf, hostMemory)
	require.NoError(t, err)
	require.Equal(t, 2, index)
}

func TestFindMemoryTypeHonorsFilter(t *testing.T) {
	props := memoryProperties()

	index, err := FindMemoryType(props, 0x8, core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)
	require.Equal(t, 3, index)

	index, err = FindMemoryType(props, 0x2, core1_0.MemoryPropertyHostVisible)
	require.NoError(t, err)
	require.Equal(t, 1, index)
}

func TestFindMemoryTypeExhausted(t *testing.T) {
	props := memoryProperties()

	_, err := FindMemoryType(props, 0x3, hostMemory)
	require.Error(t, err)
	require.Equal(t, vkerr.KindExhausted, vkerr.KindOf(err))

	_, err = FindMemoryType(props, 0, core1_0.MemoryPropertyDeviceLocal)
	require.Equal(t, vkerr.KindExhausted, vkerr.KindOf(err))
}

func TestEncodeLayout(t *testing.T) {
	encoded, err := Encode([]uint32{0, 1, 2, 2, 3, 0})
	require.NoError(t, err)
	require.Len(t, encoded, 24)
	require.Equal(t, []byte{1, 0, 0, 0}, encoded[4:8])

	quad := geometry.Quad()
	encoded, err = Encode(quad.Vertices)
	require.NoError(t, err)
	require.Len(t, encoded, len(quad.Vertices)*geometry.BindingDescriptions()[0].Stride)

	ubo := geometry.Uniforms{Model: mgl32.Ident4(), View: mgl32.Ident4(), Proj: mgl32.Ident4()}
	encoded, err = Encode(&ubo)
	require.NoError(t, err)
	require.Len(t, encoded, geometry.UniformsSize)
}

func TestEncodeRejectsVariableSizedData(t *testing.T) {
	_, err := Encode(map[string]int{"a": 1})
	require.Error(t, err)
}
