// Package geometry holds the static draw payload: the vertex layout, the
// indexed mesh uploaded once at startup, and the per-frame uniform block.
package geometry

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
)

type Vertex struct {
	Position mgl32.Vec2
	Color    mgl32.Vec3
}

type Uniforms struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

// UniformsSize is the byte size of one uniform buffer.
const UniformsSize = int(unsafe.Sizeof(Uniforms{}))

func BindingDescriptions() []core1_0.VertexInputBindingDescription {
	v := Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func AttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
	}
}

type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

func (m *Mesh) IndexCount() int {
	return len(m.Indices)
}

func (m *Mesh) IndexType() core1_0.IndexType {
	return core1_0.IndexTypeUInt32
}

// Quad is two triangles sharing an edge, wound clockwise.
func Quad() *Mesh {
	return &Mesh{
		Vertices: []Vertex{
			{Position: mgl32.Vec2{-0.5, -0.5}, Color: mgl32.Vec3{1, 0, 0}},
			{Position: mgl32.Vec2{0.5, -0.5}, Color: mgl32.Vec3{0, 1, 0}},
			{Position: mgl32.Vec2{0.5, 0.5}, Color: mgl32.Vec3{0, 0, 1}},
			{Position: mgl32.Vec2{-0.5, 0.5}, Color: mgl32.Vec3{1, 1, 1}},
		},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	}
}
