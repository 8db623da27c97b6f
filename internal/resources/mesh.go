package resources

import (
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/frame-presenter/internal/geometry"
)

// MeshBuffers is a mesh resident in device-local memory.
type MeshBuffers struct {
	Vertex *Buffer
	Index  *Buffer

	IndexCount int
	IndexType  core1_0.IndexType
}

// UploadMesh stages the vertex and index data of mesh into device-local
// vertex and index buffers. Both buffers also allow transfers out so they can
// be read back.
func (a *Allocator) UploadMesh(mesh *geometry.Mesh) (*MeshBuffers, error) {
	vertexBuffer, err := a.Upload(mesh.Vertices, core1_0.BufferUsageVertexBuffer|core1_0.BufferUsageTransferSrc)
	if err != nil {
		return nil, err
	}

	indexBuffer, err := a.Upload(mesh.Indices, core1_0.BufferUsageIndexBuffer|core1_0.BufferUsageTransferSrc)
	if err != nil {
		vertexBuffer.Destroy()
		return nil, err
	}

	return &MeshBuffers{
		Vertex:     vertexBuffer,
		Index:      indexBuffer,
		IndexCount: mesh.IndexCount(),
		IndexType:  mesh.IndexType(),
	}, nil
}

func (m *MeshBuffers) Destroy() {
	if m == nil {
		return
	}
	m.Index.Destroy()
	m.Vertex.Destroy()
}
