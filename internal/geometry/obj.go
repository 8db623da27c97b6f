package geometry

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// LoadOBJ decodes a single static mesh. Polygons are fanned into triangles,
// positions are projected onto the XY plane and shared vertices are merged.
// mtl may be nil.
func LoadOBJ(mesh io.Reader, mtl io.Reader) (*Mesh, error) {
	if mtl == nil {
		mtl = strings.NewReader("")
	}

	decoder, err := obj.DecodeReader(mesh, mtl)
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}

	out := &Mesh{}
	unique := make(map[int]uint32)

	addVertex := func(face obj.Face, faceIndex int) error {
		vertInd := face.Vertices[faceIndex]
		index, exists := unique[vertInd]
		if !exists {
			if vertInd < 0 || (vertInd+1)*3 > len(decoder.Vertices) {
				return errors.Newf("obj face references vertex %d of %d", vertInd, len(decoder.Vertices)/3)
			}

			index = uint32(len(out.Vertices))
			out.Vertices = append(out.Vertices, Vertex{
				Position: mgl32.Vec2{decoder.Vertices[vertInd*3], decoder.Vertices[vertInd*3+1]},
				Color:    mgl32.Vec3{1, 1, 1},
			})
			unique[vertInd] = index
		}

		out.Indices = append(out.Indices, index)
		return nil
	}

	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range []int{0, i - 1, i} {
					if err := addVertex(face, corner); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if len(out.Indices) == 0 {
		return nil, errors.New("obj contains no faces")
	}

	return out, nil
}
