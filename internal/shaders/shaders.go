// Package shaders loads the precompiled vertex and fragment stages.
//
// The SPIR-V blobs are produced outside of this module:
//
//	glslc shaders/shader.vert -o shaders/vert.spv
//	glslc shaders/shader.frag -o shaders/frag.spv
package shaders

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// EntryPoint is the function name both stages are compiled with.
const EntryPoint = "main"

type Set struct {
	Vertex   []uint32
	Fragment []uint32
}

// Load reads both stages concurrently.
func Load(vertexPath, fragmentPath string) (*Set, error) {
	var set Set
	var group errgroup.Group

	group.Go(func() error {
		code, err := ReadFile(vertexPath)
		set.Vertex = code
		return err
	})
	group.Go(func() error {
		code, err := ReadFile(fragmentPath)
		set.Fragment = code
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &set, nil
}

func ReadFile(path string) ([]uint32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}

	code, err := BytesToBytecode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}
	return code, nil
}

// BytesToBytecode reinterprets a little-endian SPIR-V blob as 32-bit words.
func BytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("spir-v length %d is not a positive multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode, nil
}
