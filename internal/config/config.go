package config

import (
	"github.com/cockroachdb/errors"
)

const (
	DefaultFramesInFlight = 2
	maxFramesInFlight     = 8
)

type Config struct {
	Title  string
	Width  int
	Height int

	// FramesInFlight bounds how many frames the CPU may queue ahead of the GPU.
	FramesInFlight   int
	EnableValidation bool

	VertexShaderPath   string
	FragmentShaderPath string

	// MeshPath optionally names an OBJ file to draw instead of the built-in quad.
	MeshPath string
	// PipelineCachePath optionally persists the pipeline cache between runs.
	PipelineCachePath string
}

func Default() Config {
	return Config{
		Title:              "Vulkan",
		Width:              800,
		Height:             600,
		FramesInFlight:     DefaultFramesInFlight,
		EnableValidation:   true,
		VertexShaderPath:   "shaders/vert.spv",
		FragmentShaderPath: "shaders/frag.spv",
	}
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("config: window size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.FramesInFlight < 1 || c.FramesInFlight > maxFramesInFlight {
		return errors.Newf("config: frames in flight must be within [1, %d], got %d", maxFramesInFlight, c.FramesInFlight)
	}
	if c.VertexShaderPath == "" || c.FragmentShaderPath == "" {
		return errors.New("config: both shader paths are required")
	}

	return nil
}
