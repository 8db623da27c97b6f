package config

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 2, cfg.FramesInFlight)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.FramesInFlight = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Height = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.FragmentShaderPath = ""
	require.Error(t, cfg.Validate())
}

func TestApplyArgs(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyArgs([]string{"--no-validation", "--mesh=room.obj", "--frames=3", "--pipeline-cache=cache.bin"})
	require.NoError(t, err)
	require.False(t, cfg.EnableValidation)
	require.Equal(t, "room.obj", cfg.MeshPath)
	require.Equal(t, 3, cfg.FramesInFlight)
	require.Equal(t, "cache.bin", cfg.PipelineCachePath)
}

func TestApplyArgsRejects(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.ApplyArgs([]string{"--frames=two"}))

	cfg = Default()
	require.Error(t, cfg.ApplyArgs([]string{"--bogus"}))

	cfg = Default()
	require.Error(t, cfg.ApplyArgs([]string{"--frames=0"}))

	cfg = Default()
	require.True(t, errors.Is(cfg.ApplyArgs([]string{"-h"}), ErrHelp))
}
