package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrHelp is returned by ApplyArgs when usage was requested.
var ErrHelp = errors.New("help requested")

// ApplyArgs overlays command line arguments onto c.
func (c *Config) ApplyArgs(args []string) error {
	for _, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")

		switch name {
		case "--no-validation":
			c.EnableValidation = false
		case "--mesh":
			c.MeshPath = value
		case "--pipeline-cache":
			c.PipelineCachePath = value
		case "--vert":
			c.VertexShaderPath = value
		case "--frag":
			c.FragmentShaderPath = value
		case "--frames":
			frames, err := strconv.Atoi(value)
			if err != nil || !hasValue {
				return errors.Newf("config: --frames needs an integer, got %q", value)
			}
			c.FramesInFlight = frames
		case "--help", "-h":
			return ErrHelp
		default:
			return errors.Newf("config: unrecognized option %s", arg)
		}
	}

	return c.Validate()
}

func Usage(w io.Writer) {
	fmt.Fprintln(w, "\nOptions")
	fmt.Fprintln(w, "\t--no-validation\t\tdisable the Khronos validation layer")
	fmt.Fprintln(w, "\t--mesh=<file.obj>\tdraw an OBJ mesh instead of the built-in quad")
	fmt.Fprintln(w, "\t--pipeline-cache=<file>\tload and save the pipeline cache")
	fmt.Fprintln(w, "\t--vert=<file.spv>\tvertex shader blob")
	fmt.Fprintln(w, "\t--frag=<file.spv>\tfragment shader blob")
	fmt.Fprintln(w, "\t--frames=<n>\t\tframes in flight")
}
