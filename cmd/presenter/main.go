package main

import (
	"log"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vkngwrapper/frame-presenter/internal/config"
	"github.com/vkngwrapper/frame-presenter/internal/geometry"
	"github.com/vkngwrapper/frame-presenter/internal/instance"
	"github.com/vkngwrapper/frame-presenter/internal/renderer"
	"github.com/vkngwrapper/frame-presenter/internal/shaders"
	"github.com/vkngwrapper/frame-presenter/internal/window"
)

func init() {
	// SDL and the presentation calls must stay on the main thread.
	runtime.LockOSThread()
}

func loadMesh(path string) (*geometry.Mesh, error) {
	if path == "" {
		return geometry.Quad(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open mesh %s", path)
	}
	defer f.Close()

	mesh, err := geometry.LoadOBJ(f, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "load mesh %s", path)
	}
	return mesh, nil
}

func loadAssets(cfg config.Config) (renderer.Assets, error) {
	assets := renderer.Assets{Transform: geometry.Spin}
	var group errgroup.Group

	group.Go(func() error {
		var err error
		assets.Shaders, err = shaders.Load(cfg.VertexShaderPath, cfg.FragmentShaderPath)
		return err
	})
	group.Go(func() error {
		var err error
		assets.Mesh, err = loadMesh(cfg.MeshPath)
		return err
	})

	err := group.Wait()
	return assets, err
}

// run returns without releasing anything when a fatal error occurs; the
// process is about to terminate. A normal exit tears everything down in order.
func run(cfg config.Config) error {
	assets, err := loadAssets(cfg)
	if err != nil {
		return err
	}
	log.Printf("mesh: %d vertices, %d indices\n", len(assets.Mesh.Vertices), assets.Mesh.IndexCount())

	win, err := window.Open(cfg.Title, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}

	inst, err := instance.Create(win.ProcAddr(), instance.Options{
		ApplicationName:  cfg.Title,
		Extensions:       win.RequiredExtensions(),
		EnableValidation: cfg.EnableValidation,
	})
	if err != nil {
		return err
	}

	surface, err := win.CreateSurface(inst.Instance)
	if err != nil {
		return err
	}

	r, err := renderer.New(cfg, inst.Instance, surface, win, assets)
	if err != nil {
		return err
	}

	err = r.Run()
	log.Printf("frames: %+v\n", r.Stats())
	if err != nil {
		return err
	}

	report := r.Teardown()
	inst.Destroy()
	win.Destroy()

	return report.Err()
}

func main() {
	cfg := config.Default()

	err := cfg.ApplyArgs(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		config.Usage(os.Stdout)
		return
	} else if err != nil {
		config.Usage(os.Stderr)
		log.Fatalf("%+v\n", err)
	}

	err = run(cfg)
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
