package cmd

import (
	"github.com/VincentPHAM98/SI3D/gpu/culling"
	"github.com/VincentPHAM98/SI3D/gpu/opengl"
	"github.com/VincentPHAM98/SI3D/renderer"
	"github.com/urfave/cli"
)

// Flags for the interactive command.
var InteractiveFlags = []cli.Flag{
	cli.BoolTFlag{
		Name:  "wireframes",
		Usage: "draw bucket and frustum wireframes (toggle with TAB)",
	},
}

// Open a window and cull the scene buckets on the GPU every frame.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	mesh, err := loadMesh(ctx)
	if err != nil {
		return err
	}
	set, err := buildBuckets(ctx, mesh)
	if err != nil {
		return err
	}

	opts := renderer.Options{
		FrameW:         uint32(ctx.Int("width")),
		FrameH:         uint32(ctx.Int("height")),
		Culling:        cullingOptions(ctx),
		ShowWireframes: ctx.BoolT("wireframes"),
	}

	dev, err := opengl.Open(opengl.Options{
		Title:  "si3d - gpu bucket culling",
		Width:  int(opts.FrameW),
		Height: int(opts.FrameH),
		Kernels: map[string]string{
			culling.KernelName: culling.ShaderSource(opts.Culling.GroupSize),
		},
	})
	if err != nil {
		return err
	}
	defer dev.Close()

	// The free camera starts further back so the culling frustum is in view.
	cullCamera := setupCamera(ctx, set.Bounds())
	freeCamera := setupCamera(ctx, set.Bounds())
	freeCamera.Dolly(-100)

	r, err := renderer.NewInteractive(dev, set, freeCamera, cullCamera, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	logger.Notice("controls: mouse orbits the view camera; i/k/j/l/u/o/h/n move the culling camera; P switches view; TAB toggles wireframes; S prints stats; ESC quits")
	return r.Render()
}
