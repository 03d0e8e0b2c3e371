package cmd

import (
	"bytes"
	"fmt"
	"os"
	"runtime"

	"github.com/VincentPHAM98/SI3D/renderer"
	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/scene/bvh"
	"github.com/VincentPHAM98/SI3D/tracer"
	"github.com/VincentPHAM98/SI3D/tracer/cpu"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Flags for the trace command.
var TraceFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "workers, w",
		Value: runtime.NumCPU(),
		Usage: "number of cpu tracers",
	},
	cli.StringFlag{
		Name:  "strategy",
		Value: tracer.Ordered.String(),
		Usage: "bvh traversal strategy: unordered, ordered or brute",
	},
	cli.StringFlag{
		Name:  "scheduler",
		Value: "perfect",
		Usage: "block scheduler: naive or perfect",
	},
	cli.IntFlag{
		Name:  "leaf-size",
		Value: bvh.DefaultOptions().LeafSize,
		Usage: "max triangles per bvh leaf",
	},
	cli.IntFlag{
		Name:  "frames",
		Value: 1,
		Usage: "number of frames to render",
	},
	cli.StringFlag{
		Name:  "image, i",
		Value: "id",
		Usage: "debug image mode: id or depth",
	},
	cli.StringFlag{
		Name:  "out, o",
		Value: "frame.png",
		Usage: "image filename for the rendered frame",
	},
}

// Trace one primary ray per pixel through the scene BVH and write a debug image.
func TraceFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	strategy, err := tracer.ParseStrategy(ctx.String("strategy"))
	if err != nil {
		return err
	}
	mode, err := renderer.ParseImageMode(ctx.String("image"))
	if err != nil {
		return err
	}

	var scheduler tracer.BlockScheduler
	switch ctx.String("scheduler") {
	case "naive":
		scheduler = tracer.NewNaiveScheduler()
	case "perfect":
		scheduler = tracer.NewPerfectScheduler()
	default:
		return fmt.Errorf("unknown scheduler %q", ctx.String("scheduler"))
	}

	mesh, err := loadMesh(ctx)
	if err != nil {
		return err
	}

	opts := bvh.DefaultOptions()
	opts.LeafSize = ctx.Int("leaf-size")
	tree, err := bvh.Build(scene.Triangles(mesh), opts)
	if err != nil {
		return err
	}

	workers := ctx.Int("workers")
	if workers < 1 {
		workers = 1
	}
	tracers := make([]tracer.Tracer, 0, workers)
	for i := 0; i < workers; i++ {
		tr, err := cpu.NewTracer(fmt.Sprintf("cpu-%02d", i), strategy)
		if err != nil {
			for _, tr := range tracers {
				tr.Close()
			}
			return err
		}
		tracers = append(tracers, tr)
	}

	r, err := renderer.NewDefault(
		tree,
		setupCamera(ctx, mesh.Bounds()),
		tracers,
		scheduler,
		renderer.Options{
			FrameW: uint32(ctx.Int("width")),
			FrameH: uint32(ctx.Int("height")),
		},
	)
	if err != nil {
		for _, tr := range tracers {
			tr.Close()
		}
		return err
	}
	defer r.Close()

	for frame := 0; frame < ctx.Int("frames"); frame++ {
		if err = r.Render(); err != nil {
			return err
		}
		displayFrameStats(r.Stats())
	}

	f, err := os.Create(ctx.String("out"))
	if err != nil {
		return err
	}
	defer f.Close()

	if err = renderer.WritePNG(f, r.Frame(), mode); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s", ctx.String("out"))
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Block height", "% of frame", "Rays", "Hits", "Render time"})

	var rays, hits uint64
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%d", stat.Rays),
			fmt.Sprintf("%d", stat.Hits),
			stat.RenderTime.String(),
		})
		rays += stat.Rays
		hits += stat.Hits
	}
	table.SetFooter([]string{"", "", "TOTAL", fmt.Sprintf("%d", rays), fmt.Sprintf("%d", hits), stats.RenderTime.String()})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
