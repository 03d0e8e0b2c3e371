package cmd

import (
	"bytes"
	"fmt"

	"github.com/VincentPHAM98/SI3D/gpu/culling"
	"github.com/VincentPHAM98/SI3D/gpu/device"
	"github.com/VincentPHAM98/SI3D/scene/bucket"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Flags for commands that run the culling pipeline.
var CullingFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "group-size",
		Value: culling.DefaultGroupSize,
		Usage: "culling kernel work group size",
	},
	cli.IntFlag{
		Name:  "frames-in-flight",
		Value: 1,
		Usage: "number of per-frame culling buffer sets",
	},
}

func cullingOptions(ctx *cli.Context) culling.Options {
	return culling.Options{
		GroupSize:      ctx.Int("group-size"),
		FramesInFlight: ctx.Int("frames-in-flight"),
	}.WithDefaults()
}

// Run the culling pipeline on the software device and print the issued draws.
func CullBuckets(ctx *cli.Context) error {
	setupLogging(ctx)

	mesh, err := loadMesh(ctx)
	if err != nil {
		return err
	}
	set, err := buildBuckets(ctx, mesh)
	if err != nil {
		return err
	}

	dev := device.NewSoftware("software", device.SoftwareOptions{
		Kernels: map[string]device.KernelFunc{culling.KernelName: culling.SoftwareKernel},
	})
	defer dev.Close()

	pipeline, err := culling.New(dev, set.Objects(), cullingOptions(ctx))
	if err != nil {
		return err
	}
	defer pipeline.Close()

	fr := setupCamera(ctx, set.Bounds()).Frustum()
	if err = pipeline.Render(&fr, nil); err != nil {
		return err
	}
	res, err := pipeline.ReadResult()
	if err != nil {
		return err
	}

	// Cross-check against the host path.
	var vis bucket.Visibility
	set.Cull(&fr, &vis)
	if vis.VisibleCount() != len(res.Visible) {
		logger.Warningf("device reported %d visible buckets; host culling found %d", len(res.Visible), vis.VisibleCount())
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Draw", "Bucket", "First vertex", "Vertex count", "Instances"})
	for idx, draw := range res.Draws {
		table.Append([]string{
			fmt.Sprintf("%d", idx),
			fmt.Sprintf("%d", res.Visible[idx]),
			fmt.Sprintf("%d", draw.First),
			fmt.Sprintf("%d", draw.Count),
			fmt.Sprintf("%d", draw.InstanceCount),
		})
	}
	stats := pipeline.Stats()
	table.SetFooter([]string{"", "", "", "VISIBLE", fmt.Sprintf("%d/%d", len(res.Visible), stats.Objects)})

	table.Render()
	logger.Noticef("culled %d buckets in %d groups (%s)\n%s", stats.Objects, stats.Groups, stats.CullTime, buf.String())
	return nil
}
