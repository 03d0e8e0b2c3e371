package main

import (
	"os"

	"github.com/VincentPHAM98/SI3D/cmd"
	"github.com/urfave/cli"
)

func flags(sets ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, set := range sets {
		out = append(out, set...)
	}
	return out
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "si3d"
	app.Usage = "spatial indexing and gpu visibility culling for triangle scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "trace",
			Usage: "trace primary rays through a bvh built over a procedural scene",
			Description: `
Build a BVH over the selected procedural scene and trace one primary ray per
pixel. The frame is split into row blocks that are traced in parallel by a
pool of cpu tracers. The hit triangle ids or hit distances are written to a
PNG image.`,
			Flags:  flags(cmd.SceneFlags, cmd.CameraFlags, cmd.TraceFlags),
			Action: cmd.TraceFrame,
		},
		{
			Name:   "buckets",
			Usage:  "partition a procedural scene into grid buckets and list them",
			Flags:  flags(cmd.SceneFlags, cmd.CameraFlags, cmd.BucketFlags),
			Action: cmd.ListBuckets,
		},
		{
			Name:  "cull",
			Usage: "run the visibility compaction pipeline on the software device",
			Description: `
Bucketize the selected procedural scene, test the bucket boxes against the
camera frustum with the culling kernel and list the indirect draws that
would be issued for the visible buckets.`,
			Flags:  flags(cmd.SceneFlags, cmd.CameraFlags, cmd.BucketFlags, cmd.CullingFlags),
			Action: cmd.CullBuckets,
		},
		{
			Name:   "interactive",
			Usage:  "render an interactive view with gpu bucket culling",
			Flags:  flags(cmd.SceneFlags, cmd.CameraFlags, cmd.BucketFlags, cmd.CullingFlags, cmd.InteractiveFlags),
			Action: cmd.RenderInteractive,
		},
		{
			Name:   "list-caps",
			Usage:  "list the capabilities of the opengl device",
			Action: cmd.ListCaps,
		},
	}

	app.Run(os.Args)
}
