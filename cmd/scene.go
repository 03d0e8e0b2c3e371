package cmd

import (
	"fmt"

	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/scene/bucket"
	"github.com/VincentPHAM98/SI3D/types"
	"github.com/urfave/cli"
)

// Flags shared by all commands that operate on a procedural scene.
var SceneFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "scene, s",
		Value: "terrain",
		Usage: "procedural scene: cubes, terrain or sphere",
	},
	cli.IntFlag{
		Name:  "resolution, r",
		Value: 64,
		Usage: "scene resolution (cubes per axis, terrain quads per side, sphere stacks)",
	},
	cli.Float64Flag{
		Name:  "size",
		Value: 100,
		Usage: "scene extent in world units",
	},
}

// Flags shared by all commands that need a camera.
var CameraFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Value: 1024,
		Usage: "frame width",
	},
	cli.IntFlag{
		Name:  "height",
		Value: 640,
		Usage: "frame height",
	},
	cli.Float64Flag{
		Name:  "fov",
		Value: 45,
		Usage: "vertical field of view in degrees",
	},
	cli.Float64Flag{
		Name:  "yaw",
		Value: 30,
		Usage: "camera rotation around the scene center in degrees",
	},
	cli.Float64Flag{
		Name:  "pitch",
		Value: 20,
		Usage: "camera elevation in degrees",
	},
}

// Flags for commands that bucketize the scene.
var BucketFlags = []cli.Flag{
	cli.Float64Flag{
		Name:  "cell-size",
		Value: 0,
		Usage: "bucket grid cell size; 0 uses a tenth of the scene depth",
	},
}

// Generate the procedural mesh selected by the scene flags.
func loadMesh(ctx *cli.Context) (*scene.TriangleMesh, error) {
	res := ctx.Int("resolution")
	size := float32(ctx.Float64("size"))

	var (
		mesh *scene.TriangleMesh
		err  error
	)
	switch name := ctx.String("scene"); name {
	case "cubes":
		spacing := size / float32(res)
		mesh, err = scene.GenerateCubes(res, spacing*0.5, spacing)
	case "terrain":
		mesh, err = scene.GenerateTerrain(res, size, size*0.1)
	case "sphere":
		mesh, err = scene.GenerateSphere(types.XYZ(0, 0, 0), size*0.5, res, 2*res)
	default:
		return nil, fmt.Errorf("unknown scene %q", name)
	}
	if err != nil {
		return nil, err
	}

	logger.Infof("generated %s scene with %d triangles; bounds %v", ctx.String("scene"), mesh.TriangleCount(), mesh.Bounds())
	return mesh, nil
}

// Bucketize the mesh using the cell size flag.
func buildBuckets(ctx *cli.Context, mesh scene.Mesh) (*bucket.Set, error) {
	cellSize := float32(ctx.Float64("cell-size"))
	if cellSize == 0 {
		cellSize = mesh.Bounds().Extent()[2] / 10
	}

	set, err := bucket.Build(mesh, cellSize)
	if err != nil {
		return nil, err
	}

	logger.Infof("bucketized %d triangles into %d buckets (cell size %g)", mesh.TriangleCount(), len(set.Buckets), cellSize)
	return set, nil
}

// Create a camera framing the given box using the camera flags.
func setupCamera(ctx *cli.Context, box scene.AABB) *scene.Camera {
	aspect := float32(ctx.Int("width")) / float32(ctx.Int("height"))
	cam := scene.NewCamera(float32(ctx.Float64("fov")), aspect)
	cam.LookAtBox(box)
	cam.Rotate(float32(ctx.Float64("yaw")), float32(ctx.Float64("pitch")))
	return cam
}
