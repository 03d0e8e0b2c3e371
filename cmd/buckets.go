package cmd

import (
	"bytes"
	"fmt"

	"github.com/VincentPHAM98/SI3D/scene/bucket"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Bucketize the scene and print the bucket table. When the cull flag is set
// the buckets are also tested against the camera frustum on the host.
func ListBuckets(ctx *cli.Context) error {
	setupLogging(ctx)

	mesh, err := loadMesh(ctx)
	if err != nil {
		return err
	}
	set, err := buildBuckets(ctx, mesh)
	if err != nil {
		return err
	}

	var vis bucket.Visibility
	cam := setupCamera(ctx, set.Bounds())
	fr := cam.Frustum()
	set.Cull(&fr, &vis)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Cell", "Triangles", "Vertex range", "Bounds", "Visible"})
	for idx := range set.Buckets {
		b := &set.Buckets[idx]
		table.Append([]string{
			fmt.Sprintf("%d", idx),
			fmt.Sprintf("%v", b.Cell),
			fmt.Sprintf("%d", b.Count),
			fmt.Sprintf("[%d, %d)", b.VertexBase(), b.VertexBase()+b.VertexCount()),
			b.Bounds.String(),
			fmt.Sprintf("%t", vis.Flags[idx]),
		})
	}
	table.SetFooter([]string{"", "", fmt.Sprintf("%d", len(set.Triangles)), "", "VISIBLE", fmt.Sprintf("%d/%d", vis.VisibleCount(), len(set.Buckets))})

	table.Render()
	logger.Noticef("grid %v cells of size %g\n%s", set.Grid.Dims, set.Grid.CellSize, buf.String())
	return nil
}
