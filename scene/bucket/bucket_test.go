package bucket

import (
	"errors"
	"math"
	"testing"

	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/types"
)

func mustMesh(t *testing.T, positions ...types.Vec3) *scene.TriangleMesh {
	mesh, err := scene.NewTriangleMesh(positions, nil)
	if err != nil {
		t.Fatal(err)
	}
	return mesh
}

func TestBuildTwoTriangles(t *testing.T) {
	mesh := mustMesh(t,
		types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0),
		types.XYZ(5, 5, 5), types.XYZ(6, 5, 5), types.XYZ(5, 6, 5),
	)

	set, err := Build(mesh, 2)
	if err != nil {
		t.Fatal(err)
	}

	if exp := [3]int32{4, 4, 3}; set.Grid.Dims != exp {
		t.Fatalf("expected grid dims %v; got %v", exp, set.Grid.Dims)
	}

	if len(set.Buckets) != 2 {
		t.Fatalf("expected 2 buckets; got %d", len(set.Buckets))
	}

	tris := scene.Triangles(mesh)
	expCells := [][3]int32{{0, 0, 0}, {2, 2, 2}}
	for i, b := range set.Buckets {
		if b.Count != 1 {
			t.Fatalf("[bucket %d] expected 1 triangle; got %d", i, b.Count)
		}
		if b.Cell != expCells[i] {
			t.Fatalf("[bucket %d] expected cell %v; got %v", i, expCells[i], b.Cell)
		}
		if exp := tris[i].Bounds(); b.Bounds != exp {
			t.Fatalf("[bucket %d] expected tightened bounds %v; got %v", i, exp, b.Bounds)
		}
		if got := set.Triangles[b.Begin].ID; got != int32(i) {
			t.Fatalf("[bucket %d] expected triangle %d; got %d", i, i, got)
		}
	}
}

func TestGridCellBoundary(t *testing.T) {
	grid := Grid{Origin: types.XYZ(0, 0, 0), CellSize: 2, Dims: [3]int32{3, 3, 3}}

	type spec struct {
		p   types.Vec3
		exp [3]int32
	}

	specs := []spec{
		{types.XYZ(0, 0, 0), [3]int32{0, 0, 0}},
		{types.XYZ(1.99, 0, 0), [3]int32{0, 0, 0}},
		// boundary points belong to the upper cell
		{types.XYZ(2, 0, 0), [3]int32{1, 0, 0}},
		{types.XYZ(4, 4, 4), [3]int32{2, 2, 2}},
		// the max corner and points outside are clamped
		{types.XYZ(6, 6, 6), [3]int32{2, 2, 2}},
		{types.XYZ(-1, 7, 3), [3]int32{0, 2, 1}},
	}

	for index, s := range specs {
		if got := grid.Cell(s.p); got != s.exp {
			t.Fatalf("[spec %d] expected cell %v for %v; got %v", index, s.exp, s.p, got)
		}
	}

	if exp := scene.NewAABB(types.XYZ(2, 0, 4), types.XYZ(4, 2, 6)); grid.CellBounds([3]int32{1, 0, 2}) != exp {
		t.Fatalf("expected cell bounds %v; got %v", exp, grid.CellBounds([3]int32{1, 0, 2}))
	}
}

func TestBuildCentroidOnCellBoundary(t *testing.T) {
	// The second triangle centroid (2, 1, 1) lies on the x = 2 grid plane.
	mesh := mustMesh(t,
		types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0),
		types.XYZ(1, 0, 0), types.XYZ(2, 3, 0), types.XYZ(3, 0, 3),
	)

	set, err := Build(mesh, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(set.Buckets) != 2 {
		t.Fatalf("expected 2 buckets; got %d", len(set.Buckets))
	}
	if exp := [3]int32{1, 0, 0}; set.Buckets[1].Cell != exp {
		t.Fatalf("expected boundary triangle in cell %v; got %v", exp, set.Buckets[1].Cell)
	}

	// The tightened box extends beyond the grid cell.
	exp := scene.NewAABB(types.XYZ(1, 0, 0), types.XYZ(3, 3, 3))
	if set.Buckets[1].Bounds != exp {
		t.Fatalf("expected bucket bounds %v; got %v", exp, set.Buckets[1].Bounds)
	}
}

func TestBuildReordersTriangles(t *testing.T) {
	mesh, err := scene.GenerateCubes(3, 1, 2)
	if err != nil {
		t.Fatal(err)
	}

	set, err := Build(mesh, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(set.Buckets) != 27 {
		t.Fatalf("expected 27 buckets; got %d", len(set.Buckets))
	}

	var next int32
	for i, b := range set.Buckets {
		if b.Begin != next {
			t.Fatalf("[bucket %d] expected range to start at %d; got %d", i, next, b.Begin)
		}
		next += b.Count

		if b.Count != 12 {
			t.Fatalf("[bucket %d] expected 12 triangles; got %d", i, b.Count)
		}

		cube := set.Triangles[b.Begin].Material
		for j := b.Begin; j < b.Begin+b.Count; j++ {
			if set.Triangles[j].Material != cube {
				t.Fatalf("[bucket %d] expected all triangles to belong to cube %d; got %d", i, cube, set.Triangles[j].Material)
			}
		}

		if exp := set.Grid.CellBounds(b.Cell).Min; b.Bounds.Min != exp || b.Bounds.Extent() != types.Splat3(1) {
			t.Fatalf("[bucket %d] expected bucket bounds to match the cube at %v; got %v", i, exp, b.Bounds)
		}
	}

	if int(next) != mesh.TriangleCount() {
		t.Fatalf("expected buckets to cover %d triangles; got %d", mesh.TriangleCount(), next)
	}

	objects := set.Objects()
	vertices := set.Vertices()
	for i, o := range objects {
		b := set.Buckets[i]
		if o.Bounds() != b.Bounds || o.VertexBase != uint32(3*b.Begin) || o.VertexCount != uint32(3*b.Count) {
			t.Fatalf("[object %d] record %+v does not mirror bucket %v", i, o, b)
		}
		for _, v := range vertices[o.VertexBase : o.VertexBase+o.VertexCount] {
			if !o.Bounds().Contains(v) {
				t.Fatalf("[object %d] expected vertex %v inside %v", i, v, o.Bounds())
			}
		}
	}

	if exp := mesh.Bounds(); set.Bounds() != exp {
		t.Fatalf("expected bucket union %v; got %v", exp, set.Bounds())
	}
}

func TestTightenIsIdempotent(t *testing.T) {
	mesh, err := scene.GenerateTerrain(16, 32, 3)
	if err != nil {
		t.Fatal(err)
	}

	set, err := Build(mesh, 5)
	if err != nil {
		t.Fatal(err)
	}

	before := append([]Bucket(nil), set.Buckets...)
	set.Tighten()
	set.Tighten()

	if len(before) != len(set.Buckets) {
		t.Fatalf("expected %d buckets after tightening; got %d", len(before), len(set.Buckets))
	}
	for i := range before {
		if before[i] != set.Buckets[i] {
			t.Fatalf("[bucket %d] expected %v; got %v", i, before[i], set.Buckets[i])
		}
	}
}

type emptyMesh struct{}

func (emptyMesh) TriangleCount() int         { return 0 }
func (emptyMesh) Triangle(int) [3]types.Vec3 { return [3]types.Vec3{} }
func (emptyMesh) Material(int) int32         { return 0 }
func (emptyMesh) Bounds() scene.AABB         { return scene.AABB{} }

func TestBuildErrors(t *testing.T) {
	cube, err := scene.GenerateCubes(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	flat := mustMesh(t, types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0))

	type spec struct {
		mesh     scene.Mesh
		cellSize float32
		exp      error
	}

	specs := []spec{
		{emptyMesh{}, 1, ErrNoTriangles},
		{cube, 0, ErrInvalidCellSize},
		{cube, -1, ErrInvalidCellSize},
		{cube, float32(math.NaN()), ErrInvalidCellSize},
		{cube, float32(math.Inf(1)), ErrInvalidCellSize},
		{flat, 1, ErrDegenerateBounds},
		{cube, 1e-4, ErrTooManyCells},
	}

	for index, s := range specs {
		set, err := Build(s.mesh, s.cellSize)
		if !errors.Is(err, s.exp) {
			t.Fatalf("[spec %d] expected error %v; got %v", index, s.exp, err)
		}
		if set != nil {
			t.Fatalf("[spec %d] expected no partial set to be returned", index)
		}
	}
}

func TestCull(t *testing.T) {
	mesh := mustMesh(t,
		types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0),
		types.XYZ(5, 5, 5), types.XYZ(6, 5, 5), types.XYZ(5, 6, 5),
	)
	set, err := Build(mesh, 2)
	if err != nil {
		t.Fatal(err)
	}

	// The camera sits between the two triangles looking at the first one.
	view := types.LookAtV(types.XYZ(0.3, 0.3, 3), types.XYZ(0.3, 0.3, 0), types.XYZ(0, 1, 0))
	fr := scene.NewFrustum(view, types.Perspective4(20, 1, 0.1, 100))

	var vis Visibility
	set.Cull(&fr, &vis)

	if vis.VisibleCount() != 1 {
		t.Fatalf("expected 1 visible bucket; got %d", vis.VisibleCount())
	}
	if exp := []bool{true, false}; vis.Flags[0] != exp[0] || vis.Flags[1] != exp[1] {
		t.Fatalf("expected flags %v; got %v", exp, vis.Flags)
	}
	if exp := (DrawRange{First: 0, Count: 3}); vis.Ranges[0] != exp {
		t.Fatalf("expected draw range %+v; got %+v", exp, vis.Ranges[0])
	}

	// Flags are recomputed from scratch every frame.
	view = types.LookAtV(types.XYZ(5.5, 5.5, 20), types.XYZ(5.5, 5.5, 0), types.XYZ(0, 1, 0))
	fr = scene.NewFrustum(view, types.Perspective4(60, 1, 0.1, 100))
	set.Cull(&fr, &vis)
	if vis.VisibleCount() != 2 || !vis.Flags[0] || !vis.Flags[1] {
		t.Fatalf("expected both buckets to be visible; got %v", vis.Flags)
	}
}

func TestWireframe(t *testing.T) {
	mesh, err := scene.GenerateCubes(2, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	set, err := Build(mesh, 2)
	if err != nil {
		t.Fatal(err)
	}

	if got, exp := len(set.Wireframe()), len(set.Buckets)*scene.WireframeVertexCount; got != exp {
		t.Fatalf("expected %d wireframe vertices; got %d", exp, got)
	}
}
