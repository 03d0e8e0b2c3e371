package bucket

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/VincentPHAM98/SI3D/log"
	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/types"
)

// The maximum number of grid cells a partition may address.
const maxCells = 1 << 24

var (
	ErrNoTriangles      = errors.New("bucket: mesh has no triangles")
	ErrInvalidCellSize  = errors.New("bucket: cell size must be positive")
	ErrDegenerateBounds = errors.New("bucket: scene bounds have zero volume")
	ErrTooManyCells     = errors.New("bucket: cell size too small for scene bounds")
)

// A regular grid covering the scene box.
type Grid struct {
	Origin   types.Vec3
	CellSize float32

	// Number of cells along each axis.
	Dims [3]int32
}

// CellCount returns the total number of grid cells.
func (g Grid) CellCount() int {
	return int(g.Dims[0]) * int(g.Dims[1]) * int(g.Dims[2])
}

// Cell returns the coordinates of the cell containing p. A point on the
// boundary between two cells belongs to the upper cell. Points outside the
// grid are clamped to the nearest cell.
func (g Grid) Cell(p types.Vec3) [3]int32 {
	var cell [3]int32
	for axis := 0; axis < 3; axis++ {
		c := int32(math.Floor(float64((p[axis] - g.Origin[axis]) / g.CellSize)))
		if c < 0 {
			c = 0
		} else if c >= g.Dims[axis] {
			c = g.Dims[axis] - 1
		}
		cell[axis] = c
	}
	return cell
}

// CellBounds returns the box covered by the given cell.
func (g Grid) CellBounds(cell [3]int32) scene.AABB {
	min := g.Origin.Add(types.XYZ(float32(cell[0]), float32(cell[1]), float32(cell[2])).Mul(g.CellSize))
	return scene.AABB{Min: min, Max: min.Add(types.Splat3(g.CellSize))}
}

// Linear cell index. Cells are ordered by z, then y, then x.
func (g Grid) index(cell [3]int32) int {
	return (int(cell[2])*int(g.Dims[1])+int(cell[1]))*int(g.Dims[0]) + int(cell[0])
}

// A group of triangles whose centroids fall in the same grid cell.
type Bucket struct {
	// Tight box around the member triangles.
	Bounds scene.AABB

	Cell [3]int32

	// Member triangles occupy [Begin, Begin+Count) in Set.Triangles.
	Begin int32
	Count int32
}

// VertexBase returns the first vertex of the bucket in the vertex list
// returned by Set.Vertices.
func (b *Bucket) VertexBase() uint32 {
	return uint32(3 * b.Begin)
}

// VertexCount returns the number of vertices in the bucket.
func (b *Bucket) VertexCount() uint32 {
	return uint32(3 * b.Count)
}

// Implements Stringer.
func (b Bucket) String() string {
	return fmt.Sprintf("cell %v %v triangles: [%d, %d)", b.Cell, b.Bounds, b.Begin, b.Begin+b.Count)
}

// Set is the list of non-empty buckets built over a mesh. The triangles
// are reordered so that every bucket covers a contiguous range.
type Set struct {
	Grid      Grid
	Buckets   []Bucket
	Triangles []scene.Triangle
}

// Build partitions the mesh triangles into a regular grid with the given cell
// size, drops the empty cells and fits each bucket box to its members.
func Build(mesh scene.Mesh, cellSize float32) (*Set, error) {
	logger := log.New("bucket")

	if mesh.TriangleCount() == 0 {
		return nil, ErrNoTriangles
	}
	if !(cellSize > 0) || math.IsInf(float64(cellSize), 0) {
		return nil, ErrInvalidCellSize
	}

	bounds := mesh.Bounds()
	if !(bounds.Volume() > 0) {
		return nil, ErrDegenerateBounds
	}

	start := time.Now()

	grid := Grid{Origin: bounds.Min, CellSize: cellSize}
	extent := bounds.Extent()
	cells := 1.0
	for axis := 0; axis < 3; axis++ {
		n := math.Floor(float64(extent[axis]/cellSize)) + 1
		cells *= n
		if cells > maxCells {
			return nil, fmt.Errorf("%w: %v with cell size %g", ErrTooManyCells, bounds, cellSize)
		}
		grid.Dims[axis] = int32(n)
	}

	// Assign each triangle to the cell containing its centroid and sort
	// by cell so that members end up contiguous.
	type assignment struct {
		index int
		cell  [3]int32
		tri   scene.Triangle
	}
	tris := scene.Triangles(mesh)
	assigned := make([]assignment, len(tris))
	for i, tri := range tris {
		cell := grid.Cell(tri.Centroid())
		assigned[i] = assignment{index: grid.index(cell), cell: cell, tri: tri}
	}
	slices.SortStableFunc(assigned, func(a, b assignment) int {
		return a.index - b.index
	})

	set := &Set{
		Grid:      grid,
		Triangles: make([]scene.Triangle, len(assigned)),
	}
	for i, a := range assigned {
		set.Triangles[i] = a.tri
		if i == 0 || a.index != assigned[i-1].index {
			set.Buckets = append(set.Buckets, Bucket{
				Cell:  a.cell,
				Begin: int32(i),
			})
		}
		set.Buckets[len(set.Buckets)-1].Count++
	}

	set.Tighten()

	logger.Debugf(
		"bucket build time: %d ms, triangles: %d, grid: %v (%d cells), non-empty buckets: %d",
		time.Since(start).Nanoseconds()/1e6, len(set.Triangles), grid.Dims, grid.CellCount(), len(set.Buckets),
	)

	return set, nil
}

// Tighten fits every bucket box to the vertices of its member triangles and
// drops buckets without members. Running it again is a no-op.
func (s *Set) Tighten() {
	kept := s.Buckets[:0]
	for _, b := range s.Buckets {
		if b.Count == 0 {
			continue
		}
		box := s.Triangles[b.Begin].Bounds()
		for i := b.Begin + 1; i < b.Begin+b.Count; i++ {
			box = box.Union(s.Triangles[i].Bounds())
		}
		b.Bounds = box
		kept = append(kept, b)
	}
	s.Buckets = kept
}

// Bounds returns the union of all bucket boxes.
func (s *Set) Bounds() scene.AABB {
	box := s.Buckets[0].Bounds
	for _, b := range s.Buckets[1:] {
		box = box.Union(b.Bounds)
	}
	return box
}

// Vertices returns the reordered triangle corners, 3 per triangle.
func (s *Set) Vertices() []types.Vec3 {
	out := make([]types.Vec3, 0, 3*len(s.Triangles))
	for _, tri := range s.Triangles {
		v := tri.Vertices()
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

// Wireframe returns the bucket boxes as a single line list.
func (s *Set) Wireframe() []types.Vec3 {
	out := make([]types.Vec3, 0, len(s.Buckets)*scene.WireframeVertexCount)
	for _, b := range s.Buckets {
		out = scene.AppendLineList(out, b.Bounds.Corners())
	}
	return out
}
