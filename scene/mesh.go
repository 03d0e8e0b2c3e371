package scene

import (
	"errors"
	"math"

	"github.com/VincentPHAM98/SI3D/types"
)

var (
	ErrInvalidMesh = errors.New("scene: vertex count must be a multiple of 3")
	ErrEmptyMesh   = errors.New("scene: mesh has no triangles")
)

// Mesh is the geometry service consumed by the acceleration structures.
type Mesh interface {
	// Get the number of triangles.
	TriangleCount() int

	// Get the corners of triangle i.
	Triangle(i int) [3]types.Vec3

	// Get the material index of triangle i.
	Material(i int) int32

	// Get the world space box enclosing all triangles.
	Bounds() AABB
}

// TriangleMesh is an in-memory triangle soup with 3 consecutive positions
// per triangle.
type TriangleMesh struct {
	Positions []types.Vec3
	Materials []int32

	bounds AABB
}

// Create a new triangle mesh. If materials is nil, all triangles use
// material 0.
func NewTriangleMesh(positions []types.Vec3, materials []int32) (*TriangleMesh, error) {
	if len(positions)%3 != 0 {
		return nil, ErrInvalidMesh
	}
	if len(positions) == 0 {
		return nil, ErrEmptyMesh
	}

	triCount := len(positions) / 3
	if materials == nil {
		materials = make([]int32, triCount)
	} else if len(materials) != triCount {
		return nil, ErrInvalidMesh
	}

	bounds := PointBox(positions[0])
	for _, p := range positions[1:] {
		bounds = bounds.Insert(p)
	}

	return &TriangleMesh{
		Positions: positions,
		Materials: materials,
		bounds:    bounds,
	}, nil
}

func (m *TriangleMesh) TriangleCount() int {
	return len(m.Positions) / 3
}

func (m *TriangleMesh) Triangle(i int) [3]types.Vec3 {
	return [3]types.Vec3{m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]}
}

func (m *TriangleMesh) Material(i int) int32 {
	return m.Materials[i]
}

func (m *TriangleMesh) Bounds() AABB {
	return m.bounds
}

// Triangles converts all mesh triangles into primitives whose ids match the
// mesh triangle indices.
func Triangles(mesh Mesh) []Triangle {
	out := make([]Triangle, mesh.TriangleCount())
	for i := range out {
		v := mesh.Triangle(i)
		out[i] = NewTriangle(v[0], v[1], v[2], int32(i))
		out[i].Material = mesh.Material(i)
	}
	return out
}

// Generate a grid of n*n*n axis-aligned cubes with the given edge size and
// spacing between cube origins. Each cube gets its own material index.
func GenerateCubes(n int, size, spacing float32) (*TriangleMesh, error) {
	positions := make([]types.Vec3, 0, n*n*n*36)
	materials := make([]int32, 0, n*n*n*12)

	var mat int32
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				origin := types.XYZ(float32(x), float32(y), float32(z)).Mul(spacing)
				c := NewAABB(origin, origin.Add(types.Splat3(size))).Corners()
				for _, face := range cubeFaces {
					positions = append(positions,
						c[face[0]], c[face[1]], c[face[2]],
						c[face[0]], c[face[2]], c[face[3]],
					)
					materials = append(materials, mat, mat)
				}
				mat++
			}
		}
	}
	return NewTriangleMesh(positions, materials)
}

// Cube faces as corner quads (AABB.Corners order).
var cubeFaces = [6][4]int{
	{0, 3, 2, 1}, // -z
	{4, 5, 6, 7}, // +z
	{0, 4, 7, 3}, // -x
	{1, 2, 6, 5}, // +x
	{0, 1, 5, 4}, // -y
	{3, 7, 6, 2}, // +y
}

// Generate a height field over the XZ plane with res*res quads spanning
// [0, size] on both axes.
func GenerateTerrain(res int, size, height float32) (*TriangleMesh, error) {
	if res < 1 {
		return nil, ErrEmptyMesh
	}

	step := size / float32(res)
	h := func(x, z int) types.Vec3 {
		fx, fz := float32(x)*step, float32(z)*step
		y := height * float32(math.Sin(float64(fx)*0.35)*math.Cos(float64(fz)*0.27))
		return types.XYZ(fx, y, fz)
	}

	positions := make([]types.Vec3, 0, res*res*6)
	for z := 0; z < res; z++ {
		for x := 0; x < res; x++ {
			p00, p10, p11, p01 := h(x, z), h(x+1, z), h(x+1, z+1), h(x, z+1)
			positions = append(positions, p00, p01, p11, p00, p11, p10)
		}
	}
	return NewTriangleMesh(positions, nil)
}

// Generate a UV sphere.
func GenerateSphere(center types.Vec3, radius float32, stacks, slices int) (*TriangleMesh, error) {
	if stacks < 2 || slices < 3 {
		return nil, ErrEmptyMesh
	}

	p := func(i, j int) types.Vec3 {
		theta := math.Pi * float64(i) / float64(stacks)
		phi := 2 * math.Pi * float64(j) / float64(slices)
		return center.Add(types.XYZ(
			float32(math.Sin(theta)*math.Cos(phi)),
			float32(math.Cos(theta)),
			float32(math.Sin(theta)*math.Sin(phi)),
		).Mul(radius))
	}

	positions := make([]types.Vec3, 0, stacks*slices*6)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a, b, c, d := p(i, j), p(i+1, j), p(i+1, j+1), p(i, j+1)
			if i != 0 {
				positions = append(positions, a, c, d)
			}
			if i != stacks-1 {
				positions = append(positions, a, b, c)
			}
		}
	}
	return NewTriangleMesh(positions, nil)
}
