package scene

import (
	"fmt"
	"math"

	"github.com/VincentPHAM98/SI3D/types"
)

// AABB is an axis-aligned bounding box described by its component-wise
// minimum and maximum corners. The zero value is the degenerate box at the
// origin.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// The result of a ray/box slab test. The hit is valid when TMin <= TMax.
type BoxHit struct {
	TMin, TMax float32
}

// Valid returns true if the ray overlaps the box.
func (h BoxHit) Valid() bool {
	return h.TMin <= h.TMax
}

// Centroid returns the midpoint of the overlap interval along the ray.
func (h BoxHit) Centroid() float32 {
	return (h.TMin + h.TMax) * 0.5
}

// Create a box that contains only the given point.
func PointBox(p types.Vec3) AABB {
	return AABB{Min: p, Max: p}
}

// Create a box from two arbitrary corners.
func NewAABB(a, b types.Vec3) AABB {
	return AABB{Min: types.MinVec3(a, b), Max: types.MaxVec3(a, b)}
}

// Implements Stringer.
func (b AABB) String() string {
	return fmt.Sprintf("[(%g, %g, %g) - (%g, %g, %g)]", b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}

// Grow the box so that it contains p.
func (b AABB) Insert(p types.Vec3) AABB {
	return AABB{Min: types.MinVec3(b.Min, p), Max: types.MaxVec3(b.Max, p)}
}

// Grow the box so that it contains other.
func (b AABB) Union(other AABB) AABB {
	return AABB{Min: types.MinVec3(b.Min, other.Min), Max: types.MaxVec3(b.Max, other.Max)}
}

// Centroid returns the box midpoint along a single axis.
func (b AABB) Centroid(axis int) float32 {
	return (b.Min[axis] + b.Max[axis]) * 0.5
}

// Center returns the box midpoint.
func (b AABB) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extent returns the box side lengths.
func (b AABB) Extent() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// LongestAxis returns the axis with the largest extent. Ties resolve to the
// later axis, i.e. a cube splits along Z.
func (b AABB) LongestAxis() int {
	d := b.Extent()
	if d[0] > d[1] && d[0] > d[2] {
		return 0
	} else if d[1] > d[2] {
		return 1
	}
	return 2
}

// Volume returns the box volume.
func (b AABB) Volume() float32 {
	d := b.Extent()
	return d[0] * d[1] * d[2]
}

// Contains returns true if p lies inside the box or on its boundary.
func (b AABB) Contains(p types.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Corners enumerates the 8 box corners. The first four corners form the
// min-Z face, the last four the max-Z face, both in the same winding.
func (b AABB) Corners() [8]types.Vec3 {
	lo, hi := b.Min, b.Max
	return [8]types.Vec3{
		lo,
		{hi[0], lo[1], lo[2]},
		{hi[0], hi[1], lo[2]},
		{lo[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]},
		{hi[0], lo[1], hi[2]},
		hi,
		{lo[0], hi[1], hi[2]},
	}
}

// Subdivide8 splits the box into 8 octants around its center.
func (b AABB) Subdivide8() [8]AABB {
	var out [8]AABB
	center := b.Center()
	for i, corner := range b.Corners() {
		out[i] = NewAABB(center, corner)
	}
	return out
}

// Intersect runs the slab test for the ray against the box, clamping the
// result to [0, ray.TMax]. invDir must hold the per-component reciprocal of
// the ray direction; zero direction components yield infinities which the
// min/max reduction handles without branching. The slabs are swapped on the
// sign bit so that a -0 component, whose reciprocal is -Inf, is handled like
// any other negative direction.
func (b AABB) Intersect(ray *Ray, invDir types.Vec3) BoxHit {
	rmin, rmax := b.Min, b.Max
	for axis := 0; axis < 3; axis++ {
		if math.Signbit(float64(ray.Dir[axis])) {
			rmin[axis], rmax[axis] = rmax[axis], rmin[axis]
		}
	}

	dmin := rmin.Sub(ray.Origin).MulVec(invDir)
	dmax := rmax.Sub(ray.Origin).MulVec(invDir)

	tmin := max32(dmin[2], max32(dmin[1], max32(dmin[0], 0)))
	tmax := min32(dmax[2], min32(dmax[1], min32(dmax[0], ray.TMax)))
	return BoxHit{TMin: tmin, TMax: tmax}
}

// Box returns the union of all the given boxes. An empty input yields the zero box.
func Box(boxes ...AABB) AABB {
	if len(boxes) == 0 {
		return AABB{}
	}
	out := boxes[0]
	for _, box := range boxes[1:] {
		out = out.Union(box)
	}
	return out
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
