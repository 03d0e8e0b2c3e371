package scene

import (
	"math"

	"github.com/VincentPHAM98/SI3D/types"
)

// Triangle stores one anchor vertex and the two edges leaving it. The id
// references the triangle in the owning mesh. Triangles are immutable after
// construction and are copied by value into acceleration structures.
type Triangle struct {
	// Anchor vertex (a) and edges a->b, a->c.
	P      types.Vec3
	E1, E2 types.Vec3

	ID       int32
	Material int32

	// Precomputed surface area, used for uniform area sampling.
	Area float32
}

// Create a new triangle from its three corners.
func NewTriangle(a, b, c types.Vec3, id int32) Triangle {
	tri := Triangle{
		P:  a,
		E1: b.Sub(a),
		E2: c.Sub(a),
		ID: id,
	}

	// Heron's formula
	ab := tri.E1.Len()
	ac := tri.E2.Len()
	bc := c.Sub(b).Len()
	s := (ab + ac + bc) * 0.5
	sq := s * (s - ab) * (s - bc) * (s - ac)
	if sq > 0 {
		tri.Area = float32(math.Sqrt(float64(sq)))
	}
	return tri
}

// Vertices returns the three triangle corners a, b, c.
func (tri Triangle) Vertices() [3]types.Vec3 {
	return [3]types.Vec3{tri.P, tri.P.Add(tri.E1), tri.P.Add(tri.E2)}
}

// Bounds returns the triangle bounding box.
func (tri Triangle) Bounds() AABB {
	return PointBox(tri.P).Insert(tri.P.Add(tri.E1)).Insert(tri.P.Add(tri.E2))
}

// Centroid returns the average of the three corners.
func (tri Triangle) Centroid() types.Vec3 {
	return tri.P.Add(tri.E1.Add(tri.E2).Mul(1.0 / 3.0))
}

// Point evaluates the barycentric position (1-u-v) * a + u * b + v * c.
func (tri Triangle) Point(u, v float32) types.Vec3 {
	return tri.P.Add(tri.E1.Mul(u)).Add(tri.E2.Mul(v))
}

// Intersect finds the intersection of ray with the triangle using the
// Moller-Trumbore algorithm. Both faces are hit-testable. Intersections with
// t outside [0, ray.TMax] are rejected.
func (tri Triangle) Intersect(ray *Ray) (Hit, bool) {
	pvec := ray.Dir.Cross(tri.E2)
	det := tri.E1.Dot(pvec)
	if det == 0 {
		// ray parallel to the triangle plane
		return Miss(), false
	}

	invDet := 1 / det
	tvec := ray.Origin.Sub(tri.P)

	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return Miss(), false
	}

	qvec := tvec.Cross(tri.E1)
	v := ray.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return Miss(), false
	}

	t := tri.E2.Dot(qvec) * invDet
	if t < 0 || t > ray.TMax {
		return Miss(), false
	}

	return Hit{T: t, U: u, V: v, TriangleID: tri.ID}, true
}

// SampleUniform maps two uniform numbers in [0, 1) to a point uniformly
// distributed over the triangle area.
func (tri Triangle) SampleUniform(u1, u2 float32) types.Vec3 {
	r1 := float32(math.Sqrt(float64(u1)))
	return tri.Point((1-u2)*r1, u2*r1)
}

// Pdf returns the area density of SampleUniform. Degenerate triangles
// report +Inf.
func (tri Triangle) Pdf() float32 {
	return 1 / tri.Area
}
