package scene

import (
	"math"

	"github.com/VincentPHAM98/SI3D/types"
)

// NoHit is the triangle id reported by a Hit that did not strike anything.
const NoHit int32 = -1

// A ray segment p(t) = Origin + t * Dir for t in [0, TMax]. Traversals shrink
// TMax whenever a closer hit is found.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
	TMax   float32
}

// Create a ray with an unbounded segment.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{Origin: origin, Dir: dir, TMax: math.MaxFloat32}
}

// Create a ray from origin towards end. The segment is bounded so that
// t = 1 lands on end.
func SegmentRay(origin, end types.Vec3) Ray {
	return Ray{Origin: origin, Dir: end.Sub(origin), TMax: 1}
}

// At evaluates the ray position for parameter t.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// A ray/triangle intersection. The hit point is
// (1 - U - V) * a + U * b + V * c for the triangle with corners a, b, c.
type Hit struct {
	T          float32
	U, V       float32
	TriangleID int32
}

// Miss returns the hit value reported when nothing was struck.
func Miss() Hit {
	return Hit{T: math.MaxFloat32, TriangleID: NoHit}
}

// Valid returns true if the hit references a triangle.
func (h Hit) Valid() bool {
	return h.TriangleID != NoHit
}
