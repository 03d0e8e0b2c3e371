package scene

import (
	"fmt"

	"github.com/VincentPHAM98/SI3D/types"
)

// Clip space corners of the canonical view volume. The ordering matches
// AABB.Corners so that the same edge list draws both shapes.
var clipCorners = [8]types.Vec4{
	{-1, -1, -1, 1},
	{1, -1, -1, 1},
	{1, 1, -1, 1},
	{-1, 1, -1, 1},
	{-1, -1, 1, 1},
	{1, -1, 1, 1},
	{1, 1, 1, 1},
	{-1, 1, 1, 1},
}

// Frustum wraps a view/projection pair together with the values derived
// from it. Frustums are values; a camera change produces a new frustum.
type Frustum struct {
	View types.Mat4
	Proj types.Mat4

	// World to clip space transformation (proj * view) and its inverse.
	ViewProj    types.Mat4
	InvViewProj types.Mat4

	// Frustum corners in world space. The first four corners lie on the
	// near plane.
	Corners [8]types.Vec3
}

// Create a new frustum for the given view and projection matrices.
func NewFrustum(view, proj types.Mat4) Frustum {
	fr := FrustumFromViewProj(proj.Mul4(view), view.Inv().Mul4(proj.Inv()))
	fr.View = view
	fr.Proj = proj
	return fr
}

// Create a frustum from a combined world to clip matrix and its inverse.
// The View and Proj fields of the result are left unset.
func FrustumFromViewProj(viewProj, invViewProj types.Mat4) Frustum {
	fr := Frustum{
		ViewProj:    viewProj,
		InvViewProj: invViewProj,
	}
	for i, c := range clipCorners {
		fr.Corners[i] = invViewProj.Mul4x1(c).Project()
	}
	return fr
}

// Implements Stringer.
func (fr Frustum) String() string {
	return fmt.Sprintf("Frustum near: %v %v %v %v far: %v %v %v %v",
		fr.Corners[0], fr.Corners[1], fr.Corners[2], fr.Corners[3],
		fr.Corners[4], fr.Corners[5], fr.Corners[6], fr.Corners[7],
	)
}

// IsInsideClip returns true if a clip space point lies inside the view volume,
// i.e. -w <= x, y, z <= w. Points on the boundary are considered inside.
func IsInsideClip(p types.Vec4) bool {
	w := p[3]
	return p[0] >= -w && p[0] <= w &&
		p[1] >= -w && p[1] <= w &&
		p[2] >= -w && p[2] <= w
}

// IsInside returns true if the world space box overlaps the frustum. The box
// is visible if any of its corners projects inside the view volume or if any
// frustum corner lies inside the box. The second test catches boxes that
// enclose the near plane or straddle the frustum with all corners outside.
func (fr *Frustum) IsInside(box AABB) bool {
	for _, p := range box.Corners() {
		if IsInsideClip(fr.ViewProj.Mul4x1(p.Vec4(1))) {
			return true
		}
	}

	for _, p := range fr.Corners {
		if box.Contains(p) {
			return true
		}
	}

	return false
}

// Bounds returns the world space box enclosing the frustum.
func (fr *Frustum) Bounds() AABB {
	box := PointBox(fr.Corners[0])
	for _, p := range fr.Corners[1:] {
		box = box.Insert(p)
	}
	return box
}

// Wireframe returns the frustum edges as a line list.
func (fr *Frustum) Wireframe() []types.Vec3 {
	return LineList(fr.Corners)
}
