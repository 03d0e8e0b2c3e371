package scene

import (
	"testing"

	"github.com/VincentPHAM98/SI3D/types"
)

func testFrustum() Frustum {
	view := types.LookAtV(types.XYZ(0, 0, 5), types.XYZ(0, 0, 0), types.XYZ(0, 1, 0))
	proj := types.Perspective4(45, 1, 0.1, 100)
	return NewFrustum(view, proj)
}

func TestIsInsideClip(t *testing.T) {
	type spec struct {
		p   types.Vec4
		exp bool
	}

	specs := []spec{
		{types.XYZW(0, 0, 0, 1), true},
		{types.XYZW(1, 1, 1, 1), true},
		{types.XYZW(-2, 2, -2, 2), true},
		{types.XYZW(1.01, 0, 0, 1), false},
		{types.XYZW(0, -1.01, 0, 1), false},
		{types.XYZW(0, 0, 1.01, 1), false},
		// behind the eye
		{types.XYZW(0, 0, 0, -1), false},
	}

	for index, s := range specs {
		if got := IsInsideClip(s.p); got != s.exp {
			t.Fatalf("[spec %d] expected IsInsideClip(%v) to be %t; got %t", index, s.p, s.exp, got)
		}
	}
}

func TestFrustumCorners(t *testing.T) {
	fr := testFrustum()

	// tan(22.5deg) * near
	h := float32(0.0414214)
	expNear := [4]types.Vec3{
		{-h, -h, 4.9},
		{h, -h, 4.9},
		{h, h, 4.9},
		{-h, h, 4.9},
	}
	for i, exp := range expNear {
		if !fr.Corners[i].ApproxEqual(exp, 1e-3) {
			t.Fatalf("[corner %d] expected near corner %v; got %v", i, exp, fr.Corners[i])
		}
	}

	for i := 4; i < 8; i++ {
		if abs(fr.Corners[i][2]+95) > 0.5 {
			t.Fatalf("[corner %d] expected far corner at z=-95; got %v", i, fr.Corners[i])
		}
	}

	bounds := fr.Bounds()
	for i, c := range fr.Corners {
		if !bounds.Contains(c) {
			t.Fatalf("[corner %d] expected frustum bounds %v to contain %v", i, bounds, c)
		}
	}

	if got := len(fr.Wireframe()); got != WireframeVertexCount {
		t.Fatalf("expected frustum wireframe to have %d vertices; got %d", WireframeVertexCount, got)
	}
}

func TestFrustumIsInside(t *testing.T) {
	fr := testFrustum()
	unit := NewAABB(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1))
	translate := func(box AABB, d types.Vec3) AABB {
		return AABB{Min: box.Min.Add(d), Max: box.Max.Add(d)}
	}

	type spec struct {
		box AABB
		exp bool
	}

	specs := []spec{
		// in front of the camera
		{unit, true},
		// far along the camera back vector
		{translate(unit, types.XYZ(0, 0, 55)), false},
		// off to the side
		{translate(unit, types.XYZ(50, 0, 0)), false},
		{translate(unit, types.XYZ(0, -50, 0)), false},
		// beyond the far plane
		{translate(unit, types.XYZ(0, 0, -200)), false},
		// encloses the camera; all box corners are outside the frustum
		{translate(unit, types.XYZ(0, 0, 5)), true},
		// encloses the whole frustum
		{NewAABB(types.Splat3(-500), types.Splat3(500)), true},
		// partially visible
		{translate(unit, types.XYZ(2.5, 0, 0)), true},
	}

	for index, s := range specs {
		if got := fr.IsInside(s.box); got != s.exp {
			t.Fatalf("[spec %d] expected IsInside(%v) to be %t; got %t", index, s.box, s.exp, got)
		}
	}
}
