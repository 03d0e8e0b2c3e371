package types

import "testing"

func TestMatrixInverse(t *testing.T) {
	view := LookAtV(XYZ(3, 4, 5), XYZ(0, 0, 0), XYZ(0, 1, 0))
	proj := Perspective4(45, 1.5, 0.1, 100)
	viewProj := proj.Mul4(view)

	got := viewProj.Mul4(viewProj.Inv())
	if !got.ApproxEqual(Ident4(), 1e-4) {
		t.Fatalf("expected M * inv(M) to be the identity; got %v", got)
	}
}

func TestTransformPoint(t *testing.T) {
	type spec struct {
		m   Mat4
		in  Vec3
		exp Vec3
	}

	specs := []spec{
		{Ident4(), XYZ(1, 2, 3), XYZ(1, 2, 3)},
		{Translate4(XYZ(1, -1, 2)), XYZ(1, 2, 3), XYZ(2, 1, 5)},
		{RotateY4(90), XYZ(1, 0, 0), XYZ(0, 0, -1)},
		{RotateX4(90), XYZ(0, 1, 0), XYZ(0, 0, 1)},
	}

	for index, s := range specs {
		got := s.m.TransformPoint(s.in)
		if !got.ApproxEqual(s.exp, 1e-5) {
			t.Fatalf("[spec %d] expected %v; got %v", index, s.exp, got)
		}
	}
}

func TestPerspectiveMapsNearAndFarPlanes(t *testing.T) {
	proj := Perspective4(90, 1, 1, 10)

	near := proj.TransformPoint(XYZ(0, 0, -1))
	if abs32(near[2]+1) > 1e-5 {
		t.Fatalf("expected near plane to map to z=-1; got %f", near[2])
	}

	far := proj.TransformPoint(XYZ(0, 0, -10))
	if abs32(far[2]-1) > 1e-5 {
		t.Fatalf("expected far plane to map to z=1; got %f", far[2])
	}
}
