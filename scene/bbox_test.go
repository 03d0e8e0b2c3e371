package scene

import (
	"testing"

	"github.com/VincentPHAM98/SI3D/types"
)

func TestAABBCornerRoundTrip(t *testing.T) {
	boxes := []AABB{
		NewAABB(types.XYZ(-1, -2, -3), types.XYZ(4, 5, 6)),
		NewAABB(types.XYZ(0.25, 0.5, 0.75), types.XYZ(0.25, 0.5, 0.75)),
		NewAABB(types.XYZ(10, -10, 3), types.XYZ(-10, 10, -3)),
	}

	for index, box := range boxes {
		corners := box.Corners()
		got := PointBox(corners[0])
		for _, c := range corners[1:] {
			got = got.Insert(c)
		}
		if got != box {
			t.Fatalf("[spec %d] expected corner round trip to yield %v; got %v", index, box, got)
		}
	}
}

func TestAABBInsertIsMonotonic(t *testing.T) {
	box := PointBox(types.XYZ(0, 0, 0))
	points := []types.Vec3{
		{1, 2, 3},
		{-1, 0, 0},
		{0.5, 0.5, 0.5},
		{0, -4, 10},
	}

	for index, p := range points {
		next := box.Insert(p)
		if !next.Contains(p) {
			t.Fatalf("[spec %d] expected %v to contain %v", index, next, p)
		}
		if !next.Contains(box.Min) || !next.Contains(box.Max) {
			t.Fatalf("[spec %d] expected %v to contain previous box %v", index, next, box)
		}
		if next.Insert(p) != next {
			t.Fatalf("[spec %d] expected re-inserting %v to be a no-op", index, p)
		}
		box = next
	}

	exp := NewAABB(types.XYZ(-1, -4, 0), types.XYZ(1, 2, 10))
	if box != exp {
		t.Fatalf("expected final box to be %v; got %v", exp, box)
	}
}

func TestAABBLongestAxis(t *testing.T) {
	type spec struct {
		box AABB
		exp int
	}

	specs := []spec{
		{NewAABB(types.XYZ(0, 0, 0), types.XYZ(3, 1, 1)), 0},
		{NewAABB(types.XYZ(0, 0, 0), types.XYZ(1, 3, 1)), 1},
		{NewAABB(types.XYZ(0, 0, 0), types.XYZ(1, 1, 3)), 2},
		{NewAABB(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)), 2},
		{NewAABB(types.XYZ(0, 0, 0), types.XYZ(2, 2, 1)), 1},
	}

	for index, s := range specs {
		if got := s.box.LongestAxis(); got != s.exp {
			t.Fatalf("[spec %d] expected longest axis %d; got %d", index, s.exp, got)
		}
	}
}

func TestAABBRayIntersection(t *testing.T) {
	box := NewAABB(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1))

	type spec struct {
		ray     Ray
		expHit  bool
		expTMin float32
		expTMax float32
	}

	specs := []spec{
		// axis aligned rays exercise the infinite reciprocals
		{NewRay(types.XYZ(0.5, 0.5, -5), types.XYZ(0, 0, 1)), true, 4, 6},
		{NewRay(types.XYZ(0.5, 0.5, 5), types.XYZ(0, 0, -1)), true, 4, 6},
		{NewRay(types.XYZ(-5, 0.5, 0.5), types.XYZ(1, 0, 0)), true, 4, 6},
		// negated axis vectors carry -0 components
		{NewRay(types.XYZ(5, 0.5, 0.5), types.XYZ(1, 0, 0).Mul(-1)), true, 4, 6},
		{NewRay(types.XYZ(0.5, 5, 0.5), types.XYZ(0, 1, 0).Mul(-1)), true, 4, 6},
		{NewRay(types.XYZ(0.5, 0.5, 0.5), types.XYZ(0, 0, 1).Mul(-1)), true, 0, 1.5},
		// origin inside the box
		{NewRay(types.XYZ(0.5, 0.5, 0.5), types.XYZ(0, 1, 0)), true, 0, 0.5},
		// pointing away
		{NewRay(types.XYZ(0.5, 0.5, 5), types.XYZ(0, 0, 1)), false, 0, 0},
		// passes beside the box
		{NewRay(types.XYZ(3, 0.5, -5), types.XYZ(0, 0, 1)), false, 0, 0},
		// segment ends before the box
		{SegmentRay(types.XYZ(0.5, 0.5, -5), types.XYZ(0.5, 0.5, -3)), false, 0, 0},
	}

	for index, s := range specs {
		hit := box.Intersect(&s.ray, s.ray.Dir.Recip())
		if hit.Valid() != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t (%v)", index, s.expHit, hit.Valid(), hit)
		}
		if !s.expHit {
			continue
		}
		if abs(hit.TMin-s.expTMin) > 1e-5 || abs(hit.TMax-s.expTMax) > 1e-5 {
			t.Fatalf("[spec %d] expected hit interval [%f, %f]; got [%f, %f]", index, s.expTMin, s.expTMax, hit.TMin, hit.TMax)
		}
	}
}

func TestAABBSubdivide8(t *testing.T) {
	box := NewAABB(types.XYZ(-2, 0, 4), types.XYZ(2, 8, 6))
	octants := box.Subdivide8()

	if got := Box(octants[:]...); got != box {
		t.Fatalf("expected octant union to be %v; got %v", box, got)
	}

	var volume float32
	for _, o := range octants {
		volume += o.Volume()
	}
	if abs(volume-box.Volume()) > 1e-4 {
		t.Fatalf("expected octant volume sum %f; got %f", box.Volume(), volume)
	}
}

func TestAABBWireframe(t *testing.T) {
	box := NewAABB(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1))
	lines := box.Wireframe()

	if len(lines) != WireframeVertexCount {
		t.Fatalf("expected %d line vertices; got %d", WireframeVertexCount, len(lines))
	}

	for i := 0; i < len(lines); i += 2 {
		d := lines[i+1].Sub(lines[i])
		if abs(d.Len()-1) > 1e-6 {
			t.Fatalf("expected edge %d to have unit length; got %f", i/2, d.Len())
		}
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
