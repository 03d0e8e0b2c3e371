package bucket

import "github.com/VincentPHAM98/SI3D/scene"

// Object is the GPU mirror of a bucket. The field order matches the std430
// layout of the culling shader:
//
//	struct Object { vec3 pmin; uint vertex_count; vec3 pmax; uint vertex_base; };
type Object struct {
	Pmin        [3]float32
	VertexCount uint32
	Pmax        [3]float32
	VertexBase  uint32
}

// Bounds returns the object box.
func (o *Object) Bounds() scene.AABB {
	return scene.AABB{Min: o.Pmin, Max: o.Pmax}
}

// Objects returns the GPU records for all buckets in bucket order.
func (s *Set) Objects() []Object {
	out := make([]Object, len(s.Buckets))
	for i := range s.Buckets {
		b := &s.Buckets[i]
		out[i] = Object{
			Pmin:        b.Bounds.Min,
			VertexCount: b.VertexCount(),
			Pmax:        b.Bounds.Max,
			VertexBase:  b.VertexBase(),
		}
	}
	return out
}

// A contiguous vertex range to draw.
type DrawRange struct {
	First uint32
	Count uint32
}

// Visibility holds the per-frame culling result of the CPU path. The flags
// are only meaningful for the frame they were computed for; pass the same
// value to Cull every frame to reuse its storage.
type Visibility struct {
	// Per bucket draw flag.
	Flags []bool

	// Vertex ranges of the visible buckets in bucket order.
	Ranges []DrawRange
}

// VisibleCount returns the number of visible buckets.
func (v *Visibility) VisibleCount() int {
	return len(v.Ranges)
}

// Cull tests every bucket against the frustum and records the visible ones
// in vis.
func (s *Set) Cull(fr *scene.Frustum, vis *Visibility) {
	if cap(vis.Flags) < len(s.Buckets) {
		vis.Flags = make([]bool, len(s.Buckets))
	}
	vis.Flags = vis.Flags[:len(s.Buckets)]
	vis.Ranges = vis.Ranges[:0]

	for i := range s.Buckets {
		b := &s.Buckets[i]
		vis.Flags[i] = fr.IsInside(b.Bounds)
		if vis.Flags[i] {
			vis.Ranges = append(vis.Ranges, DrawRange{First: b.VertexBase(), Count: b.VertexCount()})
		}
	}
}
