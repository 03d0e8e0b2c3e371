package bvh

import (
	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/types"
)

// The mutable state of a single ray query. The ray TMax shrinks as closer
// hits are found so later box tests reject farther nodes.
type query struct {
	ray    scene.Ray
	invDir types.Vec3
	hit    scene.Hit
}

func newQuery(ray scene.Ray) *query {
	return &query{
		ray:    ray,
		invDir: ray.Dir.Recip(),
		hit:    scene.Miss(),
	}
}

// Record a candidate hit. Equal distances resolve to the lower triangle id
// so that all traversal strategies agree.
func (q *query) record(hit scene.Hit) {
	if hit.T < q.hit.T || (hit.T == q.hit.T && hit.TriangleID < q.hit.TriangleID) {
		q.hit = hit
		q.ray.TMax = hit.T
	}
}

func (q *query) result() (scene.Hit, bool) {
	return q.hit, q.hit.Valid()
}

func (t *Tree) intersectLeaf(node *Node, q *query) {
	begin, end := node.Range()
	for i := begin; i < end; i++ {
		if hit, ok := t.Triangles[i].Intersect(&q.ray); ok {
			q.record(hit)
		}
	}
}

// Intersect returns the closest triangle hit along the ray. Both children
// of every node whose box is hit are visited in a fixed order.
func (t *Tree) Intersect(ray scene.Ray) (scene.Hit, bool) {
	q := newQuery(ray)
	t.intersect(0, q)
	return q.result()
}

func (t *Tree) intersect(index int32, q *query) {
	node := &t.Nodes[index]
	if !node.Bounds.Intersect(&q.ray, q.invDir).Valid() {
		return
	}

	if node.IsLeaf() {
		t.intersectLeaf(node, q)
		return
	}

	left, right := node.Children()
	t.intersect(left, q)
	t.intersect(right, q)
}

// IntersectOrdered returns the closest triangle hit along the ray. When both
// children of a node are hit, the child whose hit interval is nearer along
// the ray is visited first.
func (t *Tree) IntersectOrdered(ray scene.Ray) (scene.Hit, bool) {
	q := newQuery(ray)
	if root := &t.Nodes[0]; root.Bounds.Intersect(&q.ray, q.invDir).Valid() {
		t.intersectOrdered(root, q)
	}
	return q.result()
}

// The caller has already checked that node's box is hit.
func (t *Tree) intersectOrdered(node *Node, q *query) {
	if node.IsLeaf() {
		t.intersectLeaf(node, q)
		return
	}

	l, r := node.Children()
	left, right := &t.Nodes[l], &t.Nodes[r]
	lhit := left.Bounds.Intersect(&q.ray, q.invDir)
	rhit := right.Bounds.Intersect(&q.ray, q.invDir)

	switch {
	case lhit.Valid() && rhit.Valid():
		near, far, farHit := left, right, rhit
		if rhit.Centroid() < lhit.Centroid() {
			near, far, farHit = right, left, lhit
		}

		t.intersectOrdered(near, q)
		if farHit.TMin <= q.ray.TMax {
			t.intersectOrdered(far, q)
		}
	case lhit.Valid():
		t.intersectOrdered(left, q)
	case rhit.Valid():
		t.intersectOrdered(right, q)
	}
}

// Occluded returns true if any triangle intersects the ray segment. The
// traversal stops at the first hit.
func (t *Tree) Occluded(ray scene.Ray) bool {
	invDir := ray.Dir.Recip()
	stack := make([]int32, 1, 64)

	for len(stack) > 0 {
		node := &t.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if !node.Bounds.Intersect(&ray, invDir).Valid() {
			continue
		}

		if node.IsLeaf() {
			begin, end := node.Range()
			for i := begin; i < end; i++ {
				if _, ok := t.Triangles[i].Intersect(&ray); ok {
					return true
				}
			}
			continue
		}

		left, right := node.Children()
		stack = append(stack, right, left)
	}

	return false
}

// Visible appends to out the ids of the triangles stored in leafs whose box
// overlaps the frustum and returns the extended slice. Subtrees whose box is
// outside the frustum are skipped.
func (t *Tree) Visible(fr *scene.Frustum, out []int32) []int32 {
	stack := make([]int32, 1, 64)

	for len(stack) > 0 {
		node := &t.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if !fr.IsInside(node.Bounds) {
			continue
		}

		if node.IsLeaf() {
			begin, end := node.Range()
			for i := begin; i < end; i++ {
				out = append(out, t.Triangles[i].ID)
			}
			continue
		}

		left, right := node.Children()
		stack = append(stack, right, left)
	}

	return out
}

// IntersectAll tests the ray against every triangle and returns the closest
// hit. It serves as the reference for the tree traversals.
func IntersectAll(triangles []scene.Triangle, ray scene.Ray) (scene.Hit, bool) {
	q := newQuery(ray)
	for i := range triangles {
		if hit, ok := triangles[i].Intersect(&q.ray); ok {
			q.record(hit)
		}
	}
	return q.result()
}
