package scene

import "github.com/VincentPHAM98/SI3D/types"

// The 12 edges of a box-shaped hull given its corners in AABB.Corners order.
var hullEdges = [12][2]int{
	// min face
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	// max face
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	// connecting edges
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// WireframeVertexCount is the number of line list vertices emitted per hull.
const WireframeVertexCount = 2 * len(hullEdges)

// LineList expands 8 hull corners into a line list with one vertex pair per edge.
func LineList(corners [8]types.Vec3) []types.Vec3 {
	out := make([]types.Vec3, 0, WireframeVertexCount)
	return AppendLineList(out, corners)
}

// AppendLineList appends the hull edges to a line list and returns it.
func AppendLineList(out []types.Vec3, corners [8]types.Vec3) []types.Vec3 {
	for _, e := range hullEdges {
		out = append(out, corners[e[0]], corners[e[1]])
	}
	return out
}

// Wireframe returns the box edges as a line list.
func (b AABB) Wireframe() []types.Vec3 {
	return LineList(b.Corners())
}
