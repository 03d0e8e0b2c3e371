package bvh

import (
	"fmt"

	"github.com/VincentPHAM98/SI3D/scene"
)

type NodeKind uint8

const (
	LeafNode NodeKind = iota
	InternalNode
)

// Implements Stringer.
func (k NodeKind) String() string {
	switch k {
	case LeafNode:
		return "leaf"
	case InternalNode:
		return "internal"
	}
	return fmt.Sprintf("NodeKind(%d)", uint8(k))
}

// Node is a BVH tree node addressed by its index in the tree arena. Internal
// nodes reference two child nodes; leaf nodes reference a contiguous
// [begin, end) range of the tree triangle list.
type Node struct {
	Bounds scene.AABB
	Kind   NodeKind

	// Child indices (internal nodes) or the triangle range (leaf nodes).
	// Use the kind-checked accessors to read them.
	first, second int32
}

// Create an internal node.
func newInternal(bounds scene.AABB, left, right int32) Node {
	return Node{Bounds: bounds, Kind: InternalNode, first: left, second: right}
}

// Create a leaf node.
func newLeaf(bounds scene.AABB, begin, end int32) Node {
	return Node{Bounds: bounds, Kind: LeafNode, first: begin, second: end}
}

// IsLeaf returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Kind == LeafNode
}

// Children returns the left and right child indices of an internal node. It
// panics if called on a leaf.
func (n *Node) Children() (left, right int32) {
	if n.Kind != InternalNode {
		panic("bvh: Children called on a leaf node")
	}
	return n.first, n.second
}

// Range returns the triangle range of a leaf node. It panics if called on an
// internal node.
func (n *Node) Range() (begin, end int32) {
	if n.Kind != LeafNode {
		panic("bvh: Range called on an internal node")
	}
	return n.first, n.second
}

// Implements Stringer.
func (n Node) String() string {
	return fmt.Sprintf("%s %v [%d, %d]", n.Kind, n.Bounds, n.first, n.second)
}
