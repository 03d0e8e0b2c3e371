package bvh

import (
	"errors"
	"time"

	"github.com/VincentPHAM98/SI3D/log"
	"github.com/VincentPHAM98/SI3D/scene"
)

var ErrNoTriangles = errors.New("bvh: cannot build a tree without triangles")

// Options controls the tree builder.
type Options struct {
	// Node ranges with at most LeafSize triangles become leafs. Values
	// below 1 are treated as 1.
	LeafSize int
}

// DefaultOptions returns the builder defaults: a node becomes a leaf once its
// range holds fewer than 2 triangles.
func DefaultOptions() Options {
	return Options{LeafSize: 1}
}

// Build statistics.
type Stats struct {
	Nodes    int
	Leafs    int
	MaxDepth int

	// Partitions that left one side empty and fell back to a count split.
	FallbackSplits int

	BuildTime time.Duration
}

// Tree is an immutable bounding volume hierarchy. The root is stored at
// index 0. Once built it is safe for concurrent queries.
type Tree struct {
	Nodes []Node

	// The triangles reordered so that each leaf covers a contiguous range.
	Triangles []scene.Triangle

	Stats Stats
}

type builder struct {
	logger log.Logger

	nodes     []Node
	triangles []scene.Triangle
	leafSize  int

	stats Stats
}

// Build a BVH over a copy of the given triangles.
//
// Each node range is split at the spatial median of the longest axis of the
// node box. Triangles are assigned to the left side when the centroid of
// their bounding box lies strictly before the cut. If all triangles end up on
// one side the range is split in the middle instead.
func Build(triangles []scene.Triangle, opts Options) (*Tree, error) {
	if len(triangles) == 0 {
		return nil, ErrNoTriangles
	}

	leafSize := opts.LeafSize
	if leafSize < 1 {
		leafSize = 1
	}

	b := &builder{
		logger:    log.New("bvh"),
		nodes:     make([]Node, 0, 2*len(triangles)),
		triangles: append([]scene.Triangle(nil), triangles...),
		leafSize:  leafSize,
	}

	start := time.Now()
	b.partition(0, int32(len(b.triangles)), b.bounds(0, int32(len(b.triangles))), 0)
	b.stats.BuildTime = time.Since(start)

	b.logger.Debugf(
		"BVH tree build time: %d ms, triangles: %d, maxDepth: %d, nodes: %d, leafs: %d, fallback splits: %d",
		b.stats.BuildTime.Nanoseconds()/1e6, len(b.triangles),
		b.stats.MaxDepth, b.stats.Nodes, b.stats.Leafs, b.stats.FallbackSplits,
	)

	return &Tree{
		Nodes:     b.nodes,
		Triangles: b.triangles,
		Stats:     b.stats,
	}, nil
}

// Partition the [begin, end) triangle range and return the node index.
func (b *builder) partition(begin, end int32, bounds scene.AABB, depth int) int32 {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{})
	b.stats.Nodes++

	if int(end-begin) <= b.leafSize {
		b.nodes[nodeIndex] = newLeaf(bounds, begin, end)
		b.stats.Leafs++
		return nodeIndex
	}

	axis := bounds.LongestAxis()
	cut := bounds.Centroid(axis)

	mid := begin
	for i := begin; i < end; i++ {
		if b.triangles[i].Bounds().Centroid(axis) < cut {
			b.triangles[mid], b.triangles[i] = b.triangles[i], b.triangles[mid]
			mid++
		}
	}

	// Co-located centroids put everything on one side.
	if mid == begin || mid == end {
		mid = (begin + end) / 2
		b.stats.FallbackSplits++
	}

	left := b.partition(begin, mid, b.bounds(begin, mid), depth+1)
	right := b.partition(mid, end, b.bounds(mid, end), depth+1)
	b.nodes[nodeIndex] = newInternal(bounds, left, right)

	return nodeIndex
}

// Calculate the tight box around the [begin, end) triangle range.
func (b *builder) bounds(begin, end int32) scene.AABB {
	box := b.triangles[begin].Bounds()
	for i := begin + 1; i < end; i++ {
		box = box.Union(b.triangles[i].Bounds())
	}
	return box
}

// Bounds returns the root node box.
func (t *Tree) Bounds() scene.AABB {
	return t.Nodes[0].Bounds
}
