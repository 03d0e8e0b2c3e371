package renderer

import "time"

type TracerStat struct {
	// The tracer id.
	Id string

	// The block height and the percentage of total frame area it represents.
	BlockH       uint32
	FramePercent float32

	// Render time for assigned block
	RenderTime time.Duration

	// Traced rays and hits for the assigned block.
	Rays uint64
	Hits uint64
}

type FrameStats struct {
	// Individual tracer stats.
	Tracers []TracerStat

	// Visible buckets for the last culled frame.
	VisibleBuckets int
	TotalBuckets   int

	// Total render time for entire frame.
	RenderTime time.Duration
}
