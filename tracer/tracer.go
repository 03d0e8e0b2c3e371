package tracer

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoSceneData  = errors.New("tracer: no scene data uploaded")
	ErrNoCamera     = errors.New("tracer: no camera data uploaded")
	ErrNoFrame      = errors.New("tracer: frame buffer not set up")
	ErrInvalidBlock = errors.New("tracer: block outside of frame")
	ErrTracerClosed = errors.New("tracer: tracer is closed")
)

type ChangeType uint8

const (
	// Replace the acceleration structure (*bvh.Tree).
	SetScene ChangeType = iota

	// Replace the camera (scene.View).
	UpdateCamera
)

// Strategy selects how a tracer answers closest-hit queries.
type Strategy uint8

const (
	// Recursive descent into every child whose box is hit.
	Unordered Strategy = iota

	// Near-to-far descent with far child rejection.
	Ordered

	// Test every triangle; the reference for the other two.
	BruteForce
)

// Strategy names as accepted by ParseStrategy.
var strategyNames = []string{"unordered", "ordered", "brute"}

// Implements Stringer.
func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	panic("tracer: unsupported strategy")
}

// Parse a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if n == name {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("tracer: unknown strategy %q; supported strategies: %v", name, strategyNames)
}

// FrameBuffer receives the per pixel query results. Tracers write disjoint
// row blocks so no locking is required.
type FrameBuffer struct {
	W, H uint32

	// Id of the closest triangle per pixel or -1 for a miss.
	HitIDs []int32

	// Ray parameter of the closest hit per pixel or +Inf for a miss.
	Depth []float32
}

// Create a new frame buffer with all pixels set to miss.
func NewFrameBuffer(w, h uint32) *FrameBuffer {
	fb := &FrameBuffer{
		W:      w,
		H:      h,
		HitIDs: make([]int32, w*h),
		Depth:  make([]float32, w*h),
	}
	fb.Clear()
	return fb
}

// Reset all pixels to miss.
func (fb *FrameBuffer) Clear() {
	inf := float32(math.Inf(1))
	for i := range fb.HitIDs {
		fb.HitIDs[i] = -1
		fb.Depth[i] = inf
	}
}

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// Sequence number of the frame this block belongs to.
	FrameCount uint32

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The rendered block height
	BlockH uint32

	// The time for rendering this block (in nanoseconds)
	BlockTime int64

	// Traced rays and hits for this block.
	Rays uint64
	Hits uint64
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Shutdown and cleanup tracer.
	Close()

	// Get the tracers computation speed estimate compared to a
	// baseline (single core) implementation.
	SpeedEstimate() float32

	// Attach the frame buffer that receives the results.
	Setup(frame *FrameBuffer) error

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Append a change to the tracer's update buffer.
	AppendChange(ChangeType, interface{})

	// Apply all pending changes from the update buffer.
	ApplyPendingChanges() error

	// Retrieve last frame statistics.
	Stats() *Stats
}
