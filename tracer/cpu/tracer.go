package cpu

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/VincentPHAM98/SI3D/log"
	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/scene/bvh"
	"github.com/VincentPHAM98/SI3D/tracer"
	"github.com/VincentPHAM98/SI3D/types"
)

type queryFunc func(tree *bvh.Tree, ray scene.Ray) (scene.Hit, bool)

var queries = map[tracer.Strategy]queryFunc{
	tracer.Unordered: (*bvh.Tree).Intersect,
	tracer.Ordered:   (*bvh.Tree).IntersectOrdered,
	tracer.BruteForce: func(tree *bvh.Tree, ray scene.Ray) (scene.Hit, bool) {
		return bvh.IntersectAll(tree.Triangles, ray)
	},
}

// A tracer that answers one primary ray query per pixel on a host goroutine.
type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	query queryFunc

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateBuffer map[tracer.ChangeType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan tracer.BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last rendered block.
	stats *tracer.Stats

	frame *tracer.FrameBuffer
	tree  *bvh.Tree

	// Camera state.
	eye         types.Vec3
	invViewProj types.Mat4
	hasCamera   bool
}

// Create a new cpu tracer that uses the given traversal strategy.
func NewTracer(id string, strategy tracer.Strategy) (tracer.Tracer, error) {
	query, exists := queries[strategy]
	if !exists {
		return nil, fmt.Errorf("cpu tracer (%s): unsupported strategy %d", id, strategy)
	}

	tr := &cpuTracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		query:        query,
		updateBuffer: make(map[tracer.ChangeType]interface{}),
		blockReqChan: make(chan tracer.BlockRequest, 1),
		stats:        &tracer.Stats{},
	}
	tr.startWorker()

	return tr, nil
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

// All cpu tracers run on a single goroutine.
func (tr *cpuTracer) SpeedEstimate() float32 {
	return 1
}

// Attach the frame buffer that receives the results.
func (tr *cpuTracer) Setup(frame *tracer.FrameBuffer) error {
	tr.Lock()
	defer tr.Unlock()

	tr.frame = frame
	return nil
}

// Shutdown and cleanup tracer.
func (tr *cpuTracer) Close() {
	tr.Lock()
	closeChan := tr.closeChan
	tr.closeChan = nil
	tr.Unlock()

	// The worker takes the lock while applying changes so wait for it
	// to exit without holding it.
	if closeChan != nil {
		close(closeChan)
		tr.wg.Wait()
	}

	// Fail any request that was queued while the worker was exiting.
drain:
	for {
		select {
		case blockReq := <-tr.blockReqChan:
			blockReq.ErrChan <- fmt.Errorf("cpu tracer (%s): %w", tr.id, tracer.ErrTracerClosed)
		default:
			break drain
		}
	}

	tr.Lock()
	tr.tree = nil
	tr.frame = nil
	tr.Unlock()
}

// Enqueue block request. Requests made after Close fail with
// tracer.ErrTracerClosed.
func (tr *cpuTracer) Enqueue(blockReq tracer.BlockRequest) {
	tr.Lock()
	defer tr.Unlock()

	if tr.closeChan == nil {
		blockReq.ErrChan <- fmt.Errorf("cpu tracer (%s): %w", tr.id, tracer.ErrTracerClosed)
		return
	}

	select {
	case tr.blockReqChan <- blockReq:
	default:
		// drop the request if worker is busy
		tr.logger.Error("request processor did not receive block request")
		blockReq.ErrChan <- fmt.Errorf("cpu tracer (%s): busy; dropped block request", tr.id)
	}
}

// Append a change to the tracer's update buffer.
func (tr *cpuTracer) AppendChange(changeType tracer.ChangeType, data interface{}) {
	tr.Lock()
	tr.updateBuffer[changeType] = data
	tr.Unlock()
}

// Apply all pending changes from the update buffer.
func (tr *cpuTracer) ApplyPendingChanges() error {
	tr.Lock()
	defer tr.Unlock()

	for changeType, data := range tr.updateBuffer {
		switch changeType {
		case tracer.SetScene:
			tr.tree = data.(*bvh.Tree)
		case tracer.UpdateCamera:
			view := data.(scene.View)
			tr.eye = view.Position
			tr.invViewProj = view.Proj.Mul4(view.View).Inv()
			tr.hasCamera = true
		default:
			return fmt.Errorf("cpu tracer (%s): unsupported change type %d", tr.id, changeType)
		}
	}

	tr.updateBuffer = make(map[tracer.ChangeType]interface{})
	return nil
}

// Retrieve last frame statistics.
func (tr *cpuTracer) Stats() *tracer.Stats {
	return tr.stats
}

// Spawn a go-routine to process block requests.
func (tr *cpuTracer) startWorker() {
	tr.closeChan = make(chan struct{})
	closeChan := tr.closeChan
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		for {
			select {
			case blockReq := <-tr.blockReqChan:
				startTime := time.Now()
				if err := tr.ApplyPendingChanges(); err != nil {
					blockReq.ErrChan <- err
					continue
				}

				stats, err := tr.traceBlock(&blockReq)
				if err != nil {
					blockReq.ErrChan <- err
					continue
				}

				stats.BlockH = blockReq.BlockH
				stats.BlockTime = time.Since(startTime).Nanoseconds()
				tr.Lock()
				*tr.stats = stats
				tr.Unlock()

				blockReq.DoneChan <- blockReq.BlockH
			case <-closeChan:
				return
			}
		}
	}()
}

// Trace one primary ray through the center of every pixel in the block.
func (tr *cpuTracer) traceBlock(blockReq *tracer.BlockRequest) (tracer.Stats, error) {
	var stats tracer.Stats

	tr.Lock()
	tree, frame := tr.tree, tr.frame
	eye, invViewProj, hasCamera := tr.eye, tr.invViewProj, tr.hasCamera
	tr.Unlock()

	switch {
	case frame == nil:
		return stats, tracer.ErrNoFrame
	case tree == nil:
		return stats, tracer.ErrNoSceneData
	case !hasCamera:
		return stats, tracer.ErrNoCamera
	case blockReq.BlockY+blockReq.BlockH > frame.H:
		return stats, tracer.ErrInvalidBlock
	}

	miss := float32(math.Inf(1))
	invW := 2 / float32(frame.W)
	invH := 2 / float32(frame.H)
	for y := blockReq.BlockY; y < blockReq.BlockY+blockReq.BlockH; y++ {
		ndcY := 1 - (float32(y)+0.5)*invH
		for x := uint32(0); x < frame.W; x++ {
			ndcX := (float32(x)+0.5)*invW - 1
			target := invViewProj.TransformPoint(types.XYZ(ndcX, ndcY, 1))
			ray := scene.NewRay(eye, target.Sub(eye).Normalize())

			stats.Rays++
			index := y*frame.W + x
			if hit, ok := tr.query(tree, ray); ok {
				stats.Hits++
				frame.HitIDs[index] = hit.TriangleID
				frame.Depth[index] = hit.T
			} else {
				frame.HitIDs[index] = scene.NoHit
				frame.Depth[index] = miss
			}
		}
	}

	return stats, nil
}
