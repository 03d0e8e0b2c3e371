package renderer

import (
	"time"

	"github.com/VincentPHAM98/SI3D/log"
	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/scene/bvh"
	"github.com/VincentPHAM98/SI3D/tracer"
	"golang.org/x/sync/errgroup"
)

type Renderer interface {
	// Render frame.
	Render() error

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}

// Default splits each frame into row blocks, hands one block to
// each tracer and waits for all of them to finish.
type Default struct {
	logger log.Logger

	tracers   []tracer.Tracer
	scheduler tracer.BlockScheduler
	camera    *scene.Camera
	options   Options

	frame         *tracer.FrameBuffer
	frameCount    uint32
	cameraVersion uint64

	// Block assignments of the last frame.
	blockAssignments []uint32
	stats            FrameStats
}

// Create a new default renderer that distributes the frame among the given
// tracers. The renderer takes ownership of the tracers.
func NewDefault(tree *bvh.Tree, camera *scene.Camera, tracers []tracer.Tracer, scheduler tracer.BlockScheduler, opts Options) (*Default, error) {
	switch {
	case len(tracers) == 0:
		return nil, ErrNoTracers
	case tree == nil:
		return nil, ErrSceneNotDefined
	case camera == nil:
		return nil, ErrCameraNotDefined
	}

	r := &Default{
		logger:    log.New("renderer"),
		tracers:   tracers,
		scheduler: scheduler,
		camera:    camera,
		options:   opts,
		frame:     tracer.NewFrameBuffer(opts.FrameW, opts.FrameH),
	}

	for _, tr := range r.tracers {
		if err := tr.Setup(r.frame); err != nil {
			r.Close()
			return nil, err
		}
		tr.AppendChange(tracer.SetScene, tree)
	}

	return r, nil
}

// Frame returns the frame buffer holding the results of the last frame.
func (r *Default) Frame() *tracer.FrameBuffer {
	return r.frame
}

// Shutdown renderer and any attached tracer.
func (r *Default) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

// Get render statistics.
func (r *Default) Stats() FrameStats {
	return r.stats
}

// Render frame.
func (r *Default) Render() error {
	if len(r.tracers) == 0 {
		return ErrNoTracers
	}

	start := time.Now()

	if view := r.camera.Snapshot(); view.Version != r.cameraVersion || r.frameCount == 0 {
		for _, tr := range r.tracers {
			tr.AppendChange(tracer.UpdateCamera, view)
		}
		r.cameraVersion = view.Version
	}

	r.blockAssignments = r.scheduler.Schedule(r.tracers, r.options.FrameH)

	var group errgroup.Group
	var blockY uint32
	for idx, tr := range r.tracers {
		blockH := r.blockAssignments[idx]
		if blockH == 0 {
			continue
		}

		tr := tr
		req := tracer.BlockRequest{
			BlockY:     blockY,
			BlockH:     blockH,
			FrameCount: r.frameCount,
		}
		blockY += blockH

		group.Go(func() error {
			doneChan := make(chan uint32, 1)
			errChan := make(chan error, 1)
			req.DoneChan = doneChan
			req.ErrChan = errChan

			tr.Enqueue(req)
			select {
			case <-doneChan:
				return nil
			case err := <-errChan:
				return err
			}
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	r.frameCount++
	r.updateStats(time.Since(start))
	return nil
}

func (r *Default) updateStats(renderTime time.Duration) {
	r.stats = FrameStats{
		Tracers:    make([]TracerStat, len(r.tracers)),
		RenderTime: renderTime,
	}

	for idx, tr := range r.tracers {
		trStats := tr.Stats()
		blockH := r.blockAssignments[idx]
		r.stats.Tracers[idx] = TracerStat{
			Id:           tr.Id(),
			BlockH:       blockH,
			FramePercent: 100 * float32(blockH) / float32(r.options.FrameH),
			RenderTime:   time.Duration(trStats.BlockTime),
			Rays:         trStats.Rays,
			Hits:         trStats.Hits,
		}
	}

	r.logger.Debugf("frame %d rendered in %d ms", r.frameCount, renderTime.Nanoseconds()/1e6)
}
