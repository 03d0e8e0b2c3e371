package culling

import (
	"errors"
	"fmt"
	"time"

	"github.com/VincentPHAM98/SI3D/gpu/device"
	"github.com/VincentPHAM98/SI3D/log"
	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/scene/bucket"
)

var (
	ErrMissingCapability = errors.New("culling: missing device capability")
	ErrNoObjects         = errors.New("culling: no objects to cull")
)

// The work group size used when Options.GroupSize is not set.
const DefaultGroupSize = 256

// Options configures the culling pipeline.
type Options struct {
	// Number of work items per compute group. Defaults to 256.
	GroupSize int

	// Number of buffer sets used round robin by consecutive frames. Use
	// more than one when frames overlap on the device. Defaults to 1.
	FramesInFlight int
}

// WithDefaults returns a copy of the options with unset fields replaced by
// their defaults.
func (o Options) WithDefaults() Options {
	if o.GroupSize <= 0 {
		o.GroupSize = DefaultGroupSize
	}
	if o.FramesInFlight <= 0 {
		o.FramesInFlight = 1
	}
	return o
}

type State uint8

// Pipeline states. A frame always moves Idle -> Dispatched -> Retired -> Idle.
const (
	Idle State = iota
	Dispatched
	Retired
)

// Implements Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dispatched:
		return "dispatched"
	case Retired:
		return "retired"
	}
	panic("culling: unsupported state")
}

// The per-frame output buffers.
type frameBuffers struct {
	counter device.Buffer
	remap   device.Buffer
	params  device.Buffer
}

func (fb *frameBuffers) release() {
	for _, buf := range []device.Buffer{fb.counter, fb.remap, fb.params} {
		if buf != nil {
			buf.Release()
		}
	}
}

// Frame statistics.
type Stats struct {
	Frame      uint64
	Objects    int
	Groups     int
	CullTime   time.Duration
	FrameIndex int
}

// Pipeline tests the bucket boxes against the frustum on the device and
// draws the visible buckets with a single indirect call whose draw count is
// produced by the device.
type Pipeline struct {
	logger log.Logger
	dev    device.Device
	opts   Options

	kernel      device.Kernel
	objects     device.Buffer
	objectCount int

	frames []frameBuffers
	frame  uint64
	last   int
	state  State

	stats Stats
}

// Create a new culling pipeline for the given buckets. Any failure releases
// the resources allocated so far.
func New(dev device.Device, objects []bucket.Object, opts Options) (*Pipeline, error) {
	logger := log.New("culling")
	opts = opts.WithDefaults()

	for _, c := range []device.Capability{device.Compute, device.IndirectCount} {
		if !dev.Supports(c) {
			logger.Errorf("device %s does not support %s", dev.Name(), c)
			return nil, fmt.Errorf("%w: %s (device %s)", ErrMissingCapability, c, dev.Name())
		}
	}

	if len(objects) == 0 {
		return nil, ErrNoObjects
	}

	p := &Pipeline{
		logger:      logger,
		dev:         dev,
		opts:        opts,
		objectCount: len(objects),
		frames:      make([]frameBuffers, opts.FramesInFlight),
		last:        -1,
	}

	var err error
	if p.kernel, err = dev.Kernel(KernelName); err != nil {
		p.Close()
		return nil, err
	}

	p.objects = dev.Buffer("objects")
	if err = p.objects.AllocateAndWriteData(objects); err != nil {
		p.Close()
		return nil, err
	}

	for i := range p.frames {
		fb := &p.frames[i]
		fb.counter = dev.Buffer(fmt.Sprintf("visibleCount[%d]", i))
		fb.remap = dev.Buffer(fmt.Sprintf("remap[%d]", i))
		fb.params = dev.Buffer(fmt.Sprintf("drawParams[%d]", i))

		if err = fb.counter.Allocate(4); err == nil {
			if err = fb.remap.Allocate(4 * len(objects)); err == nil {
				err = fb.params.Allocate(16 * len(objects))
			}
		}
		if err != nil {
			p.Close()
			return nil, err
		}
	}

	logger.Debugf("culling pipeline ready: %d objects, group size %d, frames in flight %d", len(objects), opts.GroupSize, opts.FramesInFlight)
	return p, nil
}

// Close releases all device resources.
func (p *Pipeline) Close() {
	for i := range p.frames {
		p.frames[i].release()
	}
	if p.objects != nil {
		p.objects.Release()
		p.objects = nil
	}
	if p.kernel != nil {
		p.kernel.Release()
		p.kernel = nil
	}
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	return p.state
}

// Stats returns the statistics of the last frame.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Render culls the objects against the frustum and issues the indirect
// draw. The draw reads the visible counter only after the memory barrier
// that retires the dispatch writes.
//
// bindDraw, if not nil, is invoked between the barrier and the draw. It must
// bind the program and vertex state the indirect draw uses since the
// dispatch leaves no draw program bound.
func (p *Pipeline) Render(fr *scene.Frustum, bindDraw func()) error {
	fb := &p.frames[p.frame%uint64(len(p.frames))]

	if err := p.dispatch(fb, fr); err != nil {
		return err
	}
	p.barrier()
	if bindDraw != nil {
		bindDraw()
	}
	if err := p.draw(fb); err != nil {
		return err
	}

	p.last = int(p.frame % uint64(len(p.frames)))
	p.frame++
	return nil
}

func (p *Pipeline) dispatch(fb *frameBuffers, fr *scene.Frustum) error {
	if p.state != Idle {
		panic(fmt.Sprintf("culling: dispatch while pipeline is %s", p.state))
	}

	if err := fb.counter.Clear(); err != nil {
		return err
	}

	err := p.kernel.SetArgs(
		p.objects,
		fb.counter,
		fb.remap,
		fb.params,
		fr.ViewProj,
		fr.InvViewProj,
		uint32(p.objectCount),
	)
	if err != nil {
		return err
	}

	groups := (p.objectCount + p.opts.GroupSize - 1) / p.opts.GroupSize
	elapsed, err := p.kernel.Exec1D(groups*p.opts.GroupSize, p.opts.GroupSize)
	if err != nil {
		return err
	}

	p.state = Dispatched
	p.stats = Stats{
		Frame:      p.frame,
		Objects:    p.objectCount,
		Groups:     groups,
		CullTime:   elapsed,
		FrameIndex: int(p.frame % uint64(len(p.frames))),
	}
	return nil
}

func (p *Pipeline) barrier() {
	if p.state != Dispatched {
		panic(fmt.Sprintf("culling: barrier while pipeline is %s", p.state))
	}
	p.dev.MemoryBarrier()
	p.state = Retired
}

func (p *Pipeline) draw(fb *frameBuffers) error {
	if p.state != Retired {
		panic(fmt.Sprintf("culling: draw while pipeline is %s", p.state))
	}
	p.state = Idle
	return p.dev.DrawIndirectCount(fb.params, fb.counter, p.objectCount)
}

// Result is the read back of a culled frame.
type Result struct {
	// Indices of the visible objects in the order the kernel appended them.
	Visible []uint32

	// Draw arguments matching Visible.
	Draws []device.DrawCommand
}

// ReadResult reads back the visibility output of the last rendered frame.
// Rendering does not need it; it exists for diagnostics and tests.
func (p *Pipeline) ReadResult() (Result, error) {
	if p.last < 0 {
		return Result{}, nil
	}
	fb := &p.frames[p.last]

	var count [1]uint32
	if err := fb.counter.ReadData(0, count[:]); err != nil {
		return Result{}, err
	}

	res := Result{
		Visible: make([]uint32, count[0]),
		Draws:   make([]device.DrawCommand, count[0]),
	}
	if count[0] == 0 {
		return res, nil
	}

	if err := fb.remap.ReadData(0, res.Visible); err != nil {
		return Result{}, err
	}
	if err := fb.params.ReadData(0, res.Draws); err != nil {
		return Result{}, err
	}
	return res, nil
}
