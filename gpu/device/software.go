package device

import (
	"fmt"
	"reflect"
	"sync"
	"time"
	"unsafe"

	"github.com/VincentPHAM98/SI3D/types"
	"golang.org/x/sync/errgroup"
)

// KernelFunc is the host implementation of a compute kernel. It is invoked
// once per work item; invocations of different work groups run concurrently.
type KernelFunc func(inv *Invocation)

// Invocation describes a single work item of a software kernel dispatch.
type Invocation struct {
	GlobalID uint32
	LocalID  uint32
	GroupID  uint32

	args     []interface{}
	dispatch *dispatchConstants
	local    map[string]interface{}
}

// Values derived from the kernel args that stay constant for a dispatch.
type dispatchConstants struct {
	mu     sync.Mutex
	values map[string]interface{}
}

// Constant returns the value stored under key for the current dispatch,
// calling build to create it on first use. build runs once per dispatch
// regardless of how many work groups ask for the key.
func Constant[T any](inv *Invocation, key string, build func() T) T {
	if v, ok := inv.local[key]; ok {
		return v.(T)
	}

	inv.dispatch.mu.Lock()
	v, ok := inv.dispatch.values[key]
	if !ok {
		v = build()
		inv.dispatch.values[key] = v
	}
	inv.dispatch.mu.Unlock()

	if inv.local == nil {
		inv.local = make(map[string]interface{})
	}
	inv.local[key] = v
	return v.(T)
}

// Words returns the storage of the buffer bound at arg as 32-bit words.
// Kernels use sync/atomic on these words for atomic counters.
func (inv *Invocation) Words(arg int) []uint32 {
	return inv.args[arg].(*SoftwareBuffer).words
}

// Uint32 returns the scalar bound at arg.
func (inv *Invocation) Uint32(arg int) uint32 {
	return inv.args[arg].(uint32)
}

// Mat4 returns the matrix bound at arg.
func (inv *Invocation) Mat4(arg int) types.Mat4 {
	return inv.args[arg].(types.Mat4)
}

// View reinterprets the buffer bound at arg as a slice of T. T must be a
// plain value type whose size is a multiple of 4 bytes.
func View[T any](inv *Invocation, arg int) []T {
	words := inv.Words(arg)
	var zero T
	n := len(words) * 4 / int(unsafe.Sizeof(zero))
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&words[0])), n)
}

type SoftwareOptions struct {
	// Kernel implementations by name.
	Kernels map[string]KernelFunc

	// Supported capabilities. A nil slice enables all capabilities.
	Capabilities []Capability

	// Reject allocations larger than this many bytes. Zero disables the
	// limit.
	MaxBufferSize int
}

// Software is a host-memory device that executes kernels on goroutines. It
// tracks pending kernel writes and rejects draws and reads that are not
// preceded by a memory barrier.
type Software struct {
	name string
	opts SoftwareOptions

	mu            sync.Mutex
	pendingWrites bool
	barriers      int
	draws         [][]DrawCommand
}

// Create a new software device.
func NewSoftware(name string, opts SoftwareOptions) *Software {
	return &Software{name: name, opts: opts}
}

func (d *Software) Name() string {
	return d.name
}

func (d *Software) Supports(c Capability) bool {
	if d.opts.Capabilities == nil {
		return true
	}
	for _, supported := range d.opts.Capabilities {
		if supported == c {
			return true
		}
	}
	return false
}

func (d *Software) Buffer(name string) Buffer {
	return &SoftwareBuffer{device: d, name: name}
}

func (d *Software) Kernel(name string) (Kernel, error) {
	fn, exists := d.opts.Kernels[name]
	if !exists {
		return nil, fmt.Errorf("software device (%s): could not load kernel %s: %w", d.name, name, ErrUnknownKernel)
	}
	return &softwareKernel{device: d, name: name, fn: fn}, nil
}

func (d *Software) MemoryBarrier() {
	d.mu.Lock()
	d.pendingWrites = false
	d.barriers++
	d.mu.Unlock()
}

func (d *Software) DrawIndirectCount(commands, count Buffer, maxDraws int) error {
	if err := d.checkRetired("draw"); err != nil {
		return err
	}

	var drawCount [1]uint32
	if err := count.ReadData(0, drawCount[:]); err != nil {
		return err
	}

	n := int(drawCount[0])
	if n > maxDraws {
		n = maxDraws
	}

	issued := make([]DrawCommand, n)
	if n > 0 {
		if err := commands.ReadData(0, issued); err != nil {
			return err
		}
	}

	d.mu.Lock()
	d.draws = append(d.draws, issued)
	d.mu.Unlock()
	return nil
}

func (d *Software) Close() {
	d.mu.Lock()
	d.draws = nil
	d.mu.Unlock()
}

// DrawCalls returns the draws issued by each DrawIndirectCount call so far.
func (d *Software) DrawCalls() [][]DrawCommand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]DrawCommand(nil), d.draws...)
}

// Barriers returns the number of memory barriers issued so far.
func (d *Software) Barriers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.barriers
}

func (d *Software) checkRetired(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pendingWrites {
		return fmt.Errorf("software device (%s): %s: %w", d.name, op, ErrUnsyncedRead)
	}
	return nil
}

// SoftwareBuffer is a buffer backed by host memory.
type SoftwareBuffer struct {
	device *Software
	name   string
	words  []uint32
	size   int
}

func (b *SoftwareBuffer) Name() string {
	return b.name
}

func (b *SoftwareBuffer) Size() int {
	return b.size
}

func (b *SoftwareBuffer) Allocate(size int) error {
	b.Release()

	if size <= 0 || (b.device.opts.MaxBufferSize > 0 && size > b.device.opts.MaxBufferSize) {
		return fmt.Errorf("software device (%s): could not allocate buffer %s of size %d", b.device.name, b.name, size)
	}

	b.words = make([]uint32, (size+3)/4)
	b.size = size
	return nil
}

func (b *SoftwareBuffer) AllocateAndWriteData(data interface{}) error {
	_, dataLen := SliceData(data)
	if err := b.Allocate(dataLen); err != nil {
		return err
	}
	return b.WriteData(data, 0)
}

func (b *SoftwareBuffer) WriteData(data interface{}, offset int) error {
	if b.words == nil {
		return fmt.Errorf("software device (%s): write to %s: %w", b.device.name, b.name, ErrBufferNotReady)
	}

	dataPtr, dataLen := SliceData(data)
	if offset < 0 || offset+dataLen > b.size {
		return fmt.Errorf("software device (%s): %w (%d) in %s for copying data of length %d at offset %d", b.device.name, ErrInsufficientMem, b.size, b.name, dataLen, offset)
	}

	copy(b.bytes()[offset:offset+dataLen], unsafe.Slice((*byte)(dataPtr), dataLen))
	return nil
}

func (b *SoftwareBuffer) ReadData(offset int, hostBuffer interface{}) error {
	if b.words == nil {
		return fmt.Errorf("software device (%s): read from %s: %w", b.device.name, b.name, ErrBufferNotReady)
	}
	if err := b.device.checkRetired("read " + b.name); err != nil {
		return err
	}

	dataPtr, dataLen := SliceData(hostBuffer)
	if offset < 0 || offset >= b.size {
		return fmt.Errorf("software device (%s): read offset %d out of range for %s", b.device.name, offset, b.name)
	}
	if offset+dataLen > b.size {
		dataLen = b.size - offset
	}

	copy(unsafe.Slice((*byte)(dataPtr), dataLen), b.bytes()[offset:offset+dataLen])
	return nil
}

func (b *SoftwareBuffer) Clear() error {
	if b.words == nil {
		return fmt.Errorf("software device (%s): clear %s: %w", b.device.name, b.name, ErrBufferNotReady)
	}
	for i := range b.words {
		b.words[i] = 0
	}
	return nil
}

func (b *SoftwareBuffer) Release() {
	b.words = nil
	b.size = 0
}

func (b *SoftwareBuffer) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.words[0])), len(b.words)*4)
}

type softwareKernel struct {
	device *Software
	name   string
	fn     KernelFunc
	args   []interface{}
}

func (k *softwareKernel) Name() string {
	return k.name
}

func (k *softwareKernel) SetArgs(args ...interface{}) error {
	for argIndex, arg := range args {
		switch t := arg.(type) {
		case *SoftwareBuffer:
			if t.words == nil {
				return fmt.Errorf("software device (%s): could not set arg %d for kernel %s: %w", k.device.name, argIndex, k.name, ErrBufferNotReady)
			}
		case uint32, int32, float32, types.Mat4, types.Vec4:
		default:
			return fmt.Errorf(
				"software device (%s): could not set arg %d for kernel %s; unsupported arg type: %s",
				k.device.name,
				argIndex,
				k.name,
				reflect.TypeOf(arg),
			)
		}
	}

	k.args = append(k.args[:0], args...)
	return nil
}

func (k *softwareKernel) Exec1D(globalWorkSize, localWorkSize int) (time.Duration, error) {
	if localWorkSize <= 0 || globalWorkSize%localWorkSize != 0 {
		return 0, fmt.Errorf("software device (%s): global work size %d for kernel %s is not a multiple of the local work size %d", k.device.name, globalWorkSize, k.name, localWorkSize)
	}

	tick := time.Now()
	constants := &dispatchConstants{values: make(map[string]interface{})}
	var group errgroup.Group
	for groupID := 0; groupID < globalWorkSize/localWorkSize; groupID++ {
		groupID := groupID
		group.Go(func() error {
			inv := Invocation{GroupID: uint32(groupID), args: k.args, dispatch: constants}
			for local := 0; local < localWorkSize; local++ {
				inv.LocalID = uint32(local)
				inv.GlobalID = uint32(groupID*localWorkSize + local)
				k.fn(&inv)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return 0, err
	}

	k.device.mu.Lock()
	k.device.pendingWrites = true
	k.device.mu.Unlock()

	return time.Since(tick), nil
}

func (k *softwareKernel) Release() {
	k.args = nil
}
