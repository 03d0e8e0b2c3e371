package device

import (
	"errors"
	"reflect"
	"time"
	"unsafe"
)

type Capability uint8

// Device capabilities queried before building GPU pipelines.
const (
	// Compute dispatches with shader storage buffers and atomics.
	Compute Capability = iota

	// Indirect multi-draw calls that read their draw count from a buffer.
	IndirectCount

	// Per-draw index (gl_DrawID) available to vertex shaders.
	DrawParameters
)

// All known capabilities.
var Capabilities = []Capability{Compute, IndirectCount, DrawParameters}

// Implements Stringer.
func (c Capability) String() string {
	switch c {
	case Compute:
		return "compute"
	case IndirectCount:
		return "indirect-count"
	case DrawParameters:
		return "draw-parameters"
	}
	panic("device: unsupported capability")
}

var (
	ErrUnsyncedRead    = errors.New("device: buffer read before the dispatch writes were retired by a memory barrier")
	ErrUnknownKernel   = errors.New("device: unknown kernel")
	ErrBufferNotReady  = errors.New("device: buffer not allocated")
	ErrInsufficientMem = errors.New("device: insufficient buffer space")
)

// DrawCommand is the argument record of a single indirect draw. The layout
// matches DrawArraysIndirectCommand.
type DrawCommand struct {
	Count         uint32
	InstanceCount uint32
	First         uint32
	BaseInstance  uint32
}

// Buffer is a device-resident memory block.
type Buffer interface {
	// Get buffer name.
	Name() string

	// Get allocated size in bytes.
	Size() int

	// Allocate a zero-filled buffer with the given size. Any previous
	// allocation is released.
	Allocate(size int) error

	// Allocate a buffer large enough for data and copy data to it. The
	// behavior is undefined if data is not a non-empty slice of plain values.
	AllocateAndWriteData(data interface{}) error

	// Write data at the given byte offset.
	WriteData(data interface{}, offset int) error

	// Read buffer contents starting at the given byte offset into the
	// host slice.
	ReadData(offset int, hostBuffer interface{}) error

	// Zero the buffer contents.
	Clear() error

	// Release buffer.
	Release()
}

// Kernel is a compute program entrypoint. Buffer args are bound to the
// storage binding point matching their argument index; scalar and matrix
// args are bound to the uniform location matching their index.
type Kernel interface {
	Name() string

	// Bind arguments to the kernel.
	SetArgs(args ...interface{}) error

	// Dispatch the kernel over globalWorkSize items split in groups of
	// localWorkSize. The global size must be a multiple of the local size.
	// The kernel writes are not visible to draws or reads until the next
	// device memory barrier.
	Exec1D(globalWorkSize, localWorkSize int) (time.Duration, error)

	Release()
}

// Device is the rendering backend consumed by the GPU pipelines.
type Device interface {
	// Get device name.
	Name() string

	// Check whether the device supports a capability.
	Supports(Capability) bool

	// Create an empty buffer.
	Buffer(name string) Buffer

	// Load kernel by name.
	Kernel(name string) (Kernel, error)

	// Retire all pending kernel writes so that they are visible to
	// subsequent draws and reads.
	MemoryBarrier()

	// Issue min(count[0], maxDraws) indirect draws. The draw arguments are
	// read from the commands buffer and the draw count from the first
	// uint32 of the count buffer.
	DrawIndirectCount(commands, count Buffer, maxDraws int) error

	// Release device resources.
	Close()
}

// Given an interface{} containing a slice return a pointer to its data and
// its length in bytes.
func SliceData(data interface{}) (unsafe.Pointer, int) {
	reflVal := reflect.ValueOf(data)

	if reflVal.Kind() != reflect.Slice {
		panic("SliceData: this function only supports slices")
	}

	sliceElemCount := reflVal.Len()
	if sliceElemCount == 0 {
		panic("SliceData: supplied slice object is empty")
	}

	return unsafe.Pointer(reflVal.Index(0).Addr().Pointer()),
		sliceElemCount * int(reflect.TypeOf(data).Elem().Size())
}
