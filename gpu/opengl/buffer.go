package opengl

import (
	"fmt"
	"unsafe"

	"github.com/VincentPHAM98/SI3D/gpu/device"
	"github.com/go-gl/gl/v4.6-core/gl"
)

// Buffer is a GL buffer object usable as a shader storage, indirect or
// parameter buffer.
type Buffer struct {
	device *Device
	name   string
	handle uint32
	size   int
}

func (b *Buffer) Name() string {
	return b.name
}

func (b *Buffer) Size() int {
	return b.size
}

// Get the GL buffer handle.
func (b *Buffer) Handle() uint32 {
	return b.handle
}

func (b *Buffer) Allocate(size int) error {
	b.Release()

	if size <= 0 {
		return fmt.Errorf("opengl device (%s): could not allocate buffer %s of size %d", b.device.Name(), b.name, size)
	}

	// Round up to whole words so Clear can use a 32-bit format.
	alloc := (size + 3) &^ 3
	gl.CreateBuffers(1, &b.handle)
	gl.NamedBufferData(b.handle, alloc, nil, gl.DYNAMIC_COPY)
	if err := glError(b.device, fmt.Sprintf("allocate buffer %s of size %d", b.name, size)); err != nil {
		b.Release()
		return err
	}

	b.size = size
	return b.Clear()
}

func (b *Buffer) AllocateAndWriteData(data interface{}) error {
	_, dataLen := device.SliceData(data)
	if err := b.Allocate(dataLen); err != nil {
		return err
	}
	return b.WriteData(data, 0)
}

func (b *Buffer) WriteData(data interface{}, offset int) error {
	if b.handle == 0 {
		return fmt.Errorf("opengl device (%s): write to %s: %w", b.device.Name(), b.name, device.ErrBufferNotReady)
	}

	dataPtr, dataLen := device.SliceData(data)
	if offset < 0 || offset+dataLen > b.size {
		return fmt.Errorf("opengl device (%s): %w (%d) in %s for copying data of length %d at offset %d", b.device.Name(), device.ErrInsufficientMem, b.size, b.name, dataLen, offset)
	}

	gl.NamedBufferSubData(b.handle, offset, dataLen, dataPtr)
	return glError(b.device, "write to "+b.name)
}

func (b *Buffer) ReadData(offset int, hostBuffer interface{}) error {
	if b.handle == 0 {
		return fmt.Errorf("opengl device (%s): read from %s: %w", b.device.Name(), b.name, device.ErrBufferNotReady)
	}

	dataPtr, dataLen := device.SliceData(hostBuffer)
	if offset < 0 || offset >= b.size {
		return fmt.Errorf("opengl device (%s): read offset %d out of range for %s", b.device.Name(), offset, b.name)
	}
	if offset+dataLen > b.size {
		dataLen = b.size - offset
	}

	gl.GetNamedBufferSubData(b.handle, offset, dataLen, dataPtr)
	return glError(b.device, "read from "+b.name)
}

func (b *Buffer) Clear() error {
	if b.handle == 0 {
		return fmt.Errorf("opengl device (%s): clear %s: %w", b.device.Name(), b.name, device.ErrBufferNotReady)
	}

	var zero uint32
	gl.ClearNamedBufferData(b.handle, gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT, unsafe.Pointer(&zero))
	return glError(b.device, "clear "+b.name)
}

func (b *Buffer) Release() {
	if b.handle != 0 {
		gl.DeleteBuffers(1, &b.handle)
		b.handle = 0
	}
	b.size = 0
}
