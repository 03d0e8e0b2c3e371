package opengl

import (
	"fmt"
	"reflect"
	"time"

	"github.com/VincentPHAM98/SI3D/types"
	"github.com/go-gl/gl/v4.6-core/gl"
)

// A compute program exposed as a device kernel.
type Kernel struct {
	device  *Device
	name    string
	program uint32

	// Work group size compiled into the shader.
	groupSize [3]int32

	args []interface{}
}

func (k *Kernel) Name() string {
	return k.name
}

// Bind arguments to the kernel. Buffers map to the storage binding and
// everything else to the uniform location matching the argument index. The
// bindings are applied when the kernel is executed.
func (k *Kernel) SetArgs(args ...interface{}) error {
	for argIndex, arg := range args {
		switch t := arg.(type) {
		case *Buffer:
			if t.handle == 0 {
				return fmt.Errorf("opengl device (%s): could not set arg %d for kernel %s; buffer %s is not allocated", k.device.Name(), argIndex, k.name, t.name)
			}
		case uint32, int32, float32, types.Mat4, types.Vec4:
		default:
			return fmt.Errorf(
				"opengl device (%s): could not set arg %d for kernel %s; unsupported arg type: %s",
				k.device.Name(),
				argIndex,
				k.name,
				reflect.TypeOf(arg),
			)
		}
	}

	k.args = append(k.args[:0], args...)
	return nil
}

// Exec1D dispatches the kernel. The returned duration only covers command
// submission; the dispatch completes asynchronously. The program bound
// before the call is restored.
func (k *Kernel) Exec1D(globalWorkSize, localWorkSize int) (time.Duration, error) {
	if localWorkSize != int(k.groupSize[0]) || globalWorkSize%localWorkSize != 0 {
		return 0, fmt.Errorf("opengl device (%s): kernel %s was compiled with a work group size of %d; got global/local work size %d/%d", k.device.Name(), k.name, k.groupSize[0], globalWorkSize, localWorkSize)
	}

	var prevProgram int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &prevProgram)

	tick := time.Now()
	gl.UseProgram(k.program)
	for argIndex, arg := range k.args {
		loc := int32(argIndex)
		switch t := arg.(type) {
		case *Buffer:
			gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(argIndex), t.handle)
		case uint32:
			gl.Uniform1ui(loc, t)
		case int32:
			gl.Uniform1i(loc, t)
		case float32:
			gl.Uniform1f(loc, t)
		case types.Mat4:
			gl.UniformMatrix4fv(loc, 1, false, t.Ptr())
		case types.Vec4:
			gl.Uniform4fv(loc, 1, &t[0])
		}
	}

	gl.DispatchCompute(uint32(globalWorkSize/localWorkSize), 1, 1)
	gl.UseProgram(uint32(prevProgram))
	if err := glError(k.device, "dispatch "+k.name); err != nil {
		return 0, err
	}

	return time.Since(tick), nil
}

func (k *Kernel) Release() {
	if k.program != 0 {
		gl.DeleteProgram(k.program)
		k.program = 0
	}
	k.args = nil
}
