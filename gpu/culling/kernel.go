package culling

import (
	_ "embed"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/VincentPHAM98/SI3D/gpu/device"
	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/scene/bucket"
)

// KernelName is the name under which devices must register the culling kernel.
const KernelName = "cullObjects"

// Kernel argument indices. Buffers bind to the storage binding point and
// uniforms to the location with the same index.
const (
	argObjects = iota
	argCounter
	argRemap
	argParams
	argViewProj
	argInvViewProj
	argObjectCount
)

//go:embed shaders/cull.comp
var shaderTemplate string

// ShaderSource returns the GLSL compute shader implementing the culling
// kernel for the given work group size.
func ShaderSource(groupSize int) string {
	return strings.ReplaceAll(shaderTemplate, "${GROUP_SIZE}", strconv.Itoa(groupSize))
}

// SoftwareKernel is the host implementation of the culling kernel for the
// software device.
func SoftwareKernel(inv *device.Invocation) {
	id := inv.GlobalID
	if id >= inv.Uint32(argObjectCount) {
		return
	}

	obj := device.View[bucket.Object](inv, argObjects)[id]
	fr := device.Constant(inv, "frustum", func() *scene.Frustum {
		fr := scene.FrustumFromViewProj(inv.Mat4(argViewProj), inv.Mat4(argInvViewProj))
		return &fr
	})
	if !fr.IsInside(obj.Bounds()) {
		return
	}

	counter := inv.Words(argCounter)
	slot := atomic.AddUint32(&counter[0], 1) - 1
	device.View[uint32](inv, argRemap)[slot] = id
	device.View[device.DrawCommand](inv, argParams)[slot] = device.DrawCommand{
		Count:         obj.VertexCount,
		InstanceCount: 1,
		First:         obj.VertexBase,
	}
}
