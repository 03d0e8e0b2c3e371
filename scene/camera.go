package scene

import (
	"math"
	"sync"

	"github.com/VincentPHAM98/SI3D/types"
)

const minOrbitSize = 0.01

// An immutable camera snapshot. Every camera mutation bumps the version so
// consumers can detect stale derived state.
type View struct {
	Version  uint64
	View     types.Mat4
	Proj     types.Mat4
	Position types.Vec3
}

// The camera type implements an orbiter around a scene center. Mutators
// update the orbit parameters; matrices and the frustum are derived on read.
type Camera struct {
	mu sync.Mutex

	center types.Vec3
	size   float32

	// Rotation around the X and Y axes in degrees.
	rotation types.Vec2

	// Screen space panning offset.
	pan types.Vec2

	fov    float32
	aspect float32

	version uint64

	frustum        Frustum
	frustumVersion uint64
	frustumValid   bool
}

// Create a new camera with the given vertical fov (in degrees) and aspect ratio.
func NewCamera(fov, aspect float32) *Camera {
	return &Camera{
		size:   5,
		fov:    fov,
		aspect: aspect,
	}
}

// LookAt centers the orbit on center at the given distance and resets any
// rotation and panning.
func (c *Camera) LookAt(center types.Vec3, size float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.center = center
	c.size = float32(math.Max(float64(size), minOrbitSize))
	c.rotation = types.Vec2{}
	c.pan = types.Vec2{}
	c.version++
}

// LookAtBox frames the given box.
func (c *Camera) LookAtBox(box AABB) {
	c.LookAt(box.Center(), box.Extent().Len())
}

// Rotate orbits the camera. Angles are specified in degrees; dx rotates
// around the Y axis and dy around the X axis.
func (c *Camera) Rotate(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rotation[0] += dy
	c.rotation[1] += dx
	c.version++
}

// Translate pans the camera. The offsets are fractions of the orbit size.
func (c *Camera) Translate(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pan[0] -= c.size * dx
	c.pan[1] += c.size * dy
	c.version++
}

// Dolly moves the camera towards (positive amount) or away from the orbit
// center by a percentage of the current distance.
func (c *Camera) Dolly(amount float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.size -= c.size * 0.01 * amount
	if c.size < minOrbitSize {
		c.size = minOrbitSize
	}
	c.version++
}

// SetAspect updates the projection aspect ratio.
func (c *Camera) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.aspect = aspect
	c.version++
}

// Version returns the current camera version.
func (c *Camera) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Snapshot returns the current view and projection matrices.
func (c *Camera) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Frustum returns the frustum for the current camera state. The frustum is
// cached until the next mutation.
func (c *Camera) Frustum() Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.frustumValid || c.frustumVersion != c.version {
		v := c.snapshot()
		c.frustum = NewFrustum(v.View, v.Proj)
		c.frustumVersion = v.Version
		c.frustumValid = true
	}
	return c.frustum
}

func (c *Camera) snapshot() View {
	view := types.Translate4(types.XYZ(-c.pan[0], -c.pan[1], -c.size)).
		Mul4(types.RotateX4(c.rotation[0])).
		Mul4(types.RotateY4(c.rotation[1])).
		Mul4(types.Translate4(c.center.Mul(-1)))

	position := view.Inv().TransformPoint(types.Vec3{})

	// Fit the clip planes around the orbit sphere.
	dist := position.Sub(c.center).Len()
	near := float32(math.Max(0.1, float64(dist-c.size)))
	far := float32(math.Max(1, float64(dist+c.size)))

	return View{
		Version:  c.version,
		View:     view,
		Proj:     types.Perspective4(c.fov, c.aspect, near, far),
		Position: position,
	}
}
