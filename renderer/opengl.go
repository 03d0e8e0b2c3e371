package renderer

import (
	"time"

	"github.com/VincentPHAM98/SI3D/gpu/culling"
	"github.com/VincentPHAM98/SI3D/gpu/opengl"
	"github.com/VincentPHAM98/SI3D/log"
	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/scene/bucket"
	"github.com/VincentPHAM98/SI3D/types"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	// Coefficients for converting cursor movements to orbit angles.
	mouseSensitivityX float32 = 0.5
	mouseSensitivityY float32 = 0.5

	// Step sizes for the keyboard controlled culling camera.
	keyRotateStep    float32 = 1
	keyDollyStep     float32 = 1
	keyTranslateStep float32 = 10
)

const (
	leftMouseButton = iota
	rightMouseButton
	middleMouseButton
)

var (
	bucketWireColor  = types.XYZ(0.9, 0.2, 0.2)
	frustumWireColor = types.XYZ(1, 1, 0.2)
)

// An interactive renderer that culls the scene buckets on the GPU every
// frame and draws the visible ones with a single indirect count draw.
//
// Two cameras are used: the culling camera defines the tested frustum and
// the free camera the point of view. Pressing P switches the point of view
// to the culling camera.
type interactiveGLRenderer struct {
	logger  log.Logger
	options Options

	device   *opengl.Device
	set      *bucket.Set
	pipeline *culling.Pipeline

	meshProgram *opengl.Program
	lineProgram *opengl.Program
	meshVerts   *opengl.VertexArray
	bucketWires *opengl.VertexArray
	frustumWire *opengl.VertexArray

	// state
	freeCamera    *scene.Camera
	cullCamera    *scene.Camera
	cullPOV       bool
	showWires     bool
	lastCursorPos types.Vec2
	mousePressed  [3]bool

	frameCount uint64
	stats      FrameStats
}

// Create a new interactive renderer for the given bucket set. The device
// window must have been created with the frame dims from opts.
func NewInteractive(dev *opengl.Device, set *bucket.Set, freeCamera, cullCamera *scene.Camera, opts Options) (Renderer, error) {
	r := &interactiveGLRenderer{
		logger:     log.New("renderer"),
		options:    opts,
		device:     dev,
		set:        set,
		freeCamera: freeCamera,
		cullCamera: cullCamera,
		showWires:  opts.ShowWireframes,
	}

	err := r.initGL()
	if err != nil {
		r.Close()
		return nil, err
	}

	r.pipeline, err = culling.New(dev, set.Objects(), opts.Culling)
	if err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

func (r *interactiveGLRenderer) initGL() error {
	var err error
	if r.meshProgram, err = r.device.NewMeshProgram(); err != nil {
		return err
	}
	if r.lineProgram, err = r.device.NewLineProgram(); err != nil {
		return err
	}

	r.meshVerts = opengl.NewVertexArray(r.set.Vertices())
	r.bucketWires = opengl.NewVertexArray(r.set.Wireframe())
	fr := r.cullCamera.Frustum()
	r.frustumWire = opengl.NewVertexArray(fr.Wireframe())

	gl.ClearColor(0.2, 0.2, 0.2, 1)
	gl.ClearDepth(1)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.DEPTH_TEST)
	gl.Viewport(0, 0, int32(r.options.FrameW), int32(r.options.FrameH))

	// Bind event callbacks
	window := r.device.Window()
	window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	window.SetKeyCallback(r.onKeyEvent)
	window.SetMouseButtonCallback(r.onMouseEvent)
	window.SetCursorPosCallback(r.onCursorPosEvent)
	window.SetScrollCallback(r.onScrollEvent)

	return nil
}

func (r *interactiveGLRenderer) Close() {
	if r.pipeline != nil {
		r.pipeline.Close()
		r.pipeline = nil
	}
	for _, va := range []*opengl.VertexArray{r.meshVerts, r.bucketWires, r.frustumWire} {
		if va != nil {
			va.Release()
		}
	}
	for _, p := range []*opengl.Program{r.meshProgram, r.lineProgram} {
		if p != nil {
			p.Release()
		}
	}
	if w := r.device.Window(); w != nil {
		w.SetShouldClose(true)
	}
}

// Render frames until the window is closed.
func (r *interactiveGLRenderer) Render() error {
	window := r.device.Window()
	for !window.ShouldClose() {
		glfw.PollEvents()

		if err := r.renderFrame(); err != nil {
			return err
		}
		window.SwapBuffers()
	}
	return nil
}

func (r *interactiveGLRenderer) renderFrame() error {
	start := time.Now()
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	cullFrustum := r.cullCamera.Frustum()
	viewFrustum := r.freeCamera.Frustum()
	if r.cullPOV {
		viewFrustum = cullFrustum
	}

	r.meshProgram.SetMat4(opengl.UniformViewProj, viewFrustum.ViewProj)
	err := r.pipeline.Render(&cullFrustum, func() {
		r.meshProgram.Use()
		r.meshVerts.Bind()
	})
	if err != nil {
		return err
	}

	if r.showWires {
		r.lineProgram.SetMat4(opengl.UniformViewProj, viewFrustum.ViewProj)
		r.lineProgram.Use()

		r.lineProgram.SetVec3(opengl.UniformColor, bucketWireColor)
		r.bucketWires.Draw(gl.LINES)

		if !r.cullPOV {
			r.frustumWire.Update(cullFrustum.Wireframe())
			r.lineProgram.SetVec3(opengl.UniformColor, frustumWireColor)
			r.frustumWire.Draw(gl.LINES)
		}
	}

	r.frameCount++
	r.stats.RenderTime = time.Since(start)
	return nil
}

// Get render statistics. Reading the visible bucket count waits for the
// last frame to complete.
func (r *interactiveGLRenderer) Stats() FrameStats {
	r.stats.TotalBuckets = len(r.set.Buckets)
	if r.pipeline != nil {
		if res, err := r.pipeline.ReadResult(); err == nil {
			r.stats.VisibleBuckets = len(res.Visible)
		} else {
			r.logger.Warningf("could not read culling result: %v", err)
		}
	}
	return r.stats
}

func (r *interactiveGLRenderer) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	// Double speed if shift is pressed
	var speedScaler float32 = 1.0
	if (mods & glfw.ModShift) == glfw.ModShift {
		speedScaler = 2.0
	}
	step := keyTranslateStep / float32(r.options.FrameW) * speedScaler

	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)
	case glfw.KeyTab:
		r.showWires = !r.showWires
	case glfw.KeyP:
		r.cullPOV = !r.cullPOV
	case glfw.KeyS:
		stats := r.Stats()
		r.logger.Noticef("frame %d: %d/%d buckets visible", r.frameCount, stats.VisibleBuckets, stats.TotalBuckets)
	case glfw.KeyI:
		r.cullCamera.Translate(0, step)
	case glfw.KeyK:
		r.cullCamera.Translate(0, -step)
	case glfw.KeyJ:
		r.cullCamera.Translate(step, 0)
	case glfw.KeyL:
		r.cullCamera.Translate(-step, 0)
	case glfw.KeyU:
		r.cullCamera.Dolly(keyDollyStep * speedScaler)
	case glfw.KeyO:
		r.cullCamera.Dolly(-keyDollyStep * speedScaler)
	case glfw.KeyH:
		r.cullCamera.Rotate(keyRotateStep*speedScaler, 0)
	case glfw.KeyN:
		r.cullCamera.Rotate(-keyRotateStep*speedScaler, 0)
	}
}

func (r *interactiveGLRenderer) onMouseEvent(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	var buttonIndex int
	switch button {
	case glfw.MouseButtonLeft:
		buttonIndex = leftMouseButton
	case glfw.MouseButtonRight:
		buttonIndex = rightMouseButton
	case glfw.MouseButtonMiddle:
		buttonIndex = middleMouseButton
	default:
		return
	}

	r.mousePressed[buttonIndex] = action == glfw.Press
	if action == glfw.Press {
		xPos, yPos := w.GetCursorPos()
		r.lastCursorPos = types.XY(float32(xPos), float32(yPos))
	}
}

func (r *interactiveGLRenderer) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	newPos := types.XY(float32(xPos), float32(yPos))
	delta := newPos.Sub(r.lastCursorPos)
	r.lastCursorPos = newPos

	switch {
	case r.mousePressed[leftMouseButton]:
		// The left mouse button orbits around the scene center
		r.freeCamera.Rotate(delta[0]*mouseSensitivityX, delta[1]*mouseSensitivityY)
	case r.mousePressed[rightMouseButton]:
		r.freeCamera.Dolly(delta[0])
	case r.mousePressed[middleMouseButton]:
		r.freeCamera.Translate(delta[0]/float32(r.options.FrameW), delta[1]/float32(r.options.FrameH))
	}
}

func (r *interactiveGLRenderer) onScrollEvent(w *glfw.Window, xOff, yOff float64) {
	r.freeCamera.Dolly(8 * float32(yOff))
}
