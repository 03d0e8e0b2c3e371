package opengl

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/VincentPHAM98/SI3D/gpu/device"
	"github.com/VincentPHAM98/SI3D/log"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// GLFW event handling and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

type Options struct {
	// Window title and framebuffer dims.
	Title  string
	Width  int
	Height int

	// Create a hidden window; useful for headless compute and capability
	// queries.
	Hidden bool

	// GLSL compute sources by kernel name.
	Kernels map[string]string
}

// Info describes the GL implementation backing a device.
type Info struct {
	Vendor      string
	Renderer    string
	Version     string
	GLSLVersion string
	Major       int32
	Minor       int32
	Extensions  []string
}

// HasExtension checks whether the implementation exposes the named extension.
func (i Info) HasExtension(name string) bool {
	for _, ext := range i.Extensions {
		if ext == name {
			return true
		}
	}
	return false
}

// Check whether the context version is at least major.minor.
func (i Info) AtLeast(major, minor int32) bool {
	return i.Major > major || (i.Major == major && i.Minor >= minor)
}

// Implements Stringer.
func (i Info) String() string {
	return fmt.Sprintf("%s (%s), OpenGL %s, GLSL %s", i.Renderer, i.Vendor, i.Version, i.GLSLVersion)
}

// Device implements device.Device on top of an OpenGL 4.6 core context owned
// by a GLFW window. All methods must be called from the main thread.
type Device struct {
	logger log.Logger
	opts   Options
	window *glfw.Window
	info   Info
}

// Open creates a window with a GL 4.6 core context and makes it current.
func Open(opts Options) (*Device, error) {
	if opts.Width <= 0 {
		opts.Width = 1
	}
	if opts.Height <= 0 {
		opts.Height = 1
	}
	if opts.Title == "" {
		opts.Title = "si3d"
	}

	var err error
	if err = glfw.Init(); err != nil {
		return nil, fmt.Errorf("opengl device: failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if opts.Hidden {
		glfw.WindowHint(glfw.Visible, glfw.False)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.True)
	}

	d := &Device{
		logger: log.New("opengl"),
		opts:   opts,
	}

	d.window, err = glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("opengl device: could not create window: %w", err)
	}
	d.window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		d.Close()
		return nil, fmt.Errorf("opengl device: could not init opengl: %w", err)
	}

	d.info = queryInfo()
	d.logger.Infof("using %s", d.info)
	return d, nil
}

func queryInfo() Info {
	info := Info{
		Vendor:      gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer:    gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:     gl.GoStr(gl.GetString(gl.VERSION)),
		GLSLVersion: gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	}
	gl.GetIntegerv(gl.MAJOR_VERSION, &info.Major)
	gl.GetIntegerv(gl.MINOR_VERSION, &info.Minor)

	var numExt int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &numExt)
	info.Extensions = make([]string, 0, numExt)
	for i := int32(0); i < numExt; i++ {
		info.Extensions = append(info.Extensions, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))))
	}
	return info
}

func (d *Device) Name() string {
	return d.info.Renderer
}

// Info returns the GL implementation details.
func (d *Device) Info() Info {
	return d.info
}

// Window returns the window owning the GL context.
func (d *Device) Window() *glfw.Window {
	return d.window
}

func (d *Device) Supports(c device.Capability) bool {
	switch c {
	case device.Compute:
		return d.info.AtLeast(4, 3) || d.info.HasExtension("GL_ARB_compute_shader")
	case device.IndirectCount:
		return d.info.AtLeast(4, 6) || d.info.HasExtension("GL_ARB_indirect_parameters")
	case device.DrawParameters:
		return d.info.AtLeast(4, 6) || d.info.HasExtension("GL_ARB_shader_draw_parameters")
	}
	return false
}

func (d *Device) Buffer(name string) device.Buffer {
	return &Buffer{device: d, name: name}
}

func (d *Device) Kernel(name string) (device.Kernel, error) {
	src, exists := d.opts.Kernels[name]
	if !exists {
		return nil, fmt.Errorf("opengl device (%s): could not load kernel %s: %w", d.Name(), name, device.ErrUnknownKernel)
	}

	shader, err := compileShader(src, gl.COMPUTE_SHADER)
	if err != nil {
		return nil, fmt.Errorf("opengl device (%s): could not compile kernel %s: %w", d.Name(), name, err)
	}
	program, err := linkProgram(shader)
	if err != nil {
		return nil, fmt.Errorf("opengl device (%s): could not link kernel %s: %w", d.Name(), name, err)
	}

	k := &Kernel{device: d, name: name, program: program}
	gl.GetProgramiv(program, gl.COMPUTE_WORK_GROUP_SIZE, &k.groupSize[0])
	return k, nil
}

// MemoryBarrier makes all prior shader writes visible to every later
// consumer: indirect draws, storage reads and buffer read backs.
func (d *Device) MemoryBarrier() {
	gl.MemoryBarrier(gl.ALL_BARRIER_BITS)
}

// DrawIndirectCount issues triangle draws with the currently bound program
// and vertex array.
func (d *Device) DrawIndirectCount(commands, count device.Buffer, maxDraws int) error {
	cmdBuf, ok1 := commands.(*Buffer)
	countBuf, ok2 := count.(*Buffer)
	if !ok1 || !ok2 {
		return fmt.Errorf("opengl device (%s): indirect draws require buffers allocated by this device", d.Name())
	}
	if cmdBuf.handle == 0 || countBuf.handle == 0 {
		return fmt.Errorf("opengl device (%s): indirect draw: %w", d.Name(), device.ErrBufferNotReady)
	}

	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, cmdBuf.handle)
	gl.BindBuffer(gl.PARAMETER_BUFFER, countBuf.handle)
	gl.MultiDrawArraysIndirectCount(gl.TRIANGLES, nil, 0, int32(maxDraws), 0)
	gl.BindBuffer(gl.PARAMETER_BUFFER, 0)
	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, 0)

	return glError(d, "indirect draw")
}

func (d *Device) Close() {
	if d.window != nil {
		d.window.Destroy()
		d.window = nil
	}
	glfw.Terminate()
}

// Check the GL error flag after an operation.
func glError(d *Device, op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("opengl device (%s): %s failed (errCode 0x%x)", d.Name(), op, code)
	}
	return nil
}

// Extensions relevant to the culling pipeline.
var interestingExtensions = []string{
	"GL_ARB_compute_shader",
	"GL_ARB_indirect_parameters",
	"GL_ARB_shader_draw_parameters",
	"GL_ARB_multi_draw_indirect",
}

// CapabilityReport lists the device capabilities and the relevant
// extensions as name/value pairs.
func (d *Device) CapabilityReport() [][2]string {
	var rows [][2]string
	for _, c := range device.Capabilities {
		rows = append(rows, [2]string{c.String(), fmt.Sprint(d.Supports(c))})
	}
	for _, ext := range interestingExtensions {
		rows = append(rows, [2]string{ext, fmt.Sprint(d.info.HasExtension(ext))})
	}
	rows = append(rows, [2]string{"extensions", fmt.Sprint(len(d.info.Extensions))})
	rows = append(rows, [2]string{"version", strings.TrimSpace(d.info.Version)})
	return rows
}
