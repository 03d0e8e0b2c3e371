package opengl

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/VincentPHAM98/SI3D/types"
	"github.com/go-gl/gl/v4.6-core/gl"
)

var (
	//go:embed shaders/mesh.vert
	meshVertexShader string

	//go:embed shaders/mesh.frag
	meshFragmentShader string

	//go:embed shaders/line.vert
	lineVertexShader string

	//go:embed shaders/line.frag
	lineFragmentShader string
)

// Uniform locations shared by the draw programs.
const (
	UniformViewProj int32 = 0
	UniformColor    int32 = 1
)

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(src + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, csources, nil)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(infoLog))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("shader compile: %s", strings.TrimRight(infoLog, "\x00"))
	}
	return shader, nil
}

// Link the shaders into a program. The shaders are deleted in any case.
func linkProgram(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	for _, shader := range shaders {
		gl.AttachShader(program, shader)
	}
	gl.LinkProgram(program)
	for _, shader := range shaders {
		gl.DetachShader(program, shader)
		gl.DeleteShader(shader)
	}

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(infoLog))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("program link: %s", strings.TrimRight(infoLog, "\x00"))
	}
	return program, nil
}

// A vertex/fragment program.
type Program struct {
	handle uint32
}

// Create a new program from vertex and fragment shader sources.
func (d *Device) NewProgram(vertexSrc, fragmentSrc string) (*Program, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("opengl device (%s): vertex %w", d.Name(), err)
	}
	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return nil, fmt.Errorf("opengl device (%s): fragment %w", d.Name(), err)
	}
	handle, err := linkProgram(vs, fs)
	if err != nil {
		return nil, fmt.Errorf("opengl device (%s): %w", d.Name(), err)
	}
	return &Program{handle: handle}, nil
}

// Create the program used to draw visible buckets. Each indirect draw gets
// its own color from gl_DrawID.
func (d *Device) NewMeshProgram() (*Program, error) {
	return d.NewProgram(meshVertexShader, meshFragmentShader)
}

// Create the flat colored program used for debug wireframes.
func (d *Device) NewLineProgram() (*Program, error) {
	return d.NewProgram(lineVertexShader, lineFragmentShader)
}

func (p *Program) Use() {
	gl.UseProgram(p.handle)
}

func (p *Program) SetMat4(location int32, m types.Mat4) {
	gl.ProgramUniformMatrix4fv(p.handle, location, 1, false, m.Ptr())
}

func (p *Program) SetVec3(location int32, v types.Vec3) {
	gl.ProgramUniform3fv(p.handle, location, 1, &v[0])
}

func (p *Program) Release() {
	if p.handle != 0 {
		gl.DeleteProgram(p.handle)
		p.handle = 0
	}
}

// VertexArray holds a position-only vertex buffer bound to attribute 0.
type VertexArray struct {
	vao      uint32
	vbo      uint32
	count    int
	capacity int
}

// Create a vertex array with the given positions.
func NewVertexArray(vertices []types.Vec3) *VertexArray {
	va := &VertexArray{}
	gl.CreateVertexArrays(1, &va.vao)
	va.Update(vertices)
	gl.EnableVertexArrayAttrib(va.vao, 0)
	gl.VertexArrayAttribFormat(va.vao, 0, 3, gl.FLOAT, false, 0)
	gl.VertexArrayAttribBinding(va.vao, 0, 0)
	return va
}

// Replace the vertex data. The buffer only grows.
func (va *VertexArray) Update(vertices []types.Vec3) {
	va.count = len(vertices)
	if va.count == 0 {
		return
	}

	size := va.count * 12
	if size > va.capacity {
		if va.vbo != 0 {
			gl.DeleteBuffers(1, &va.vbo)
		}
		gl.CreateBuffers(1, &va.vbo)
		gl.NamedBufferData(va.vbo, size, gl.Ptr(vertices), gl.DYNAMIC_DRAW)
		gl.VertexArrayVertexBuffer(va.vao, 0, va.vbo, 0, 12)
		va.capacity = size
		return
	}
	gl.NamedBufferSubData(va.vbo, 0, size, gl.Ptr(vertices))
}

func (va *VertexArray) Bind() {
	gl.BindVertexArray(va.vao)
}

// Draw all vertices with the given primitive mode.
func (va *VertexArray) Draw(mode uint32) {
	if va.count == 0 {
		return
	}
	gl.BindVertexArray(va.vao)
	gl.DrawArrays(mode, 0, int32(va.count))
}

func (va *VertexArray) Release() {
	if va.vbo != 0 {
		gl.DeleteBuffers(1, &va.vbo)
		va.vbo = 0
	}
	if va.vao != 0 {
		gl.DeleteVertexArrays(1, &va.vao)
		va.vao = 0
	}
}
