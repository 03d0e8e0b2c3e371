package types

import "github.com/go-gl/mathgl/mgl32"

// A column-major 4x4 matrix laid out exactly like the GLSL mat4 type so it
// can be uploaded as a uniform without conversion.
type Mat4 mgl32.Mat4

// Create an identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a perspective projection matrix. The vertical field of view is
// specified in degrees.
func Perspective4(fovY, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(mgl32.DegToRad(fovY), aspect, near, far))
}

// Create a view matrix looking from eye towards center.
func LookAtV(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(center), mgl32.Vec3(up)))
}

// Create a translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Create a rotation matrix around the X axis. The angle is specified in degrees.
func RotateX4(angle float32) Mat4 {
	return Mat4(mgl32.HomogRotate3DX(mgl32.DegToRad(angle)))
}

// Create a rotation matrix around the Y axis. The angle is specified in degrees.
func RotateY4(angle float32) Mat4 {
	return Mat4(mgl32.HomogRotate3DY(mgl32.DegToRad(angle)))
}

// Multiply with another matrix (m * m2).
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Calculate the matrix inverse. Singular matrices yield the zero matrix.
func (m Mat4) Inv() Mat4 {
	return Mat4(mgl32.Mat4(m).Inv())
}

// Multiply with a column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Transform a point (w = 1) and apply the perspective divide.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return m.Mul4x1(p.Vec4(1)).Project()
}

// Check whether two matrices are equal within the given threshold.
func (m Mat4) ApproxEqual(m2 Mat4, threshold float32) bool {
	return mgl32.Mat4(m).ApproxEqualThreshold(mgl32.Mat4(m2), threshold)
}

// Get a pointer to the first matrix element for uploading as a uniform.
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}
