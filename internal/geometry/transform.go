package geometry

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// TransformFunc produces the uniform block for a frame from the time elapsed
// since the render loop started and the current surface aspect ratio.
type TransformFunc func(elapsed time.Duration, aspect float32) Uniforms

// Spin rotates the mesh a quarter turn per second around Z, viewed from above.
func Spin(elapsed time.Duration, aspect float32) Uniforms {
	period := float32(math.Mod(elapsed.Seconds(), 4.0))

	ubo := Uniforms{}
	ubo.Model = mgl32.HomogRotate3D(period*mgl32.DegToRad(90.0), mgl32.Vec3{0, 0, 1})
	ubo.View = mgl32.LookAt(2, 2, 2, 0, 0, 0, 0, 0, 1)
	ubo.Proj = Perspective(mgl32.DegToRad(45), aspect, 0.1, 10)

	return ubo
}

// Static keeps the mesh still; useful when the caller animates nothing.
func Static(time.Duration, float32) Uniforms {
	return Uniforms{Model: mgl32.Ident4(), View: mgl32.Ident4(), Proj: mgl32.Ident4()}
}

// Perspective is mgl32.Perspective with depth mapped to [0, 1]. Y is left
// unflipped, so geometry wound counter-clockwise when seen from the camera
// lands clockwise in Vulkan's Y-down framebuffer.
func Perspective(fovy, aspect, near, far float32) mgl32.Mat4 {
	if aspect == 0 {
		aspect = 1
	}
	f := float32(1. / math.Tan(float64(fovy)/2.0))
	fmn := far - near

	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, -far / fmn, -1,
		0, 0, -(far * near) / fmn, 0,
	}
}
