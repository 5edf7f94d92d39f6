// Package camera provides the free-fly camera for scene viewing.
package camera

import (
	"encoding/binary"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Camera flies freely through the scene. Yaw and pitch steer the view
// direction; movement follows it.
type Camera struct {
	Position mgl32.Vec3

	// Orientation (radians)
	Yaw   float32 // Horizontal angle around world Y
	Pitch float32 // Vertical angle, clamped short of the poles

	// Projection
	FOV  float32 // Vertical field of view, degrees
	Near float32
	Far  float32

	// Sensitivity
	MoveSpeed   float32 // World units per second
	Sensitivity float32 // Radians per mouse count
}

// New creates a camera a few units back from the origin, looking down
// the negative Z axis.
func New() *Camera {
	return &Camera{
		Position:    mgl32.Vec3{0, 1.5, 4.0},
		Yaw:         -gomath.Pi / 2,
		Pitch:       0.0,
		FOV:         45.0,
		Near:        0.1,
		Far:         10000.0,
		MoveSpeed:   6.0,
		Sensitivity: 0.004,
	}
}

// Forward returns the unit view direction.
func (c *Camera) Forward() mgl32.Vec3 {
	cosPitch := float32(gomath.Cos(float64(c.Pitch)))
	return mgl32.Vec3{
		cosPitch * float32(gomath.Cos(float64(c.Yaw))),
		float32(gomath.Sin(float64(c.Pitch))),
		cosPitch * float32(gomath.Sin(float64(c.Yaw))),
	}
}

// Right returns the unit strafe direction.
func (c *Camera) Right() mgl32.Vec3 {
	return c.Forward().Cross(worldUp).Normalize()
}

// HandleMove advances the camera: forward along the view direction,
// right strafing, up along world Y. Each axis takes a -1..1 request
// scaled by MoveSpeed and the frame delta.
func (c *Camera) HandleMove(forward, right, up, dt float32) {
	step := c.MoveSpeed * dt
	c.Position = c.Position.
		Add(c.Forward().Mul(forward * step)).
		Add(c.Right().Mul(right * step)).
		Add(worldUp.Mul(up * step))
}

// HandleLook turns the camera by a mouse delta. Pitch stops just short
// of straight up and down so the up vector never flips.
func (c *Camera) HandleLook(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch -= dy * c.Sensitivity

	const maxPitch = gomath.Pi/2 - 0.01
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	}
	if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}
}

// ViewMatrix returns the world-to-camera transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Forward()), worldUp)
}

// ProjectionMatrix returns the perspective projection for the given
// aspect ratio.
func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// ViewProjection composes projection and view for the camera uniform.
func (c *Camera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.ProjectionMatrix(aspect).Mul4(c.ViewMatrix())
}

// UniformBytes encodes the view-projection matrix little-endian,
// column by column, for upload into the camera uniform buffer.
func (c *Camera) UniformBytes(aspect float32) []byte {
	matrix := c.ViewProjection(aspect)
	data := make([]byte, 0, 64)
	for _, v := range matrix {
		data = binary.LittleEndian.AppendUint32(data, gomath.Float32bits(v))
	}
	return data
}
