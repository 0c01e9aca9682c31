// Package camera provides the free-look camera used by the viewer.
package camera

import (
	gomath "math"

	"github.com/Faultbox/model-viewer/pkg/math"
)

// Pitch limits in degrees. Looking straight up or down would make the
// front vector parallel to world up and collapse the right vector.
const (
	MinPitch float32 = -89.0
	MaxPitch float32 = 89.0
)

// Movement is a keyboard movement direction.
type Movement int

const (
	Forward Movement = iota
	Backward
	Left
	Right
)

// String returns the direction name.
func (m Movement) String() string {
	switch m {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Camera is a free-look camera without roll.
// Orientation is stored as yaw/pitch in degrees; the basis vectors are
// always derived from them.
type Camera struct {
	position math.Vec3
	front    math.Vec3
	up       math.Vec3
	right    math.Vec3
	worldUp  math.Vec3

	yaw   float32
	pitch float32

	speed       float32 // world units per second
	sensitivity float32 // degrees per mouse unit
}

// New creates a camera at position looking along yaw/pitch (degrees).
func New(position math.Vec3, yaw, pitch, speed, sensitivity float32) *Camera {
	c := &Camera{
		position:    position,
		worldUp:     math.WorldUp,
		yaw:         yaw,
		pitch:       math.Clamp(pitch, MinPitch, MaxPitch),
		speed:       speed,
		sensitivity: sensitivity,
	}
	c.updateVectors()
	return c
}

// HandleKeyboard moves the camera along front or right by speed*deltaTime.
// Orientation is not changed.
func (c *Camera) HandleKeyboard(direction Movement, deltaTime float32) {
	velocity := c.speed * deltaTime
	switch direction {
	case Forward:
		c.position = c.position.Add(c.front.Scale(velocity))
	case Backward:
		c.position = c.position.Sub(c.front.Scale(velocity))
	case Left:
		c.position = c.position.Sub(c.right.Scale(velocity))
	case Right:
		c.position = c.position.Add(c.right.Scale(velocity))
	}
}

// HandleMouse rotates the camera by the given mouse offsets.
// Yaw is unbounded; pitch is clamped to [MinPitch, MaxPitch].
func (c *Camera) HandleMouse(xOffset, yOffset float32) {
	c.yaw += xOffset * c.sensitivity
	c.pitch = math.Clamp(c.pitch+yOffset*c.sensitivity, MinPitch, MaxPitch)
	c.updateVectors()
}

// Reset moves the camera to a new pose.
func (c *Camera) Reset(position math.Vec3, yaw, pitch float32) {
	c.position = position
	c.yaw = yaw
	c.pitch = math.Clamp(pitch, MinPitch, MaxPitch)
	c.updateVectors()
}

// View returns the view matrix looking from position along front.
func (c *Camera) View() math.Mat4 {
	return math.LookAt(c.position, c.position.Add(c.front), c.up)
}

// Position returns the camera position in world space.
func (c *Camera) Position() math.Vec3 { return c.position }

// Front returns the unit view direction.
func (c *Camera) Front() math.Vec3 { return c.front }

// Up returns the camera's unit up vector.
func (c *Camera) Up() math.Vec3 { return c.up }

// Right returns the camera's unit right vector.
func (c *Camera) Right() math.Vec3 { return c.right }

// Yaw returns the yaw angle in degrees.
func (c *Camera) Yaw() float32 { return c.yaw }

// Pitch returns the pitch angle in degrees.
func (c *Camera) Pitch() float32 { return c.pitch }

// Speed returns the movement speed in units per second.
func (c *Camera) Speed() float32 { return c.speed }

// updateVectors recomputes front, right and up from yaw and pitch.
func (c *Camera) updateVectors() {
	yaw := math.Radians(c.yaw)
	pitch := math.Radians(c.pitch)

	c.front = basisFront(yaw, pitch)
	c.right = c.front.Cross(c.worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}

// basisFront converts yaw/pitch (radians) to a unit direction.
func basisFront(yaw, pitch float32) math.Vec3 {
	cy, sy := gomath.Cos(float64(yaw)), gomath.Sin(float64(yaw))
	cp, sp := gomath.Cos(float64(pitch)), gomath.Sin(float64(pitch))
	return math.Vec3{
		X: float32(cy * cp),
		Y: float32(sp),
		Z: float32(sy * cp),
	}.Normalize()
}
