package engine3D

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraInput is one frame of polled input.
type CameraInput struct {
	Forward, Backward bool
	Left, Right       bool
	Up, Down          bool
	// Rotate is true while the look button is held; MouseDelta is in pixels.
	Rotate     bool
	MouseDelta mgl32.Vec2
	DeltaTime  float32
}

// Camera is a free-fly camera. Angles are radians; a zero horizontal angle
// looks down +Z.
type Camera struct {
	Position        mgl32.Vec3
	HorizontalAngle float32
	VerticalAngle   float32
	FovY            float32
	Near, Far       float32
	// MoveSpeed is in units per second, MouseSpeed in degrees per pixel.
	MoveSpeed  float32
	MouseSpeed float32
}

const maxPitch = 1.5

func (c *Camera) Direction() mgl32.Vec3 {
	h, v := float64(c.HorizontalAngle), float64(c.VerticalAngle)
	return mgl32.Vec3{
		float32(math.Cos(v) * math.Sin(h)),
		float32(math.Sin(v)),
		float32(math.Cos(v) * math.Cos(h)),
	}
}

func (c *Camera) RightVector() mgl32.Vec3 {
	h := float64(c.HorizontalAngle)
	return mgl32.Vec3{float32(math.Cos(h)), 0, float32(-math.Sin(h))}
}

func (c *Camera) Update(in CameraInput) {
	if in.Rotate {
		rad := mgl32.DegToRad(c.MouseSpeed)
		c.HorizontalAngle += in.MouseDelta[0] * rad
		c.VerticalAngle -= in.MouseDelta[1] * rad
		c.VerticalAngle = mgl32.Clamp(c.VerticalAngle, -maxPitch, maxPitch)
	}

	step := c.MoveSpeed * in.DeltaTime
	dir := c.Direction()
	right := c.RightVector()
	up := mgl32.Vec3{0, 1, 0}

	if in.Forward {
		c.Position = c.Position.Add(dir.Mul(step))
	}
	if in.Backward {
		c.Position = c.Position.Sub(dir.Mul(step))
	}
	if in.Right {
		c.Position = c.Position.Add(right.Mul(step))
	}
	if in.Left {
		c.Position = c.Position.Sub(right.Mul(step))
	}
	if in.Up {
		c.Position = c.Position.Add(up.Mul(step))
	}
	if in.Down {
		c.Position = c.Position.Sub(up.Mul(step))
	}
}

func (c *Camera) View() mgl32.Mat4 {
	return LookAt(c.Position, c.Position.Add(c.Direction()), mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective matrix for the given aspect ratio.
func (c *Camera) Projection(aspect float32, homogeneousDepth bool) mgl32.Mat4 {
	return Projection(c.FovY, aspect, c.Near, c.Far, homogeneousDepth)
}
