package engine3D

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVec3InDelta(t *testing.T, want, got mgl32.Vec3, delta float64, msgAndArgs ...interface{}) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, msgAndArgs...)
	}
}

func TestCameraMovesAlongView(t *testing.T) {
	cam := Camera{MoveSpeed: 2, MouseSpeed: 0.15}
	assertVec3InDelta(t, mgl32.Vec3{0, 0, 1}, cam.Direction(), 1e-6)
	assertVec3InDelta(t, mgl32.Vec3{1, 0, 0}, cam.RightVector(), 1e-6)

	cam.Update(CameraInput{Forward: true, DeltaTime: 0.5})
	assertVec3InDelta(t, mgl32.Vec3{0, 0, 1}, cam.Position, 1e-6)

	cam.Update(CameraInput{Right: true, Up: true, DeltaTime: 0.5})
	assertVec3InDelta(t, mgl32.Vec3{1, 1, 1}, cam.Position, 1e-6)

	cam.Update(CameraInput{Forward: true, Backward: true, DeltaTime: 1})
	assertVec3InDelta(t, mgl32.Vec3{1, 1, 1}, cam.Position, 1e-6, "opposite keys cancel")
}

func TestCameraRotationNeedsButton(t *testing.T) {
	cam := Camera{MouseSpeed: 1}
	cam.Update(CameraInput{MouseDelta: mgl32.Vec2{90, 0}})
	assert.Zero(t, cam.HorizontalAngle)

	cam.Update(CameraInput{Rotate: true, MouseDelta: mgl32.Vec2{90, 0}})
	assert.InDelta(t, mgl32.DegToRad(90), cam.HorizontalAngle, 1e-6)
	assertVec3InDelta(t, mgl32.Vec3{1, 0, 0}, cam.Direction(), 1e-5)

	cam.Update(CameraInput{Rotate: true, MouseDelta: mgl32.Vec2{0, -1000}})
	assert.Equal(t, float32(maxPitch), cam.VerticalAngle)
}

func TestCameraViewCentersEye(t *testing.T) {
	cam := Camera{Position: mgl32.Vec3{0, 1.5, -4}, VerticalAngle: -0.3, FovY: 60, Near: 0.01, Far: 100}
	view := cam.View()

	eye := view.Mul4x1(cam.Position.Vec4(1))
	assertVec3InDelta(t, mgl32.Vec3{}, eye.Vec3(), 1e-5)

	ahead := view.Mul4x1(cam.Position.Add(cam.Direction().Mul(3)).Vec4(1))
	assertVec3InDelta(t, mgl32.Vec3{0, 0, 3}, ahead.Vec3(), 1e-4)

	assert.Equal(t, Projection(60, 2, 0.01, 100, true), cam.Projection(2, true))
}
