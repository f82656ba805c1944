package engine3D

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func ndc(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	c := m.Mul4x1(v.Vec4(1))
	return c.Vec3().Mul(1 / c[3])
}

func TestProjectionDepthRange(t *testing.T) {
	near, far := float32(0.5), float32(50)

	gl := Projection(60, 1.5, near, far, true)
	assert.InDelta(t, -1, ndc(gl, mgl32.Vec3{0, 0, near})[2], 1e-5)
	assert.InDelta(t, 1, ndc(gl, mgl32.Vec3{0, 0, far})[2], 1e-5)

	d3d := Projection(60, 1.5, near, far, false)
	assert.InDelta(t, 0, ndc(d3d, mgl32.Vec3{0, 0, near})[2], 1e-5)
	assert.InDelta(t, 1, ndc(d3d, mgl32.Vec3{0, 0, far})[2], 1e-5)

	// The field of view edge lands on the NDC edge.
	assert.InDelta(t, 1, ndc(gl, mgl32.Vec3{0, 0.5773503 * 10, 10})[1], 1e-4)
	assert.InDelta(t, 1, ndc(gl, mgl32.Vec3{1.5 * 0.5773503 * 10, 0, 10})[0], 1e-4)
}

func TestOrthoScreenMapping(t *testing.T) {
	m := ScreenOrtho(Caps{HomogeneousDepth: true})
	assert.Equal(t, mgl32.Vec3{-1, 1, -1}, ndc(m, mgl32.Vec3{0, 0, 0}))
	assert.Equal(t, mgl32.Vec3{1, -1, 1}, ndc(m, mgl32.Vec3{1, 1, 1}))

	m = ScreenOrtho(Caps{})
	assert.Equal(t, float32(0), ndc(m, mgl32.Vec3{0, 0, 0})[2])
	assert.Equal(t, float32(1), ndc(m, mgl32.Vec3{0, 0, 1})[2])

	offset := Ortho(0, 1, 1, 0, 0, 1, 0.25, false)
	assert.Equal(t, float32(-0.75), offset[12])
}

func TestScreenTriangle(t *testing.T) {
	tri := ScreenTriangle(Caps{}, 100, 50)
	assert.Equal(t, []Vertex{
		{X: -1, Y: 0, U: -1, V: 0},
		{X: 1, Y: 0, U: 1, V: 0},
		{X: 1, Y: 2, U: 1, V: 2},
	}, tri)

	tri = ScreenTriangle(Caps{OriginBottomLeft: true}, 100, 50)
	assert.Equal(t, float32(1), tri[0].V)
	assert.Equal(t, float32(-1), tri[2].V)

	tri = ScreenTriangle(Caps{TexelHalf: 0.5}, 100, 50)
	assert.InDelta(t, -1+0.005, tri[0].U, 1e-6)
	assert.InDelta(t, 0.01, tri[0].V, 1e-6)
	assert.InDelta(t, 2.01, tri[2].V, 1e-6)
}

func TestLookAtIsLeftHanded(t *testing.T) {
	view := LookAt(mgl32.Vec3{0, 0, -4}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})

	assert.True(t, view.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3().ApproxEqual(mgl32.Vec3{0, 0, 4}))
	assert.True(t, view.Mul4x1(mgl32.Vec4{1, 0, -4, 1}).Vec3().ApproxEqual(mgl32.Vec3{1, 0, 0}))
	assert.True(t, view.Mul4x1(mgl32.Vec4{0, 1, -4, 1}).Vec3().ApproxEqual(mgl32.Vec3{0, 1, 0}))

	// Looking straight down still yields a usable basis.
	down := LookAt(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assert.True(t, down.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3().ApproxEqual(mgl32.Vec3{0, 0, 5}))
}
