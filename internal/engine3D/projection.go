package engine3D

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Projection builds a left-handed perspective matrix with depth increasing
// away from the eye. homogeneousDepth maps depth to [-1,1], otherwise [0,1].
func Projection(fovY, aspect, near, far float32, homogeneousDepth bool) mgl32.Mat4 {
	height := float32(1 / math.Tan(float64(mgl32.DegToRad(fovY))*0.5))
	width := height / aspect
	diff := far - near

	var aa, bb float32
	if homogeneousDepth {
		aa = (far + near) / diff
		bb = 2 * far * near / diff
	} else {
		aa = far / diff
		bb = near * aa
	}

	var m mgl32.Mat4
	m[0] = width
	m[5] = height
	m[10] = aa
	m[11] = 1
	m[14] = -bb
	return m
}

// Ortho builds an orthographic matrix for the box l..r, b..t, n..f. offset
// shifts the x translation.
func Ortho(l, r, b, t, n, f, offset float32, homogeneousDepth bool) mgl32.Mat4 {
	aa := 2 / (r - l)
	bb := 2 / (t - b)
	var cc, ff float32
	if homogeneousDepth {
		cc = 2 / (f - n)
		ff = (n + f) / (n - f)
	} else {
		cc = 1 / (f - n)
		ff = n / (n - f)
	}
	dd := (l + r) / (l - r)
	ee := (t + b) / (b - t)

	var m mgl32.Mat4
	m[0] = aa
	m[5] = bb
	m[10] = cc
	m[12] = dd + offset
	m[13] = ee
	m[14] = ff
	m[15] = 1
	return m
}

// ScreenOrtho maps the unit square to the screen with y growing downwards.
func ScreenOrtho(caps Caps) mgl32.Mat4 {
	return Ortho(0, 1, 1, 0, 0, 1, 0, caps.HomogeneousDepth)
}

// ScreenTriangle returns one oversized triangle covering the unit square under
// ScreenOrtho, with texture coordinates matching a texW x texH source.
func ScreenTriangle(caps Caps, texW, texH float32) []Vertex {
	const minX, maxX = -1, 1
	const minY, maxY = 0, 2

	texelHalfW := caps.TexelHalf / texW
	texelHalfH := caps.TexelHalf / texH
	minU := -1 + texelHalfW
	maxU := 1 + texelHalfW

	minV := texelHalfH
	maxV := 2 + texelHalfH
	if caps.OriginBottomLeft {
		minV, maxV = maxV-1, minV-1
	}

	return []Vertex{
		{X: minX, Y: minY, U: minU, V: minV},
		{X: maxX, Y: minY, U: maxU, V: minV},
		{X: maxX, Y: maxY, U: maxU, V: maxV},
	}
}

// LookAt builds a left-handed view matrix looking from eye towards at.
func LookAt(eye, at, up mgl32.Vec3) mgl32.Mat4 {
	view := at.Sub(eye).Normalize()
	right := up.Cross(view)
	if right.Len() < 1e-6 {
		right = mgl32.Vec3{-1, 0, 0}
	}
	right = right.Normalize()
	upv := view.Cross(right)

	return mgl32.Mat4{
		right[0], upv[0], view[0], 0,
		right[1], upv[1], view[1], 0,
		right[2], upv[2], view[2], 0,
		-right.Dot(eye), -upv.Dot(eye), -view.Dot(eye), 1,
	}
}
