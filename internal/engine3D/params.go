package engine3D

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Topology int

const (
	TopologySinglePass Topology = iota
	TopologyMultiPass
)

func (t Topology) String() string {
	if t == TopologyMultiPass {
		return "multi pass"
	}
	return "single pass"
}

// Tunables are the user-facing depth-of-field settings.
type Tunables struct {
	DoFEnabled          bool
	SinglePass          bool
	MaxBlurSize         float32
	FocusPoint          float32
	FocusScale          float32
	RadiusScale         float32
	UseSqrtDistribution bool
	BlurSteps           float32
}

func DefaultTunables() Tunables {
	return Tunables{
		DoFEnabled:  true,
		SinglePass:  true,
		MaxBlurSize: 20,
		FocusPoint:  1,
		FocusScale:  2,
		RadiusScale: 3.856,
		BlurSteps:   50,
	}
}

func (t Tunables) Topology() Topology {
	if t.SinglePass {
		return TopologySinglePass
	}
	return TopologyMultiPass
}

// BlurScale is applied to blur size and radius; the multi pass topology blurs
// at half resolution.
func BlurScale(t Topology) float32 {
	if t == TopologyMultiPass {
		return 0.5
	}
	return 1.0
}

type DepthUnpack struct {
	Mul, Add float32
}

type NDCToView struct {
	Mul, Add mgl32.Vec2
}

type BlurParams struct {
	Steps               float32
	UseSqrtDistribution bool
	MaxBlurSize         float32
	FocusPoint          float32
	FocusScale          float32
	RadiusScale         float32
}

// FrameParameters is everything the shaders read, recomputed once per frame.
type FrameParameters struct {
	DepthUnpack   DepthUnpack
	NDCToView     NDCToView
	FrameIndex    uint32
	LightPosition mgl32.Vec3
	Blur          BlurParams
	WorldToView   mgl32.Mat4
	ViewToProj    mgl32.Mat4
}

const (
	UniformVec4Count = 13
	frameIndexPeriod = 8
)

type FrameInputs struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	// DepthProjection is the zero-to-one depth variant of Projection.
	DepthProjection mgl32.Mat4
	Tunables        Tunables
	Frame           uint32
	Convention      Convention
	LightPosition   mgl32.Vec3
}

// Recompute derives the frame parameters. It has no side effects.
func Recompute(in FrameInputs) FrameParameters {
	scale := BlurScale(in.Tunables.Topology())
	t := in.Tunables

	return FrameParameters{
		DepthUnpack:   depthUnpack(in.DepthProjection),
		NDCToView:     ndcToView(in.Projection, in.Convention),
		FrameIndex:    in.Frame % frameIndexPeriod,
		LightPosition: in.LightPosition,
		Blur: BlurParams{
			Steps:               t.BlurSteps,
			UseSqrtDistribution: t.UseSqrtDistribution,
			MaxBlurSize:         t.MaxBlurSize * scale,
			FocusPoint:          t.FocusPoint,
			FocusScale:          t.FocusScale,
			RadiusScale:         t.RadiusScale * scale,
		},
		WorldToView: in.View,
		ViewToProj:  in.Projection,
	}
}

// depthUnpack turns device depth d into view depth as mul / (add - d).
func depthUnpack(p mgl32.Mat4) DepthUnpack {
	u := DepthUnpack{Mul: -p[14], Add: p[10]}
	if u.Mul*u.Add < 0 {
		u.Add = -u.Add
	}
	return u
}

func ndcToView(p mgl32.Mat4, c Convention) NDCToView {
	tanX := 1 / p[0]
	tanY := 1 / p[5]
	if c == ConventionOpenGL {
		return NDCToView{
			Mul: mgl32.Vec2{2 * tanX, 2 * tanY},
			Add: mgl32.Vec2{-tanX, -tanY},
		}
	}
	return NDCToView{
		Mul: mgl32.Vec2{2 * tanX, -2 * tanY},
		Add: mgl32.Vec2{-tanX, tanY},
	}
}

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// Pack flattens the parameters to the vec4 array the shaders declare as
// u_params[13].
func (p FrameParameters) Pack() [UniformVec4Count * 4]float32 {
	var out [UniformVec4Count * 4]float32
	copy(out[0:4], []float32{p.DepthUnpack.Mul, p.DepthUnpack.Add, float32(p.FrameIndex), 0})
	copy(out[4:8], []float32{p.NDCToView.Mul[0], p.NDCToView.Mul[1], p.NDCToView.Add[0], p.NDCToView.Add[1]})
	copy(out[8:12], []float32{p.LightPosition[0], p.LightPosition[1], p.LightPosition[2], 0})
	copy(out[12:16], []float32{p.Blur.Steps, boolFloat(p.Blur.UseSqrtDistribution), 0, 0})
	copy(out[16:20], []float32{p.Blur.MaxBlurSize, p.Blur.FocusPoint, p.Blur.FocusScale, p.Blur.RadiusScale})
	copy(out[20:36], p.WorldToView[:])
	copy(out[36:52], p.ViewToProj[:])
	return out
}

// StepCount is the number of samples the golden-angle spiral takes before
// its radius reaches maxBlurSize, or stops growing in float32.
func StepCount(radiusScale, maxBlurSize float32) int {
	if radiusScale <= 0 || radiusScale >= maxBlurSize || math.IsInf(float64(maxBlurSize), 0) {
		return 0
	}
	count := 0
	for radius := radiusScale; radius < maxBlurSize; {
		count++
		next := radius + radiusScale/radius
		if next <= radius {
			break
		}
		radius = next
	}
	return count
}
