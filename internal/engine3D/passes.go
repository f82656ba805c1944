package engine3D

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Pool entry names.
const (
	TargetScene            = "scene"
	TargetLinearDepth      = "linearDepth"
	TargetDoFQuarterInput  = "dofQuarterInput"
	TargetDoFQuarterOutput = "dofQuarterOutput"
)

// Pass names, in submission order.
const (
	PassForward       = "forward scene"
	PassLinearDepth   = "linear depth"
	PassDoFSingle     = "bokeh dof single pass"
	PassDoFDownsample = "bokeh dof downsample"
	PassDoFQuarter    = "bokeh dof quarter"
	PassDoFCombine    = "bokeh dof combine"
	PassDisplay       = "display"
	PassOverlay       = "settings overlay"
)

const screenWrite = WriteRGB | WriteAlpha

// frameTargets are the pool entries a frame reads and writes.
type frameTargets struct {
	scene, linearDepth          *RenderTarget
	quarterInput, quarterOutput *RenderTarget
	width, height               int
	halfWidth, halfHeight       int
}

// screenPass is a full-screen triangle pass at w x h.
func screenPass(name string, caps Caps, target SinkHandle, w, h int, program Program, uniforms []float32, textures ...TextureBinding) *Pass {
	return &Pass{
		Name:      name,
		Target:    target,
		Width:     w,
		Height:    h,
		DepthTest: DepthTestAlways,
		Write:     screenWrite,
		Program:   program,
		Textures:  textures,
		Uniforms:  uniforms,
		View:      mgl32.Ident4(),
		Proj:      ScreenOrtho(caps),
		Triangle:  ScreenTriangle(caps, float32(w), float32(h)),
	}
}

func forwardPass(t *frameTargets, scene *Scene, view, proj mgl32.Mat4, uniforms []float32) *Pass {
	draws := make([]DrawCall, 0, len(scene.Models)+1)
	for _, m := range scene.Models {
		draws = append(draws, DrawCall{Mesh: m.Mesh, Transform: scene.ModelTransform(m)})
	}
	draws = append(draws, DrawCall{Mesh: scene.Ground, Transform: GroundTransform()})

	return &Pass{
		Name:      PassForward,
		Target:    t.scene.Sink,
		Width:     t.width,
		Height:    t.height,
		Clear:     Clear{Color: true, ColorValue: 0x00000000, Depth: true, DepthValue: 1},
		DepthTest: DepthTestLess,
		Write:     WriteRGB | WriteAlpha | WriteDepth,
		Program:   ProgramForward,
		Textures: []TextureBinding{
			{Slot: 0, Sampler: "s_albedo", Image: scene.Albedo},
			{Slot: 1, Sampler: "s_normal", Image: scene.Normal},
		},
		Uniforms: uniforms,
		View:     view,
		Proj:     proj,
		Draws:    draws,
	}
}

func linearDepthPass(t *frameTargets, caps Caps, uniforms []float32) *Pass {
	return screenPass(PassLinearDepth, caps, t.linearDepth.Sink, t.width, t.height, ProgramLinearDepth, uniforms,
		TextureBinding{Slot: 0, Sampler: "s_depth", Image: t.scene.Depth()})
}

// depthOfFieldPasses writes the blurred image to the backbuffer.
func depthOfFieldPasses(t *frameTargets, caps Caps, topology Topology, uniforms []float32) []*Pass {
	color := t.scene.Color()
	depth := t.linearDepth.Color()

	if topology == TopologySinglePass {
		return []*Pass{
			screenPass(PassDoFSingle, caps, Backbuffer, t.width, t.height, ProgramDoFSinglePass, uniforms,
				TextureBinding{Slot: 0, Sampler: "s_color", Image: color},
				TextureBinding{Slot: 1, Sampler: "s_depth", Image: depth}),
		}
	}

	return []*Pass{
		screenPass(PassDoFDownsample, caps, t.quarterInput.Sink, t.halfWidth, t.halfHeight, ProgramDoFDownsample, uniforms,
			TextureBinding{Slot: 0, Sampler: "s_color", Image: color},
			TextureBinding{Slot: 1, Sampler: "s_depth", Image: depth}),
		screenPass(PassDoFQuarter, caps, t.quarterOutput.Sink, t.halfWidth, t.halfHeight, ProgramDoFQuarter, uniforms,
			TextureBinding{Slot: 0, Sampler: "s_color", Image: t.quarterInput.Color()}),
		// Combine reads the full resolution scene color, not the downsampled one.
		screenPass(PassDoFCombine, caps, Backbuffer, t.width, t.height, ProgramDoFCombine, uniforms,
			TextureBinding{Slot: 0, Sampler: "s_color", Image: color},
			TextureBinding{Slot: 1, Sampler: "s_blurredColor", Image: t.quarterOutput.Color()}),
	}
}

func displayPass(t *frameTargets, caps Caps) *Pass {
	p := screenPass(PassDisplay, caps, Backbuffer, t.width, t.height, ProgramCopy, nil,
		TextureBinding{Slot: 0, Sampler: "s_color", Image: t.scene.Color()})
	p.DepthTest = DepthTestNone
	return p
}

// overlayPass draws in window pixels with the origin at the top left. Depth
// spans -1..1 so 2D batches emitted at z near -1 stay inside the clip volume.
func overlayPass(t *frameTargets, caps Caps, draw func()) *Pass {
	return &Pass{
		Name:      PassOverlay,
		Target:    Backbuffer,
		Width:     t.width,
		Height:    t.height,
		DepthTest: DepthTestNone,
		Write:     screenWrite,
		Program:   ProgramOverlay,
		View:      mgl32.Ident4(),
		Proj:      Ortho(0, float32(t.width), float32(t.height), 0, -1, 1, 0, caps.HomogeneousDepth),
		Overlay:   draw,
	}
}
