// Package engine3D sequences the bokeh depth-of-field render graph. It decides
// which passes run, which targets they read and write, and what parameters
// they see; a Device turns each Pass into GPU work.
package engine3D

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type Format int

const (
	FormatBGRA8 Format = iota
	FormatD24
	FormatRG11B10F
	FormatR16F
	FormatRGBA16F
)

var formatNames = [...]string{"BGRA8", "D24", "RG11B10F", "R16F", "RGBA16F"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// IsDepth reports whether images of this format hold depth rather than color.
func (f Format) IsDepth() bool { return f == FormatD24 }

// Sampling selects the filter; every target clamps at the edges.
type Sampling int

const (
	SamplingPoint Sampling = iota
	SamplingBilinear
)

func (s Sampling) String() string {
	if s == SamplingBilinear {
		return "bilinear"
	}
	return "point"
}

// Convention is the backend's vertical NDC/texture orientation.
type Convention int

const (
	ConventionOpenGL Convention = iota
	ConventionDirect3D
)

// Caps describes the backend properties the graph has to adapt to.
type Caps struct {
	Convention       Convention
	HomogeneousDepth bool // NDC depth in [-1,1] instead of [0,1]
	OriginBottomLeft bool
	TexelHalf        float32
}

type ImageHandle uint32

type SinkHandle uint32

// Backbuffer is the presentation target. It is never allocated or released.
const Backbuffer SinkHandle = 0

type ImageDesc struct {
	Width, Height int
	Format        Format
	Sampling      Sampling
}

type Program int

const (
	ProgramForward Program = iota
	ProgramLinearDepth
	ProgramDoFSinglePass
	ProgramDoFDownsample
	ProgramDoFQuarter
	ProgramDoFCombine
	ProgramCopy
	ProgramOverlay
)

var programNames = [...]string{"forward", "linear_depth", "dof_single_pass", "dof_downsample", "dof_second_pass", "dof_combine", "copy", "overlay"}

func (p Program) String() string {
	if int(p) < len(programNames) {
		return programNames[p]
	}
	return fmt.Sprintf("Program(%d)", int(p))
}

type DepthTest int

const (
	DepthTestNone DepthTest = iota
	DepthTestLess
	DepthTestAlways
)

type WriteMask uint8

const (
	WriteRGB WriteMask = 1 << iota
	WriteAlpha
	WriteDepth
)

type Clear struct {
	Color      bool
	ColorValue uint32 // 0xRRGGBBAA
	Depth      bool
	DepthValue float32
}

type TextureBinding struct {
	Slot    int
	Sampler string
	Image   ImageHandle
}

type DrawCall struct {
	Mesh      string
	Transform mgl32.Mat4
}

type Vertex struct {
	X, Y, Z float32
	U, V    float32
}

// Pass is one submission to the device: a target, fixed-function state, a
// program with its bindings, and either scene draws or a screen triangle.
type Pass struct {
	Name          string
	Target        SinkHandle
	Width, Height int
	Clear         Clear
	DepthTest     DepthTest
	Write         WriteMask
	Program       Program
	Textures      []TextureBinding
	Uniforms      []float32
	View, Proj    mgl32.Mat4
	Draws         []DrawCall
	Triangle      []Vertex
	// Overlay draws directly with the backend when set.
	Overlay func()
}

// Texture returns the image bound to sampler, or 0.
func (p *Pass) Texture(sampler string) ImageHandle {
	for _, t := range p.Textures {
		if t.Sampler == sampler {
			return t.Image
		}
	}
	return 0
}

// Device is the GPU backend the graph records into. Passes are executed in
// the order they are submitted; Frame ends the frame and returns its number.
type Device interface {
	CreateImage(desc ImageDesc) (ImageHandle, error)
	CreateSink(images ...ImageHandle) (SinkHandle, error)
	DestroySink(h SinkHandle)
	DestroyImage(h ImageHandle)
	Caps() Caps
	Submit(p *Pass) error
	Frame() uint32
}
