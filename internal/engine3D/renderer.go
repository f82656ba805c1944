package engine3D

import (
	"fmt"

	"github.com/elvencache/ec-bokeh/internal/utils"
)

// FrameInput is what the window loop knows about the frame to render.
type FrameInput struct {
	Width, Height int
	Camera        Camera
	Tunables      Tunables
}

type PassStat struct {
	Name          string
	Width, Height int
}

type FrameStats struct {
	Skipped bool
	Passes  []PassStat
	Frame   uint32
}

// Renderer owns the render-target pool and submits the pass graph once per
// frame. It must be driven from the goroutine that owns the device.
type Renderer struct {
	device  Device
	caps    Caps
	pool    *Pool
	scene   *Scene
	overlay func()

	width, height int
	dirty         bool
	frame         uint32
	params        FrameParameters
}

func NewRenderer(device Device, scene *Scene) (*Renderer, error) {
	if err := scene.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{
		device: device,
		caps:   device.Caps(),
		pool:   NewPool(device),
		scene:  scene,
	}, nil
}

// SetOverlay registers a draw callback submitted as the last pass of every
// frame. nil removes it.
func (r *Renderer) SetOverlay(draw func()) {
	r.overlay = draw
}

// MarkDirty recreates every render target at the start of the next frame.
func (r *Renderer) MarkDirty() {
	r.dirty = true
}

func (r *Renderer) Pool() *Pool { return r.pool }

// Params returns the parameters of the last rendered frame.
func (r *Renderer) Params() FrameParameters { return r.params }

func (r *Renderer) FrameCount() uint32 { return r.frame }

func (r *Renderer) Close() {
	r.pool.ReleaseAll()
	r.width, r.height = 0, 0
}

func (r *Renderer) reallocate(w, h int) error {
	utils.Info("Renderer: allocating render targets for %dx%d", w, h)
	r.pool.ReleaseAll()
	r.width, r.height = 0, 0

	halfW, halfH := max(w/2, 1), max(h/2, 1)
	if _, err := r.pool.AllocateFramebuffer(TargetScene, w, h, []Attachment{
		{Format: FormatBGRA8, Sampling: SamplingPoint},
		{Format: FormatD24, Sampling: SamplingPoint},
	}); err != nil {
		return err
	}
	if _, err := r.pool.Allocate(TargetLinearDepth, w, h, FormatR16F, SamplingPoint); err != nil {
		return err
	}
	if _, err := r.pool.Allocate(TargetDoFQuarterInput, halfW, halfH, FormatRGBA16F, SamplingBilinear); err != nil {
		return err
	}
	if _, err := r.pool.Allocate(TargetDoFQuarterOutput, halfW, halfH, FormatRGBA16F, SamplingBilinear); err != nil {
		return err
	}

	r.width, r.height = w, h
	r.dirty = false
	return nil
}

func (r *Renderer) targets() *frameTargets {
	t := &frameTargets{width: r.width, height: r.height}
	t.scene, _ = r.pool.Lookup(TargetScene)
	t.linearDepth, _ = r.pool.Lookup(TargetLinearDepth)
	t.quarterInput, _ = r.pool.Lookup(TargetDoFQuarterInput)
	t.quarterOutput, _ = r.pool.Lookup(TargetDoFQuarterOutput)
	t.halfWidth, t.halfHeight = t.quarterInput.Width, t.quarterInput.Height
	return t
}

// Frame renders one frame. A zero-area viewport (minimized window) renders
// nothing and is not an error.
func (r *Renderer) Frame(in FrameInput) (FrameStats, error) {
	if in.Width <= 0 || in.Height <= 0 {
		return FrameStats{Skipped: true, Frame: r.frame}, nil
	}

	if r.dirty || in.Width != r.width || in.Height != r.height {
		if err := r.reallocate(in.Width, in.Height); err != nil {
			return FrameStats{}, fmt.Errorf("renderer: resize to %dx%d: %w", in.Width, in.Height, err)
		}
	}

	aspect := float32(in.Width) / float32(in.Height)
	view := in.Camera.View()
	proj := in.Camera.Projection(aspect, r.caps.HomogeneousDepth)

	r.params = Recompute(FrameInputs{
		View:            view,
		Projection:      proj,
		DepthProjection: in.Camera.Projection(aspect, false),
		Tunables:        in.Tunables,
		Frame:           r.frame,
		Convention:      r.caps.Convention,
		LightPosition:   r.scene.LightPosition,
	})
	packed := r.params.Pack()
	uniforms := packed[:]

	t := r.targets()
	passes := []*Pass{
		forwardPass(t, r.scene, view, proj, uniforms),
		linearDepthPass(t, r.caps, uniforms),
	}
	if in.Tunables.DoFEnabled {
		passes = append(passes, depthOfFieldPasses(t, r.caps, in.Tunables.Topology(), uniforms)...)
	} else {
		passes = append(passes, displayPass(t, r.caps))
	}
	if r.overlay != nil {
		passes = append(passes, overlayPass(t, r.caps, r.overlay))
	}

	stats := FrameStats{Passes: make([]PassStat, 0, len(passes))}
	for _, p := range passes {
		if err := r.device.Submit(p); err != nil {
			return stats, fmt.Errorf("renderer: pass %q: %w", p.Name, err)
		}
		stats.Passes = append(stats.Passes, PassStat{Name: p.Name, Width: p.Width, Height: p.Height})
	}

	r.frame = r.device.Frame()
	stats.Frame = r.frame
	return stats, nil
}
