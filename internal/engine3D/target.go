package engine3D

import (
	"errors"
	"fmt"
	"sort"

	"github.com/elvencache/ec-bokeh/internal/utils"
)

var ErrInvalidSize = errors.New("engine3D: invalid render target size")

type Attachment struct {
	Format   Format
	Sampling Sampling
}

// RenderTarget owns its images; the sink only references them.
type RenderTarget struct {
	Name          string
	Width, Height int
	Attachments   []Attachment
	Images        []ImageHandle
	Sink          SinkHandle

	released bool
}

// Color returns the first color image.
func (t *RenderTarget) Color() ImageHandle {
	for i, a := range t.Attachments {
		if !a.Format.IsDepth() {
			return t.Images[i]
		}
	}
	return 0
}

// Depth returns the depth image, or 0 when the target has none.
func (t *RenderTarget) Depth() ImageHandle {
	for i, a := range t.Attachments {
		if a.Format.IsDepth() {
			return t.Images[i]
		}
	}
	return 0
}

type TargetDesc struct {
	Name          string
	Width, Height int
	Formats       []Format
	Sampling      Sampling
}

func (d TargetDesc) String() string {
	return fmt.Sprintf("%s %dx%d %v %s", d.Name, d.Width, d.Height, d.Formats, d.Sampling)
}

// Pool tracks the render targets allocated on a device by name.
type Pool struct {
	device  Device
	targets map[string]*RenderTarget
}

func NewPool(device Device) *Pool {
	return &Pool{device: device, targets: make(map[string]*RenderTarget)}
}

func (p *Pool) Allocate(name string, width, height int, format Format, sampling Sampling) (*RenderTarget, error) {
	return p.AllocateFramebuffer(name, width, height, []Attachment{{Format: format, Sampling: sampling}})
}

// AllocateFramebuffer creates one image per attachment and a sink over all of
// them. An existing target with the same name is released first.
func (p *Pool) AllocateFramebuffer(name string, width, height int, attachments []Attachment) (*RenderTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %s %dx%d", ErrInvalidSize, name, width, height)
	}
	if len(attachments) == 0 {
		return nil, fmt.Errorf("engine3D: target %s has no attachments", name)
	}

	if old, ok := p.targets[name]; ok {
		p.Release(old)
	}

	images := make([]ImageHandle, 0, len(attachments))
	for _, a := range attachments {
		img, err := p.device.CreateImage(ImageDesc{Width: width, Height: height, Format: a.Format, Sampling: a.Sampling})
		if err != nil {
			p.destroyImages(images)
			return nil, fmt.Errorf("engine3D: target %s: create %s image: %w", name, a.Format, err)
		}
		images = append(images, img)
	}

	sink, err := p.device.CreateSink(images...)
	if err != nil {
		p.destroyImages(images)
		return nil, fmt.Errorf("engine3D: target %s: create sink: %w", name, err)
	}

	t := &RenderTarget{
		Name:        name,
		Width:       width,
		Height:      height,
		Attachments: append([]Attachment(nil), attachments...),
		Images:      images,
		Sink:        sink,
	}
	p.targets[name] = t
	utils.Debug("Pool: allocated %s %dx%d (%d images)", name, width, height, len(images))
	return t, nil
}

func (p *Pool) destroyImages(images []ImageHandle) {
	for _, img := range images {
		p.device.DestroyImage(img)
	}
}

// Release destroys the sink, then every image. Releasing twice is a bug.
func (p *Pool) Release(t *RenderTarget) {
	if t == nil {
		return
	}
	if t.released {
		msg := fmt.Sprintf("engine3D: render target %s released twice", t.Name)
		if utils.DebugMode {
			panic(msg)
		}
		utils.Error("%s", msg)
		return
	}

	p.device.DestroySink(t.Sink)
	p.destroyImages(t.Images)
	t.released = true

	if p.targets[t.Name] == t {
		delete(p.targets, t.Name)
	}
	utils.Debug("Pool: released %s", t.Name)
}

func (p *Pool) ReleaseAll() {
	for _, name := range p.names() {
		p.Release(p.targets[name])
	}
}

func (p *Pool) Lookup(name string) (*RenderTarget, bool) {
	t, ok := p.targets[name]
	return t, ok
}

func (p *Pool) Len() int {
	return len(p.targets)
}

// Describe lists the live targets sorted by name.
func (p *Pool) Describe() []TargetDesc {
	out := make([]TargetDesc, 0, len(p.targets))
	for _, name := range p.names() {
		t := p.targets[name]
		d := TargetDesc{Name: t.Name, Width: t.Width, Height: t.Height}
		for _, a := range t.Attachments {
			d.Formats = append(d.Formats, a.Format)
			d.Sampling = a.Sampling
		}
		out = append(out, d)
	}
	return out
}

func (p *Pool) names() []string {
	names := make([]string, 0, len(p.targets))
	for name := range p.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
