package engine3D

import (
	"errors"
	"fmt"
)

// fakeDevice records every call so tests can assert on the command stream.
type fakeDevice struct {
	caps Caps

	nextImage ImageHandle
	nextSink  SinkHandle
	images    map[ImageHandle]ImageDesc
	sinks     map[SinkHandle][]ImageHandle

	events    []string
	submitted []*Pass
	frames    uint32

	failImageAfter int // fail CreateImage once this many images exist; 0 disables
	failSubmit     string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		caps:   Caps{Convention: ConventionOpenGL, HomogeneousDepth: true, OriginBottomLeft: true},
		images: make(map[ImageHandle]ImageDesc),
		sinks:  make(map[SinkHandle][]ImageHandle),
	}
}

var errDeviceFull = errors.New("fake device: out of memory")

func (d *fakeDevice) CreateImage(desc ImageDesc) (ImageHandle, error) {
	if d.failImageAfter > 0 && len(d.images) >= d.failImageAfter {
		return 0, errDeviceFull
	}
	d.nextImage++
	d.images[d.nextImage] = desc
	d.events = append(d.events, fmt.Sprintf("create image %d %s %dx%d", d.nextImage, desc.Format, desc.Width, desc.Height))
	return d.nextImage, nil
}

func (d *fakeDevice) CreateSink(images ...ImageHandle) (SinkHandle, error) {
	for _, img := range images {
		if _, ok := d.images[img]; !ok {
			return 0, fmt.Errorf("fake device: unknown image %d", img)
		}
	}
	d.nextSink++
	d.sinks[d.nextSink] = images
	d.events = append(d.events, fmt.Sprintf("create sink %d", d.nextSink))
	return d.nextSink, nil
}

func (d *fakeDevice) DestroySink(h SinkHandle) {
	if _, ok := d.sinks[h]; !ok {
		panic(fmt.Sprintf("fake device: sink %d destroyed twice", h))
	}
	delete(d.sinks, h)
	d.events = append(d.events, fmt.Sprintf("destroy sink %d", h))
}

func (d *fakeDevice) DestroyImage(h ImageHandle) {
	if _, ok := d.images[h]; !ok {
		panic(fmt.Sprintf("fake device: image %d destroyed twice", h))
	}
	for s, imgs := range d.sinks {
		for _, img := range imgs {
			if img == h {
				panic(fmt.Sprintf("fake device: image %d destroyed while sink %d uses it", h, s))
			}
		}
	}
	delete(d.images, h)
	d.events = append(d.events, fmt.Sprintf("destroy image %d", h))
}

func (d *fakeDevice) Caps() Caps { return d.caps }

func (d *fakeDevice) Submit(p *Pass) error {
	if p.Name == d.failSubmit {
		return errors.New("fake device: submit failed")
	}
	if p.Target != Backbuffer {
		if _, ok := d.sinks[p.Target]; !ok {
			return fmt.Errorf("fake device: pass %s targets dead sink %d", p.Name, p.Target)
		}
	}
	for _, tex := range p.Textures {
		if _, ok := d.images[tex.Image]; !ok && tex.Sampler != "s_albedo" && tex.Sampler != "s_normal" {
			return fmt.Errorf("fake device: pass %s samples dead image %d", p.Name, tex.Image)
		}
	}
	d.submitted = append(d.submitted, p)
	return nil
}

func (d *fakeDevice) Frame() uint32 {
	d.frames++
	return d.frames
}

func (d *fakeDevice) passNames() []string {
	names := make([]string, len(d.submitted))
	for i, p := range d.submitted {
		names[i] = p.Name
	}
	return names
}

func (d *fakeDevice) reset() {
	d.submitted = nil
	d.events = nil
}
