// Package device runs render passes on raylib's OpenGL 3.3 backend. It owns
// every GPU object the renderer refers to by handle.
package device

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/elvencache/ec-bokeh/internal/engine3D"
	"github.com/elvencache/ec-bokeh/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var (
	ErrUnknownHandle = errors.New("device: unknown handle")
	ErrCreateImage   = errors.New("device: cannot create image")
	ErrIncomplete    = errors.New("device: framebuffer incomplete")
)

type texture struct {
	tex  rl.Texture2D
	desc engine3D.ImageDesc
	// sink holds the framebuffer this texture is attached to, if any.
	sink engine3D.SinkHandle
}

type sink struct {
	target rl.RenderTexture2D
	images []engine3D.ImageHandle
}

// Device implements engine3D.Device. All methods must be called from the
// goroutine that created the window.
type Device struct {
	images   map[engine3D.ImageHandle]*texture
	sinks    map[engine3D.SinkHandle]*sink
	nextID   uint32
	programs map[engine3D.Program]*program
	meshes   map[string][]rl.Mesh
	models   []rl.Model
	builtins []rl.Mesh
	material rl.Material
	frame    uint32
}

// New compiles every program. The window must already be open.
func New() (*Device, error) {
	d := &Device{
		images:   make(map[engine3D.ImageHandle]*texture),
		sinks:    make(map[engine3D.SinkHandle]*sink),
		programs: make(map[engine3D.Program]*program),
		meshes:   make(map[string][]rl.Mesh),
	}
	if err := d.loadPrograms(); err != nil {
		d.Close()
		return nil, err
	}
	d.material = rl.LoadMaterialDefault()
	return d, nil
}

func (d *Device) Caps() engine3D.Caps {
	return engine3D.Caps{
		Convention:       engine3D.ConventionOpenGL,
		HomogeneousDepth: true,
		OriginBottomLeft: true,
	}
}

// pixelFormat maps a render-target format onto what raylib can allocate.
// Half floats and packed floats are not exposed, so they widen to 32-bit.
func pixelFormat(f engine3D.Format) (rl.PixelFormat, int, error) {
	switch f {
	case engine3D.FormatBGRA8:
		return rl.UncompressedR8g8b8a8, 4, nil
	case engine3D.FormatR16F:
		return rl.UncompressedR32, 4, nil
	case engine3D.FormatRGBA16F, engine3D.FormatRG11B10F:
		return rl.UncompressedR32g32b32a32, 16, nil
	}
	return 0, 0, fmt.Errorf("%w: format %s", ErrCreateImage, f)
}

func textureFilter(s engine3D.Sampling) rl.TextureFilterMode {
	if s == engine3D.SamplingBilinear {
		return rl.FilterBilinear
	}
	return rl.FilterPoint
}

func (d *Device) addImage(tex rl.Texture2D, desc engine3D.ImageDesc) engine3D.ImageHandle {
	d.nextID++
	h := engine3D.ImageHandle(d.nextID)
	d.images[h] = &texture{tex: tex, desc: desc}
	return h
}

func (d *Device) CreateImage(desc engine3D.ImageDesc) (engine3D.ImageHandle, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrCreateImage, desc.Width, desc.Height)
	}
	w, h := int32(desc.Width), int32(desc.Height)

	var tex rl.Texture2D
	if desc.Format.IsDepth() {
		id := rl.LoadTextureDepth(w, h, false)
		if id == 0 {
			return 0, fmt.Errorf("%w: %s %dx%d", ErrCreateImage, desc.Format, w, h)
		}
		tex = rl.Texture2D{ID: id, Width: w, Height: h, Mipmaps: 1, Format: rl.UncompressedR32}
	} else {
		format, bpp, err := pixelFormat(desc.Format)
		if err != nil {
			return 0, err
		}
		img := rl.NewImage(make([]byte, desc.Width*desc.Height*bpp), w, h, 1, format)
		tex = rl.LoadTextureFromImage(img)
		if tex.ID == 0 {
			return 0, fmt.Errorf("%w: %s %dx%d", ErrCreateImage, desc.Format, w, h)
		}
	}
	rl.SetTextureFilter(tex, textureFilter(desc.Sampling))
	rl.SetTextureWrap(tex, rl.WrapClamp)

	handle := d.addImage(tex, desc)
	utils.Debug("Device: image %d %dx%d %s (texture %d)", handle, w, h, desc.Format, tex.ID)
	return handle, nil
}

// LoadTexture uploads a decoded material texture with bilinear filtering and
// mipmaps. It is released by DestroyImage or Close like any other image.
func (d *Device) LoadTexture(img *image.RGBA) (engine3D.ImageHandle, error) {
	size := img.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return 0, fmt.Errorf("%w: empty texture", ErrCreateImage)
	}

	var rimg *rl.Image
	if img.Stride == size.X*4 && img.Rect.Min == (image.Point{}) {
		rimg = rl.NewImage(img.Pix, int32(size.X), int32(size.Y), 1, rl.UncompressedR8g8b8a8)
	} else {
		rimg = rl.NewImageFromImage(img)
		defer rl.UnloadImage(rimg)
	}
	tex := rl.LoadTextureFromImage(rimg)
	if tex.ID == 0 {
		return 0, fmt.Errorf("%w: texture %dx%d", ErrCreateImage, size.X, size.Y)
	}
	rl.GenTextureMipmaps(&tex)
	rl.SetTextureFilter(tex, rl.FilterTrilinear)

	handle := d.addImage(tex, engine3D.ImageDesc{
		Width: size.X, Height: size.Y, Format: engine3D.FormatBGRA8, Sampling: engine3D.SamplingBilinear,
	})
	utils.Info("Device: texture %d uploaded %dx%d", handle, size.X, size.Y)
	return handle, nil
}

func (d *Device) CreateSink(images ...engine3D.ImageHandle) (engine3D.SinkHandle, error) {
	fbo := rl.LoadFramebuffer()
	if fbo == 0 {
		return 0, fmt.Errorf("%w: no framebuffer object", ErrIncomplete)
	}
	target := rl.RenderTexture2D{ID: fbo}

	for _, h := range images {
		t, ok := d.images[h]
		if !ok {
			unloadFramebuffer(target)
			return 0, fmt.Errorf("%w: image %d", ErrUnknownHandle, h)
		}
		if t.desc.Format.IsDepth() {
			rl.FramebufferAttach(fbo, t.tex.ID, rl.AttachmentDepth, rl.AttachmentTexture2d, 0)
			target.Depth = t.tex
			continue
		}
		if target.Texture.ID != 0 {
			unloadFramebuffer(target)
			return 0, fmt.Errorf("%w: more than one color attachment", ErrIncomplete)
		}
		rl.FramebufferAttach(fbo, t.tex.ID, rl.AttachmentColorChannel0, rl.AttachmentTexture2d, 0)
		target.Texture = t.tex
	}

	if !rl.FramebufferComplete(fbo) {
		unloadFramebuffer(target)
		return 0, fmt.Errorf("%w: %v", ErrIncomplete, images)
	}

	d.nextID++
	handle := engine3D.SinkHandle(d.nextID)
	d.sinks[handle] = &sink{target: target, images: append([]engine3D.ImageHandle(nil), images...)}
	for _, h := range images {
		d.images[h].sink = handle
	}
	utils.Debug("Device: sink %d (fbo %d) with images %v", handle, fbo, images)
	return handle, nil
}

// unloadFramebuffer deletes the framebuffer object only. raylib would also
// delete an attached depth texture, which the image table still owns.
func unloadFramebuffer(target rl.RenderTexture2D) {
	if target.Depth.ID != 0 {
		rl.FramebufferAttach(target.ID, 0, rl.AttachmentDepth, rl.AttachmentTexture2d, 0)
	}
	rl.UnloadFramebuffer(target.ID)
}

func (d *Device) DestroySink(h engine3D.SinkHandle) {
	s, ok := d.sinks[h]
	if !ok {
		utils.Warn("Device: destroy of unknown sink %d", h)
		return
	}
	unloadFramebuffer(s.target)
	for _, img := range s.images {
		if t, ok := d.images[img]; ok {
			t.sink = 0
		}
	}
	delete(d.sinks, h)
}

func (d *Device) DestroyImage(h engine3D.ImageHandle) {
	t, ok := d.images[h]
	if !ok {
		utils.Warn("Device: destroy of unknown image %d", h)
		return
	}
	if t.sink != 0 {
		utils.Warn("Device: image %d destroyed while attached to sink %d", h, t.sink)
	}
	rl.UnloadTexture(t.tex)
	delete(d.images, h)
}

// Frame ends the frame and returns how many frames have been completed.
func (d *Device) Frame() uint32 {
	d.frame++
	return d.frame
}

// Close releases every GPU object still owned by the device.
func (d *Device) Close() {
	sinks := make([]engine3D.SinkHandle, 0, len(d.sinks))
	for h := range d.sinks {
		sinks = append(sinks, h)
	}
	sort.Slice(sinks, func(i, j int) bool { return sinks[i] < sinks[j] })
	for _, h := range sinks {
		d.DestroySink(h)
	}
	for h := range d.images {
		d.DestroyImage(h)
	}

	for _, m := range d.models {
		rl.UnloadModel(m)
	}
	for i := range d.builtins {
		rl.UnloadMesh(&d.builtins[i])
	}
	d.models, d.builtins = nil, nil
	clear(d.meshes)

	for p, prog := range d.programs {
		rl.UnloadShader(prog.shader)
		delete(d.programs, p)
	}
	utils.Info("Device: closed after %d frames", d.frame)
}
