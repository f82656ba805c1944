// Package convert turns on-disk texture containers and asset packages into
// data the renderer can upload.
package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/elvencache/ec-bokeh/internal/utils"

	"github.com/mauserzjeh/dxt"
	"github.com/pierrec/lz4/v4"
)

var (
	ErrUnsupportedTexture = errors.New("convert: unsupported texture format")
	ErrTruncated          = errors.New("convert: truncated texture data")
)

// Wallpaper Engine .tex pixel formats.
const (
	texFormatRGBA8888 = 0
	texFormatDXT5     = 4
	texFormatDXT1     = 7
	texFormatRG88     = 8
	texFormatR8       = 9
)

// byteReader reads little-endian fields from a buffer. The first short read
// sticks in err and every later read returns zero.
type byteReader struct {
	buf []byte
	off int
	err error
}

func (r *byteReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = ErrTruncated
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *byteReader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// magic reads a fixed-width, NUL padded tag.
func (r *byteReader) magic(n int) string {
	return string(bytes.Trim(r.take(n), "\x00"))
}

// LoadImage decodes the texture at path by extension: .tex, .dds, or anything
// the image package has a decoder for.
func LoadImage(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var img *image.RGBA
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tex":
		img, err = DecodeTex(data)
	case ".dds":
		img, err = DecodeDDS(data)
	default:
		var decoded image.Image
		decoded, _, err = image.Decode(bytes.NewReader(data))
		if err == nil {
			img = toRGBA(decoded)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	utils.Debug("Texture: decoded %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// DecodeTex decodes the first mip of the first image in a TEXV0005 container.
func DecodeTex(data []byte) (*image.RGBA, error) {
	r := &byteReader{buf: data}

	magic1 := r.magic(8)
	r.take(1)
	r.magic(8)
	r.take(1)
	if r.err != nil {
		return nil, r.err
	}
	if magic1 != "TEXV0005" {
		return nil, fmt.Errorf("invalid magic: %q", magic1)
	}

	format := r.uint32()
	r.uint32() // flags
	r.uint32() // texture width
	r.uint32() // texture height
	imgW := r.uint32()
	imgH := r.uint32()
	r.uint32()

	containerMagic := r.magic(8)
	r.take(1)
	imageCount := r.uint32()
	if containerMagic == "TEXB0003" {
		r.uint32()
	}
	if r.err != nil {
		return nil, r.err
	}
	if imageCount == 0 {
		return nil, errors.New("no image found in texture")
	}

	utils.Debug("    Format: %d, Container: %s, Size: %dx%d", format, containerMagic, imgW, imgH)

	mipmapCount := r.uint32()
	if mipmapCount == 0 {
		return nil, errors.New("no mipmap found in texture")
	}
	mW := r.uint32()
	mH := r.uint32()
	var isLZ4 bool
	var decompressedSize uint32
	if containerMagic != "TEXB0001" {
		isLZ4 = r.uint32() == 1
		decompressedSize = r.uint32()
	}
	dataSize := r.uint32()
	payload := r.take(int(dataSize))
	if r.err != nil {
		return nil, r.err
	}

	if isLZ4 {
		utils.Debug("    Decompressing LZ4: %d -> %d", dataSize, decompressedSize)
		decoded := make([]byte, decompressedSize)
		n, err := lz4.UncompressBlock(payload, decoded)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		payload = decoded[:n]
	}

	pix, err := decodeTexPixels(format, payload, int(mW), int(mH))
	if err != nil {
		return nil, err
	}

	img := &image.RGBA{
		Pix:    pix,
		Stride: int(mW) * 4,
		Rect:   image.Rect(0, 0, int(mW), int(mH)),
	}
	if imgW == 0 || imgH == 0 || (imgW == mW && imgH == mH) {
		return img, nil
	}
	// Mips are padded to powers of two; crop back to the authored size.
	return toRGBA(img.SubImage(image.Rect(0, 0, int(min(imgW, mW)), int(min(imgH, mH))))), nil
}

func decodeTexPixels(format uint32, data []byte, w, h int) ([]byte, error) {
	numBlocks := ((w + 3) / 4) * ((h + 3) / 4)
	n := len(data)

	switch {
	case format == texFormatRGBA8888 && n == w*h*4:
		return data, nil
	case format == texFormatDXT5 || (format != texFormatDXT1 && n == numBlocks*16):
		return dxt.DecodeDXT5(data, uint(w), uint(h))
	case format == texFormatDXT1 || n == numBlocks*8:
		return dxt.DecodeDXT1(data, uint(w), uint(h))
	case format == texFormatR8 && n == w*h:
		pix := make([]byte, w*h*4)
		for i, v := range data {
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = v, v, v, 255
		}
		return pix, nil
	case format == texFormatRG88 && n == w*h*2:
		pix := make([]byte, w*h*4)
		for i := 0; i < w*h; i++ {
			lum, alpha := data[i*2], data[i*2+1]
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = lum, lum, lum, alpha
		}
		return pix, nil
	}
	return nil, fmt.Errorf("%w: tex format %d with %d bytes for %dx%d", ErrUnsupportedTexture, format, n, w, h)
}

const (
	ddsHeaderSize = 128
	ddsFourCC     = 0x4
	ddsRGB        = 0x40
)

// DecodeDDS decodes the top mip of a DXT1, DXT5 or 32-bit uncompressed DDS file.
func DecodeDDS(data []byte) (*image.RGBA, error) {
	if len(data) < ddsHeaderSize {
		return nil, ErrTruncated
	}
	if string(data[:4]) != "DDS " {
		return nil, fmt.Errorf("invalid magic: %q", data[:4])
	}

	le := binary.LittleEndian
	h := int(le.Uint32(data[12:]))
	w := int(le.Uint32(data[16:]))
	pfFlags := le.Uint32(data[80:])
	fourCC := string(data[84:88])
	bitCount := le.Uint32(data[88:])
	rMask := le.Uint32(data[92:])
	aMask := le.Uint32(data[104:])
	body := data[ddsHeaderSize:]

	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: dds size %dx%d", ErrUnsupportedTexture, w, h)
	}

	blocks := ((w + 3) / 4) * ((h + 3) / 4)
	var pix []byte
	var err error
	switch {
	case pfFlags&ddsFourCC != 0 && fourCC == "DXT1":
		if len(body) < blocks*8 {
			return nil, ErrTruncated
		}
		pix, err = dxt.DecodeDXT1(body[:blocks*8], uint(w), uint(h))
	case pfFlags&ddsFourCC != 0 && fourCC == "DXT5":
		if len(body) < blocks*16 {
			return nil, ErrTruncated
		}
		pix, err = dxt.DecodeDXT5(body[:blocks*16], uint(w), uint(h))
	case pfFlags&ddsRGB != 0 && bitCount == 32:
		if len(body) < w*h*4 {
			return nil, ErrTruncated
		}
		pix = make([]byte, w*h*4)
		copy(pix, body)
		if rMask == 0x00ff0000 {
			swapRB(pix)
		}
		if aMask == 0 {
			for i := 3; i < len(pix); i += 4 {
				pix[i] = 255
			}
		}
	default:
		return nil, fmt.Errorf("%w: dds fourcc %q, %d bpp", ErrUnsupportedTexture, fourCC, bitCount)
	}
	if err != nil {
		return nil, err
	}

	return &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}, nil
}

func swapRB(pix []byte) {
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
