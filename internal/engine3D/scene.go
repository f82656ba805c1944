package engine3D

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrUnknownMesh  = errors.New("engine3D: unknown mesh")
	ErrMissingImage = errors.New("engine3D: material texture not loaded")
)

type Model struct {
	Mesh     string
	Position mgl32.Vec3
}

// Scene is the static content of the forward pass.
type Scene struct {
	Models []Model
	// MeshScales holds the uniform scale of every mesh id a Model may use.
	MeshScales    map[string]float32
	Ground        string
	Albedo        ImageHandle
	Normal        ImageHandle
	LightPosition mgl32.Vec3
}

const (
	groundScale  = 10
	groundHeight = -10
)

// mwc is a multiply-with-carry generator. The zero seed reproduces the
// classic layout of the bokeh sample scene.
type mwc struct {
	z, w uint32
}

func newMWC(seed uint64) *mwc {
	if seed == 0 {
		return &mwc{z: 12345, w: 65435}
	}
	return &mwc{z: uint32(seed) | 1, w: uint32(seed>>32) | 1}
}

func (r *mwc) gen() uint32 {
	r.z = 36969*(r.z&65535) + (r.z >> 16)
	r.w = 18000*(r.w&65535) + (r.w >> 16)
	return (r.z << 16) + r.w
}

// GenerateModels scatters count models over a 12.8 unit square around the
// origin, picking a mesh uniformly for each.
func GenerateModels(meshes []string, count int, seed uint64) []Model {
	if len(meshes) == 0 || count <= 0 {
		return nil
	}
	rng := newMWC(seed)
	models := make([]Model, count)
	for i := range models {
		models[i].Mesh = meshes[rng.gen()%uint32(len(meshes))]
		models[i].Position[0] = (float32(rng.gen()%256) - 128) / 20
		models[i].Position[2] = (float32(rng.gen()%256) - 128) / 20
	}
	return models
}

// Validate checks that every referenced mesh and texture exists.
func (s *Scene) Validate() error {
	for _, m := range s.Models {
		if _, ok := s.MeshScales[m.Mesh]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownMesh, m.Mesh)
		}
	}
	if _, ok := s.MeshScales[s.Ground]; !ok {
		return fmt.Errorf("%w: ground %q", ErrUnknownMesh, s.Ground)
	}
	if s.Albedo == 0 || s.Normal == 0 {
		return ErrMissingImage
	}
	return nil
}

// ModelTransform is T(position) * S(mesh scale).
func (s *Scene) ModelTransform(m Model) mgl32.Mat4 {
	scale, ok := s.MeshScales[m.Mesh]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnknownMesh, m.Mesh))
	}
	return mgl32.Translate3D(m.Position[0], m.Position[1], m.Position[2]).
		Mul4(mgl32.Scale3D(scale, scale, scale))
}

func GroundTransform() mgl32.Mat4 {
	return mgl32.Translate3D(0, groundHeight, 0).Mul4(mgl32.Scale3D(groundScale, groundScale, groundScale))
}
