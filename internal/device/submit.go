package device

import (
	"fmt"

	"github.com/elvencache/ec-bokeh/internal/engine3D"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// toMatrix converts a column-major mgl32 matrix. raylib names its fields by
// the same column-major index, so element i maps to Mi.
func toMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}

// Submit executes one pass immediately. raylib batches immediate-mode
// geometry, so the batch is flushed before state changes and on exit.
func (d *Device) Submit(p *engine3D.Pass) error {
	var target *sink
	if p.Target != engine3D.Backbuffer {
		s, ok := d.sinks[p.Target]
		if !ok {
			return fmt.Errorf("%w: sink %d", ErrUnknownHandle, p.Target)
		}
		target = s
	}

	var prog *program
	if p.Overlay == nil {
		var err error
		if prog, err = d.program(p.Program); err != nil {
			return err
		}
	}

	rl.DrawRenderBatchActive()
	if target != nil {
		rl.BeginTextureMode(target.target)
	}
	rl.SetMatrixProjection(toMatrix(p.Proj))
	rl.SetMatrixModelview(toMatrix(p.View))

	clearTarget(p.Clear)
	applyState(p)

	var err error
	switch {
	case p.Overlay != nil:
		p.Overlay()
	case len(p.Draws) > 0:
		err = d.drawScene(p, prog)
	case len(p.Triangle) > 0:
		err = d.drawTriangle(p, prog)
	}

	rl.DrawRenderBatchActive()
	resetState()
	if target != nil {
		rl.EndTextureMode()
	}
	if err != nil {
		return fmt.Errorf("device: %s: %w", p.Name, err)
	}
	return nil
}

// clearTarget clears the bound target. raylib clears color and depth
// together, so the masks select which one survives; depth always clears to 1.
func clearTarget(c engine3D.Clear) {
	if !c.Color && !c.Depth {
		return
	}
	rl.ColorMask(c.Color, c.Color, c.Color, c.Color)
	if c.Depth {
		rl.EnableDepthMask()
	} else {
		rl.DisableDepthMask()
	}
	rl.ClearBackground(rl.GetColor(uint(c.ColorValue)))
	rl.ColorMask(true, true, true, true)
	rl.EnableDepthMask()
}

func applyState(p *engine3D.Pass) {
	// raylib's depth function is LEQUAL; with a cleared buffer this matches
	// a strict less test except for coplanar surfaces.
	if p.DepthTest == engine3D.DepthTestLess {
		rl.EnableDepthTest()
	} else {
		rl.DisableDepthTest()
	}
	if p.Write&engine3D.WriteDepth != 0 {
		rl.EnableDepthMask()
	} else {
		rl.DisableDepthMask()
	}
	rgb := p.Write&engine3D.WriteRGB != 0
	rl.ColorMask(rgb, rgb, rgb, p.Write&engine3D.WriteAlpha != 0)
}

func resetState() {
	rl.ColorMask(true, true, true, true)
	rl.EnableDepthMask()
	rl.DisableDepthTest()
	rl.EnableBackfaceCulling()
}

func (d *Device) texture(h engine3D.ImageHandle) (rl.Texture2D, error) {
	t, ok := d.images[h]
	if !ok {
		return rl.Texture2D{}, fmt.Errorf("%w: image %d", ErrUnknownHandle, h)
	}
	return t.tex, nil
}

func (d *Device) drawScene(p *engine3D.Pass, prog *program) error {
	for _, b := range p.Textures {
		tex, err := d.texture(b.Image)
		if err != nil {
			return err
		}
		mapIndex, ok := materialSamplers[b.Sampler]
		if !ok {
			return fmt.Errorf("%w: sampler %s is not a material map", ErrUnknownHandle, b.Sampler)
		}
		rl.SetMaterialTexture(&d.material, mapIndex, tex)
	}
	d.material.Shader = prog.shader
	prog.setParams(p.Uniforms)

	// The left-handed view flips triangle winding in GL window space.
	rl.DisableBackfaceCulling()
	for _, dc := range p.Draws {
		meshes, ok := d.meshes[dc.Mesh]
		if !ok {
			return fmt.Errorf("%w: %q", engine3D.ErrUnknownMesh, dc.Mesh)
		}
		transform := toMatrix(dc.Transform)
		for _, mesh := range meshes {
			rl.DrawMesh(mesh, d.material, transform)
		}
	}
	return nil
}

func (d *Device) drawTriangle(p *engine3D.Pass, prog *program) error {
	rl.BeginShaderMode(prog.shader)
	defer rl.EndShaderMode()

	prog.setParams(p.Uniforms)
	// Sampler units reset after every batch flush, so bind after the shader
	// switch and draw before EndShaderMode flushes.
	for _, b := range p.Textures {
		tex, err := d.texture(b.Image)
		if err != nil {
			return err
		}
		rl.SetShaderValueTexture(prog.shader, prog.location(b.Sampler), tex)
	}

	rl.Begin(rl.Triangles)
	rl.Color4ub(255, 255, 255, 255)
	for _, v := range p.Triangle {
		rl.TexCoord2f(v.U, v.V)
		rl.Vertex3f(v.X, v.Y, v.Z)
	}
	rl.End()
	return nil
}
