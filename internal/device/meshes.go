package device

import (
	"fmt"
	"os"
	"strings"

	"github.com/elvencache/ec-bokeh/internal/config"
	"github.com/elvencache/ec-bokeh/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// BuiltinPrefix names a generated mesh instead of a file, e.g. "builtin:cube".
const BuiltinPrefix = "builtin:"

// builtinMesh generates the stock shapes. Both span [-1,1] so the ground
// transform puts the cube's top face at y=0.
func builtinMesh(name string) (rl.Mesh, bool) {
	switch name {
	case "cube":
		return rl.GenMeshCube(2, 2, 2), true
	case "sphere":
		return rl.GenMeshSphere(1, 16, 24), true
	case "plane":
		return rl.GenMeshPlane(2, 2, 1, 1), true
	}
	return rl.Mesh{}, false
}

// LoadMeshes uploads every configured mesh under its name. A missing mesh
// file is an error; raylib would otherwise substitute a cube silently.
func (d *Device) LoadMeshes(meshes []config.MeshConfig) error {
	for _, m := range meshes {
		if shape, ok := strings.CutPrefix(m.Path, BuiltinPrefix); ok {
			mesh, ok := builtinMesh(shape)
			if !ok {
				return fmt.Errorf("device: mesh %s: unknown builtin %q", m.Name, shape)
			}
			d.builtins = append(d.builtins, mesh)
			d.meshes[m.Name] = []rl.Mesh{mesh}
			utils.Debug("Device: mesh %s generated as %s", m.Name, shape)
			continue
		}

		path := utils.ResolveAssetPath(m.Path)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("device: mesh %s: %w", m.Name, err)
		}
		model := rl.LoadModel(path)
		if model.MeshCount == 0 {
			return fmt.Errorf("device: mesh %s: no geometry in %s", m.Name, path)
		}
		d.models = append(d.models, model)
		d.meshes[m.Name] = model.GetMeshes()
		utils.Info("Device: mesh %s loaded from %s (%d meshes)", m.Name, path, model.MeshCount)
	}
	return nil
}

// HasMesh reports whether name was loaded.
func (d *Device) HasMesh(name string) bool {
	_, ok := d.meshes[name]
	return ok
}
