// Package config loads the TOML settings file that drives the window, camera,
// scene population and the default depth-of-field tunables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/elvencache/ec-bokeh/internal/utils"

	"github.com/pelletier/go-toml/v2"
)

var (
	ErrInvalidWindow = errors.New("config: invalid window size")
	ErrNoMeshes      = errors.New("config: scene has no meshes")
	ErrGroundMesh    = errors.New("config: ground mesh is not in the mesh list")
)

type Config struct {
	LogLevel string       `toml:"log_level"`
	Window   WindowConfig `toml:"window"`
	Camera   CameraConfig `toml:"camera"`
	Scene    SceneConfig  `toml:"scene"`
	DoF      DoFConfig    `toml:"dof"`
	Assets   AssetsConfig `toml:"assets"`
}

type WindowConfig struct {
	// Width and Height of 0 size the window from the X display.
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
	FPS    int    `toml:"fps"`
}

type CameraConfig struct {
	Position      [3]float32 `toml:"position"`
	VerticalAngle float32    `toml:"vertical_angle"`
	FovY          float32    `toml:"fov_y"`
	Near          float32    `toml:"near"`
	Far           float32    `toml:"far"`
	MoveSpeed     float32    `toml:"move_speed"`
	MouseSpeed    float32    `toml:"mouse_speed"`
}

type MeshConfig struct {
	Name  string  `toml:"name"`
	Path  string  `toml:"path"`
	Scale float32 `toml:"scale"`
}

type SceneConfig struct {
	ModelCount    int          `toml:"model_count"`
	Seed          uint64       `toml:"seed"`
	LightPosition [3]float32   `toml:"light_position"`
	GroundMesh    string       `toml:"ground_mesh"`
	Albedo        string       `toml:"albedo"`
	Normal        string       `toml:"normal"`
	Meshes        []MeshConfig `toml:"meshes"`
}

type DoFConfig struct {
	Enabled             bool    `toml:"enabled"`
	SinglePass          bool    `toml:"single_pass"`
	MaxBlurSize         float32 `toml:"max_blur_size"`
	FocusPoint          float32 `toml:"focus_point"`
	FocusScale          float32 `toml:"focus_scale"`
	RadiusScale         float32 `toml:"radius_scale"`
	BlurSteps           float32 `toml:"blur_steps"`
	UseSqrtDistribution bool    `toml:"sqrt_distribution"`
}

type AssetsConfig struct {
	Root     string `toml:"root"`
	Package  string `toml:"package"`
	CacheDir string `toml:"cache_dir"`
}

// Default mirrors the stock scene: five meshes, a hundred models, fieldstone material.
func Default() Config {
	return Config{
		LogLevel: "warn",
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "ec-bokeh - bokeh depth of field",
			VSync:  true,
			FPS:    60,
		},
		Camera: CameraConfig{
			Position:      [3]float32{0, 1.5, -4},
			VerticalAngle: -0.3,
			FovY:          60,
			Near:          0.01,
			Far:           100,
			MoveSpeed:     3,
			MouseSpeed:    0.15,
		},
		Scene: SceneConfig{
			ModelCount:    100,
			Seed:          0,
			LightPosition: [3]float32{-10, 10, -10},
			GroundMesh:    "cube",
			Albedo:        "textures/fieldstone-rgba.dds",
			Normal:        "textures/fieldstone-n.dds",
			Meshes: []MeshConfig{
				{Name: "sphere", Path: "meshes/unit_sphere.obj", Scale: 0.15},
				{Name: "cube", Path: "meshes/cube.obj", Scale: 0.05},
				{Name: "tree", Path: "meshes/tree.obj", Scale: 0.15},
				{Name: "hollowcube", Path: "meshes/hollowcube.obj", Scale: 0.25},
				{Name: "bunny", Path: "meshes/bunny.obj", Scale: 0.25},
			},
		},
		DoF: DoFConfig{
			Enabled:     true,
			SinglePass:  true,
			MaxBlurSize: 20,
			FocusPoint:  1,
			FocusScale:  2,
			RadiusScale: 3.856,
			BlurSteps:   50,
		},
		Assets: AssetsConfig{
			Root:     "assets",
			CacheDir: "tmp",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		utils.Warn("Config: %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML into cfg, keeping fields absent from data, then validates.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return err
	}

	cfg.DoF.Clamp()
	return cfg.Validate()
}

// Validate rejects settings that would make startup fail later in a less obvious place.
func (c *Config) Validate() error {
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidWindow, c.Window.Width, c.Window.Height)
	}
	if len(c.Scene.Meshes) == 0 {
		return ErrNoMeshes
	}
	seen := make(map[string]bool, len(c.Scene.Meshes))
	for i, m := range c.Scene.Meshes {
		if m.Name == "" || m.Path == "" {
			return fmt.Errorf("config: mesh %d needs a name and a path", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("config: duplicate mesh %q", m.Name)
		}
		seen[m.Name] = true
		if m.Scale <= 0 {
			c.Scene.Meshes[i].Scale = 1
		}
	}
	if c.Scene.GroundMesh != "" && !seen[c.Scene.GroundMesh] {
		return fmt.Errorf("%w: %q", ErrGroundMesh, c.Scene.GroundMesh)
	}
	if c.Scene.ModelCount < 0 {
		c.Scene.ModelCount = 0
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("config: camera clip planes near=%g far=%g", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 {
		return fmt.Errorf("config: camera fov_y %g out of range", c.Camera.FovY)
	}
	return nil
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp pulls every slider value into the range the settings panel exposes.
func (d *DoFConfig) Clamp() {
	d.MaxBlurSize = clamp(d.MaxBlurSize, 10, 50)
	d.FocusPoint = clamp(d.FocusPoint, 1, 20)
	d.FocusScale = clamp(d.FocusScale, 0, 2)
	d.RadiusScale = clamp(d.RadiusScale, 0.5, 4)
	d.BlurSteps = clamp(d.BlurSteps, 10, 100)
}
