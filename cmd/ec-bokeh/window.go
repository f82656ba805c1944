package main

import (
	"fmt"

	"github.com/elvencache/ec-bokeh/internal/config"
	"github.com/elvencache/ec-bokeh/internal/debug"
	"github.com/elvencache/ec-bokeh/internal/device"
	"github.com/elvencache/ec-bokeh/internal/engine3D"
	"github.com/elvencache/ec-bokeh/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

type Window struct {
	renderer *engine3D.Renderer
	scene    *engine3D.Scene
	camera   engine3D.Camera
	panel    *debug.SettingsPanel
	watcher  *config.Watcher
}

func tunables(d config.DoFConfig) engine3D.Tunables {
	return engine3D.Tunables{
		DoFEnabled:          d.Enabled,
		SinglePass:          d.SinglePass,
		MaxBlurSize:         d.MaxBlurSize,
		FocusPoint:          d.FocusPoint,
		FocusScale:          d.FocusScale,
		RadiusScale:         d.RadiusScale,
		UseSqrtDistribution: d.UseSqrtDistribution,
		BlurSteps:           d.BlurSteps,
	}
}

func camera(c config.CameraConfig) engine3D.Camera {
	return engine3D.Camera{
		Position:      mgl32.Vec3(c.Position),
		VerticalAngle: c.VerticalAngle,
		FovY:          c.FovY,
		Near:          c.Near,
		Far:           c.Far,
		MoveSpeed:     c.MoveSpeed,
		MouseSpeed:    c.MouseSpeed,
	}
}

func NewWindow(cfg config.Config, dev *device.Device, scene *engine3D.Scene, watcher *config.Watcher) (*Window, error) {
	for name := range scene.MeshScales {
		if !dev.HasMesh(name) {
			return nil, fmt.Errorf("%w: %q was not loaded", engine3D.ErrUnknownMesh, name)
		}
	}

	renderer, err := engine3D.NewRenderer(dev, scene)
	if err != nil {
		return nil, err
	}

	panel := debug.NewSettingsPanel(tunables(cfg.DoF))
	renderer.SetOverlay(panel.Draw)

	return &Window{
		renderer: renderer,
		scene:    scene,
		camera:   camera(cfg.Camera),
		panel:    panel,
		watcher:  watcher,
	}, nil
}

func (window *Window) Run() error {
	for !rl.WindowShouldClose() {
		window.applyReloads()
		window.Update()

		rl.BeginDrawing()
		err := window.Draw()
		rl.EndDrawing()
		if err != nil {
			return err
		}
	}
	return nil
}

// applyReloads takes at most one pending config reload per frame.
func (window *Window) applyReloads() {
	if window.watcher == nil {
		return
	}
	select {
	case cfg := <-window.watcher.Updates():
		window.panel.Tunables = tunables(cfg.DoF)
		window.scene.LightPosition = mgl32.Vec3(cfg.Scene.LightPosition)
		window.camera.MoveSpeed = cfg.Camera.MoveSpeed
		window.camera.MouseSpeed = cfg.Camera.MouseSpeed
		window.renderer.MarkDirty()
		utils.Info("Window: settings reloaded")
	default:
	}
}

func (window *Window) Update() {
	window.panel.Update()

	delta := rl.GetMouseDelta()
	window.camera.Update(engine3D.CameraInput{
		Forward:    rl.IsKeyDown(rl.KeyW) || rl.IsKeyDown(rl.KeyUp),
		Backward:   rl.IsKeyDown(rl.KeyS) || rl.IsKeyDown(rl.KeyDown),
		Left:       rl.IsKeyDown(rl.KeyA) || rl.IsKeyDown(rl.KeyLeft),
		Right:      rl.IsKeyDown(rl.KeyD) || rl.IsKeyDown(rl.KeyRight),
		Up:         rl.IsKeyDown(rl.KeyE),
		Down:       rl.IsKeyDown(rl.KeyQ),
		Rotate:     rl.IsMouseButtonDown(rl.MouseRightButton) && !window.panel.Captures(),
		MouseDelta: mgl32.Vec2{delta.X, delta.Y},
		DeltaTime:  rl.GetFrameTime(),
	})

	if window.panel.Changed() {
		t := window.panel.Tunables
		utils.Debug("Settings: dof=%v %s blur=%.1f focus=%.2f scale=%.2f radius=%.3f",
			t.DoFEnabled, t.Topology(), t.MaxBlurSize, t.FocusPoint, t.FocusScale, t.RadiusScale)
	}
}

func (window *Window) Draw() error {
	width, height := rl.GetScreenWidth(), rl.GetScreenHeight()
	if rl.IsWindowMinimized() {
		width, height = 0, 0
	}

	rl.ClearBackground(rl.Black)
	stats, err := window.renderer.Frame(engine3D.FrameInput{
		Width:    width,
		Height:   height,
		Camera:   window.camera,
		Tunables: window.panel.Tunables,
	})
	if err != nil {
		return err
	}

	window.panel.Stats = stats
	if window.panel.Visible {
		window.panel.Targets = window.renderer.Pool().Describe()
	}
	return nil
}

func (window *Window) Close() {
	window.renderer.Close()
	window.panel.Close()
}
