// Package debug draws the in-window settings panel for the depth-of-field
// tunables, plus a little frame and render-target information.
package debug

import (
	"fmt"
	"math"
	"os"

	"github.com/elvencache/ec-bokeh/internal/engine3D"
	"github.com/elvencache/ec-bokeh/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Slider ranges. Config values are clamped to the same ranges on load.
const (
	maxBlurSizeMin, maxBlurSizeMax = 10, 50
	focusPointMin, focusPointMax   = 1, 20
	focusScaleMin, focusScaleMax   = 0, 2
	radiusScaleMin, radiusScaleMax = 0.5, 4
	blurStepsMin, blurStepsMax     = 10, 100
	stepsDebugMax                  = 1000
)

var fontPaths = []string{
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/liberation/LiberationSans-Regular.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
}

// SettingsPanel edits Tunables in place. Update reads input before the frame
// is rendered; Draw runs inside the overlay pass.
type SettingsPanel struct {
	Tunables engine3D.Tunables
	Stats    engine3D.FrameStats
	Targets  []engine3D.TargetDesc
	Visible  bool

	fontHeight int
	lineHeight int
	width      int
	height     int
	font       rl.Font

	prevLeftMouseButton bool
	mouseX, mouseY      int
	clicked, down       bool
	changed             bool
}

func NewSettingsPanel(t engine3D.Tunables) *SettingsPanel {
	p := &SettingsPanel{Tunables: t, Visible: true}
	p.updateLayout(rl.GetScreenHeight())

	for _, path := range fontPaths {
		if _, err := os.Stat(path); err == nil {
			p.font = rl.LoadFontEx(path, 64, nil, 0)
			rl.SetTextureFilter(p.font.Texture, rl.FilterBilinear)
			utils.Debug("Settings: using font %s", path)
			break
		}
	}
	return p
}

func (p *SettingsPanel) updateLayout(screenHeight int) {
	scale := math.Max(1.0, float64(screenHeight)/1080.0)
	p.fontHeight = int(16 * scale)
	p.lineHeight = int(26 * scale)
	p.width = int(420 * scale)
	p.height = p.lineHeight * 20
}

// Update toggles the panel with F1 and captures the mouse for this frame.
func (p *SettingsPanel) Update() {
	if rl.IsKeyPressed(rl.KeyF1) {
		p.Toggle()
	}
	p.updateLayout(rl.GetScreenHeight())

	mPos := rl.GetMousePosition()
	p.mouseX, p.mouseY = int(mPos.X), int(mPos.Y)
	p.down = rl.IsMouseButtonDown(rl.MouseLeftButton)
	p.clicked = p.down && !p.prevLeftMouseButton
	p.prevLeftMouseButton = p.down
}

func (p *SettingsPanel) Toggle() {
	p.Visible = !p.Visible
	utils.Debug("Settings: panel visible=%v", p.Visible)
}

// Captures reports whether the mouse is over the visible panel, so camera
// controls can ignore it.
func (p *SettingsPanel) Captures() bool {
	return p.Visible && inRect(p.mouseX, p.mouseY, 0, 0, p.width, p.height)
}

// Changed reports whether a widget changed the tunables since the last call.
func (p *SettingsPanel) Changed() bool {
	c := p.changed
	p.changed = false
	return c
}

// Draw is the overlay callback. Widgets only react to input while visible.
func (p *SettingsPanel) Draw() {
	if !p.Visible {
		rl.DrawText("F1: settings", 10, 10, int32(p.fontHeight), rl.LightGray)
		return
	}

	rl.DrawRectangle(0, 0, int32(p.width), int32(p.height), rl.NewColor(0, 0, 0, 190))

	ui := NewUIContext(10, 10, p.width-20, p.lineHeight, p.fontHeight, p.font, p.mouseX, p.mouseY, p.clicked, p.down)
	before := p.Tunables
	drawTunables(ui, &p.Tunables)
	if p.Tunables != before {
		p.changed = true
	}

	ui.Separator()
	ui.Header("Frame:")
	ui.IndentLabel(fmt.Sprintf("FPS: %d  (%.2f ms)", rl.GetFPS(), rl.GetFrameTime()*1000), 10)
	ui.IndentLabel(fmt.Sprintf("Frame: %d  Passes: %d", p.Stats.Frame, len(p.Stats.Passes)), 10)
	for _, t := range p.Targets {
		ui.IndentLabel(t.String(), 10)
	}
}

func drawTunables(ui *UIContext, t *engine3D.Tunables) {
	ui.Header("Settings:")
	t.DoFEnabled = ui.Checkbox("use bokeh dof", t.DoFEnabled)
	t.SinglePass = ui.Checkbox("use single pass", t.SinglePass)
	t.MaxBlurSize = ui.Slider("max blur size", t.MaxBlurSize, maxBlurSizeMin, maxBlurSizeMax, "%.1f")
	t.FocusPoint = ui.Slider("focusPoint", t.FocusPoint, focusPointMin, focusPointMax, "%.2f")
	t.FocusScale = ui.Slider("focusScale", t.FocusScale, focusScaleMin, focusScaleMax, "%.2f")
	t.RadiusScale = ui.Slider("radiusScale", t.RadiusScale, radiusScaleMin, radiusScaleMax, "%.3f")

	steps := engine3D.StepCount(t.RadiusScale, t.MaxBlurSize)
	ui.ReadOnly("steps debug", float32(steps), 0, stepsDebugMax, StepsText(steps))

	t.UseSqrtDistribution = ui.Checkbox("use sqrt distribution", t.UseSqrtDistribution)
	t.BlurSteps = ui.Slider("blur steps", t.BlurSteps, blurStepsMin, blurStepsMax, "%.0f")
}

// StepsText is the read-only sample count shown under the radius slider.
func StepsText(steps int) string {
	if steps <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", steps)
}

// Close releases the panel font.
func (p *SettingsPanel) Close() {
	if p.font.BaseSize > 0 {
		rl.UnloadFont(p.font)
	}
}
