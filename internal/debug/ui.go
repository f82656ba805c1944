package debug

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// UIContext lays widgets out top to bottom and hit-tests them against the
// mouse state captured for this frame.
type UIContext struct {
	X, Y         int
	BaseX        int
	Width        int
	LineHeight   int
	FontHeight   int
	Font         rl.Font
	MouseX       int
	MouseY       int
	MouseClicked bool
	MouseDown    bool
}

func NewUIContext(x, y, width, lineHeight, fontHeight int, font rl.Font, mx, my int, clicked, down bool) *UIContext {
	return &UIContext{
		X:            x,
		Y:            y,
		BaseX:        x,
		Width:        width,
		LineHeight:   lineHeight,
		FontHeight:   fontHeight,
		Font:         font,
		MouseX:       mx,
		MouseY:       my,
		MouseClicked: clicked,
		MouseDown:    down,
	}
}

func (ui *UIContext) drawText(text string, x, y int32, color rl.Color) {
	if ui.Font.BaseSize > 0 {
		rl.DrawTextEx(ui.Font, text, rl.NewVector2(float32(x), float32(y)), float32(ui.FontHeight), 1, color)
	} else {
		rl.DrawText(text, x, y, int32(ui.FontHeight), color)
	}
}

func (ui *UIContext) Label(text string) {
	ui.drawText(text, int32(ui.X), int32(ui.Y), rl.White)
	ui.Y += ui.LineHeight
}

func (ui *UIContext) IndentLabel(text string, indent int) {
	ui.drawText(text, int32(ui.X+indent), int32(ui.Y), rl.LightGray)
	ui.Y += ui.LineHeight
}

func (ui *UIContext) Separator() {
	ui.Y += ui.LineHeight / 2
}

func (ui *UIContext) Header(text string) {
	ui.drawText(text, int32(ui.X), int32(ui.Y), rl.NewColor(255, 220, 120, 255))
	ui.Y += ui.LineHeight
}

func inRect(px, py, x, y, w, h int) bool {
	return px >= x && px <= x+w && py >= y && py <= y+h
}

// Checkbox draws a toggle and returns the new state.
func (ui *UIContext) Checkbox(label string, checked bool) bool {
	boxSize := int(float64(ui.FontHeight) * 0.8)
	boxX := ui.X + 5
	boxY := ui.Y + 2

	if ui.MouseClicked && inRect(ui.MouseX, ui.MouseY, boxX, boxY, ui.Width-10, boxSize) {
		checked = !checked
	}

	rl.DrawRectangleLines(int32(boxX), int32(boxY), int32(boxSize), int32(boxSize), rl.NewColor(150, 150, 150, 255))
	if checked {
		rl.DrawRectangle(int32(boxX+2), int32(boxY+2), int32(boxSize-4), int32(boxSize-4), rl.NewColor(100, 255, 100, 255))
	}
	ui.drawText(label, int32(boxX+boxSize+5), int32(ui.Y), rl.White)
	ui.Y += ui.LineHeight

	return checked
}

// sliderValue maps a mouse x position on a track onto [lo, hi].
func sliderValue(mouseX, trackX, trackWidth int, lo, hi float32) float32 {
	if trackWidth <= 0 {
		return lo
	}
	t := float32(mouseX-trackX) / float32(trackWidth)
	t = min(max(t, 0), 1)
	return lo + t*(hi-lo)
}

func (ui *UIContext) track(value, lo, hi float32, fill rl.Color) (x, y, w, h int) {
	x, w = ui.X+5, ui.Width/2
	h = ui.FontHeight / 2
	y = ui.Y + (ui.FontHeight-h)/2

	t := float32(0)
	if hi > lo {
		t = min(max((value-lo)/(hi-lo), 0), 1)
	}
	rl.DrawRectangle(int32(x), int32(y), int32(w), int32(h), rl.NewColor(60, 60, 60, 255))
	rl.DrawRectangle(int32(x), int32(y), int32(float32(w)*t), int32(h), fill)
	rl.DrawRectangleLines(int32(x), int32(y), int32(w), int32(h), rl.NewColor(150, 150, 150, 255))
	return x, y, w, h
}

// Slider draws a horizontal slider that follows the mouse while the button
// is held over it, and returns the new value.
func (ui *UIContext) Slider(label string, value, lo, hi float32, format string) float32 {
	x, y, w, h := ui.track(value, lo, hi, rl.NewColor(90, 140, 230, 255))
	if ui.MouseDown && inRect(ui.MouseX, ui.MouseY, x, y-h/2, w, h*2) {
		value = sliderValue(ui.MouseX, x, w, lo, hi)
	}
	ui.drawText(fmt.Sprintf(format, value)+"  "+label, int32(x+w+10), int32(ui.Y), rl.White)
	ui.Y += ui.LineHeight
	return value
}

// ReadOnly draws a greyed-out slider showing a value the user cannot change.
func (ui *UIContext) ReadOnly(label string, value, lo, hi float32, text string) {
	x, _, w, _ := ui.track(value, lo, hi, rl.NewColor(110, 110, 110, 255))
	ui.drawText(text+"  "+label, int32(x+w+10), int32(ui.Y), rl.Gray)
	ui.Y += ui.LineHeight
}
