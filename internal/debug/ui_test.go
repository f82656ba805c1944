package debug

import (
	"testing"

	"github.com/elvencache/ec-bokeh/internal/engine3D"

	"github.com/stretchr/testify/assert"
)

func TestSliderValue(t *testing.T) {
	assert.Equal(t, float32(10), sliderValue(0, 10, 200, 10, 50))
	assert.Equal(t, float32(30), sliderValue(110, 10, 200, 10, 50))
	assert.Equal(t, float32(50), sliderValue(210, 10, 200, 10, 50))

	// Dragging past either end pins the value.
	assert.Equal(t, float32(10), sliderValue(-100, 10, 200, 10, 50))
	assert.Equal(t, float32(50), sliderValue(1000, 10, 200, 10, 50))

	assert.Equal(t, float32(1), sliderValue(5, 0, 0, 1, 20), "degenerate track")
}

func TestInRect(t *testing.T) {
	assert.True(t, inRect(5, 5, 0, 0, 10, 10))
	assert.True(t, inRect(10, 10, 0, 0, 10, 10), "edges are inclusive")
	assert.False(t, inRect(11, 5, 0, 0, 10, 10))
	assert.False(t, inRect(5, -1, 0, 0, 10, 10))
}

func TestStepsText(t *testing.T) {
	def := engine3D.DefaultTunables()
	steps := engine3D.StepCount(def.RadiusScale, def.MaxBlurSize)
	assert.Positive(t, steps)
	assert.Equal(t, StepsText(steps), StepsText(engine3D.StepCount(def.RadiusScale, def.MaxBlurSize)))
	assert.NotEqual(t, "-", StepsText(steps))

	assert.Equal(t, "-", StepsText(engine3D.StepCount(0, 20)))
	assert.Equal(t, "-", StepsText(engine3D.StepCount(25, 20)))
	assert.Equal(t, "3", StepsText(3))
}

func TestPanelVisibility(t *testing.T) {
	p := &SettingsPanel{Visible: true, width: 100, height: 200, mouseX: 50, mouseY: 50}
	assert.True(t, p.Captures())

	p.Toggle()
	assert.False(t, p.Visible)
	assert.False(t, p.Captures(), "a hidden panel leaves the mouse to the camera")

	p.Toggle()
	p.mouseX = 150
	assert.False(t, p.Captures())
}
