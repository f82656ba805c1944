package engine3D

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAlbedo ImageHandle = 1000
	testNormal ImageHandle = 1001
)

func testScene() *Scene {
	return &Scene{
		Models:        GenerateModels([]string{"sphere", "cube", "bunny"}, 12, 0),
		MeshScales:    map[string]float32{"sphere": 0.15, "cube": 0.05, "bunny": 0.25},
		Ground:        "cube",
		Albedo:        testAlbedo,
		Normal:        testNormal,
		LightPosition: mgl32.Vec3{-10, 10, -10},
	}
}

func testCamera() Camera {
	return Camera{Position: mgl32.Vec3{0, 1.5, -4}, VerticalAngle: -0.3, FovY: 60, Near: 0.01, Far: 100}
}

func newTestRenderer(t *testing.T) (*Renderer, *fakeDevice) {
	t.Helper()
	dev := newFakeDevice()
	r, err := NewRenderer(dev, testScene())
	require.NoError(t, err)
	return r, dev
}

func frameInput(w, h int, tun Tunables) FrameInput {
	return FrameInput{Width: w, Height: h, Camera: testCamera(), Tunables: tun}
}

func TestNewRendererValidatesScene(t *testing.T) {
	scene := testScene()
	scene.Models = append(scene.Models, Model{Mesh: "teapot"})
	_, err := NewRenderer(newFakeDevice(), scene)
	assert.ErrorIs(t, err, ErrUnknownMesh)

	scene = testScene()
	scene.Ground = "plane"
	_, err = NewRenderer(newFakeDevice(), scene)
	assert.ErrorIs(t, err, ErrUnknownMesh)

	scene = testScene()
	scene.Normal = 0
	_, err = NewRenderer(newFakeDevice(), scene)
	assert.ErrorIs(t, err, ErrMissingImage)
}

func TestMultiPassFrameAt1080p(t *testing.T) {
	r, dev := newTestRenderer(t)
	r.SetOverlay(func() {})

	tun := DefaultTunables()
	tun.SinglePass = false
	stats, err := r.Frame(frameInput(1920, 1080, tun))
	require.NoError(t, err)

	assert.Equal(t, []PassStat{
		{Name: PassForward, Width: 1920, Height: 1080},
		{Name: PassLinearDepth, Width: 1920, Height: 1080},
		{Name: PassDoFDownsample, Width: 960, Height: 540},
		{Name: PassDoFQuarter, Width: 960, Height: 540},
		{Name: PassDoFCombine, Width: 1920, Height: 1080},
		{Name: PassOverlay, Width: 1920, Height: 1080},
	}, stats.Passes)
	assert.Len(t, dev.submitted, 6)
	assert.Equal(t, uint32(1), stats.Frame)

	scene, _ := r.Pool().Lookup(TargetScene)
	linear, _ := r.Pool().Lookup(TargetLinearDepth)
	quarterIn, _ := r.Pool().Lookup(TargetDoFQuarterInput)
	quarterOut, _ := r.Pool().Lookup(TargetDoFQuarterOutput)

	down, quarter, combine := dev.submitted[2], dev.submitted[3], dev.submitted[4]
	assert.Equal(t, quarterIn.Sink, down.Target)
	assert.Equal(t, scene.Color(), down.Texture("s_color"))
	assert.Equal(t, linear.Color(), down.Texture("s_depth"))
	assert.Equal(t, quarterOut.Sink, quarter.Target)
	assert.Equal(t, quarterIn.Color(), quarter.Texture("s_color"))
	assert.Equal(t, Backbuffer, combine.Target)
	assert.Equal(t, scene.Color(), combine.Texture("s_color"), "combine reads the full resolution scene")
	assert.Equal(t, quarterOut.Color(), combine.Texture("s_blurredColor"))

	// Blur radii are halved for the quarter resolution blur.
	assert.Equal(t, float32(10), r.Params().Blur.MaxBlurSize)
	for _, p := range dev.submitted[2:5] {
		assert.Equal(t, DepthTestAlways, p.DepthTest)
		assert.Equal(t, WriteRGB|WriteAlpha, p.Write)
		assert.Equal(t, float32(10), p.Uniforms[16])
	}

	overlay := dev.submitted[5]
	corner := ndc(overlay.Proj, mgl32.Vec3{1920, 1080, 0})
	assert.InDelta(t, 1, corner[0], 1e-6)
	assert.InDelta(t, -1, corner[1], 1e-6, "overlay pixels grow downwards")
}

func TestSinglePassFrame(t *testing.T) {
	r, dev := newTestRenderer(t)

	stats, err := r.Frame(frameInput(960, 540, DefaultTunables()))
	require.NoError(t, err)
	assert.Equal(t, []string{PassForward, PassLinearDepth, PassDoFSingle}, dev.passNames())
	for _, s := range stats.Passes {
		assert.Equal(t, 960, s.Width)
		assert.Equal(t, 540, s.Height)
	}

	single := dev.submitted[2]
	assert.Equal(t, Backbuffer, single.Target)
	assert.Equal(t, ProgramDoFSinglePass, single.Program)
	assert.Equal(t, float32(20), single.Uniforms[16])
	assert.Len(t, single.Triangle, 3)
}

func TestForwardAndLinearDepthPasses(t *testing.T) {
	r, dev := newTestRenderer(t)
	_, err := r.Frame(frameInput(320, 200, DefaultTunables()))
	require.NoError(t, err)

	scene, _ := r.Pool().Lookup(TargetScene)
	linear, _ := r.Pool().Lookup(TargetLinearDepth)

	fwd := dev.submitted[0]
	assert.Equal(t, scene.Sink, fwd.Target)
	assert.True(t, fwd.Clear.Color)
	assert.True(t, fwd.Clear.Depth)
	assert.Equal(t, float32(1), fwd.Clear.DepthValue)
	assert.Equal(t, DepthTestLess, fwd.DepthTest)
	assert.Equal(t, WriteRGB|WriteAlpha|WriteDepth, fwd.Write)
	assert.Equal(t, testAlbedo, fwd.Texture("s_albedo"))
	assert.Equal(t, testNormal, fwd.Texture("s_normal"))
	require.Len(t, fwd.Draws, 13)
	ground := fwd.Draws[12]
	assert.Equal(t, "cube", ground.Mesh)
	assert.Equal(t, GroundTransform(), ground.Transform)
	cam := testCamera()
	assert.Equal(t, cam.View(), fwd.View)

	lin := dev.submitted[1]
	assert.Equal(t, linear.Sink, lin.Target)
	assert.Equal(t, scene.Depth(), lin.Texture("s_depth"))
	assert.Equal(t, DepthTestAlways, lin.DepthTest)
	assert.Equal(t, WriteRGB|WriteAlpha, lin.Write)
	assert.Len(t, lin.Uniforms, UniformVec4Count*4)
}

func TestDisabledDoFDisplaysScene(t *testing.T) {
	r, dev := newTestRenderer(t)
	tun := DefaultTunables()
	tun.DoFEnabled = false

	_, err := r.Frame(frameInput(640, 480, tun))
	require.NoError(t, err)
	assert.Equal(t, []string{PassForward, PassLinearDepth, PassDisplay}, dev.passNames())

	display := dev.submitted[2]
	scene, _ := r.Pool().Lookup(TargetScene)
	assert.Equal(t, Backbuffer, display.Target)
	assert.False(t, display.Clear.Color)
	assert.Equal(t, scene.Color(), display.Texture("s_color"))
	assert.Equal(t, ProgramCopy, display.Program)
}

func TestMinimizedViewportSkipsFrame(t *testing.T) {
	r, dev := newTestRenderer(t)
	stats, err := r.Frame(frameInput(0, 0, DefaultTunables()))
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
	assert.Empty(t, stats.Passes)
	assert.Empty(t, dev.submitted)
	assert.Empty(t, dev.events, "nothing allocated for an empty viewport")
	assert.Zero(t, dev.frames)
}

func TestResizeRoundTrip(t *testing.T) {
	r, dev := newTestRenderer(t)
	tun := DefaultTunables()

	_, err := r.Frame(frameInput(800, 600, tun))
	require.NoError(t, err)
	before := r.Pool().Describe()

	_, err = r.Frame(frameInput(1024, 768, tun))
	require.NoError(t, err)
	resized := r.Pool().Describe()
	assert.NotEqual(t, before, resized)
	for _, d := range resized {
		if strings.HasPrefix(d.Name, "dofQuarter") {
			assert.Equal(t, 512, d.Width)
		} else {
			assert.Equal(t, 1024, d.Width)
		}
	}

	_, err = r.Frame(frameInput(800, 600, tun))
	require.NoError(t, err)
	assert.Equal(t, before, r.Pool().Describe())
	assert.Len(t, dev.images, 5, "scene color+depth, linear depth, two quarter targets")
}

func TestSameSizeDoesNotReallocate(t *testing.T) {
	r, dev := newTestRenderer(t)
	tun := DefaultTunables()
	_, err := r.Frame(frameInput(800, 600, tun))
	require.NoError(t, err)

	dev.reset()
	tun.SinglePass = false
	_, err = r.Frame(frameInput(800, 600, tun))
	require.NoError(t, err)
	assert.Empty(t, dev.events, "topology switches reuse the pool")
}

func TestMarkDirtyReallocatesNextFrame(t *testing.T) {
	r, dev := newTestRenderer(t)
	tun := DefaultTunables()
	_, err := r.Frame(frameInput(800, 600, tun))
	require.NoError(t, err)

	r.MarkDirty()
	dev.reset()
	_, err = r.Frame(frameInput(800, 600, tun))
	require.NoError(t, err)
	assert.Contains(t, dev.events, "destroy sink 1")
	assert.Len(t, dev.images, 5)

	dev.reset()
	_, err = r.Frame(frameInput(800, 600, tun))
	require.NoError(t, err)
	assert.Empty(t, dev.events, "dirty flag cleared after reallocation")
}

func TestFrameCounterFeedsFrameIndex(t *testing.T) {
	r, _ := newTestRenderer(t)
	tun := DefaultTunables()

	for i := 0; i < 10; i++ {
		stats, err := r.Frame(frameInput(64, 64, tun))
		require.NoError(t, err)
		assert.Equal(t, uint32(i+1), stats.Frame)
		assert.Equal(t, uint32(i%8), r.Params().FrameIndex)
	}
	assert.Equal(t, uint32(10), r.FrameCount())

	stats, err := r.Frame(frameInput(0, 64, tun))
	require.NoError(t, err)
	assert.Equal(t, uint32(10), stats.Frame, "skipped frames do not advance the counter")
}

func TestTinyViewportKeepsQuarterTargetsValid(t *testing.T) {
	r, _ := newTestRenderer(t)
	tun := DefaultTunables()
	tun.SinglePass = false

	stats, err := r.Frame(frameInput(1, 1, tun))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Passes[2].Width)
	assert.Equal(t, 1, stats.Passes[2].Height)
}

func TestSubmitErrorIsWrapped(t *testing.T) {
	r, dev := newTestRenderer(t)
	dev.failSubmit = PassLinearDepth

	_, err := r.Frame(frameInput(64, 64, DefaultTunables()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), PassLinearDepth)
	assert.Zero(t, dev.frames, "a failed frame is not ended")
}

func TestCloseReleasesEverything(t *testing.T) {
	r, dev := newTestRenderer(t)
	_, err := r.Frame(frameInput(64, 64, DefaultTunables()))
	require.NoError(t, err)

	r.Close()
	assert.Empty(t, dev.images)
	assert.Empty(t, dev.sinks)
	assert.Zero(t, r.Pool().Len())

	// Rendering again after Close reallocates.
	_, err = r.Frame(frameInput(64, 64, DefaultTunables()))
	require.NoError(t, err)
	assert.Len(t, dev.images, 5)
}
