package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/elvencache/ec-bokeh/internal/config"
	"github.com/elvencache/ec-bokeh/internal/device"
	"github.com/elvencache/ec-bokeh/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func main() {
	configPath := flag.String("config", "ec-bokeh.toml", "Path to the TOML settings file")
	debugFlag := flag.Bool("debug", false, "Enable debug logging and strict render-target checks")
	verbose := flag.Bool("verbose", false, "Show raylib info logs")
	assetsDir := flag.String("assets", "", "Asset directory for meshes and textures (overrides the config)")
	pkgPath := flag.String("pkg", "", "Wallpaper Engine .pkg archive to extract and search first")
	watch := flag.Bool("watch", false, "Reload the settings file when it changes")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}

	utils.CurrentLevel = utils.ParseLevel(cfg.LogLevel)
	utils.DebugMode = *debugFlag
	if *debugFlag {
		utils.CurrentLevel = utils.LevelDebug
	}
	utils.ShowRaylibInfo = *verbose

	if *assetsDir != "" {
		cfg.Assets.Root = *assetsDir
	}
	if *pkgPath != "" {
		cfg.Assets.Package = *pkgPath
	}

	utils.Info("--- ec-bokeh start ---")
	if err := run(cfg, *configPath, *watch); err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, configPath string, watch bool) error {
	if err := prepareAssets(cfg.Assets); err != nil {
		return err
	}

	// Decoding is CPU work and runs before the window exists.
	textures, err := decodeMaterial(cfg.Scene)
	if err != nil {
		return err
	}

	width, height := windowSize(cfg.Window)
	var flags uint32 = rl.FlagWindowResizable
	if cfg.Window.VSync {
		flags |= rl.FlagVsyncHint
	}
	rl.SetTraceLogCallback(utils.RaylibLogCallback)
	rl.SetConfigFlags(flags)
	rl.InitWindow(int32(width), int32(height), cfg.Window.Title)
	defer rl.CloseWindow()
	if cfg.Window.FPS > 0 {
		rl.SetTargetFPS(int32(cfg.Window.FPS))
	}
	utils.Info("Window: %dx%d", width, height)

	dev, err := device.New()
	if err != nil {
		return fmt.Errorf("device: %w", err)
	}
	defer dev.Close()

	scene, err := uploadScene(dev, cfg.Scene, textures)
	if err != nil {
		return err
	}

	var watcher *config.Watcher
	if watch {
		watcher, err = config.NewWatcher(configPath)
		if err != nil {
			utils.Warn("Config: not watching %s: %v", configPath, err)
		} else {
			defer watcher.Close()
		}
	}

	window, err := NewWindow(cfg, dev, scene, watcher)
	if err != nil {
		return err
	}
	defer window.Close()

	return window.Run()
}

// windowSize uses the configured size, or a fraction of the X display when
// either dimension is 0.
func windowSize(w config.WindowConfig) (int, int) {
	if w.Width > 0 && w.Height > 0 {
		return w.Width, w.Height
	}
	dw, dh, err := utils.DisplaySize()
	utils.CloseX11()
	if err != nil {
		utils.Warn("Window: cannot query X display: %v", err)
	}
	return utils.FitWindow(dw, dh, 0.75)
}
