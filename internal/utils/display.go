package utils

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

var (
	XConn *xgb.Conn
	XRoot xproto.Window
)

func InitX11() error {
	var err error
	XConn, err = xgb.NewConn()
	if err != nil {
		return err
	}

	setup := xproto.Setup(XConn)
	XRoot = setup.DefaultScreen(XConn).Root
	return nil
}

// DisplaySize reports the default X screen size in pixels. Used to size the
// window when the config leaves width/height at 0.
func DisplaySize() (int, int, error) {
	if XConn == nil {
		if err := InitX11(); err != nil {
			return 0, 0, err
		}
	}

	screen := xproto.Setup(XConn).DefaultScreen(XConn)
	return int(screen.WidthInPixels), int(screen.HeightInPixels), nil
}

// CloseX11 drops the probe connection; raylib opens its own.
func CloseX11() {
	if XConn != nil {
		XConn.Close()
		XConn = nil
	}
}

// FitWindow shrinks a display size to a window that leaves room for decorations,
// keeping the aspect ratio. Falls back to 1280x720 for a degenerate display.
func FitWindow(displayW, displayH int, fraction float64) (int, int) {
	if displayW <= 0 || displayH <= 0 {
		return 1280, 720
	}
	if fraction <= 0 || fraction > 1 {
		fraction = 0.75
	}
	return int(float64(displayW) * fraction), int(float64(displayH) * fraction)
}
