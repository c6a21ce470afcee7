package ui

import (
	"log"

	"InkOverlay/internal/bridge"
	"InkOverlay/internal/overlay"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

// AppOptions configures RunApp.
type AppOptions struct {
	Title    string
	Width    float32
	Height   float32
	Viewport bridge.Mercator
	Overlay  overlay.Config
	// Setup runs once the view exists and before the window shows.
	Setup func(*View)
}

// RunApp opens a window with the ink overlay over a grid surface and blocks
// until it closes. Unset bridge functions in opts.Overlay are taken from
// the grid's Mercator viewport.
func RunApp(opts AppOptions) error {
	myApp := app.NewWithID("io.inkoverlay")
	myWindow := myApp.NewWindow(opts.Title)
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1024, 768
	}
	myWindow.Resize(fyne.NewSize(opts.Width, opts.Height))

	grid := NewGridSurface(opts.Viewport)
	cfg := opts.Overlay
	if cfg.PixelToLogical == nil {
		cfg.PixelToLogical = grid.ToLogical
	}
	if cfg.LogicalToPixel == nil {
		cfg.LogicalToPixel = grid.ToPixel
	}

	view, err := NewView(grid, cfg)
	if err != nil {
		return err
	}
	if opts.Setup != nil {
		opts.Setup(view)
	}

	myWindow.SetContent(view)
	myWindow.SetOnClosed(func() {
		if err := view.Overlay().Close(); err != nil {
			log.Printf("[APP] Error closing overlay: %v", err)
		}
	})
	log.Printf("[APP] Window %q ready", opts.Title)
	myWindow.ShowAndRun()
	return nil
}
