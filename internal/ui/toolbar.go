package ui

import (
	"fmt"
	"image/color"
	"log"

	"InkOverlay/internal/export"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// colorSwatch shows the stroke colour next to the edit toggle.
type colorSwatch struct {
	widget.BaseWidget
	Color color.Color
}

func newColorSwatch(c color.Color) *colorSwatch {
	s := &colorSwatch{Color: c}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

// Toolbar is the built-in control surface. Every button is a plain caller
// of the overlay.
type Toolbar struct {
	view *View

	toggle    *widget.Button
	save      *widget.Button
	exportGeo *widget.Button
	exportPNG *widget.Button
	exportSVG *widget.Button
	exportPDF *widget.Button
	undo      *widget.Button
	clear     *widget.Button

	object fyne.CanvasObject
}

// NewToolbar builds the controls for v.
func NewToolbar(v *View) *Toolbar {
	t := &Toolbar{view: v}
	ov := v.overlay

	t.toggle = widget.NewButtonWithIcon("Edit: OFF", theme.DocumentCreateIcon(), func() {
		if ov.Enabled() {
			ov.Disable()
		} else {
			ov.Enable()
		}
	})
	t.toggle.Importance = widget.HighImportance

	t.save = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), t.onSave)
	t.exportGeo = widget.NewButton("Export .geojson", func() {
		data, err := ov.ExportGeometryDocument("")
		t.report(export.GeometryFilename, len(data), err)
	})
	t.exportPNG = widget.NewButton("Export .png", func() {
		result := ov.ExportRasterImage("")
		go func() {
			data := <-result
			if data == nil {
				t.report(export.RasterFilename, 0, fmt.Errorf("no image"))
				return
			}
			t.report(export.RasterFilename, len(data), nil)
		}()
	})
	t.exportSVG = widget.NewButton("Export .svg", func() {
		svg, err := ov.ExportMarkupFile("")
		t.report(export.MarkupFilename, len(svg), err)
	})
	t.exportPDF = widget.NewButton("Export .pdf", func() {
		data, err := ov.ExportPDF("")
		t.report(export.PDFFilename, len(data), err)
	})
	t.undo = widget.NewButtonWithIcon("Undo", theme.ContentUndoIcon(), func() { ov.Undo() })
	t.clear = widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), func() { ov.Clear() })

	bar := container.NewHBox(
		newColorSwatch(ov.Style().RGBA()),
		t.toggle,
		widget.NewSeparator(),
		t.save,
		t.exportGeo,
		t.exportPNG,
		t.exportSVG,
		t.exportPDF,
		widget.NewSeparator(),
		t.undo,
		t.clear,
	)
	bg := canvas.NewRectangle(theme.Color(theme.ColorNameBackground))
	bg.CornerRadius = 6
	t.object = container.NewStack(bg, container.NewPadded(bar))

	t.sync()
	return t
}

// Object is the canvas object to place in a layout.
func (t *Toolbar) Object() fyne.CanvasObject {
	return t.object
}

func (t *Toolbar) sync() {
	ov := t.view.overlay
	if ov.Enabled() {
		t.toggle.SetText("Edit: ON")
	} else {
		t.toggle.SetText("Edit: OFF")
	}
	setEnabled(t.undo, ov.CanUndo())
	setEnabled(t.clear, ov.CanClear())
}

func (t *Toolbar) onSave() {
	result := t.view.overlay.Save()
	go func() {
		p := <-result
		n := 0
		if p.Geometry != nil {
			n = len(p.Geometry.Features)
		}
		t.view.SetStatus(fmt.Sprintf("Saved %d drawings", n))
		log.Printf("[TOOLBAR] Save completed with %d features, raster %d bytes", n, len(p.Raster))
	}()
}

func (t *Toolbar) report(filename string, size int, err error) {
	if err != nil {
		log.Printf("[TOOLBAR] Export %s failed: %v", filename, err)
		t.view.SetStatus(fmt.Sprintf("Export %s failed", filename))
		return
	}
	log.Printf("[TOOLBAR] Exported %s (%d bytes)", filename, size)
	t.view.SetStatus("Exported " + filename)
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}
