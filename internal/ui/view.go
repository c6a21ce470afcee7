package ui

import (
	"image"
	"image/color"
	"sync"

	"InkOverlay/internal/overlay"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// View stacks the ink overlay over host content. It is the overlay's host:
// it reports its size and canvas scale and presents the overlay image.
type View struct {
	widget.BaseWidget

	content fyne.CanvasObject
	overlay *overlay.Overlay

	raster    *canvas.Raster
	capture   *captureLayer
	badge     fyne.CanvasObject
	toolbar   *Toolbar
	statusBar *widget.Label

	mu        sync.RWMutex
	size      fyne.Size
	onLaidOut []func()
}

var _ overlay.Host = (*View)(nil)
var _ fyne.Widget = (*View)(nil)

// NewView mounts a new overlay built from cfg on top of content.
func NewView(content fyne.CanvasObject, cfg overlay.Config) (*View, error) {
	v := &View{
		content:   content,
		statusBar: widget.NewLabel(""),
	}
	v.ExtendBaseWidget(v)

	ov, err := overlay.New(v, cfg)
	if err != nil {
		return nil, err
	}
	v.overlay = ov

	v.raster = canvas.NewRaster(func(w, h int) image.Image {
		return v.overlay.Image()
	})
	v.raster.ScaleMode = canvas.ImageScalePixels

	v.capture = newCaptureLayer(ov)
	v.badge = newBadge("Edit mode: ON")
	if ov.Controls() {
		v.toolbar = NewToolbar(v)
	}

	ov.OnChange(func() {
		fyne.Do(v.syncControls)
	})
	v.syncControls()
	return v, nil
}

// Overlay returns the overlay mounted on the view.
func (v *View) Overlay() *overlay.Overlay {
	return v.overlay
}

// SurfaceSize is the size of the last layout.
func (v *View) SurfaceSize() (float64, float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return float64(v.size.Width), float64(v.size.Height)
}

// DevicePixelRatio is the scale of the canvas showing the view.
func (v *View) DevicePixelRatio() float64 {
	app := fyne.CurrentApp()
	if app == nil {
		return 1
	}
	c := app.Driver().CanvasForObject(v)
	if c == nil || c.Scale() <= 0 {
		return 1
	}
	return float64(c.Scale())
}

// Invalidate schedules a repaint of the overlay image.
func (v *View) Invalidate() {
	if v.raster == nil {
		return
	}
	fyne.Do(v.raster.Refresh)
}

// SetStatus shows text in the status line.
func (v *View) SetStatus(text string) {
	fyne.Do(func() {
		v.statusBar.SetText(text)
	})
}

func (v *View) syncControls() {
	if v.overlay.Enabled() {
		v.capture.Show()
		v.badge.Show()
	} else {
		v.capture.Hide()
		v.badge.Hide()
	}
	if v.toolbar != nil {
		v.toolbar.sync()
	}
}

// WhenLaidOut runs fn after the first layout with a non-empty size, or now
// if that already happened. Restores that map through the host size belong
// here.
func (v *View) WhenLaidOut(fn func()) {
	v.mu.Lock()
	if v.size.IsZero() {
		v.onLaidOut = append(v.onLaidOut, fn)
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()
	fn()
}

func (v *View) setSize(size fyne.Size) []func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size = size
	if size.IsZero() {
		return nil
	}
	pending := v.onLaidOut
	v.onLaidOut = nil
	return pending
}

func (v *View) CreateRenderer() fyne.WidgetRenderer {
	r := &viewRenderer{view: v}
	r.objects = []fyne.CanvasObject{v.content, v.raster, v.capture, v.badge}
	if v.toolbar != nil {
		r.objects = append(r.objects, v.toolbar.Object())
	}
	r.objects = append(r.objects, v.statusBar)
	return r
}

type viewRenderer struct {
	view    *View
	objects []fyne.CanvasObject
}

func (r *viewRenderer) Layout(size fyne.Size) {
	v := r.view
	for _, o := range []fyne.CanvasObject{v.content, v.raster, v.capture} {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}

	pad := theme.Padding()
	if v.toolbar != nil {
		tb := v.toolbar.Object()
		tb.Move(fyne.NewPos(pad, pad))
		tb.Resize(tb.MinSize())
	}
	bs := v.badge.MinSize()
	v.badge.Move(fyne.NewPos(size.Width-bs.Width-pad, pad))
	v.badge.Resize(bs)

	ss := v.statusBar.MinSize()
	v.statusBar.Move(fyne.NewPos(pad, size.Height-ss.Height-pad))
	v.statusBar.Resize(fyne.NewSize(size.Width-2*pad, ss.Height))

	pending := v.setSize(size)
	v.overlay.Resize()
	for _, fn := range pending {
		fn()
	}
}

func (r *viewRenderer) MinSize() fyne.Size {
	size := r.view.content.MinSize()
	if r.view.toolbar != nil {
		size = size.Max(r.view.toolbar.Object().MinSize())
	}
	return size
}

func (r *viewRenderer) Refresh() {
	r.view.raster.Refresh()
	r.view.syncControls()
}

func (r *viewRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *viewRenderer) Destroy() {}

func newBadge(text string) fyne.CanvasObject {
	bg := canvas.NewRectangle(color.NRGBA{R: 0x1a, G: 0x73, B: 0xe8, A: 0xe6})
	bg.CornerRadius = 4
	label := canvas.NewText(text, color.White)
	label.TextStyle = fyne.TextStyle{Bold: true}
	return container.NewStack(bg, container.NewPadded(label))
}

// captureLayer receives pointer input while drawing is enabled. It is
// hidden otherwise so events reach the content underneath.
type captureLayer struct {
	widget.BaseWidget
	overlay *overlay.Overlay
}

var _ fyne.Draggable = (*captureLayer)(nil)
var _ desktop.Mouseable = (*captureLayer)(nil)

func newCaptureLayer(ov *overlay.Overlay) *captureLayer {
	c := &captureLayer{overlay: ov}
	c.ExtendBaseWidget(c)
	return c
}

func (c *captureLayer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(canvas.NewRectangle(color.Transparent))
}

func (c *captureLayer) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		c.overlay.PointerDown(float64(e.Position.X), float64(e.Position.Y))
	}
}

func (c *captureLayer) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		c.overlay.PointerUp()
	}
}

// Dragged extends the stroke. Touch drivers deliver no MouseDown, so a drag
// with no stroke in progress starts one where the drag began.
func (c *captureLayer) Dragged(e *fyne.DragEvent) {
	if c.overlay.InProgress() == nil {
		c.overlay.PointerDown(float64(e.Position.X-e.Dragged.DX), float64(e.Position.Y-e.Dragged.DY))
	}
	c.overlay.PointerMove(float64(e.Position.X), float64(e.Position.Y))
}

func (c *captureLayer) DragEnd() {
	c.overlay.PointerUp()
}
