// Package overlay is the freehand ink layer: it turns pointer strokes into
// stored paths, keeps the pixel surface in sync with them and exports them.
//
// The overlay is driven by its host. The host reports its size, forwards
// pointer events and presents Image when asked through Invalidate.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"InkOverlay/internal/bridge"
	"InkOverlay/internal/export"
	"InkOverlay/internal/render"
	"InkOverlay/internal/state"

	"github.com/paulmach/orb/geojson"
)

// Overlay owns the path store, the capture state and the pixel surface.
type Overlay struct {
	host   Host
	cfg    Config
	style  render.Style
	bridge bridge.Bridge
	log    *slog.Logger

	mu        sync.Mutex
	capture   *state.Capture
	store     *state.Store
	surface   *render.Surface
	listeners []func()
}

// New mounts an overlay on host. The overlay starts disabled with the
// surface sized to the host.
func New(host Host, cfg Config) (*Overlay, error) {
	if host == nil {
		return nil, ErrNoHost
	}
	cfg, style, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	o := &Overlay{
		host:    host,
		cfg:     cfg,
		style:   style,
		bridge:  bridge.New(cfg.PixelToLogical, cfg.LogicalToPixel),
		log:     cfg.Logger,
		capture: state.NewCapture(),
		store:   state.NewStore(),
		surface: render.NewSurface(style),
	}

	o.mu.Lock()
	_, err = o.resizeLocked()
	if err == nil {
		err = o.redrawLocked()
	}
	o.mu.Unlock()
	if err != nil {
		o.surface.Close()
		return nil, fmt.Errorf("overlay: initial draw: %w", err)
	}
	o.host.Invalidate()
	return o, nil
}

// Close releases the surface.
func (o *Overlay) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.surface.Close()
}

// Enable starts capturing pointer input.
func (o *Overlay) Enable() {
	o.mu.Lock()
	changed := !o.capture.Enabled()
	o.capture.SetEnabled(true)
	o.mu.Unlock()

	if changed {
		o.log.Debug("drawing enabled")
		o.notify()
	}
}

// Disable stops capturing. A stroke in progress is dropped.
func (o *Overlay) Disable() {
	o.mu.Lock()
	changed := o.capture.Enabled()
	dropped := o.capture.Len() > 0
	o.capture.SetEnabled(false)
	if dropped {
		o.redraw()
	}
	o.mu.Unlock()

	if dropped {
		o.host.Invalidate()
	}
	if changed {
		o.log.Debug("drawing disabled", "dropped_stroke", dropped)
		o.notify()
	}
}

// Enabled reports whether pointer input is captured.
func (o *Overlay) Enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.capture.Enabled()
}

// Controls reports whether the host should show the built-in toolbar.
func (o *Overlay) Controls() bool {
	return o.cfg.ShowControls
}

// Style returns the stroke style.
func (o *Overlay) Style() render.Style {
	return o.style
}

// Bridge returns the coordinate bridge built from the config.
func (o *Overlay) Bridge() bridge.Bridge {
	return o.bridge
}

// OnChange registers fn to run after every change to the stored paths,
// the in-progress stroke or the enabled flag.
func (o *Overlay) OnChange(fn func()) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	o.listeners = append(o.listeners, fn)
	o.mu.Unlock()
}

func (o *Overlay) notify() {
	o.mu.Lock()
	listeners := make([]func(), len(o.listeners))
	copy(listeners, o.listeners)
	o.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Clear removes every stored path and the stroke in progress. It reports
// false, and changes nothing, when the store is already empty.
func (o *Overlay) Clear() bool {
	o.mu.Lock()
	n := o.store.Clear()
	if n > 0 {
		o.capture.Discard()
		o.redraw()
	}
	o.mu.Unlock()

	if n == 0 {
		return false
	}
	o.log.Debug("cleared", "paths", n)
	o.host.Invalidate()
	o.notify()
	return true
}

// Undo drops the stroke in progress when it has at least two points.
// Otherwise it removes the most recently stored path. It reports whether
// anything changed.
func (o *Overlay) Undo() bool {
	o.mu.Lock()
	changed := false
	if o.capture.Len() >= 2 {
		o.capture.Discard()
		changed = true
		o.log.Debug("undo dropped stroke in progress")
	} else if p, ok := o.store.Pop(); ok {
		changed = true
		o.log.Debug("undo removed path", "id", p.ID)
	}
	if changed {
		o.redraw()
	}
	o.mu.Unlock()

	if changed {
		o.host.Invalidate()
		o.notify()
	}
	return changed
}

// CanUndo reports whether Undo would change anything.
func (o *Overlay) CanUndo() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.Len() > 0 || o.capture.Len() >= 2
}

// CanClear reports whether Clear would change anything.
func (o *Overlay) CanClear() bool {
	return o.store.Len() > 0
}

// Paths returns a copy of the stored paths in insertion order.
func (o *Overlay) Paths() []state.Path {
	return o.store.Paths()
}

// InProgress returns a copy of the stroke being drawn, or nil.
func (o *Overlay) InProgress() []state.Point {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.capture.InProgress()
}

// UndoLog returns a copy of the undo log, oldest first.
func (o *Overlay) UndoLog() []state.UndoEntry {
	return o.store.UndoLog()
}

// Load replaces the stored paths with the line features of fc, mapped to
// pixels through the bridge. It returns how many paths were restored.
func (o *Overlay) Load(fc *geojson.FeatureCollection) int {
	paths := export.PathsFromCollection(fc, o.bridge)

	o.mu.Lock()
	n := o.store.Replace(paths)
	o.redraw()
	o.mu.Unlock()

	o.log.Debug("loaded geometry document", "paths", n)
	o.host.Invalidate()
	o.notify()
	return n
}

// LoadDocument decodes a geometry document and loads it.
func (o *Overlay) LoadDocument(data []byte) (int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return 0, fmt.Errorf("overlay: decode geometry document: %w", err)
	}
	return o.Load(fc), nil
}

// Resize reads the host size and ratio and redraws when either changed.
func (o *Overlay) Resize() bool {
	o.mu.Lock()
	changed, err := o.resizeLocked()
	if changed {
		o.redraw()
	}
	o.mu.Unlock()

	if err != nil {
		o.log.Warn("resize failed", "error", err)
		return false
	}
	if changed {
		o.host.Invalidate()
	}
	return changed
}

func (o *Overlay) resizeLocked() (bool, error) {
	w, h := o.host.SurfaceSize()
	return o.surface.Resize(w, h, o.host.DevicePixelRatio())
}

// SurfaceSize returns the surface size in host pixels.
func (o *Overlay) SurfaceSize() (float64, float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.surface.Size()
}

// Image returns a copy of the surface pixels.
func (o *Overlay) Image() *image.RGBA {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.surface.Snapshot()
}

func (o *Overlay) redrawLocked() error {
	return o.surface.Redraw(o.store.Paths(), o.capture.InProgress())
}

func (o *Overlay) redraw() {
	if err := o.redrawLocked(); err != nil {
		o.log.Warn("redraw failed", "error", err)
	}
}

// GetGeometryDocument returns the stored paths as a FeatureCollection in
// logical coordinates.
func (o *Overlay) GetGeometryDocument() *geojson.FeatureCollection {
	return export.GeometryDocument(o.store.Paths(), o.bridge)
}

// ExportGeometryDocument encodes the geometry document and delivers it to
// filename, or drawing.geojson when empty.
func (o *Overlay) ExportGeometryDocument(filename string) ([]byte, error) {
	data, err := export.MarshalGeometry(o.store.Paths(), o.bridge)
	if err != nil {
		return nil, err
	}
	return data, o.deliver(orDefault(filename, export.GeometryFilename), data)
}

// ExportRasterImage snapshots the surface now and encodes it as PNG in the
// background. On success the PNG is delivered to filename, or drawing.png
// when empty. The channel yields nil when encoding failed.
func (o *Overlay) ExportRasterImage(filename string) <-chan []byte {
	filename = orDefault(filename, export.RasterFilename)
	encoded := export.EncodeRaster(o.Image())

	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		data := <-encoded
		if data == nil {
			o.log.Warn("raster export produced no image")
		} else if err := o.deliver(filename, data); err != nil {
			o.log.Warn("raster delivery failed", "file", filename, "error", err)
		}
		out <- data
	}()
	return out
}

// ExportMarkupDocument returns the SVG document for the stored paths,
// sized to the surface in host pixels.
func (o *Overlay) ExportMarkupDocument() string {
	w, h := o.SurfaceSize()
	return export.Markup(o.store.Paths(), w, h, o.style)
}

// ExportMarkupFile delivers the SVG document to filename, or drawing.svg
// when empty.
func (o *Overlay) ExportMarkupFile(filename string) (string, error) {
	svg := o.ExportMarkupDocument()
	return svg, o.deliver(orDefault(filename, export.MarkupFilename), []byte(svg))
}

// ExportPDF renders the stored paths to a one page PDF and delivers it to
// filename, or drawing.pdf when empty.
func (o *Overlay) ExportPDF(filename string) ([]byte, error) {
	w, h := o.SurfaceSize()
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, o.store.Paths(), w, h, o.style); err != nil {
		return nil, err
	}
	return buf.Bytes(), o.deliver(orDefault(filename, export.PDFFilename), buf.Bytes())
}

// Save bundles the geometry and markup documents. When OnSave is set the
// surface is also encoded, OnSave receives the payload and then the channel
// resolves; otherwise the channel resolves at once without a raster. Save
// never writes files.
func (o *Overlay) Save() <-chan Payload {
	paths := o.store.Paths()
	w, h := o.SurfaceSize()
	payload := Payload{
		Geometry: export.GeometryDocument(paths, o.bridge),
		Markup:   export.Markup(paths, w, h, o.style),
	}

	out := make(chan Payload, 1)
	if o.cfg.OnSave == nil {
		out <- payload
		close(out)
		return out
	}

	encoded := export.EncodeRaster(o.Image())
	go func() {
		defer close(out)
		payload.Raster = <-encoded
		if payload.Raster == nil {
			o.log.Warn("save proceeding without raster")
		}
		o.callOnSave(payload)
		out <- payload
	}()
	return out
}

func (o *Overlay) callOnSave(p Payload) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("save callback panicked", "panic", r)
		}
	}()
	o.cfg.OnSave(p)
}

func (o *Overlay) deliver(filename string, data []byte) error {
	if err := o.cfg.Deliver(filename, data); err != nil {
		return fmt.Errorf("overlay: deliver %s: %w", filename, err)
	}
	o.log.Debug("delivered", "file", filename, "bytes", len(data))
	return nil
}

func orDefault(filename, def string) string {
	if filename == "" {
		return def
	}
	return filename
}
