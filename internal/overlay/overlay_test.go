package overlay

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"sync"
	"testing"

	"InkOverlay/internal/bridge"
	"InkOverlay/internal/export"
	"InkOverlay/internal/state"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivered struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (d *delivered) deliver(filename string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.files == nil {
		d.files = make(map[string][]byte)
	}
	d.files[filename] = append([]byte(nil), data...)
	return nil
}

func (d *delivered) get(filename string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.files[filename]
	return data, ok
}

func (d *delivered) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.files)
}

func newOverlay(t *testing.T, mutate func(*Config)) (*Overlay, *StaticHost, *delivered) {
	t.Helper()
	host := NewStaticHost(200, 100, 1)
	files := &delivered{}
	cfg := DefaultConfig()
	cfg.Deliver = files.deliver
	if mutate != nil {
		mutate(&cfg)
	}
	o, err := New(host, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { o.Close() })
	return o, host, files
}

func stroke(o *Overlay, points ...state.Point) {
	o.PointerDown(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		o.PointerMove(p.X, p.Y)
	}
	o.PointerUp()
}

func TestNewRequiresHost(t *testing.T) {
	o, err := New(nil, DefaultConfig())
	assert.Nil(t, o)
	assert.ErrorIs(t, err, ErrNoHost)
}

func TestNewValidatesConfig(t *testing.T) {
	host := NewStaticHost(10, 10, 1)
	tests := []struct {
		name string
		cfg  Config
		err  error
	}{
		{"negative width", Config{StrokeWidth: -1}, ErrStrokeWidth},
		{"nan width", Config{StrokeWidth: math.NaN()}, ErrStrokeWidth},
		{"negative tolerance", Config{SimplifyTolerance: -0.1}, ErrTolerance},
		{"nan tolerance", Config{SimplifyTolerance: math.NaN()}, ErrTolerance},
		{"bad colour", Config{StrokeColor: "#12"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(host, tt.cfg)
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	o, host, _ := newOverlay(t, nil)
	assert.False(t, o.Enabled())
	assert.True(t, o.Controls())
	assert.Equal(t, 3.0, o.Style().Width)
	assert.Equal(t, "#1a73e8", o.Style().Color)
	assert.Equal(t, 200, o.Image().Bounds().Dx())
	assert.Equal(t, int64(1), host.Invalidations())

	zero, err := New(host, Config{})
	require.NoError(t, err)
	defer zero.Close()
	assert.False(t, zero.Controls())
	assert.Equal(t, 3.0, zero.Style().Width)
}

func TestStrokeRoundTrip(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	o.Enable()
	stroke(o, state.Pt(0, 0), state.Pt(10, 0), state.Pt(20, 0))

	fc := o.GetGeometryDocument()
	require.Len(t, fc.Features, 1)
	assert.Equal(t, orb.LineString{{0, 0}, {10, 0}, {20, 0}}, fc.Features[0].Geometry)
	assert.Nil(t, o.InProgress())
}

func TestStrokeSimplified(t *testing.T) {
	tests := []struct {
		tolerance float64
		want      orb.LineString
	}{
		{5, orb.LineString{{0, 0}, {10, 0}}},
		{0.5, orb.LineString{{0, 0}, {5, 1}, {10, 0}}},
		{0, orb.LineString{{0, 0}, {5, 1}, {10, 0}}},
	}
	for _, tt := range tests {
		o, _, _ := newOverlay(t, func(c *Config) { c.SimplifyTolerance = tt.tolerance })
		o.Enable()
		stroke(o, state.Pt(0, 0), state.Pt(5, 1), state.Pt(10, 0))

		fc := o.GetGeometryDocument()
		require.Len(t, fc.Features, 1)
		assert.Equal(t, tt.want, fc.Features[0].Geometry, "tolerance %v", tt.tolerance)
	}
}

func TestTapIsNotStored(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	o.Enable()
	assert.True(t, o.PointerDown(5, 5))
	assert.True(t, o.PointerUp())
	assert.Empty(t, o.Paths())
}

func TestSubThresholdMovesDoNotGrowStroke(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	o.Enable()
	o.PointerDown(0, 0)
	o.PointerMove(1, 0)
	o.PointerMove(1, 1)
	o.PointerMove(0, 1)
	assert.Equal(t, []state.Point{{0, 0}}, o.InProgress())
}

func TestDisabledIgnoresPointer(t *testing.T) {
	o, _, _ := newOverlay(t, nil)

	assert.False(t, o.PointerDown(0, 0))
	assert.False(t, o.PointerMove(10, 0))
	assert.False(t, o.PointerMove(20, 0))
	assert.False(t, o.PointerUp())

	assert.Empty(t, o.Paths())
	assert.Nil(t, o.InProgress())
}

func TestDisableDropsStrokeInProgress(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	o.Enable()
	o.PointerDown(0, 0)
	o.PointerMove(10, 0)
	o.Disable()

	assert.Nil(t, o.InProgress())
	assert.False(t, o.PointerUp())
	assert.Empty(t, o.Paths())
}

func TestNonFinitePointsIgnored(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	o.Enable()
	assert.False(t, o.PointerDown(math.NaN(), 0))

	o.PointerDown(0, 0)
	o.PointerMove(math.Inf(1), 3)
	o.PointerMove(10, 0)
	o.PointerUp()

	paths := o.Paths()
	require.Len(t, paths, 1)
	assert.Equal(t, []state.Point{{0, 0}, {10, 0}}, paths[0].Points)
}

func TestUndoPrefersStrokeInProgress(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	o.Enable()
	stroke(o, state.Pt(0, 0), state.Pt(10, 0))
	before := o.Paths()

	o.PointerDown(50, 50)
	o.PointerMove(60, 60)
	require.Len(t, o.InProgress(), 2)

	assert.True(t, o.Undo())
	assert.Equal(t, before, o.Paths())
	assert.Nil(t, o.InProgress())
	assert.Empty(t, o.UndoLog())

	assert.True(t, o.Undo())
	assert.Empty(t, o.Paths())
	log := o.UndoLog()
	require.Len(t, log, 1)
	assert.Equal(t, state.UndoPath, log[0].Kind)
	assert.Equal(t, before, log[0].Paths)
}

func TestUndoWithSinglePointInProgressPopsStore(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	o.Enable()
	stroke(o, state.Pt(0, 0), state.Pt(10, 0))

	o.PointerDown(50, 50)
	assert.True(t, o.Undo())
	assert.Empty(t, o.Paths())
}

func TestClear(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	o.Enable()
	stroke(o, state.Pt(0, 0), state.Pt(10, 0))
	stroke(o, state.Pt(0, 20), state.Pt(10, 20))
	before := o.Paths()

	assert.True(t, o.CanClear())
	assert.True(t, o.Clear())
	assert.Empty(t, o.Paths())
	assert.False(t, o.CanClear())

	log := o.UndoLog()
	require.Len(t, log, 1)
	assert.Equal(t, state.UndoClear, log[0].Kind)
	assert.Equal(t, before, log[0].Paths)
}

func TestUndoAndClearOnEmptyStore(t *testing.T) {
	o, host, _ := newOverlay(t, nil)
	invalidations := host.Invalidations()

	assert.NotPanics(t, func() {
		assert.False(t, o.Undo())
		assert.False(t, o.Clear())
	})
	assert.Empty(t, o.Paths())
	assert.Empty(t, o.UndoLog())
	assert.False(t, o.CanUndo())
	assert.Equal(t, invalidations, host.Invalidations())
}

func TestMarkupHasOneMovePerStroke(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	o.Enable()
	stroke(o, state.Pt(0, 0), state.Pt(10, 0))
	stroke(o, state.Pt(0, 20), state.Pt(10, 20))

	svg := o.ExportMarkupDocument()
	assert.Equal(t, 2, strings.Count(svg, "M "))
	assert.Contains(t, svg, `d="M 0 0 L 10 0 M 0 20 L 10 20"`)
	assert.Contains(t, svg, `viewBox="0 0 200 100"`)
}

func TestRedrawPaintsStrokes(t *testing.T) {
	o, host, _ := newOverlay(t, nil)
	o.Enable()
	before := host.Invalidations()

	o.PointerDown(10, 50)
	o.PointerMove(100, 50)
	assert.NotZero(t, o.Image().RGBAAt(50, 50).A, "stroke in progress is drawn")
	o.PointerUp()

	assert.NotZero(t, o.Image().RGBAAt(50, 50).A)
	assert.Zero(t, o.Image().RGBAAt(50, 10).A)
	assert.Equal(t, before+2, host.Invalidations(), "move and up invalidate, down does not")
}

func TestResizeOnlyOnChange(t *testing.T) {
	o, host, _ := newOverlay(t, nil)
	assert.False(t, o.Resize())

	host.SetSize(300.5, 100, 2)
	assert.True(t, o.Resize())
	assert.Equal(t, 601, o.Image().Bounds().Dx())
	assert.Equal(t, 200, o.Image().Bounds().Dy())
	assert.False(t, o.Resize())

	w, h := o.SurfaceSize()
	assert.Equal(t, 300.5, w)
	assert.Equal(t, 100.0, h)
}

func TestExportGeometryDocument(t *testing.T) {
	o, _, files := newOverlay(t, nil)
	o.Enable()
	stroke(o, state.Pt(0, 0), state.Pt(10, 0))

	data, err := o.ExportGeometryDocument("")
	require.NoError(t, err)
	stored, ok := files.get(export.GeometryFilename)
	require.True(t, ok)
	assert.Equal(t, data, stored)

	_, err = o.ExportGeometryDocument("out/custom.geojson")
	require.NoError(t, err)
	_, ok = files.get("out/custom.geojson")
	assert.True(t, ok)
}

func TestExportRasterImage(t *testing.T) {
	o, host, files := newOverlay(t, nil)
	host.SetSize(40, 30, 1.5)
	o.Resize()
	o.Enable()
	stroke(o, state.Pt(5, 5), state.Pt(30, 20))

	data := <-o.ExportRasterImage("")
	require.NotNil(t, data)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 60, img.Bounds().Dx())
	assert.Equal(t, 45, img.Bounds().Dy())

	stored, ok := files.get(export.RasterFilename)
	require.True(t, ok)
	assert.Equal(t, data, stored)
}

func TestExportMarkupFileAndPDF(t *testing.T) {
	o, _, files := newOverlay(t, nil)
	o.Enable()
	stroke(o, state.Pt(0, 0), state.Pt(10, 0))

	svg, err := o.ExportMarkupFile("")
	require.NoError(t, err)
	stored, ok := files.get(export.MarkupFilename)
	require.True(t, ok)
	assert.Equal(t, svg, string(stored))

	pdf, err := o.ExportPDF("")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	_, ok = files.get(export.PDFFilename)
	assert.True(t, ok)
}

func TestSaveWithoutCallback(t *testing.T) {
	o, _, files := newOverlay(t, nil)
	o.Enable()
	stroke(o, state.Pt(0, 0), state.Pt(10, 0))

	p := <-o.Save()
	require.NotNil(t, p.Geometry)
	assert.Len(t, p.Geometry.Features, 1)
	assert.Contains(t, p.Markup, "M 0 0 L 10 0")
	assert.Nil(t, p.Raster)
	assert.Zero(t, files.count(), "save never writes files")
}

func TestSaveWithCallback(t *testing.T) {
	var got []Payload
	var mu sync.Mutex
	o, _, files := newOverlay(t, func(c *Config) {
		c.OnSave = func(p Payload) {
			mu.Lock()
			got = append(got, p)
			mu.Unlock()
		}
	})
	o.Enable()
	stroke(o, state.Pt(0, 0), state.Pt(10, 0))

	p := <-o.Save()
	require.NotNil(t, p.Raster)
	assert.True(t, bytes.HasPrefix(p.Raster, []byte("\x89PNG")))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1, "callback runs before the result resolves")
	assert.Equal(t, p.Markup, got[0].Markup)
	assert.Equal(t, p.Raster, got[0].Raster)
	assert.Zero(t, files.count())

	data, err := p.GeometryJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"LineString"`)
}

func TestSaveSurvivesPanickingCallback(t *testing.T) {
	o, _, _ := newOverlay(t, func(c *Config) {
		c.OnSave = func(Payload) { panic("boom") }
	})
	p := <-o.Save()
	assert.NotNil(t, p.Geometry)
}

func TestLoadRestoresThroughBridge(t *testing.T) {
	affine := bridge.Scaling(0.5, -0.5).Compose(bridge.Translation(29, 41))
	inv, err := affine.Inverse()
	require.NoError(t, err)

	o, _, _ := newOverlay(t, func(c *Config) {
		c.PixelToLogical = func(p state.Point) orb.Point {
			x, y := affine.Apply(p.X, p.Y)
			return orb.Point{x, y}
		}
		c.LogicalToPixel = func(l orb.Point) state.Point {
			x, y := inv.Apply(l[0], l[1])
			return state.Pt(x, y)
		}
	})
	o.Enable()
	stroke(o, state.Pt(0, 0), state.Pt(10, 4), state.Pt(20, 8))
	stroke(o, state.Pt(50, 50), state.Pt(60, 40))
	want := o.Paths()

	data, err := o.ExportGeometryDocument("")
	require.NoError(t, err)

	restored, _, _ := newOverlay(t, func(c *Config) {
		c.PixelToLogical = o.cfg.PixelToLogical
		c.LogicalToPixel = o.cfg.LogicalToPixel
	})
	n, err := restored.LoadDocument(data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := restored.Paths()
	require.Len(t, got, 2)
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		require.Len(t, got[i].Points, len(want[i].Points))
		for j := range want[i].Points {
			assert.InDelta(t, want[i].Points[j].X, got[i].Points[j].X, 1e-9)
			assert.InDelta(t, want[i].Points[j].Y, got[i].Points[j].Y, 1e-9)
		}
	}
	assert.Empty(t, restored.UndoLog(), "restore is not an edit")
}

func TestLoadDocumentInvalid(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	_, err := o.LoadDocument([]byte("{"))
	assert.Error(t, err)
}

func TestOnChange(t *testing.T) {
	o, _, _ := newOverlay(t, nil)
	calls := 0
	o.OnChange(func() { calls++ })

	o.Enable()
	assert.Equal(t, 1, calls)
	o.Enable()
	assert.Equal(t, 1, calls, "no change, no call")

	stroke(o, state.Pt(0, 0), state.Pt(10, 0))
	assert.Equal(t, 2, calls)
	o.Undo()
	assert.Equal(t, 3, calls)
	o.Disable()
	assert.Equal(t, 4, calls)
}

type panicHost struct {
	*StaticHost
	armed bool
}

func (h *panicHost) Invalidate() {
	if h.armed {
		panic("host failure")
	}
	h.StaticHost.Invalidate()
}

func TestPointerPanicDropsStroke(t *testing.T) {
	host := &panicHost{StaticHost: NewStaticHost(100, 100, 1)}
	o, err := New(host, DefaultConfig())
	require.NoError(t, err)
	defer o.Close()
	o.Enable()

	o.PointerDown(0, 0)
	host.armed = true
	assert.NotPanics(t, func() {
		assert.False(t, o.PointerMove(10, 10))
	})
	host.armed = false

	assert.Nil(t, o.InProgress())
	assert.False(t, o.PointerUp())
	assert.Empty(t, o.Paths())

	stroke(o, state.Pt(0, 0), state.Pt(10, 0))
	assert.Len(t, o.Paths(), 1, "overlay keeps working after a recovered panic")
}
