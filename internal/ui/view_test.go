package ui

import (
	"testing"

	"InkOverlay/internal/bridge"
	"InkOverlay/internal/overlay"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestView(t *testing.T, cfg overlay.Config) (*View, fyne.Window) {
	t.Helper()
	test.NewTempApp(t)

	grid := NewGridSurface(bridge.Mercator{Center: [2]float64{29, 41}, Zoom: 10})
	cfg.Deliver = func(string, []byte) error { return nil }
	v, err := NewView(grid, cfg)
	require.NoError(t, err)

	w := test.NewWindow(v)
	w.SetPadded(false)
	w.Resize(fyne.NewSize(400, 300))
	t.Cleanup(w.Close)
	return v, w
}

func press(pos fyne.Position) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: pos}, Button: desktop.MouseButtonPrimary}
}

func drag(pos fyne.Position, dx, dy float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: pos}, Dragged: fyne.Delta{DX: dx, DY: dy}}
}

func TestViewIsSizedByLayout(t *testing.T) {
	v, _ := newTestView(t, overlay.DefaultConfig())

	w, h := v.SurfaceSize()
	assert.Greater(t, w, 0.0)
	assert.Greater(t, h, 0.0)

	ow, oh := v.Overlay().SurfaceSize()
	assert.Equal(t, w, ow)
	assert.Equal(t, h, oh)
}

func TestCaptureLayerFollowsEnabled(t *testing.T) {
	v, _ := newTestView(t, overlay.DefaultConfig())

	assert.False(t, v.capture.Visible())
	assert.False(t, v.badge.Visible())

	v.Overlay().Enable()
	assert.True(t, v.capture.Visible())
	assert.True(t, v.badge.Visible())
	assert.Equal(t, "Edit: ON", v.toolbar.toggle.Text)

	v.Overlay().Disable()
	assert.False(t, v.capture.Visible())
	assert.Equal(t, "Edit: OFF", v.toolbar.toggle.Text)
}

func TestMouseStroke(t *testing.T) {
	v, _ := newTestView(t, overlay.DefaultConfig())
	test.Tap(v.toolbar.toggle)
	require.True(t, v.Overlay().Enabled())
	assert.True(t, v.toolbar.undo.Disabled())
	assert.True(t, v.toolbar.clear.Disabled())

	v.capture.MouseDown(press(fyne.NewPos(10, 10)))
	v.capture.Dragged(drag(fyne.NewPos(30, 10), 20, 0))
	v.capture.Dragged(drag(fyne.NewPos(50, 20), 20, 10))
	v.capture.MouseUp(press(fyne.NewPos(50, 20)))
	v.capture.DragEnd()

	paths := v.Overlay().Paths()
	require.Len(t, paths, 1)
	assert.Len(t, paths[0].Points, 3)
	assert.False(t, v.toolbar.undo.Disabled())
	assert.False(t, v.toolbar.clear.Disabled())

	test.Tap(v.toolbar.undo)
	assert.Empty(t, v.Overlay().Paths())
	assert.True(t, v.toolbar.undo.Disabled())
}

func TestDragWithoutMouseDown(t *testing.T) {
	v, _ := newTestView(t, overlay.DefaultConfig())
	v.Overlay().Enable()

	v.capture.Dragged(drag(fyne.NewPos(40, 40), 20, 0))
	v.capture.Dragged(drag(fyne.NewPos(60, 40), 20, 0))
	v.capture.DragEnd()

	paths := v.Overlay().Paths()
	require.Len(t, paths, 1)
	assert.Equal(t, 20.0, paths[0].Points[0].X)
	assert.Equal(t, 60.0, paths[0].Points[2].X)
}

func TestNoControls(t *testing.T) {
	cfg := overlay.DefaultConfig()
	cfg.ShowControls = false
	v, _ := newTestView(t, cfg)
	assert.Nil(t, v.toolbar)
}

func TestWhenLaidOut(t *testing.T) {
	v, _ := newTestView(t, overlay.DefaultConfig())
	called := false
	v.WhenLaidOut(func() { called = true })
	assert.True(t, called, "runs at once after layout")
}

func TestGridSurfaceBridge(t *testing.T) {
	test.NewTempApp(t)
	grid := NewGridSurface(bridge.Mercator{Center: [2]float64{29, 41}, Zoom: 10})
	grid.Resize(fyne.NewSize(200, 100))

	center := grid.ToLogical(grid.ToPixel([2]float64{29, 41}))
	assert.InDelta(t, 29, center[0], 1e-9)
	assert.InDelta(t, 41, center[1], 1e-9)

	p := grid.ToPixel([2]float64{29, 41})
	assert.InDelta(t, 100, p.X, 1e-6)
	assert.InDelta(t, 50, p.Y, 1e-6)
}
