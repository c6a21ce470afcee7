package overlay

import (
	"InkOverlay/internal/simplify"
	"InkOverlay/internal/state"
)

// PointerDown starts a stroke at (x, y) in host pixels. It reports whether
// the event was consumed; nothing is consumed while disabled.
func (o *Overlay) PointerDown(x, y float64) bool {
	return o.pointer("down", func() (bool, bool) {
		return o.capture.Down(state.Pt(x, y)), false
	})
}

// PointerMove extends the stroke in progress.
func (o *Overlay) PointerMove(x, y float64) bool {
	return o.pointer("move", func() (bool, bool) {
		return o.capture.Move(state.Pt(x, y)), false
	})
}

// PointerUp ends the stroke. A stroke of at least two points is simplified
// and stored.
func (o *Overlay) PointerUp() bool {
	return o.pointer("up", func() (bool, bool) {
		wasCapturing := o.capture.Enabled() && o.capture.State() == state.Capturing
		points, ok := o.capture.Up()
		if !ok {
			return wasCapturing, false
		}
		kept := simplify.Path(points, o.cfg.SimplifyTolerance)
		p := state.NewPath(kept)
		if !o.store.Add(p) {
			return true, false
		}
		o.log.Debug("stroke stored", "id", p.ID, "captured", len(points), "kept", len(kept))
		return true, true
	})
}

// pointer runs step under the lock and redraws after consumed moves and
// ups. A panic in step is logged and the stroke in progress is dropped so
// it never reaches the host's event loop.
func (o *Overlay) pointer(event string, step func() (consumed, stored bool)) (consumed bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("pointer handler panicked", "event", event, "panic", r)
			o.mu.Lock()
			o.capture.Discard()
			o.mu.Unlock()
			consumed = false
		}
	}()

	var stored bool
	func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		consumed, stored = step()
		if consumed && event != "down" {
			o.redraw()
		}
	}()

	if consumed && event != "down" {
		o.host.Invalidate()
	}
	if stored || (consumed && event == "up") {
		o.notify()
	}
	return consumed
}
