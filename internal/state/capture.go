package state

// MinMoveSq is the squared distance (px²) a pointer must travel from the last
// recorded point before another point is appended.
const MinMoveSq = 2.0

// CaptureState is the state of a Capture.
type CaptureState int

const (
	Idle CaptureState = iota
	Capturing
)

func (s CaptureState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	}
	return "unknown"
}

// Capture turns pointer down/move/up events into candidate strokes.
// It owns the single in-progress path. While disabled every event is ignored.
type Capture struct {
	state   CaptureState
	enabled bool
	current []Point
}

// NewCapture returns an idle, disabled capture.
func NewCapture() *Capture {
	return &Capture{}
}

// SetEnabled turns capture on or off. Turning it off drops any stroke in
// progress.
func (c *Capture) SetEnabled(enabled bool) {
	c.enabled = enabled
	if !enabled {
		c.Discard()
	}
}

// Enabled reports whether events are being captured.
func (c *Capture) Enabled() bool {
	return c.enabled
}

// State returns the current state.
func (c *Capture) State() CaptureState {
	return c.state
}

// Down starts a stroke at p. A second Down while capturing restarts the stroke.
func (c *Capture) Down(p Point) bool {
	if !c.enabled || !p.Finite() {
		return false
	}
	c.state = Capturing
	c.current = []Point{p}
	return true
}

// Move records p if it is far enough from the last recorded point. It reports
// whether the event was consumed, which is not the same as p being appended.
func (c *Capture) Move(p Point) bool {
	if !c.enabled || c.state != Capturing {
		return false
	}
	if !p.Finite() {
		return true
	}
	last := c.current[len(c.current)-1]
	if p.SqDist(last) > MinMoveSq {
		c.current = append(c.current, p)
	}
	return true
}

// Up ends the stroke. It returns the candidate points when the stroke has at
// least two of them. The in-progress path is cleared either way.
func (c *Capture) Up() ([]Point, bool) {
	if !c.enabled || c.state != Capturing {
		return nil, false
	}
	candidate := c.current
	c.state = Idle
	c.current = nil
	if len(candidate) < 2 {
		return nil, false
	}
	return candidate, true
}

// Discard drops the in-progress path and returns to Idle.
func (c *Capture) Discard() {
	c.state = Idle
	c.current = nil
}

// InProgress returns a copy of the in-progress path, or nil.
func (c *Capture) InProgress() []Point {
	return clonePoints(c.current)
}

// Len returns the number of points in the in-progress path.
func (c *Capture) Len() int {
	return len(c.current)
}
