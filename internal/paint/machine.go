package paint

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/chitra/internal/detector"
	"github.com/ayusman/chitra/internal/gesture"
)

// CursorPolicy decides when the stroke cursor is forgotten.
type CursorPolicy int

const (
	// ResetOnLeave forgets the cursor on every frame that is not drawing,
	// so a hand that vanishes mid-stroke starts a fresh stroke on return.
	ResetOnLeave CursorPolicy = iota
	// ResetOnSelect forgets the cursor only when selecting. A hand that
	// leaves drawing through idle resumes with a segment from the old cursor.
	ResetOnSelect
)

// ParseCursorPolicy converts a config value to a CursorPolicy.
func ParseCursorPolicy(s string) (CursorPolicy, error) {
	switch s {
	case "", "reset-on-leave":
		return ResetOnLeave, nil
	case "reset-on-select":
		return ResetOnSelect, nil
	default:
		return ResetOnLeave, fmt.Errorf("unknown cursor policy %q", s)
	}
}

// String returns the config spelling of the policy.
func (p CursorPolicy) String() string {
	if p == ResetOnSelect {
		return "reset-on-select"
	}
	return "reset-on-leave"
}

// Selection indicator geometry, in pixels.
const indicatorPad = 30

// Observation is what the state machine sees of one frame.
type Observation struct {
	Hand      bool
	Fingers   gesture.FingerState
	IndexTip  image.Point
	MiddleTip image.Point
}

// Observe classifies one hand's pixel landmarks into an observation.
func Observe(lm detector.LandmarkSet) (Observation, error) {
	fingers, err := gesture.Classify(lm)
	if err != nil {
		return Observation{}, err
	}
	return Observation{
		Hand:      true,
		Fingers:   fingers,
		IndexTip:  lm.Point(detector.IndexTip),
		MiddleTip: lm.Point(detector.MiddleTip),
	}, nil
}

// IndicatorShape is the kind of cosmetic mode marker.
type IndicatorShape int

const (
	NoIndicator IndicatorShape = iota
	RectIndicator
	CircleIndicator
)

// Indicator is the on-screen marker for the current mode. It carries no state.
type Indicator struct {
	Shape  IndicatorShape
	Rect   image.Rectangle
	Center image.Point
	Radius int
	Color  color.RGBA
}

// Step is the outcome of one frame.
type Step struct {
	Mode      gesture.Mode
	Segment   *Segment // committed line, nil if none
	Selected  *Band    // band chosen this frame, nil if none
	Brush     Brush    // brush after this frame
	Indicator Indicator
}

// Machine is the interaction state machine. It owns the brush and the stroke
// cursor; the mode itself is derived fresh from every observation.
type Machine struct {
	palette Palette
	policy  CursorPolicy
	brush   Brush
	cursor  Cursor
}

// NewMachine creates a state machine holding the palette's starting brush.
func NewMachine(palette Palette, policy CursorPolicy) *Machine {
	return &Machine{
		palette: palette,
		policy:  policy,
		brush:   palette.StartBrush(),
	}
}

// Brush returns the active brush.
func (m *Machine) Brush() Brush {
	return m.brush
}

// Cursor returns the stroke cursor.
func (m *Machine) Cursor() Cursor {
	return m.cursor
}

// Palette returns the selection bar layout.
func (m *Machine) Palette() Palette {
	return m.palette
}

// Policy returns the cursor policy.
func (m *Machine) Policy() CursorPolicy {
	return m.policy
}

// Step advances the machine by one frame.
func (m *Machine) Step(obs Observation) Step {
	mode := gesture.ModeIdle
	if obs.Hand {
		mode = gesture.ModeOf(obs.Fingers)
	}

	step := Step{Mode: mode}

	switch mode {
	case gesture.ModeSelecting:
		m.cursor.Reset()
		if band, ok := m.palette.Pick(obs.MiddleTip); ok {
			m.brush = band.Brush
			step.Selected = &band
		}
		step.Indicator = Indicator{
			Shape: RectIndicator,
			Rect: image.Rect(
				obs.IndexTip.X, obs.IndexTip.Y-indicatorPad,
				obs.MiddleTip.X, obs.MiddleTip.Y+indicatorPad,
			),
			Color: m.brush.Color,
		}

	case gesture.ModeDrawing:
		if from, ok := m.cursor.Position(); ok {
			step.Segment = &Segment{From: from, To: obs.IndexTip, Brush: m.brush}
		}
		m.cursor.Set(obs.IndexTip)
		step.Indicator = Indicator{
			Shape:  CircleIndicator,
			Center: obs.IndexTip,
			Radius: m.brush.Size,
			Color:  m.brush.Color,
		}

	default:
		if m.policy == ResetOnLeave {
			m.cursor.Reset()
		}
	}

	step.Brush = m.brush
	return step
}
