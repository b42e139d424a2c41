package gesture

// Mode is the interaction mode derived from a frame's finger state.
type Mode int

const (
	// ModeIdle covers every finger combination without a meaning, and frames without a hand.
	ModeIdle Mode = iota
	// ModeSelecting is index and middle fingers up.
	ModeSelecting
	// ModeDrawing is index up with middle down.
	ModeDrawing
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSelecting:
		return "selecting"
	case ModeDrawing:
		return "drawing"
	default:
		return "idle"
	}
}

// Label is the short on-screen caption for the mode, empty for idle.
func (m Mode) Label() string {
	switch m {
	case ModeSelecting:
		return "Select"
	case ModeDrawing:
		return "Draw"
	default:
		return ""
	}
}

// ModeOf derives the mode for a finger state. Selecting takes priority.
func ModeOf(s FingerState) Mode {
	switch {
	case s.Up[Index] && s.Up[Middle]:
		return ModeSelecting
	case s.Up[Index]:
		return ModeDrawing
	default:
		return ModeIdle
	}
}

// MarshalText implements encoding.TextMarshaler so modes encode as names.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode as idle.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "selecting":
		*m = ModeSelecting
	case "drawing":
		*m = ModeDrawing
	default:
		*m = ModeIdle
	}
	return nil
}
