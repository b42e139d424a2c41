package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	next     int
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence makes Detect return one entry per call, in order.
// Once the sequence is exhausted Detect reports no hands.
func (m *MockDetector) SetSequence(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = frames
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.sequence != nil {
		if m.next >= len(m.sequence) {
			return nil, nil
		}
		hands := m.sequence[m.next]
		m.next++
		return hands, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Finger lengths of the synthetic hands, in normalized units.
const (
	extendedReach = 0.24
	fingerSpacing = 0.04
)

// HandPose builds a synthetic right hand as seen by a mirrored front camera.
// indexMCP anchors the knuckle of the index finger; up lists which fingers
// (thumb, index, middle, ring, pinky) are extended.
func HandPose(indexMCP Point3D, up [5]bool) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}
	bx, by := indexMCP.X, indexMCP.Y

	// The wrist sits to the right of the thumb base for a mirrored right hand.
	h.Points[Wrist] = Point3D{X: bx + 0.05, Y: by + 0.20}
	h.Points[ThumbCMC] = Point3D{X: bx - 0.02, Y: by + 0.15}
	h.Points[ThumbMCP] = Point3D{X: bx - 0.06, Y: by + 0.10}
	h.Points[ThumbIP] = Point3D{X: bx - 0.09, Y: by + 0.06}
	if up[0] {
		h.Points[ThumbTip] = Point3D{X: bx - 0.13, Y: by + 0.03}
	} else {
		h.Points[ThumbTip] = Point3D{X: bx - 0.05, Y: by + 0.07}
	}

	mcps := [4]int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP}
	for i, mcp := range mcps {
		base := Point3D{X: bx + float64(i)*fingerSpacing, Y: by - 0.01*float64(i%2)}
		h.Points[mcp] = base
		if up[i+1] {
			h.Points[mcp+1] = Point3D{X: base.X, Y: base.Y - 0.09}
			h.Points[mcp+2] = Point3D{X: base.X, Y: base.Y - 0.17}
			h.Points[mcp+3] = Point3D{X: base.X, Y: base.Y - extendedReach}
		} else {
			h.Points[mcp+1] = Point3D{X: base.X, Y: base.Y - 0.06, Z: -0.04}
			h.Points[mcp+2] = Point3D{X: base.X, Y: base.Y - 0.03, Z: -0.05}
			h.Points[mcp+3] = Point3D{X: base.X, Y: base.Y - 0.01, Z: -0.03}
		}
	}

	return h
}

// PointingLandmarks returns a hand with only the index finger extended,
// its tip at (x, y).
func PointingLandmarks(x, y float64) HandLandmarks {
	return HandPose(Point3D{X: x, Y: y + extendedReach}, [5]bool{false, true, false, false, false})
}

// PeaceLandmarks returns a hand with index and middle fingers extended,
// the index tip at (x, y). The middle tip sits one finger spacing to the right.
func PeaceLandmarks(x, y float64) HandLandmarks {
	return HandPose(Point3D{X: x, Y: y + extendedReach}, [5]bool{false, true, true, false, false})
}

// FistLandmarks returns a closed hand.
func FistLandmarks() HandLandmarks {
	return HandPose(Point3D{X: 0.5, Y: 0.6}, [5]bool{})
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return HandPose(Point3D{X: 0.5, Y: 0.6}, [5]bool{true, true, true, true, true})
}

// Mirrored returns the hand reflected about the vertical centre line,
// turning a right hand into a left hand and vice versa.
func (h HandLandmarks) Mirrored() HandLandmarks {
	m := h
	for i := range m.Points {
		m.Points[i].X = 1 - m.Points[i].X
	}
	switch h.Handedness {
	case "Right":
		m.Handedness = "Left"
	case "Left":
		m.Handedness = "Right"
	}
	return m
}
