// Package gesture classifies hand landmarks into finger states and interaction modes.
package gesture

import (
	"errors"
	"strings"

	"github.com/ayusman/chitra/internal/detector"
)

// Finger identifies one of the five fingers, in finger-vector order.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

// String returns the lowercase finger name.
func (f Finger) String() string {
	if f < 0 || f >= NumFingers {
		return "unknown"
	}
	return fingerNames[f]
}

// TipIDs maps each finger to its fingertip landmark.
var TipIDs = [NumFingers]int{
	detector.ThumbTip,
	detector.IndexTip,
	detector.MiddleTip,
	detector.RingTip,
	detector.PinkyTip,
}

// ErrIncompleteHand is returned when a landmark set is missing points.
var ErrIncompleteHand = errors.New("gesture: hand has fewer than 21 landmarks")

// FingerState is the per-frame classification of one hand.
type FingerState struct {
	RightHand bool
	Up        [NumFingers]bool
}

// IsUp reports whether the finger is extended.
func (s FingerState) IsUp(f Finger) bool {
	if f < 0 || f >= NumFingers {
		return false
	}
	return s.Up[f]
}

// Count returns the number of extended fingers.
func (s FingerState) Count() int {
	n := 0
	for _, up := range s.Up {
		if up {
			n++
		}
	}
	return n
}

// String renders the finger vector as five digits, thumb first (e.g. "01000").
func (s FingerState) String() string {
	var b strings.Builder
	for _, up := range s.Up {
		if up {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Classify determines handedness and which fingers are extended.
//
// Handedness assumes a front-facing camera whose image has been mirrored:
// a hand whose wrist lies to the right of the thumb base is the right hand.
// The thumb extends sideways, so it is judged on X against the joint below
// its tip, in a direction that depends on the hand. The other fingers are
// up when the tip is above (smaller Y than) the joint two below it.
func Classify(lm detector.LandmarkSet) (FingerState, error) {
	if !lm.Complete() {
		return FingerState{}, ErrIncompleteHand
	}

	var s FingerState
	s.RightHand = lm[detector.Wrist].X > lm[detector.ThumbCMC].X

	thumbTip := lm[TipIDs[Thumb]].X
	thumbJoint := lm[TipIDs[Thumb]-1].X
	if s.RightHand {
		s.Up[Thumb] = thumbTip < thumbJoint
	} else {
		s.Up[Thumb] = thumbTip > thumbJoint
	}

	for f := Index; f < NumFingers; f++ {
		tip := TipIDs[f]
		s.Up[f] = lm[tip].Y < lm[tip-2].Y
	}

	return s, nil
}
