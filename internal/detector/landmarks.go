// Package detector provides hand detection interfaces and landmark types.
package detector

import "image"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a landmark in normalized image coordinates.
// X and Y are in [0,1] relative to the frame width and height.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // as reported by the model, informational only
	Score      float64               `json:"score"`
}

// Landmark is a single landmark in pixel coordinates.
type Landmark struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// LandmarkSet is one hand's landmarks in pixel coordinates, indexed by landmark ID.
type LandmarkSet []Landmark

// ToPixels scales the normalized landmarks to a frame of the given size.
// Coordinates are truncated toward zero.
func (h *HandLandmarks) ToPixels(width, height int) LandmarkSet {
	if h == nil {
		return nil
	}

	set := make(LandmarkSet, NumLandmarks)
	for i, p := range h.Points {
		set[i] = Landmark{
			ID: i,
			X:  int(p.X * float64(width)),
			Y:  int(p.Y * float64(height)),
		}
	}
	return set
}

// Point returns the position of the landmark with the given ID.
// It returns the zero point if the set does not contain that ID.
func (s LandmarkSet) Point(id int) image.Point {
	if id < 0 || id >= len(s) {
		return image.Point{}
	}
	return image.Pt(s[id].X, s[id].Y)
}

// Complete reports whether the set holds a full hand skeleton.
func (s LandmarkSet) Complete() bool {
	return len(s) >= NumLandmarks
}
