// Package testdata builds scripted hand trajectories for driving a painting
// session without a camera or a landmark service.
package testdata

import (
	"image"

	"github.com/ayusman/chitra/internal/detector"
	"github.com/ayusman/chitra/internal/gesture"
	"github.com/ayusman/chitra/internal/paint"
)

// Frame size of the default capture.
const (
	Width  = 1280
	Height = 720
)

// Script is a sequence of per-frame detector results, ready for
// detector.MockDetector.SetSequence.
type Script [][]detector.HandLandmarks

// norm converts a pixel coordinate to a normalized one that truncates back
// to the same pixel.
func norm(px, size int) float64 {
	return (float64(px) + 0.5) / float64(size)
}

// Pointing returns one frame of a drawing hand with the index tip at p.
func Pointing(p image.Point) []detector.HandLandmarks {
	return []detector.HandLandmarks{detector.PointingLandmarks(norm(p.X, Width), norm(p.Y, Height))}
}

// Peace returns one frame of a selecting hand with the middle tip at p.
func Peace(p image.Point) []detector.HandLandmarks {
	h := detector.PeaceLandmarks(0, 0)
	dx := norm(p.X, Width) - h.Points[detector.MiddleTip].X
	dy := norm(p.Y, Height) - h.Points[detector.MiddleTip].Y
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return []detector.HandLandmarks{h}
}

// Fist returns one frame of an idle hand.
func Fist() []detector.HandLandmarks {
	return []detector.HandLandmarks{detector.FistLandmarks()}
}

// NoHand returns one frame without a hand.
func NoHand() []detector.HandLandmarks {
	return nil
}

// Stroke draws from one point to another in steps frames. It commits
// steps-1 segments.
func Stroke(from, to image.Point, steps int) Script {
	if steps < 2 {
		steps = 2
	}
	s := make(Script, 0, steps)
	for i := 0; i < steps; i++ {
		p := image.Pt(
			from.X+(to.X-from.X)*i/(steps-1),
			from.Y+(to.Y-from.Y)*i/(steps-1),
		)
		s = append(s, Pointing(p))
	}
	return s
}

// Select holds a selecting hand over the named band for one frame.
// It panics if the band does not exist in the default palette.
func Select(band string) Script {
	for _, b := range paint.DefaultPalette(0, 0).Bands {
		if b.Name == band {
			return Script{Peace(image.Pt((b.MinX+b.MaxX)/2, 40))}
		}
	}
	panic("testdata: unknown band " + band)
}

// Then concatenates scripts.
func (s Script) Then(next ...Script) Script {
	out := append(Script{}, s...)
	for _, n := range next {
		out = append(out, n...)
	}
	return out
}

// Lift adds frames without a drawing hand, ending the current stroke.
func (s Script) Lift(frames int) Script {
	out := append(Script{}, s...)
	for i := 0; i < frames; i++ {
		out = append(out, Fist())
	}
	return out
}

// Segments counts the segments a script commits under the reset-on-leave
// cursor policy.
func (s Script) Segments() int {
	n, drawing := 0, false
	for _, frame := range s {
		pointing := len(frame) > 0 && modeOf(frame[0]) == gesture.ModeDrawing
		if pointing && drawing {
			n++
		}
		drawing = pointing
	}
	return n
}

func modeOf(h detector.HandLandmarks) gesture.Mode {
	fingers, err := gesture.Classify(h.ToPixels(Width, Height))
	if err != nil {
		return gesture.ModeIdle
	}
	return gesture.ModeOf(fingers)
}

// Doodle draws a red horizontal line, switches to blue for a vertical line,
// then erases the middle of the red line.
func Doodle() Script {
	return Stroke(image.Pt(300, 400), image.Pt(700, 400), 5).
		Lift(1).
		Then(Select("blue")).
		Lift(1).
		Then(Stroke(image.Pt(900, 200), image.Pt(900, 600), 5)).
		Lift(1).
		Then(Select("eraser")).
		Lift(1).
		Then(Stroke(image.Pt(450, 400), image.Pt(550, 400), 3)).
		Lift(1)
}
