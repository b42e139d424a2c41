// Package canvas holds the persistent stroke layer and merges it, together
// with the heads-up display, over each live camera frame.
//
// Strokes are opaque: a stroke pixel whose grey level exceeds MaskThreshold
// replaces the live pixel exactly, while black (background) stroke pixels
// let the live frame show through. Painting with the background colour
// therefore erases.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/chitra/internal/paint"
	"gocv.io/x/gocv"
)

// MaskThreshold is the grey level above which a stroke pixel is opaque.
const MaskThreshold = 10

// ErrSizeMismatch is returned when a frame does not match the stroke layer.
var ErrSizeMismatch = errors.New("frame size does not match canvas")

// Compositor owns the persistent stroke layer.
type Compositor interface {
	// DrawLine commits a segment to the stroke layer.
	DrawLine(from, to image.Point, c color.RGBA, width int)
	// Compose draws hud on frame and merges the stroke layer over it in place.
	Compose(frame *gocv.Mat, hud HUD) error
	// Size returns the stroke layer dimensions.
	Size() image.Point
	Close() error
}

// Backend selects a Compositor implementation.
type Backend string

const (
	BackendOpenCV Backend = "opencv"
	BackendRaster Backend = "raster"
)

// ParseBackend converts a config value to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendOpenCV:
		return BackendOpenCV, nil
	case BackendRaster:
		return BackendRaster, nil
	default:
		return "", fmt.Errorf("unknown canvas backend %q", s)
	}
}

// New creates an empty stroke layer of the given size.
func New(backend Backend, width, height int) (Compositor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	switch backend {
	case "", BackendOpenCV:
		return NewMatCanvas(width, height), nil
	case BackendRaster:
		return NewRasterCanvas(width, height), nil
	default:
		return nil, fmt.Errorf("unknown canvas backend %q", backend)
	}
}

// Swatch is a filled palette rectangle shown in the selection bar.
type Swatch struct {
	Rect  image.Rectangle
	Color color.RGBA
}

// SwatchesFor returns the on-screen swatches of a palette.
func SwatchesFor(p paint.Palette) []Swatch {
	out := make([]Swatch, len(p.Bands))
	for i, b := range p.Bands {
		out[i] = Swatch{Rect: b.Swatch, Color: b.Brush.Color}
	}
	return out
}

// HUD is the per-frame overlay drawn on the live frame, beneath the strokes.
type HUD struct {
	Swatches  []Swatch
	Indicator paint.Indicator
	Label     string // mode name, bottom right; empty for none
	FPS       float64
	ShowFPS   bool
}

// LabelColor is used for the mode label and the FPS counter.
var LabelColor = color.RGBA{R: 255, A: 255}

// Text placement. Mode labels sit at fixed offsets from the bottom-right
// corner, (1160,690) and (1180,690) on a 1280x720 frame. Other labels are
// right aligned with labelMargin. FPS sits at a fixed origin.
var (
	labelOffsets = map[string]image.Point{
		"Select": image.Pt(120, 30),
		"Draw":   image.Pt(100, 30),
	}
	labelMargin = image.Pt(30, 30)
	fpsOrigin   = image.Pt(10, 35)
)

func fpsText(fps float64) string {
	return fmt.Sprintf("FPS: %d", int(fps))
}

// labelOrigin returns the baseline origin for label, textWidth pixels wide,
// on a frame of the given size.
func labelOrigin(label string, textWidth int, size image.Point) image.Point {
	if off, ok := labelOffsets[label]; ok {
		return size.Sub(off)
	}
	return image.Pt(size.X-labelMargin.X-textWidth, size.Y-labelMargin.Y)
}

// grey converts an RGB colour to its grey level with the fixed-point
// weights OpenCV uses for BGR2GRAY.
func grey(r, g, b uint8) uint8 {
	return uint8((uint32(r)*4899 + uint32(g)*9617 + uint32(b)*1868 + 1<<13) >> 14)
}
