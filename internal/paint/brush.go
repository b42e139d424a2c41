// Package paint implements the brush, palette and interaction state machine
// that turn per-frame finger states into drawing commands.
package paint

import (
	"fmt"
	"image"
	"image/color"
)

// Brush sizes in pixels.
const (
	DefaultBrushSize = 15
	EraserSize       = 65
)

// Palette colours. The background is the colour of an empty canvas; painting
// with it erases.
var (
	Red        = color.RGBA{R: 255, A: 255}
	Green      = color.RGBA{G: 255, A: 255}
	Blue       = color.RGBA{B: 255, A: 255}
	Background = color.RGBA{A: 255}
)

// Brush is the active stroke colour and width.
type Brush struct {
	Color color.RGBA `json:"color"`
	Size  int        `json:"size"`
}

// DefaultBrush is the brush in effect before any selection.
func DefaultBrush() Brush {
	return Brush{Color: Red, Size: DefaultBrushSize}
}

// IsEraser reports whether the brush paints the background colour.
func (b Brush) IsEraser() bool {
	return b.Color == Background
}

// String describes the brush, e.g. "#ff0000/15".
func (b Brush) String() string {
	return fmt.Sprintf("#%02x%02x%02x/%d", b.Color.R, b.Color.G, b.Color.B, b.Size)
}

// Segment is a committed line on the persistent canvas.
type Segment struct {
	From  image.Point `json:"from"`
	To    image.Point `json:"to"`
	Brush Brush       `json:"brush"`
}

// Cursor is the last committed drawing position. The zero value is unset.
type Cursor struct {
	pos image.Point
	set bool
}

// Set moves the cursor to p.
func (c *Cursor) Set(p image.Point) {
	c.pos = p
	c.set = true
}

// Reset returns the cursor to the unset state.
func (c *Cursor) Reset() {
	*c = Cursor{}
}

// Position returns the cursor position and whether it is set.
func (c Cursor) Position() (image.Point, bool) {
	return c.pos, c.set
}
