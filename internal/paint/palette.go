package paint

import (
	"image"
	"image/color"
)

// DefaultBarHeight is the height of the selection bar at the top of the frame.
const DefaultBarHeight = 90

// Band is a horizontal range of the selection bar mapped to a brush.
// MinX and MaxX are exclusive on both sides.
type Band struct {
	Name   string
	MinX   int
	MaxX   int
	Brush  Brush
	Swatch image.Rectangle // where the choice is drawn on screen
}

// Contains reports whether x lies strictly inside the band.
func (b Band) Contains(x int) bool {
	return b.MinX < x && x < b.MaxX
}

// Palette is the selection bar: a pixel height and a set of non-overlapping bands.
type Palette struct {
	BarHeight int
	Bands     []Band
}

// DefaultPalette returns the red, green, blue and eraser bands laid out for a
// 1280 pixel wide frame.
func DefaultPalette(brushSize, eraserSize int) Palette {
	if brushSize <= 0 {
		brushSize = DefaultBrushSize
	}
	if eraserSize <= 0 {
		eraserSize = EraserSize
	}

	band := func(name string, minX, maxX int, c color.RGBA, size, swatchX int) Band {
		return Band{
			Name:   name,
			MinX:   minX,
			MaxX:   maxX,
			Brush:  Brush{Color: c, Size: size},
			Swatch: image.Rect(swatchX, 25, swatchX+90, 80),
		}
	}

	return Palette{
		BarHeight: DefaultBarHeight,
		Bands: []Band{
			band("red", 170, 290, Red, brushSize, 184),
			band("green", 445, 560, Green, brushSize, 458),
			band("blue", 720, 835, Blue, brushSize, 732),
			band("eraser", 995, 1110, Background, eraserSize, 1006),
		},
	}
}

// StartBrush is the brush in effect before any selection: the first colour
// band's brush, or DefaultBrush if the palette has none.
func (p Palette) StartBrush() Brush {
	for _, b := range p.Bands {
		if !b.Brush.IsEraser() {
			return b.Brush
		}
	}
	return DefaultBrush()
}

// Pick returns the band under p, if p is inside the selection bar.
func (p Palette) Pick(pt image.Point) (Band, bool) {
	if pt.Y >= p.BarHeight {
		return Band{}, false
	}
	for _, b := range p.Bands {
		if b.Contains(pt.X) {
			return b, true
		}
	}
	return Band{}, false
}
