package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ayusman/chitra/internal/paint"
	"github.com/fogleman/gg"
	"gocv.io/x/gocv"
	"golang.org/x/image/font/basicfont"
)

// RasterCanvas keeps the stroke layer in a pure Go RGBA image drawn with gg.
// Render works without OpenCV; Compose adapts it to gocv frames.
type RasterCanvas struct {
	strokes *image.RGBA
	dc      *gg.Context
}

// NewRasterCanvas creates a black stroke layer of the given size.
func NewRasterCanvas(width, height int) *RasterCanvas {
	strokes := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(strokes, strokes.Bounds(), image.NewUniform(paint.Background), image.Point{}, draw.Src)

	dc := gg.NewContextForRGBA(strokes)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	return &RasterCanvas{strokes: strokes, dc: dc}
}

// DrawLine draws a segment with round caps. A zero-length segment leaves a dot.
func (c *RasterCanvas) DrawLine(from, to image.Point, col color.RGBA, width int) {
	c.dc.SetColor(col)
	if from == to {
		c.dc.DrawCircle(float64(from.X), float64(from.Y), float64(width)/2)
		c.dc.Fill()
		return
	}
	c.dc.SetLineWidth(float64(width))
	c.dc.DrawLine(float64(from.X), float64(from.Y), float64(to.X), float64(to.Y))
	c.dc.Stroke()
}

// Strokes returns the stroke layer.
func (c *RasterCanvas) Strokes() *image.RGBA {
	return c.strokes
}

// Render draws hud over a copy of live and merges the strokes over it.
func (c *RasterCanvas) Render(live image.Image, hud HUD) *image.RGBA {
	out := image.NewRGBA(c.strokes.Bounds())
	draw.Draw(out, out.Bounds(), live, live.Bounds().Min, draw.Src)

	renderHUD(out, hud)

	// frame = (frame AND mask) OR strokes, per byte, with mask all ones
	// wherever the stroke pixel is at or below the threshold.
	for i := 0; i+3 < len(out.Pix); i += 4 {
		s := c.strokes.Pix[i : i+3 : i+3]
		if grey(s[0], s[1], s[2]) > MaskThreshold {
			copy(out.Pix[i:i+3], s)
			continue
		}
		out.Pix[i] |= s[0]
		out.Pix[i+1] |= s[1]
		out.Pix[i+2] |= s[2]
	}
	return out
}

// Compose renders into frame via an image round trip.
func (c *RasterCanvas) Compose(frame *gocv.Mat, hud HUD) error {
	size := c.Size()
	if frame.Cols() != size.X || frame.Rows() != size.Y {
		return fmt.Errorf("%w: frame %dx%d, canvas %dx%d",
			ErrSizeMismatch, frame.Cols(), frame.Rows(), size.X, size.Y)
	}

	live, err := frame.ToImage()
	if err != nil {
		return fmt.Errorf("frame to image: %w", err)
	}

	merged, err := gocv.ImageToMatRGB(c.Render(live, hud))
	if err != nil {
		return fmt.Errorf("image to frame: %w", err)
	}
	defer merged.Close()

	return merged.CopyTo(frame)
}

// Size returns the stroke layer dimensions.
func (c *RasterCanvas) Size() image.Point {
	return c.strokes.Bounds().Size()
}

// Close is a no-op; the layer is garbage collected.
func (c *RasterCanvas) Close() error {
	return nil
}

func renderHUD(img *image.RGBA, hud HUD) {
	dc := gg.NewContextForRGBA(img)

	for _, s := range hud.Swatches {
		r := s.Rect.Canon()
		dc.SetColor(s.Color)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Fill()
	}

	ind := hud.Indicator
	switch ind.Shape {
	case paint.RectIndicator:
		r := ind.Rect.Canon()
		dc.SetColor(ind.Color)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Fill()
	case paint.CircleIndicator:
		dc.SetColor(ind.Color)
		dc.DrawCircle(float64(ind.Center.X), float64(ind.Center.Y), float64(ind.Radius))
		dc.Fill()
	}

	if hud.Label == "" && !hud.ShowFPS {
		return
	}

	dc.SetFontFace(basicfont.Face7x13)
	size := img.Bounds().Size()
	if hud.Label != "" {
		w, _ := dc.MeasureString(hud.Label)
		o := labelOrigin(hud.Label, int(w), size)
		dc.SetColor(LabelColor)
		dc.DrawString(hud.Label, float64(o.X), float64(o.Y))
	}
	if hud.ShowFPS {
		dc.SetColor(LabelColor)
		dc.DrawString(fpsText(hud.FPS), float64(fpsOrigin.X), float64(fpsOrigin.Y))
	}
}
