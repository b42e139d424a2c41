package canvas

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/chitra/internal/paint"
	"gocv.io/x/gocv"
)

// Label text parameters for the OpenCV backend.
const (
	labelFont      = gocv.FontHersheySimplex
	labelScale     = 0.9
	fpsScale       = 1.0
	labelThickness = 2
)

// MatCanvas keeps the stroke layer in an OpenCV Mat.
type MatCanvas struct {
	strokes gocv.Mat
	size    image.Point
}

// NewMatCanvas creates a black stroke layer of the given size.
func NewMatCanvas(width, height int) *MatCanvas {
	return &MatCanvas{
		strokes: gocv.Zeros(height, width, gocv.MatTypeCV8UC3),
		size:    image.Pt(width, height),
	}
}

// DrawLine draws a segment on the stroke layer.
func (c *MatCanvas) DrawLine(from, to image.Point, col color.RGBA, width int) {
	gocv.Line(&c.strokes, from, to, col, width)
}

// Compose draws the HUD on frame and merges the strokes over it.
func (c *MatCanvas) Compose(frame *gocv.Mat, hud HUD) error {
	if frame.Cols() != c.size.X || frame.Rows() != c.size.Y {
		return fmt.Errorf("%w: frame %dx%d, canvas %dx%d",
			ErrSizeMismatch, frame.Cols(), frame.Rows(), c.size.X, c.size.Y)
	}

	if err := drawHUD(frame, hud); err != nil {
		return err
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(c.strokes, &gray, gocv.ColorBGRToGray); err != nil {
		return fmt.Errorf("stroke mask: %w", err)
	}

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(gray, &mask, MaskThreshold, 255, gocv.ThresholdBinaryInv)

	mask3 := gocv.NewMat()
	defer mask3.Close()
	if err := gocv.CvtColor(mask, &mask3, gocv.ColorGrayToBGR); err != nil {
		return fmt.Errorf("stroke mask: %w", err)
	}

	gocv.BitwiseAnd(*frame, mask3, frame)
	gocv.BitwiseOr(*frame, c.strokes, frame)
	return nil
}

// Size returns the stroke layer dimensions.
func (c *MatCanvas) Size() image.Point {
	return c.size
}

// Close releases the stroke layer.
func (c *MatCanvas) Close() error {
	return c.strokes.Close()
}

func drawHUD(frame *gocv.Mat, hud HUD) error {
	for _, s := range hud.Swatches {
		if err := gocv.Rectangle(frame, s.Rect, s.Color, -1); err != nil {
			return fmt.Errorf("draw swatch: %w", err)
		}
	}

	ind := hud.Indicator
	switch ind.Shape {
	case paint.RectIndicator:
		if err := gocv.Rectangle(frame, ind.Rect, ind.Color, -1); err != nil {
			return fmt.Errorf("draw indicator: %w", err)
		}
	case paint.CircleIndicator:
		gocv.Circle(frame, ind.Center, ind.Radius, ind.Color, -1)
	}

	size := image.Pt(frame.Cols(), frame.Rows())
	if hud.Label != "" {
		w := gocv.GetTextSize(hud.Label, labelFont, labelScale, labelThickness).X
		if err := gocv.PutText(frame, hud.Label, labelOrigin(hud.Label, w, size), labelFont, labelScale, LabelColor, labelThickness); err != nil {
			return fmt.Errorf("draw label: %w", err)
		}
	}
	if hud.ShowFPS {
		if err := gocv.PutText(frame, fpsText(hud.FPS), fpsOrigin, labelFont, fpsScale, LabelColor, labelThickness); err != nil {
			return fmt.Errorf("draw fps: %w", err)
		}
	}
	return nil
}
