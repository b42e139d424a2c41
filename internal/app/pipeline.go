package app

import (
	"fmt"
	"log"
	"time"

	"github.com/ayusman/chitra/internal/canvas"
	"github.com/ayusman/chitra/internal/paint"
	"gocv.io/x/gocv"
)

// ProcessFrame runs one frame through the pipeline and composites the result
// into frame in place:
//
//  1. Mirror the frame so the view behaves like a mirror
//  2. Detect the first hand and convert it to pixel landmarks
//  3. Classify the fingers and step the state machine
//  4. Commit the segment, if any, to the stroke layer
//  5. Draw the HUD and merge the strokes over the frame
//  6. Publish the new state to the monitor
func (a *App) ProcessFrame(frame *gocv.Mat) (paint.Step, error) {
	if a.config.Mirror {
		gocv.Flip(*frame, frame, 1)
	}

	if a.canvas == nil {
		c, err := a.config.NewCompositor(frame.Cols(), frame.Rows())
		if err != nil {
			return paint.Step{}, fmt.Errorf("create canvas: %w", err)
		}
		a.canvas = c
		log.Printf("Canvas %dx%d (%s)", frame.Cols(), frame.Rows(), a.backend())
	}

	obs := a.observe(frame)
	prev := a.machine.Brush()
	step := a.machine.Step(obs)

	if seg := step.Segment; seg != nil {
		a.canvas.DrawLine(seg.From, seg.To, seg.Brush.Color, seg.Brush.Size)
	}

	fps := a.fps.tick(time.Now())
	hud := canvas.HUD{
		Indicator: step.Indicator,
		Label:     step.Mode.Label(),
		FPS:       fps,
		ShowFPS:   a.config.ShowFPS,
	}
	if obs.Hand {
		hud.Swatches = canvas.SwatchesFor(a.machine.Palette())
	}

	stats := a.count(obs, step, prev)

	composeErr := a.canvas.Compose(frame, hud)
	if composeErr != nil {
		composeErr = fmt.Errorf("compose: %w", composeErr)
	}

	if m := a.config.Monitor; m != nil {
		m.Publish(newState(obs, step, stats, fps, a.IsEnabled()))
		if m.WantsFrames() {
			a.publishFrame(m, frame)
		}
	}

	return step, composeErr
}

// observe detects the first hand in frame. Detector failures and incomplete
// hands are logged and treated as no hand.
func (a *App) observe(frame *gocv.Mat) paint.Observation {
	if !a.IsEnabled() {
		return paint.Observation{}
	}

	hands, err := a.config.Detector.Detect(frame)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return paint.Observation{}
	}
	if len(hands) == 0 {
		return paint.Observation{}
	}

	lm := hands[0].ToPixels(frame.Cols(), frame.Rows())
	obs, err := paint.Observe(lm)
	if err != nil {
		log.Printf("Ignoring hand: %v", err)
		return paint.Observation{}
	}
	return obs
}

// count updates the session counters. Selections counts brush changes, not
// frames spent over a swatch.
func (a *App) count(obs paint.Observation, step paint.Step, prev paint.Brush) Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Frames++
	if obs.Hand {
		a.stats.HandFrames++
	}
	if step.Segment != nil {
		a.stats.Segments++
	}
	if step.Selected != nil && step.Brush != prev {
		a.stats.Selections++
	}
	return a.stats
}

func (a *App) publishFrame(m *Monitor, frame *gocv.Mat) {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		log.Printf("Error encoding frame: %v", err)
		return
	}
	defer buf.Close()

	m.PublishFrame(append([]byte(nil), buf.GetBytes()...))
}
