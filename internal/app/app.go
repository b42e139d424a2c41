// Package app runs a painting session: it reads camera frames, turns the
// detected hand into drawing commands and shows the composited result.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/chitra/internal/canvas"
	"github.com/ayusman/chitra/internal/capture"
	"github.com/ayusman/chitra/internal/detector"
	"github.com/ayusman/chitra/internal/display"
	"github.com/ayusman/chitra/internal/gesture"
	"github.com/ayusman/chitra/internal/paint"
	"github.com/ayusman/chitra/internal/store"
)

// DefaultQuitKey ends a session when pressed in the window.
const DefaultQuitKey = 'q'

// CompositorFactory creates the stroke layer once the frame size is known.
type CompositorFactory func(width, height int) (canvas.Compositor, error)

// Config holds the collaborators and options of a session.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Display  display.Display

	// Backend selects the stroke layer when NewCompositor is nil.
	Backend       canvas.Backend
	NewCompositor CompositorFactory

	Palette paint.Palette
	Policy  paint.CursorPolicy

	Mirror  bool
	QuitKey rune
	ShowFPS bool

	// Optional side channels.
	Monitor  *Monitor
	Store    *store.Store
	CameraID int
}

// Stats counts what happened during a session.
type Stats struct {
	Frames     int64 `json:"frames"`
	HandFrames int64 `json:"hand_frames"`
	Segments   int64 `json:"segments"`
	Selections int64 `json:"selections"`
}

// App is one painting session. The frame loop owns the state machine and
// the stroke layer; other goroutines interact only through SetEnabled,
// Stats and the Monitor.
type App struct {
	config  Config
	machine *paint.Machine
	canvas  canvas.Compositor
	fps     fpsMeter
	enabled atomic.Bool

	mu    sync.RWMutex
	stats Stats
}

// New creates a session. Camera, Detector and Display are required.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if config.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if config.Display == nil {
		return nil, errors.New("app: display is required")
	}
	if len(config.Palette.Bands) == 0 {
		config.Palette = paint.DefaultPalette(paint.DefaultBrushSize, paint.EraserSize)
	}
	if config.QuitKey == 0 {
		config.QuitKey = DefaultQuitKey
	}
	if config.NewCompositor == nil {
		backend := config.Backend
		config.NewCompositor = func(width, height int) (canvas.Compositor, error) {
			return canvas.New(backend, width, height)
		}
	}

	a := &App{
		config:  config,
		machine: paint.NewMachine(config.Palette, config.Policy),
	}
	a.enabled.Store(true)

	if m := config.Monitor; m != nil {
		m.Publish(State{
			Enabled:   true,
			Mode:      gesture.ModeIdle,
			Brush:     a.machine.Brush(),
			Timestamp: time.Now().UnixMilli(),
		})
	}
	return a, nil
}

// SetEnabled pauses or resumes hand detection. While paused every frame is
// treated as having no hand; strokes stay on screen.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

// IsEnabled returns whether hand detection is running.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Stats returns a copy of the session counters.
func (a *App) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// Machine returns the interaction state machine.
func (a *App) Machine() *paint.Machine {
	return a.machine
}

// Monitor returns the monitor, or nil if none was configured.
func (a *App) Monitor() *Monitor {
	return a.config.Monitor
}

// Run opens the camera and processes frames until the stream ends, the quit
// key is pressed or ctx is cancelled. Camera, detector, stroke layer and
// display are released on every return path.
func (a *App) Run(ctx context.Context) error {
	if err := a.config.Camera.Open(); err != nil {
		a.closeCollaborators()
		return fmt.Errorf("open camera: %w", err)
	}
	defer a.release()

	session := a.beginSession()
	defer a.endSession(session)

	log.Println("Painting started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Painting stopped")
			return nil
		default:
		}

		frame, err := a.config.Camera.ReadFrame()
		if err != nil {
			log.Printf("Frame stream ended: %v", err)
			return nil
		}

		if _, err := a.ProcessFrame(frame); err != nil {
			log.Printf("Error processing frame: %v", err)
		}

		err = a.config.Display.Show(frame)
		frame.Close()
		if err != nil {
			return fmt.Errorf("show frame: %w", err)
		}

		if display.IsKey(a.config.Display.PollKey(), a.config.QuitKey) {
			log.Println("Quit key pressed")
			return nil
		}
	}
}

func (a *App) release() {
	if err := a.config.Camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.closeCollaborators()
}

func (a *App) closeCollaborators() {
	if err := a.config.Detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}
	if a.canvas != nil {
		if err := a.canvas.Close(); err != nil {
			log.Printf("Error closing canvas: %v", err)
		}
		a.canvas = nil
	}
	if err := a.config.Display.Close(); err != nil {
		log.Printf("Error closing display: %v", err)
	}
}

func (a *App) beginSession() *store.Session {
	if a.config.Store == nil {
		return nil
	}
	s := &store.Session{
		CameraID: a.config.CameraID,
		Backend:  string(a.backend()),
	}
	if err := a.config.Store.Sessions().Create(s); err != nil {
		log.Printf("Failed to record session: %v", err)
		return nil
	}
	return s
}

func (a *App) endSession(s *store.Session) {
	if s == nil {
		return
	}
	stats := a.Stats()
	s.Frames = stats.Frames
	s.HandFrames = stats.HandFrames
	s.Segments = stats.Segments
	s.Selections = stats.Selections
	if a.canvas != nil {
		size := a.canvas.Size()
		s.Width, s.Height = size.X, size.Y
	}
	if err := a.config.Store.Sessions().Finish(s); err != nil {
		log.Printf("Failed to finish session %s: %v", s.ID, err)
		return
	}
	log.Printf("Session %s: %d frames, %d segments, %d selections",
		s.ID, s.Frames, s.Segments, s.Selections)
}

func (a *App) backend() canvas.Backend {
	if a.config.Backend == "" {
		return canvas.BackendOpenCV
	}
	return a.config.Backend
}

// fpsMeter reports the instantaneous frame rate from consecutive ticks.
type fpsMeter struct {
	last  time.Time
	value float64
}

func (m *fpsMeter) tick(now time.Time) float64 {
	if !m.last.IsZero() {
		if d := now.Sub(m.last); d > 0 {
			m.value = float64(time.Second) / float64(d)
		}
	}
	m.last = now
	return m.value
}
