package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/chitra/internal/canvas"
	"github.com/ayusman/chitra/internal/capture"
	"github.com/ayusman/chitra/internal/detector"
	"github.com/ayusman/chitra/internal/display"
	"github.com/ayusman/chitra/internal/gesture"
	"github.com/ayusman/chitra/internal/paint"
	"github.com/ayusman/chitra/internal/store"
	"gocv.io/x/gocv"
)

const (
	frameW = 1280
	frameH = 720
)

var grey = color.RGBA{R: 200, G: 200, B: 200, A: 255}

// recordingCanvas records committed lines without touching pixels.
type recordingCanvas struct {
	size     image.Point
	lines    []paint.Segment
	huds     []canvas.HUD
	closed   bool
	failWith error
}

func (c *recordingCanvas) DrawLine(from, to image.Point, col color.RGBA, width int) {
	c.lines = append(c.lines, paint.Segment{From: from, To: to, Brush: paint.Brush{Color: col, Size: width}})
}

func (c *recordingCanvas) Compose(frame *gocv.Mat, hud canvas.HUD) error {
	c.huds = append(c.huds, hud)
	return c.failWith
}

func (c *recordingCanvas) Size() image.Point { return c.size }

func (c *recordingCanvas) Close() error {
	c.closed = true
	return nil
}

type fixture struct {
	app      *App
	camera   *capture.MockCamera
	detector *detector.MockDetector
	display  *display.Headless
	canvas   *recordingCanvas
}

func newFixture(t *testing.T, frames int, loop bool, mutate func(*Config)) *fixture {
	t.Helper()

	mats := capture.SolidFrames(frames, frameW, frameH, grey)
	t.Cleanup(func() {
		for _, m := range mats {
			m.Close()
		}
	})

	f := &fixture{
		camera:   capture.NewMockCamera(mats, loop),
		detector: detector.NewMockDetector(),
		display:  display.NewHeadless(),
	}

	cfg := Config{
		Camera:   f.camera,
		Detector: f.detector,
		Display:  f.display,
		NewCompositor: func(w, h int) (canvas.Compositor, error) {
			f.canvas = &recordingCanvas{size: image.Pt(w, h)}
			return f.canvas, nil
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.app = a
	return f
}

func pixelTip(h detector.HandLandmarks) image.Point {
	return h.ToPixels(frameW, frameH).Point(detector.IndexTip)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	cam := capture.NewMockCamera(nil, false)
	det := detector.NewMockDetector()
	disp := display.NewHeadless()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"no camera", Config{Detector: det, Display: disp}},
		{"no detector", Config{Camera: cam, Display: disp}},
		{"no display", Config{Camera: cam, Detector: det}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}

	a, err := New(Config{Camera: cam, Detector: det, Display: disp})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !a.IsEnabled() {
		t.Error("new app should be enabled")
	}
	if len(a.Machine().Palette().Bands) != 4 {
		t.Error("default palette not applied")
	}
	if a.config.QuitKey != DefaultQuitKey {
		t.Errorf("QuitKey = %q", a.config.QuitKey)
	}
}

func TestNew_SeedsMonitorWithStartBrush(t *testing.T) {
	mon := NewMonitor()
	a, err := New(Config{
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
		Display:  display.NewHeadless(),
		Palette:  paint.DefaultPalette(30, 80),
		Monitor:  mon,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := paint.Brush{Color: paint.Red, Size: 30}
	if got := a.Machine().Brush(); got != want {
		t.Errorf("machine brush = %v, want %v", got, want)
	}
	st := mon.State()
	if st.Brush != want || !st.Enabled || st.Mode != gesture.ModeIdle {
		t.Errorf("monitor state = %+v, want idle and enabled with %v", st, want)
	}
}

func TestApp_Run_ThreeFrameStroke(t *testing.T) {
	f := newFixture(t, 3, false, nil)

	hands := []detector.HandLandmarks{
		detector.PointingLandmarks(100.0/frameW, 0.5),
		detector.PointingLandmarks(110.0/frameW, 0.5),
		detector.PointingLandmarks(120.0/frameW, 0.5),
	}
	f.detector.SetSequence([][]detector.HandLandmarks{{hands[0]}, {hands[1]}, {hands[2]}})

	if err := f.app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []paint.Segment{
		{From: pixelTip(hands[0]), To: pixelTip(hands[1]), Brush: paint.DefaultBrush()},
		{From: pixelTip(hands[1]), To: pixelTip(hands[2]), Brush: paint.DefaultBrush()},
	}
	if len(f.canvas.lines) != 2 {
		t.Fatalf("expected 2 committed segments, got %d: %+v", len(f.canvas.lines), f.canvas.lines)
	}
	for i := range want {
		if f.canvas.lines[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, f.canvas.lines[i], want[i])
		}
	}
	if pixelTip(hands[0]).X != 100 || pixelTip(hands[2]).X != 120 {
		t.Errorf("fingertip x = %d..%d, want 100..120", pixelTip(hands[0]).X, pixelTip(hands[2]).X)
	}

	stats := f.app.Stats()
	if stats.Frames != 3 || stats.HandFrames != 3 || stats.Segments != 2 {
		t.Errorf("Stats() = %+v", stats)
	}
	if f.display.Shown() != 3 {
		t.Errorf("display showed %d frames, want 3", f.display.Shown())
	}
	if !f.display.Closed() || !f.canvas.closed || f.camera.IsOpen() {
		t.Error("collaborators not released after Run")
	}
}

func TestApp_Run_CameraOpenFailure(t *testing.T) {
	f := newFixture(t, 1, false, nil)
	want := errors.New("no device")
	f.camera.SetOpenError(want)

	err := f.app.Run(context.Background())
	if !errors.Is(err, want) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, want)
	}
	if !f.display.Closed() {
		t.Error("display should be closed after a failed start")
	}
	if f.detector.Calls() != 0 {
		t.Error("detector should not run without a camera")
	}
}

func TestApp_Run_QuitKey(t *testing.T) {
	f := newFixture(t, 1, true, nil)
	f.display.QuitAfter(5, DefaultQuitKey)

	done := make(chan error, 1)
	go func() { done <- f.app.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run() did not stop on the quit key")
	}

	if f.camera.Reads() != 5 {
		t.Errorf("camera delivered %d frames, want 5", f.camera.Reads())
	}
}

func TestApp_Run_ContextCancelled(t *testing.T) {
	f := newFixture(t, 1, true, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.app.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if f.app.Stats().Frames != 0 {
		t.Errorf("processed %d frames after cancellation", f.app.Stats().Frames)
	}
	if f.camera.IsOpen() {
		t.Error("camera should be closed")
	}
}

func TestApp_DetectorErrorIsIdle(t *testing.T) {
	f := newFixture(t, 4, false, nil)
	f.detector.SetError(errors.New("service crashed"))

	if err := f.app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := f.app.Stats()
	if stats.Frames != 4 || stats.HandFrames != 0 || stats.Segments != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
	for i, hud := range f.canvas.huds {
		if hud.Swatches != nil || hud.Label != "" {
			t.Errorf("frame %d HUD = %+v, want empty", i, hud)
		}
	}
}

func TestApp_Disabled(t *testing.T) {
	f := newFixture(t, 3, false, nil)
	f.detector.SetHands([]detector.HandLandmarks{detector.PointingLandmarks(0.3, 0.5)})
	f.app.SetEnabled(false)

	if err := f.app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if f.detector.Calls() != 0 {
		t.Errorf("detector called %d times while disabled", f.detector.Calls())
	}
	if len(f.canvas.lines) != 0 {
		t.Error("strokes committed while disabled")
	}
	if f.display.Shown() != 3 {
		t.Errorf("display showed %d frames, want 3", f.display.Shown())
	}
}

func TestApp_HUD(t *testing.T) {
	f := newFixture(t, 3, false, func(c *Config) { c.ShowFPS = true })
	f.detector.SetSequence([][]detector.HandLandmarks{
		{detector.PeaceLandmarks(0.3, 0.5)},
		{detector.PointingLandmarks(0.3, 0.5)},
		nil,
	})

	if err := f.app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	huds := f.canvas.huds
	if len(huds) != 3 {
		t.Fatalf("expected 3 composed frames, got %d", len(huds))
	}
	if huds[0].Label != "Select" || huds[0].Indicator.Shape != paint.RectIndicator || len(huds[0].Swatches) != 4 {
		t.Errorf("selecting HUD = %+v", huds[0])
	}
	if huds[1].Label != "Draw" || huds[1].Indicator.Shape != paint.CircleIndicator {
		t.Errorf("drawing HUD = %+v", huds[1])
	}
	if huds[2].Label != "" || huds[2].Swatches != nil || huds[2].Indicator.Shape != paint.NoIndicator {
		t.Errorf("no-hand HUD = %+v", huds[2])
	}
	for i, hud := range huds {
		if !hud.ShowFPS {
			t.Errorf("frame %d: ShowFPS not set", i)
		}
	}
}

func TestApp_SelectionsCountBrushChanges(t *testing.T) {
	f := newFixture(t, 4, false, nil)
	overGreen := detector.PeaceLandmarks(0.375, 0.05)
	f.detector.SetSequence([][]detector.HandLandmarks{
		{overGreen}, {overGreen}, {overGreen}, {detector.FistLandmarks()},
	})

	if err := f.app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := f.app.Machine().Brush().Color; got != paint.Green {
		t.Fatalf("brush = %v, want green", got)
	}
	if s := f.app.Stats().Selections; s != 1 {
		t.Errorf("Selections = %d, want 1", s)
	}
}

func TestApp_ComposeErrorDoesNotStopLoop(t *testing.T) {
	f := newFixture(t, 3, false, nil)
	f.app.config.NewCompositor = func(w, h int) (canvas.Compositor, error) {
		f.canvas = &recordingCanvas{size: image.Pt(w, h), failWith: canvas.ErrSizeMismatch}
		return f.canvas, nil
	}

	if err := f.app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if f.display.Shown() != 3 {
		t.Errorf("display showed %d frames, want 3", f.display.Shown())
	}
}

func TestApp_ProcessFrame_OpaqueStroke(t *testing.T) {
	det := detector.NewMockDetector()
	a, err := New(Config{
		Camera:   capture.NewMockCamera(nil, false),
		Detector: det,
		Display:  display.NewHeadless(),
		Backend:  canvas.BackendOpenCV,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	from := detector.PointingLandmarks(100.0/frameW, 0.5)
	to := detector.PointingLandmarks(200.0/frameW, 0.5)
	det.SetSequence([][]detector.HandLandmarks{{from}, {to}, {detector.FistLandmarks()}})

	var last gocv.Mat
	for i := 0; i < 3; i++ {
		frames := capture.SolidFrames(1, frameW, frameH, grey)
		if _, err := a.ProcessFrame(frames[0]); err != nil {
			t.Fatalf("ProcessFrame(%d) error = %v", i, err)
		}
		if i < 2 {
			frames[0].Close()
		} else {
			last = *frames[0]
		}
	}
	defer last.Close()
	defer a.canvas.Close()

	mid := pixelTip(from).Add(pixelTip(to)).Div(2)
	v := last.GetVecbAt(mid.Y, mid.X)
	if v[0] != 0 || v[1] != 0 || v[2] != 255 {
		t.Errorf("stroke pixel at %v = %v, want BGR (0,0,255)", mid, v)
	}
	v = last.GetVecbAt(600, 640)
	if v[0] != 200 || v[1] != 200 || v[2] != 200 {
		t.Errorf("background pixel = %v, want live grey", v)
	}
}

func TestApp_ProcessFrame_Mirror(t *testing.T) {
	a, err := New(Config{
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
		Display:  display.NewHeadless(),
		Mirror:   true,
		NewCompositor: func(w, h int) (canvas.Compositor, error) {
			return &recordingCanvas{size: image.Pt(w, h)}, nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	frame := gocv.Zeros(frameH, frameW, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(0, 300, 10, 310), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)

	if _, err := a.ProcessFrame(&frame); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	if v := frame.GetVecbAt(305, frameW-5); v[0] != 255 || v[1] != 255 || v[2] != 255 {
		t.Errorf("mirrored pixel = %v, want white", v)
	}
	if v := frame.GetVecbAt(305, 5); v[0] != 0 {
		t.Errorf("original pixel = %v, want black after mirroring", v)
	}
}

func TestApp_Monitor(t *testing.T) {
	mon := NewMonitor()
	f := newFixture(t, 2, false, func(c *Config) { c.Monitor = mon })
	f.detector.SetHands([]detector.HandLandmarks{detector.PointingLandmarks(0.3, 0.5)})

	states, stopStates := mon.Subscribe()
	defer stopStates()

	if err := f.app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	s := mon.State()
	if s.Mode != gesture.ModeDrawing || !s.Hand || s.Fingers != "01000" {
		t.Errorf("State() = %+v", s)
	}
	if s.Stats.Frames != 2 || s.Stats.Segments != 1 {
		t.Errorf("State().Stats = %+v", s.Stats)
	}
	if s.Segment == nil {
		t.Error("last state should carry the committed segment")
	}

	select {
	case got := <-states:
		if got.Mode != gesture.ModeDrawing {
			t.Errorf("subscribed state mode = %s", got.Mode)
		}
	default:
		t.Error("subscriber received no state")
	}

	if mon.Frame() != nil {
		t.Error("frames should not be encoded without frame subscribers")
	}
}

func TestApp_MonitorFrames(t *testing.T) {
	mon := NewMonitor()
	frames, stop := mon.SubscribeFrames()
	defer stop()

	f := newFixture(t, 1, false, func(c *Config) { c.Monitor = mon })
	if err := f.app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	select {
	case jpeg := <-frames:
		if len(jpeg) < 2 || jpeg[0] != 0xFF || jpeg[1] != 0xD8 {
			t.Errorf("frame is not a JPEG: % x", jpeg[:min(len(jpeg), 4)])
		}
	default:
		t.Fatal("no frame published to subscriber")
	}
}

func TestApp_Run_RecordsSession(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	f := newFixture(t, 3, false, func(c *Config) {
		c.Store = st
		c.CameraID = 1
	})
	f.detector.SetHands([]detector.HandLandmarks{detector.PointingLandmarks(0.3, 0.5)})

	if err := f.app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	sessions, err := st.Sessions().List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.CameraID != 1 || s.Frames != 3 || s.Segments != 2 || s.HandFrames != 3 {
		t.Errorf("session = %+v", s)
	}
	if s.Width != frameW || s.Height != frameH {
		t.Errorf("session size = %dx%d", s.Width, s.Height)
	}
	if s.EndedAt == nil {
		t.Error("session should be finished")
	}
}

func TestFPSMeter(t *testing.T) {
	var m fpsMeter
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := m.tick(start); got != 0 {
		t.Errorf("first tick = %v, want 0", got)
	}
	if got := m.tick(start.Add(40 * time.Millisecond)); got != 25 {
		t.Errorf("tick after 40ms = %v, want 25", got)
	}
	if got := m.tick(start.Add(40 * time.Millisecond)); got != 25 {
		t.Errorf("zero interval should keep the last value, got %v", got)
	}
}
