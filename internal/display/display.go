// Package display shows composited frames and reports key presses.
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// NoKey is returned by PollKey when no key was pressed.
const NoKey = -1

// Display is a sink for composited frames.
type Display interface {
	Show(frame *gocv.Mat) error
	// PollKey returns the last key pressed, or NoKey.
	PollKey() int
	Close() error
}

// Window shows frames in an OpenCV HighGUI window.
// It must be used from the thread that created it.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show displays frame.
func (w *Window) Show(frame *gocv.Mat) error {
	w.win.IMShow(*frame)
	return nil
}

// PollKey pumps window events for one millisecond.
func (w *Window) PollKey() int {
	return w.win.WaitKey(1)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

// Headless discards frames. It can be scripted to report a key after a
// number of frames, which ends a session the same way a user would.
type Headless struct {
	mu        sync.Mutex
	shown     int
	quitAfter int
	quitKey   int
	closed    bool
}

// NewHeadless creates a display that never reports a key.
func NewHeadless() *Headless {
	return &Headless{quitKey: NoKey}
}

// QuitAfter makes PollKey report key once n frames have been shown.
func (h *Headless) QuitAfter(n int, key rune) *Headless {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.quitAfter = n
	h.quitKey = int(key)
	return h
}

func (h *Headless) Show(frame *gocv.Mat) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown++
	return nil
}

func (h *Headless) PollKey() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.quitAfter > 0 && h.shown >= h.quitAfter {
		return h.quitKey
	}
	return NoKey
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Shown returns the number of frames displayed.
func (h *Headless) Shown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

// Closed reports whether Close has been called.
func (h *Headless) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// IsKey reports whether a PollKey result matches key. OpenCV may set high
// bits for modifier state, so only the low byte is compared.
func IsKey(code int, key rune) bool {
	return code != NoKey && code&0xff == int(key)
}
