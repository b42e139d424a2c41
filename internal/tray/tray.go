// Package tray provides a system tray menu for pausing, watching and quitting
// a painting session.
package tray

import (
	"context"
	"fmt"
	"sync"

	"github.com/ayusman/chitra/internal/app"
	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuMode   *systray.MenuItem
	menuBrush  *systray.MenuItem
	menuStats  *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when painting is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback function to be called when the viewer menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called and must run on the main thread.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Chitra")
	systray.SetTooltip("Chitra gesture painter")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume hand tracking")
	systray.AddSeparator()

	mode, brush, stats := statusLines(app.State{})
	t.menuMode = systray.AddMenuItem(mode, "Current interaction mode")
	t.menuMode.Disable()
	t.menuBrush = systray.AddMenuItem(brush, "Active brush")
	t.menuBrush.Disable()
	t.menuStats = systray.AddMenuItem(stats, "Session statistics")
	t.menuStats.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the live view in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Chitra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleOpen handles the viewer menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// statusLines renders the read-only menu entries for a state.
func statusLines(s app.State) (mode, brush, stats string) {
	mode = "Mode: " + s.Mode.String()
	if !s.Hand {
		mode += " (no hand)"
	}
	brush = "Brush: " + s.Brush.String()
	if s.Brush.IsEraser() {
		brush = fmt.Sprintf("Brush: eraser/%d", s.Brush.Size)
	}
	stats = fmt.Sprintf("Segments: %d  Selections: %d", s.Stats.Segments, s.Stats.Selections)
	return mode, brush, stats
}

// SetStatus updates the status entries in the menu.
func (t *Tray) SetStatus(s app.State) {
	mode, brush, stats := statusLines(s)

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuMode != nil {
		t.menuMode.SetTitle(mode)
		t.menuBrush.SetTitle(brush)
		t.menuStats.SetTitle(stats)
	}
}

// Watch mirrors monitor updates into the menu until ctx is done. Only
// changes are applied, so the menu is not redrawn every frame.
func (t *Tray) Watch(ctx context.Context, mon *app.Monitor) {
	states, stop := mon.Subscribe()
	defer stop()

	var last [3]string
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-states:
			mode, brush, stats := statusLines(s)
			if cur := [3]string{mode, brush, stats}; cur != last {
				last = cur
				t.SetStatus(s)
			}
		}
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
