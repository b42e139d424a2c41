package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/chitra/internal/gesture"
	"github.com/ayusman/chitra/internal/paint"
)

// State is a snapshot of the session after one frame.
type State struct {
	Enabled   bool           `json:"enabled"`
	Hand      bool           `json:"hand"`
	Fingers   string         `json:"fingers,omitempty"`
	Mode      gesture.Mode   `json:"mode"`
	Brush     paint.Brush    `json:"brush"`
	Segment   *paint.Segment `json:"segment,omitempty"`
	Selected  string         `json:"selected,omitempty"`
	FPS       float64        `json:"fps"`
	Stats     Stats          `json:"stats"`
	Timestamp int64          `json:"timestamp"`
}

func newState(obs paint.Observation, step paint.Step, stats Stats, fps float64, enabled bool) State {
	s := State{
		Enabled:   enabled,
		Hand:      obs.Hand,
		Mode:      step.Mode,
		Brush:     step.Brush,
		Segment:   step.Segment,
		FPS:       fps,
		Stats:     stats,
		Timestamp: time.Now().UnixMilli(),
	}
	if obs.Hand {
		s.Fingers = obs.Fingers.String()
	}
	if step.Selected != nil {
		s.Selected = step.Selected.Name
	}
	return s
}

// Monitor fans out session state and encoded frames to observers such as the
// HTTP server and the tray. Publishing never blocks: a subscriber that falls
// behind misses updates.
type Monitor struct {
	mu         sync.RWMutex
	state      State
	frame      []byte
	stateSubs  map[chan State]struct{}
	frameSubs  map[chan []byte]struct{}
	frameViews atomic.Int32
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		state:     State{Mode: gesture.ModeIdle, Brush: paint.DefaultBrush(), Enabled: true},
		stateSubs: make(map[chan State]struct{}),
		frameSubs: make(map[chan []byte]struct{}),
	}
}

// State returns the latest snapshot.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Frame returns the latest encoded frame, or nil.
func (m *Monitor) Frame() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame
}

// Publish records s and offers it to every state subscriber.
func (m *Monitor) Publish(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = s
	for ch := range m.stateSubs {
		select {
		case ch <- s:
		default:
		}
	}
}

// PublishFrame records an encoded frame and offers it to frame subscribers.
func (m *Monitor) PublishFrame(jpeg []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frame = jpeg
	for ch := range m.frameSubs {
		select {
		case ch <- jpeg:
		default:
		}
	}
}

// WantsFrames reports whether anyone is subscribed to frames.
func (m *Monitor) WantsFrames() bool {
	return m.frameViews.Load() > 0
}

// Subscribe returns a channel of state updates and a function that ends the
// subscription.
func (m *Monitor) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.mu.Lock()
	m.stateSubs[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.stateSubs, ch)
			m.mu.Unlock()
		})
	}
}

// SubscribeFrames returns a channel of encoded frames and a function that
// ends the subscription. Frames are only encoded while subscriptions exist.
func (m *Monitor) SubscribeFrames() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	m.mu.Lock()
	m.frameSubs[ch] = struct{}{}
	m.mu.Unlock()
	m.frameViews.Add(1)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.frameSubs, ch)
			m.mu.Unlock()
			m.frameViews.Add(-1)
		})
	}
}
