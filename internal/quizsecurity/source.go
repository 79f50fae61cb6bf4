package quizsecurity

import (
	"sync"
	"time"
)

// Signal is a raw page event. Which fields are meaningful depends on the channel:
// Hidden for visibility, Focused for focus, Key for keydown, Fullscreen for
// fullscreen-change.
type Signal struct {
	Hidden     bool
	Focused    bool
	Key        KeyCombo
	Fullscreen bool
	At         time.Time
}

// Handler consumes a signal and reports whether the page must cancel the
// default browser action.
type Handler func(Signal) (suppress bool)

// Source is one monitored channel. Subscribe must not call h synchronously and
// the returned cancel func must be safe to call more than once without waiting
// for in-flight handler calls.
type Source interface {
	Subscribe(h Handler) (cancel func())
}

// Sources groups the channels a Monitor listens to. Nil entries are skipped.
// Visibility and Focus both feed tab-switch detection.
type Sources struct {
	Visibility  Source
	Focus       Source
	ContextMenu Source
	Keydown     Source
	Fullscreen  Source
	Ticker      Source
}

// ManualSource is a Source fed by explicit Emit calls. Hosts that receive page
// signals over a transport use it, and so do tests.
type ManualSource struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
}

// NewManualSource creates an empty ManualSource.
func NewManualSource() *ManualSource {
	return &ManualSource{handlers: make(map[int]Handler)}
}

// Subscribe registers h until the returned cancel func runs.
func (s *ManualSource) Subscribe(h Handler) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// Emit delivers sig to every current subscriber and reports whether any of
// them asked for the default action to be suppressed.
func (s *ManualSource) Emit(sig Signal) bool {
	s.mu.Lock()
	hs := make([]Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		hs = append(hs, h)
	}
	s.mu.Unlock()

	suppress := false
	for _, h := range hs {
		if h(sig) {
			suppress = true
		}
	}
	return suppress
}

// Subscribers returns the number of registered handlers.
func (s *ManualSource) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// TickerSource emits one signal per Interval from a background goroutine
// that lives exactly as long as the subscription.
type TickerSource struct {
	Interval time.Duration
}

// Subscribe starts the ticker goroutine.
func (t TickerSource) Subscribe(h Handler) func() {
	interval := t.Interval
	if interval <= 0 {
		interval = time.Second
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case at := <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				h(Signal{At: at})
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}
