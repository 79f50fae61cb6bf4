package quizsecurity

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Presenter asks the page to enter or leave fullscreen. Requests are best-effort
// and may complete asynchronously; a refusal that arrives later is reported
// through Monitor.PresentationDenied.
type Presenter interface {
	RequestFullscreen() error
	ExitFullscreen() error
}

// Notifier delivers advisory notices to the quiz taker.
type Notifier interface {
	Notify(Notice)
}

// FinishFunc receives the final disposition of a session.
type FinishFunc func(Disposition)

// Options configures a Monitor. Everything is optional.
type Options struct {
	Sources   Sources
	Presenter Presenter
	Notifier  Notifier

	// OnFinish runs exactly once per started session: on manual end, time expiry
	// or disqualification. It may call EndQuiz.
	OnFinish FinishFunc
	// OnViolation runs once for every recorded violation, in order.
	OnViolation func(Violation)
	// OnChange runs after every transition that changed the observable state.
	OnChange func(Snapshot)

	Now func() time.Time
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Monitor is the effectful shell around Apply. It owns listener registration
// and runs effects outside its lock so that callbacks may re-enter it.
type Monitor struct {
	opts Options
	log  zerolog.Logger

	mu      sync.Mutex
	session Session
	cancels []func()
	gen     uint64
	closed  bool
}

// NewMonitor creates an Inactive monitor. No listener is attached until StartQuiz.
func NewMonitor(opts Options) *Monitor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "quiz_monitor").Logger()
	}
	return &Monitor{
		opts:    opts,
		log:     log,
		session: Session{Status: StatusInactive},
	}
}

// StartQuiz arms a fresh session of the given length and requests fullscreen.
// Calling it again re-arms from scratch.
func (m *Monitor) StartQuiz(minutes int) {
	m.dispatch(0, false, StartEvent{Minutes: minutes})
}

// EndQuiz stops the session. It is idempotent and safe to call from OnFinish.
func (m *Monitor) EndQuiz() {
	m.dispatch(0, false, EndEvent{Reason: ReasonManual})
}

// Snapshot returns the current observable state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Snapshot()
}

// PresentationDenied records that the page refused a fullscreen request.
// It only produces an advisory notice.
func (m *Monitor) PresentationDenied() {
	m.mu.Lock()
	active := !m.closed && m.session.Status == StatusActive
	m.mu.Unlock()

	if active {
		m.notify(Notice{Level: NoticeInfo, Message: MsgFullscreenAdvisory})
	}
}

// Close tears the monitor down: listeners are released and fullscreen is left,
// but OnFinish is not called. The monitor ignores everything afterwards.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.detach()
	held := m.session.Fullscreen
	if m.session.Status == StatusActive {
		m.session.Status = StatusEnded
	}
	m.session.Fullscreen = false
	m.session.Finalized = true
	m.mu.Unlock()

	if held && m.opts.Presenter != nil {
		if err := m.opts.Presenter.ExitFullscreen(); err != nil {
			m.log.Debug().Err(err).Msg("Exit fullscreen on close failed")
		}
	}
}

// dispatch applies ev and runs its effects. When scoped is true the event came
// from a listener of generation gen and is dropped if that listener set has
// since been released. It reports whether the session was Active beforehand.
func (m *Monitor) dispatch(gen uint64, scoped bool, ev Event) bool {
	m.mu.Lock()
	if m.closed || scoped && gen != m.gen {
		m.mu.Unlock()
		return false
	}

	prev := m.session
	next, effects := Apply(prev, ev)
	m.session = next

	deferred := make([]Effect, 0, len(effects))
	for _, fx := range effects {
		switch fx.Kind {
		case EffectSubscribe:
			m.attach()
		case EffectUnsubscribe:
			m.detach()
		default:
			deferred = append(deferred, fx)
		}
	}

	var recorded []Violation
	if next.StrikeCount > prev.StrikeCount {
		recorded = slices.Clone(next.Violations[len(prev.Violations):])
	}
	changed := len(effects) > 0 || prev.RemainingSeconds != next.RemainingSeconds
	snap := next.Snapshot()
	m.mu.Unlock()

	for _, v := range recorded {
		m.log.Info().Str("kind", string(v.Kind)).Int("strikes", snap.StrikeCount).Msg("Violation recorded")
		if m.opts.OnViolation != nil {
			m.opts.OnViolation(v)
		}
	}
	if changed && m.opts.OnChange != nil {
		m.opts.OnChange(snap)
	}
	m.run(deferred, snap)

	return prev.Status == StatusActive
}

func (m *Monitor) run(effects []Effect, snap Snapshot) {
	for _, fx := range effects {
		switch fx.Kind {
		case EffectNotify:
			m.notify(fx.Notice)
		case EffectRequestFullscreen:
			if err := m.requestFullscreen(); err != nil {
				m.log.Debug().Err(err).Msg("Fullscreen request failed")
				m.notify(Notice{Level: NoticeInfo, Message: MsgFullscreenAdvisory})
			}
		case EffectReenterFullscreen:
			if err := m.requestFullscreen(); err != nil {
				m.log.Debug().Err(err).Msg("Could not re-enter fullscreen")
			}
		case EffectExitFullscreen:
			if m.opts.Presenter != nil {
				if err := m.opts.Presenter.ExitFullscreen(); err != nil {
					m.log.Warn().Err(err).Msg("Exit fullscreen failed")
				}
			}
		case EffectFinalize:
			m.log.Info().
				Str("reason", string(fx.Reason)).
				Int("strikes", snap.StrikeCount).
				Bool("disqualified", snap.IsDisqualified).
				Msg("Quiz finalized")
			if m.opts.OnFinish != nil {
				m.opts.OnFinish(Disposition{Snapshot: snap, Reason: fx.Reason})
			}
		}
	}
}

func (m *Monitor) requestFullscreen() error {
	if m.opts.Presenter == nil {
		return nil
	}
	return m.opts.Presenter.RequestFullscreen()
}

func (m *Monitor) notify(n Notice) {
	if m.opts.Notifier != nil {
		m.opts.Notifier.Notify(n)
	}
}

// attach registers the listener set. Caller holds m.mu.
func (m *Monitor) attach() {
	if len(m.cancels) > 0 {
		return
	}
	gen := m.gen
	src := m.opts.Sources

	m.subscribe(src.Visibility, func(sig Signal) bool {
		m.dispatch(gen, true, AwayEvent{Away: sig.Hidden, At: m.at(sig)})
		return false
	})
	m.subscribe(src.Focus, func(sig Signal) bool {
		m.dispatch(gen, true, AwayEvent{Away: !sig.Focused, At: m.at(sig)})
		return false
	})
	m.subscribe(src.ContextMenu, func(sig Signal) bool {
		return m.dispatch(gen, true, ViolationEvent{Kind: KindContextMenu, Message: MsgContextMenu, At: m.at(sig)})
	})
	m.subscribe(src.Keydown, func(sig Signal) bool {
		if !IsBlockedShortcut(sig.Key) {
			return false
		}
		msg := MsgBlockedShortcut + " (" + sig.Key.String() + ")"
		return m.dispatch(gen, true, ViolationEvent{Kind: KindBlockedShortcut, Message: msg, At: m.at(sig)})
	})
	m.subscribe(src.Fullscreen, func(sig Signal) bool {
		m.dispatch(gen, true, FullscreenEvent{Fullscreen: sig.Fullscreen, At: m.at(sig)})
		return false
	})
	m.subscribe(src.Ticker, func(Signal) bool {
		m.dispatch(gen, true, TickEvent{})
		return false
	})
}

func (m *Monitor) subscribe(src Source, h Handler) {
	if src == nil {
		return
	}
	m.cancels = append(m.cancels, src.Subscribe(h))
}

// detach releases the listener set and invalidates its generation. Caller holds m.mu.
func (m *Monitor) detach() {
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
	m.gen++
}

func (m *Monitor) at(sig Signal) time.Time {
	if sig.At.IsZero() {
		return m.opts.Now()
	}
	return sig.At
}
