package quizsecurity

import (
	"slices"
	"time"
)

// Event is an input to the state machine. The concrete types are StartEvent,
// EndEvent, TickEvent, ViolationEvent, AwayEvent and FullscreenEvent.
type Event interface {
	isEvent()
}

// StartEvent arms a fresh session. Minutes <= 0 falls back to DefaultMinutes
// and anything above MaxMinutes is capped.
type StartEvent struct {
	Minutes int
}

// EndEvent stops the session. Reason is ReasonManual when zero.
type EndEvent struct {
	Reason FinishReason
}

// TickEvent is one second of countdown.
type TickEvent struct{}

// ViolationEvent reports a suspected cheating action.
type ViolationEvent struct {
	Kind    ViolationKind
	Message string
	At      time.Time
}

// AwayEvent reports that the page was hidden or lost focus (Away) or came
// back to the foreground.
type AwayEvent struct {
	Away bool
	At   time.Time
}

// FullscreenEvent reports the page's current presentation state.
type FullscreenEvent struct {
	Fullscreen bool
	At         time.Time
}

func (StartEvent) isEvent()      {}
func (EndEvent) isEvent()        {}
func (TickEvent) isEvent()       {}
func (ViolationEvent) isEvent()  {}
func (AwayEvent) isEvent()       {}
func (FullscreenEvent) isEvent() {}

// EffectKind enumerates side effects requested by a transition.
type EffectKind string

const (
	EffectSubscribe         EffectKind = "subscribe"
	EffectUnsubscribe       EffectKind = "unsubscribe"
	EffectRequestFullscreen EffectKind = "request_fullscreen"
	EffectReenterFullscreen EffectKind = "reenter_fullscreen"
	EffectExitFullscreen    EffectKind = "exit_fullscreen"
	EffectNotify            EffectKind = "notify"
	EffectFinalize          EffectKind = "finalize"
)

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is an advisory message for the quiz taker.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Effect is a side effect the shell must carry out after a transition.
// Notice is set for EffectNotify, Reason for EffectFinalize.
type Effect struct {
	Kind   EffectKind
	Notice Notice
	Reason FinishReason
}

// Notice texts shown to the quiz taker.
const (
	MsgFirstWarning       = "1st Warning: Do not leave the test!"
	MsgFinalWarning       = "2nd Warning: One more violation = ZERO score!"
	MsgDisqualified       = "You have been disqualified due to violations!"
	MsgFullscreenAdvisory = "Please allow fullscreen for the best experience"
)

// Violation descriptions per channel.
const (
	MsgTabSwitch       = "User switched tabs or minimized window"
	MsgBlockedShortcut = "Attempted to use blocked keyboard shortcut"
	MsgContextMenu     = "Attempted to open the context menu"
	MsgFullscreenExit  = "Exited fullscreen mode"
)

// Apply computes the session that follows ev and the effects the shell must run.
// It is pure: s is never modified and nothing outside the return values changes.
func Apply(s Session, ev Event) (Session, []Effect) {
	switch e := ev.(type) {
	case StartEvent:
		return start(s, e)
	case EndEvent:
		reason := e.Reason
		if reason == "" {
			reason = ReasonManual
		}
		return finish(s, reason)
	case TickEvent:
		return tick(s)
	case ViolationEvent:
		return violate(s, e)
	case AwayEvent:
		return awayChanged(s, e)
	case FullscreenEvent:
		return fullscreenChanged(s, e)
	default:
		return s, nil
	}
}

func start(s Session, e StartEvent) (Session, []Effect) {
	minutes := e.Minutes
	if minutes <= 0 {
		minutes = DefaultMinutes
	}
	minutes = min(minutes, MaxMinutes)

	var effects []Effect
	if s.Status != StatusActive {
		effects = append(effects, Effect{Kind: EffectSubscribe})
	}
	effects = append(effects, Effect{Kind: EffectRequestFullscreen})

	return Session{
		Status:           StatusActive,
		RemainingSeconds: minutes * 60,
		Fullscreen:       s.Fullscreen,
	}, effects
}

func tick(s Session) (Session, []Effect) {
	if s.Status != StatusActive || s.RemainingSeconds <= 0 {
		return s, nil
	}
	s.RemainingSeconds--
	if s.RemainingSeconds > 0 {
		return s, nil
	}
	return finish(s, ReasonTimeExpired)
}

func violate(s Session, e ViolationEvent) (Session, []Effect) {
	if s.Status != StatusActive {
		return s, nil
	}

	at := e.At
	if n := len(s.Violations); n > 0 && at.Before(s.Violations[n-1].Timestamp) {
		at = s.Violations[n-1].Timestamp
	}
	msg := e.Message
	if msg == "" {
		msg = defaultMessage(e.Kind)
	}

	s.Violations = append(slices.Clip(s.Violations), Violation{Kind: e.Kind, Message: msg, Timestamp: at})
	s.StrikeCount++

	switch {
	case s.StrikeCount == 1:
		return s, []Effect{notify(NoticeWarning, MsgFirstWarning)}
	case s.StrikeCount < StrikeLimit:
		return s, []Effect{notify(NoticeWarning, MsgFinalWarning)}
	}

	s.Status = StatusDisqualified
	s.DisqualificationReason = DisqualificationReason
	next, effects := finish(s, ReasonDisqualified)
	return next, append([]Effect{notify(NoticeError, MsgDisqualified)}, effects...)
}

func awayChanged(s Session, e AwayEvent) (Session, []Effect) {
	wasAway := s.Away
	s.Away = e.Away
	if !e.Away || wasAway || s.Status != StatusActive {
		return s, nil
	}
	return violate(s, ViolationEvent{Kind: KindTabSwitch, Message: MsgTabSwitch, At: e.At})
}

func fullscreenChanged(s Session, e FullscreenEvent) (Session, []Effect) {
	wasFullscreen := s.Fullscreen
	s.Fullscreen = e.Fullscreen
	if e.Fullscreen || !wasFullscreen || s.Status != StatusActive {
		return s, nil
	}

	next, effects := violate(s, ViolationEvent{Kind: KindFullscreenExit, Message: MsgFullscreenExit, At: e.At})
	if next.Status == StatusActive {
		effects = append(effects, Effect{Kind: EffectReenterFullscreen})
	}
	return next, effects
}

// finish moves the session out of Active. Disqualified is kept as the terminal
// explanation. Finalize is emitted only while the latch is open.
func finish(s Session, reason FinishReason) (Session, []Effect) {
	if s.Status == StatusInactive {
		return s, nil
	}
	if s.Status != StatusActive && s.Finalized {
		return s, nil
	}

	if s.Status == StatusActive {
		s.Status = StatusEnded
	}

	effects := []Effect{{Kind: EffectUnsubscribe}}
	if s.Fullscreen {
		effects = append(effects, Effect{Kind: EffectExitFullscreen})
		s.Fullscreen = false
	}
	if !s.Finalized {
		s.Finalized = true
		effects = append(effects, Effect{Kind: EffectFinalize, Reason: reason})
	}
	return s, effects
}

func notify(level NoticeLevel, msg string) Effect {
	return Effect{Kind: EffectNotify, Notice: Notice{Level: level, Message: msg}}
}

func defaultMessage(kind ViolationKind) string {
	switch kind {
	case KindTabSwitch:
		return MsgTabSwitch
	case KindBlockedShortcut:
		return MsgBlockedShortcut
	case KindContextMenu:
		return MsgContextMenu
	case KindFullscreenExit:
		return MsgFullscreenExit
	default:
		return string(kind)
	}
}
