// Package quizsecurity implements the anti-cheating monitor that runs alongside a
// timed quiz: it counts strikes reported by the page, disqualifies on the third one,
// drives the countdown and hands a single final disposition to the host.
//
// The browser is the source of every signal. Nothing here prevents a determined
// user from lying about its own page state.
package quizsecurity

import (
	"slices"
	"time"
)

// Status enumerates quiz session lifecycle states.
type Status string

const (
	StatusInactive     Status = "INACTIVE"
	StatusActive       Status = "ACTIVE"
	StatusDisqualified Status = "DISQUALIFIED"
	StatusEnded        Status = "ENDED"
)

// ViolationKind identifies which monitored channel produced a strike.
type ViolationKind string

const (
	KindTabSwitch       ViolationKind = "TAB_SWITCH"
	KindBlockedShortcut ViolationKind = "BLOCKED_SHORTCUT"
	KindContextMenu     ViolationKind = "CONTEXT_MENU"
	KindFullscreenExit  ViolationKind = "FULLSCREEN_EXIT"
)

// Violation is a single recorded strike.
type Violation struct {
	Kind      ViolationKind `json:"kind"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

// FinishReason tells the host why a session was finalized.
type FinishReason string

const (
	ReasonManual       FinishReason = "manual"
	ReasonTimeExpired  FinishReason = "time_expired"
	ReasonDisqualified FinishReason = "disqualified"
)

const (
	// DefaultMinutes is used when StartQuiz receives a non-positive duration.
	DefaultMinutes = 30

	// MaxMinutes caps the duration a session can be armed with.
	MaxMinutes = 24 * 60

	// StrikeLimit is the number of violations that disqualifies a session.
	StrikeLimit = 3

	// DisqualificationReason is the fixed explanation stored on disqualification.
	DisqualificationReason = "Three security violations (3 strikes rule)"
)

// Session is the in-memory quiz session state. It is a value type: Apply returns
// a new Session and never mutates the one it was given.
type Session struct {
	Status                 Status
	RemainingSeconds       int
	Violations             []Violation
	StrikeCount            int
	DisqualificationReason string

	// Fullscreen reflects the last presentation state reported by the page.
	Fullscreen bool

	// Away is set while the page is hidden or unfocused. Hidden and blur
	// usually arrive together for one tab switch, so only the transition
	// into Away is a strike.
	Away bool

	// Finalized is the one-shot latch for the finish callback. It is reset
	// only by a fresh Start.
	Finalized bool
}

// Snapshot is the read-only view of a session handed to hosts.
type Snapshot struct {
	Status                 Status      `json:"status"`
	IsQuizActive           bool        `json:"is_quiz_active"`
	RemainingSeconds       int         `json:"remaining_seconds"`
	TimeRemaining          string      `json:"time_remaining"`
	Violations             []Violation `json:"violations"`
	StrikeCount            int         `json:"strike_count"`
	WarningCount           int         `json:"warning_count"`
	IsDisqualified         bool        `json:"is_disqualified"`
	DisqualificationReason string      `json:"disqualification_reason,omitempty"`
}

// Disposition is what the finish callback receives exactly once per session.
type Disposition struct {
	Snapshot
	Reason FinishReason `json:"reason"`
}

// Snapshot returns a copy of s safe to share across goroutines.
func (s Session) Snapshot() Snapshot {
	violations := slices.Clone(s.Violations)
	if violations == nil {
		violations = []Violation{}
	}
	return Snapshot{
		Status:                 s.Status,
		IsQuizActive:           s.Status == StatusActive,
		RemainingSeconds:       s.RemainingSeconds,
		TimeRemaining:          FormatTime(s.RemainingSeconds),
		Violations:             violations,
		StrikeCount:            s.StrikeCount,
		WarningCount:           s.StrikeCount,
		IsDisqualified:         s.Status == StatusDisqualified,
		DisqualificationReason: s.DisqualificationReason,
	}
}
