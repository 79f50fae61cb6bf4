package quizsecurity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effects))
	for _, fx := range effects {
		out = append(out, fx.Kind)
	}
	return out
}

func countFinalize(effects []Effect) int {
	n := 0
	for _, fx := range effects {
		if fx.Kind == EffectFinalize {
			n++
		}
	}
	return n
}

func active(t *testing.T, minutes int) Session {
	t.Helper()
	s, _ := Apply(Session{Status: StatusInactive}, StartEvent{Minutes: minutes})
	require.Equal(t, StatusActive, s.Status)
	return s
}

func TestApplyStart(t *testing.T) {
	s, fx := Apply(Session{Status: StatusInactive}, StartEvent{Minutes: 30})

	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, 1800, s.RemainingSeconds)
	assert.Empty(t, s.Violations)
	assert.Zero(t, s.StrikeCount)
	assert.Empty(t, s.DisqualificationReason)
	assert.Equal(t, []EffectKind{EffectSubscribe, EffectRequestFullscreen}, kinds(fx))
}

func TestApplyStartDefaultsDuration(t *testing.T) {
	s, _ := Apply(Session{}, StartEvent{})
	assert.Equal(t, DefaultMinutes*60, s.RemainingSeconds)

	s, _ = Apply(Session{}, StartEvent{Minutes: -4})
	assert.Equal(t, DefaultMinutes*60, s.RemainingSeconds)
}

func TestApplyStartCapsDuration(t *testing.T) {
	for _, minutes := range []int{MaxMinutes + 1, math.MaxInt/60 + 1, math.MaxInt} {
		s, _ := Apply(Session{}, StartEvent{Minutes: minutes})
		require.Equal(t, MaxMinutes*60, s.RemainingSeconds, minutes)

		s, _ = Apply(s, TickEvent{})
		assert.Equal(t, MaxMinutes*60-1, s.RemainingSeconds, minutes)
	}
}

func TestApplyRestartWhileActiveDoesNotResubscribe(t *testing.T) {
	s := active(t, 10)
	s, _ = Apply(s, ViolationEvent{Kind: KindTabSwitch, At: time.Now()})
	require.Equal(t, 1, s.StrikeCount)

	s, fx := Apply(s, StartEvent{Minutes: 5})
	assert.Equal(t, []EffectKind{EffectRequestFullscreen}, kinds(fx))
	assert.Equal(t, 300, s.RemainingSeconds)
	assert.Zero(t, s.StrikeCount)
	assert.Empty(t, s.Violations)
}

func TestApplyRestartAfterDisqualificationResetsLatch(t *testing.T) {
	s := active(t, 1)
	for i := 0; i < StrikeLimit; i++ {
		s, _ = Apply(s, ViolationEvent{Kind: KindContextMenu, At: time.Now()})
	}
	require.Equal(t, StatusDisqualified, s.Status)
	require.True(t, s.Finalized)

	s, fx := Apply(s, StartEvent{Minutes: 1})
	assert.Equal(t, StatusActive, s.Status)
	assert.False(t, s.Finalized)
	assert.Empty(t, s.DisqualificationReason)
	assert.Equal(t, []EffectKind{EffectSubscribe, EffectRequestFullscreen}, kinds(fx))
}

func TestApplyThreeStrikePolicy(t *testing.T) {
	s := active(t, 30)
	now := time.Now()

	s, fx := Apply(s, ViolationEvent{Kind: KindContextMenu, At: now})
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, 1, s.StrikeCount)
	require.Len(t, fx, 1)
	assert.Equal(t, Notice{Level: NoticeWarning, Message: MsgFirstWarning}, fx[0].Notice)

	s, fx = Apply(s, ViolationEvent{Kind: KindTabSwitch, At: now.Add(time.Second)})
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, 2, s.StrikeCount)
	require.Len(t, fx, 1)
	assert.Equal(t, Notice{Level: NoticeWarning, Message: MsgFinalWarning}, fx[0].Notice)

	s, fx = Apply(s, ViolationEvent{Kind: KindBlockedShortcut, At: now.Add(2 * time.Second)})
	assert.Equal(t, StatusDisqualified, s.Status)
	assert.Equal(t, 3, s.StrikeCount)
	assert.Equal(t, DisqualificationReason, s.DisqualificationReason)
	assert.Equal(t, []EffectKind{EffectNotify, EffectUnsubscribe, EffectFinalize}, kinds(fx))
	assert.Equal(t, NoticeError, fx[0].Notice.Level)
	assert.Equal(t, ReasonDisqualified, fx[2].Reason)
}

func TestApplyStrikeCountMatchesViolations(t *testing.T) {
	s := active(t, 30)
	evs := []ViolationKind{KindTabSwitch, KindFullscreenExit, KindContextMenu, KindTabSwitch, KindBlockedShortcut}

	for i, k := range evs {
		s, _ = Apply(s, ViolationEvent{Kind: k, At: time.Now()})
		want := i + 1
		if want > StrikeLimit {
			want = StrikeLimit
		}
		assert.Equal(t, want, s.StrikeCount)
		assert.Len(t, s.Violations, s.StrikeCount)
	}
	assert.Equal(t, StatusDisqualified, s.Status)
}

func TestApplyViolationDefaultsMessageAndClampsTime(t *testing.T) {
	s := active(t, 30)
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s, _ = Apply(s, ViolationEvent{Kind: KindTabSwitch, At: t0})
	s, _ = Apply(s, ViolationEvent{Kind: KindContextMenu, At: t0.Add(-time.Minute)})

	require.Len(t, s.Violations, 2)
	assert.Equal(t, MsgTabSwitch, s.Violations[0].Message)
	assert.Equal(t, MsgContextMenu, s.Violations[1].Message)
	assert.Equal(t, t0, s.Violations[1].Timestamp)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := active(t, 30)
	s, _ = Apply(s, ViolationEvent{Kind: KindTabSwitch, At: time.Now()})
	before := s.Snapshot()

	_, _ = Apply(s, ViolationEvent{Kind: KindContextMenu, At: time.Now()})
	_, _ = Apply(s, TickEvent{})

	assert.Equal(t, before, s.Snapshot())
}

func TestApplyIgnoresEventsOutsideActive(t *testing.T) {
	for _, st := range []Status{StatusInactive, StatusEnded, StatusDisqualified} {
		s := Session{Status: st, RemainingSeconds: 10, Finalized: st != StatusInactive}

		next, fx := Apply(s, ViolationEvent{Kind: KindTabSwitch, At: time.Now()})
		assert.Equal(t, s.Snapshot(), next.Snapshot(), st)
		assert.Empty(t, fx, st)

		next, fx = Apply(s, TickEvent{})
		assert.Equal(t, 10, next.RemainingSeconds, st)
		assert.Empty(t, fx, st)
	}
}

func TestApplyTickCountdown(t *testing.T) {
	s := active(t, 1)
	finalizes := 0

	for i := 1; i <= 60; i++ {
		var fx []Effect
		s, fx = Apply(s, TickEvent{})
		finalizes += countFinalize(fx)
		assert.Equal(t, 60-i, s.RemainingSeconds)
	}

	assert.Equal(t, 1, finalizes)
	assert.Equal(t, StatusEnded, s.Status)
	assert.False(t, s.Snapshot().IsDisqualified)

	s, fx := Apply(s, TickEvent{})
	assert.Zero(t, s.RemainingSeconds)
	assert.Empty(t, fx)
}

func TestApplyTimeExpiryReason(t *testing.T) {
	s := active(t, 1)
	s.RemainingSeconds = 1

	_, fx := Apply(s, TickEvent{})
	assert.Equal(t, []EffectKind{EffectUnsubscribe, EffectFinalize}, kinds(fx))
	assert.Equal(t, ReasonTimeExpired, fx[1].Reason)
}

func TestApplyCompetingFinalizeTriggers(t *testing.T) {
	s := active(t, 1)
	s, _ = Apply(s, ViolationEvent{Kind: KindTabSwitch, At: time.Now()})
	s, _ = Apply(s, ViolationEvent{Kind: KindTabSwitch, At: time.Now()})
	s.RemainingSeconds = 1

	// Tick first, then the threshold violation.
	a, fx1 := Apply(s, TickEvent{})
	a, fx2 := Apply(a, ViolationEvent{Kind: KindContextMenu, At: time.Now()})
	assert.Equal(t, 1, countFinalize(fx1)+countFinalize(fx2))
	assert.Equal(t, StatusEnded, a.Status)

	// Violation first, then the tick.
	b, fx1 := Apply(s, ViolationEvent{Kind: KindContextMenu, At: time.Now()})
	b, fx2 = Apply(b, TickEvent{})
	assert.Equal(t, 1, countFinalize(fx1)+countFinalize(fx2))
	assert.Equal(t, StatusDisqualified, b.Status)
	assert.Equal(t, 1, b.RemainingSeconds)
}

func TestApplyEndIsIdempotent(t *testing.T) {
	s := active(t, 30)

	s, fx := Apply(s, EndEvent{})
	assert.Equal(t, StatusEnded, s.Status)
	assert.Equal(t, 1, countFinalize(fx))
	assert.Equal(t, ReasonManual, fx[len(fx)-1].Reason)

	s2, fx := Apply(s, EndEvent{})
	assert.Equal(t, s.Snapshot(), s2.Snapshot())
	assert.Empty(t, fx)
}

func TestApplyEndPreservesDisqualified(t *testing.T) {
	s := active(t, 30)
	s.Fullscreen = true
	for i := 0; i < StrikeLimit; i++ {
		s, _ = Apply(s, ViolationEvent{Kind: KindTabSwitch, At: time.Now()})
	}

	s, fx := Apply(s, EndEvent{})
	assert.Equal(t, StatusDisqualified, s.Status)
	assert.Equal(t, DisqualificationReason, s.DisqualificationReason)
	assert.Empty(t, fx)
}

func TestApplyEndOnInactiveIsNoop(t *testing.T) {
	s, fx := Apply(Session{Status: StatusInactive}, EndEvent{})
	assert.Equal(t, StatusInactive, s.Status)
	assert.Empty(t, fx)
}

func TestApplyEndReleasesFullscreen(t *testing.T) {
	s := active(t, 30)
	s, _ = Apply(s, FullscreenEvent{Fullscreen: true})

	s, fx := Apply(s, EndEvent{})
	assert.Equal(t, []EffectKind{EffectUnsubscribe, EffectExitFullscreen, EffectFinalize}, kinds(fx))
	assert.False(t, s.Fullscreen)
}

func TestApplyFullscreenExit(t *testing.T) {
	s := active(t, 30)

	s, fx := Apply(s, FullscreenEvent{Fullscreen: true})
	assert.True(t, s.Fullscreen)
	assert.Empty(t, fx)

	s, fx = Apply(s, FullscreenEvent{Fullscreen: false, At: time.Now()})
	assert.False(t, s.Fullscreen)
	require.Len(t, s.Violations, 1)
	assert.Equal(t, KindFullscreenExit, s.Violations[0].Kind)
	assert.Equal(t, []EffectKind{EffectNotify, EffectReenterFullscreen}, kinds(fx))
}

func TestApplyFullscreenExitWithoutEntryIgnored(t *testing.T) {
	s := active(t, 30)

	s, fx := Apply(s, FullscreenEvent{Fullscreen: false})
	assert.Zero(t, s.StrikeCount)
	assert.Empty(t, fx)
}

func TestApplyFullscreenExitThatDisqualifiesSkipsReentry(t *testing.T) {
	s := active(t, 30)
	s, _ = Apply(s, ViolationEvent{Kind: KindTabSwitch, At: time.Now()})
	s, _ = Apply(s, ViolationEvent{Kind: KindTabSwitch, At: time.Now()})
	s, _ = Apply(s, FullscreenEvent{Fullscreen: true})

	s, fx := Apply(s, FullscreenEvent{Fullscreen: false, At: time.Now()})
	assert.Equal(t, StatusDisqualified, s.Status)
	assert.NotContains(t, kinds(fx), EffectReenterFullscreen)
	assert.NotContains(t, kinds(fx), EffectExitFullscreen, "the page is no longer fullscreen")
	assert.Equal(t, 1, countFinalize(fx))
}

func TestApplyAwayCountsOncePerDeparture(t *testing.T) {
	s := active(t, 30)

	s, fx := Apply(s, AwayEvent{Away: true, At: time.Now()})
	assert.Equal(t, 1, s.StrikeCount)
	assert.Equal(t, []EffectKind{EffectNotify}, kinds(fx))

	s, fx = Apply(s, AwayEvent{Away: true, At: time.Now()})
	assert.Equal(t, 1, s.StrikeCount)
	assert.Empty(t, fx)

	s, fx = Apply(s, AwayEvent{Away: false})
	assert.False(t, s.Away)
	assert.Empty(t, fx)

	s, _ = Apply(s, AwayEvent{Away: true, At: time.Now()})
	assert.Equal(t, 2, s.StrikeCount)
	require.Len(t, s.Violations, 2)
	assert.Equal(t, KindTabSwitch, s.Violations[1].Kind)
	assert.Equal(t, MsgTabSwitch, s.Violations[1].Message)
}

func TestApplyAwayBeforeStartIsForgotten(t *testing.T) {
	s, _ := Apply(Session{}, AwayEvent{Away: true})
	assert.Zero(t, s.StrikeCount)

	s, _ = Apply(s, StartEvent{Minutes: 30})
	assert.False(t, s.Away)
	s, _ = Apply(s, AwayEvent{Away: true, At: time.Now()})
	assert.Equal(t, 1, s.StrikeCount)
}

func TestApplyScenarioMixedChannels(t *testing.T) {
	s, _ := Apply(Session{}, StartEvent{Minutes: 30})
	require.Equal(t, 1800, s.RemainingSeconds)
	s, _ = Apply(s, FullscreenEvent{Fullscreen: true})

	s, _ = Apply(s, ViolationEvent{Kind: KindContextMenu, At: time.Now()})
	require.Len(t, s.Violations, 1)
	assert.Equal(t, KindContextMenu, s.Violations[0].Kind)
	assert.Equal(t, StatusActive, s.Status)

	s, _ = Apply(s, ViolationEvent{Kind: KindTabSwitch, At: time.Now()})
	assert.Equal(t, 2, s.StrikeCount)
	assert.Equal(t, StatusActive, s.Status)

	s, fx := Apply(s, FullscreenEvent{Fullscreen: false, At: time.Now()})
	assert.Equal(t, 3, s.StrikeCount)
	assert.Equal(t, StatusDisqualified, s.Status)
	assert.NotEmpty(t, s.DisqualificationReason)
	assert.Equal(t, 1, countFinalize(fx))
}
