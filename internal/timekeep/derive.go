// Package timekeep derives remaining and elapsed seconds for a focus
// session from its durable state vector and an explicit wall-clock
// reading. Both functions are pure: callers pass now, nothing here reads
// the clock or keeps state.
package timekeep

import "time"

// State is the minimal vector needed to derive time values. A non-nil
// PausedAt means the session is currently paused and the open pause
// interval is still accumulating.
type State struct {
	StartedAt          time.Time
	PausedAt           *time.Time
	PausedTotalSeconds int
	DurationMinutes    int
}

// Remaining returns the whole seconds left on the countdown, rounded up,
// never negative. Clock skew that puts now before StartedAt yields the
// full duration.
func Remaining(s State, now time.Time) int {
	durationMs := int64(s.DurationMinutes) * 60 * 1000
	remainingMs := durationMs - activeElapsedMillis(s, now)
	if remainingMs <= 0 {
		return 0
	}
	return int((remainingMs + 999) / 1000)
}

// Elapsed returns the whole seconds of active (non-paused) time consumed,
// rounded down, never negative.
func Elapsed(s State, now time.Time) int {
	return int(activeElapsedMillis(s, now) / 1000)
}

func activeElapsedMillis(s State, now time.Time) int64 {
	pausedMs := int64(s.PausedTotalSeconds) * 1000
	if s.PausedAt != nil {
		openPause := now.Sub(*s.PausedAt).Milliseconds()
		if openPause > 0 {
			pausedMs += openPause
		}
	}

	elapsedMs := now.Sub(s.StartedAt).Milliseconds() - pausedMs
	if elapsedMs < 0 {
		return 0
	}
	return elapsedMs
}
