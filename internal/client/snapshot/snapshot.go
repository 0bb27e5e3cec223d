// Package snapshot persists the client's mirror of the active session in
// a single durable slot on disk. The file is the unit of crash and reload
// recovery, and the write is what other tabs observe through the change
// notification.
package snapshot

import (
	"time"

	"focusblock/internal/timekeep"
)

// Client-side statuses. finished is display-only: the countdown reached
// zero but the user has not recorded an outcome yet; the server still
// sees the session as running.
const (
	StatusIdle     = "idle"
	StatusRunning  = "running"
	StatusPaused   = "paused"
	StatusFinished = "finished"
)

type Snapshot struct {
	SessionID          string     `json:"sessionId"`
	DepartmentID       string     `json:"departmentId"`
	DepartmentName     string     `json:"departmentName"`
	ProjectID          string     `json:"projectId"`
	ProjectCode        string     `json:"projectCode"`
	ProjectName        string     `json:"projectName"`
	PlannedTitle       string     `json:"plannedTitle"`
	DurationMinutes    int        `json:"durationMinutes"`
	StartedAt          time.Time  `json:"startedAt"`
	PausedAt           *time.Time `json:"pausedAt,omitempty"`
	PausedTotalSeconds int        `json:"pausedTotalSeconds"`
	Status             string     `json:"status"`
}

// Active reports whether the snapshot describes a timer that should be
// ticking (running) or could resume (paused).
func (s *Snapshot) Active() bool {
	return s != nil && (s.Status == StatusRunning || s.Status == StatusPaused)
}

// Vector extracts the state needed for time derivation. The open pause
// interval is only counted while the snapshot says paused.
func (s *Snapshot) Vector() timekeep.State {
	state := timekeep.State{
		StartedAt:          s.StartedAt,
		PausedTotalSeconds: s.PausedTotalSeconds,
		DurationMinutes:    s.DurationMinutes,
	}
	if s.Status == StatusPaused {
		state.PausedAt = s.PausedAt
	}
	return state
}
