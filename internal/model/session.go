package model

import "time"

const (
	StatusRunning      = "running"
	StatusPaused       = "paused"
	StatusCompletedYes = "completed_yes"
	StatusCompletedNo  = "completed_no"
	StatusCanceled     = "canceled"
)

const MaxTitleLength = 200

// DurationChoices are the only countdown lengths a session may be created
// with, in minutes.
var DurationChoices = []int{15, 25, 30, 45, 60, 90}

func IsValidDuration(minutes int) bool {
	for _, choice := range DurationChoices {
		if minutes == choice {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a session status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusCompletedYes || status == StatusCompletedNo || status == StatusCanceled
}

type Session struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	DepartmentID       string     `json:"departmentId"`
	ProjectID          string     `json:"projectId"`
	PlannedTitle       string     `json:"plannedTitle"`
	ActualTitle        *string    `json:"actualTitle,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	Status             string     `json:"status"`
	DurationMinutes    int        `json:"durationMinutes"`
	StartedAt          time.Time  `json:"startedAt"`
	PausedAt           *time.Time `json:"pausedAt,omitempty"`
	PausedTotalSeconds int        `json:"pausedTotalSeconds"`
	ElapsedSeconds     *int       `json:"elapsedSeconds,omitempty"`
	EndedAt            *time.Time `json:"endedAt,omitempty"`
	CanceledAt         *time.Time `json:"canceledAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}
