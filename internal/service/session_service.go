package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "focusblock/internal/errors"
	"focusblock/internal/model"
	"focusblock/internal/repository"
)

// SessionService owns the session state machine. Every transition stamps
// the server clock at the instant of the request; client timestamps are
// never trusted for accounting.
type SessionService struct {
	sessions    *repository.SessionRepository
	departments *repository.DepartmentRepository
	projects    *repository.ProjectRepository
}

type StartInput struct {
	DepartmentID    string
	ProjectID       string
	DurationMinutes int
	PlannedTitle    string
}

type CompleteInput struct {
	Completed   bool
	ActualTitle string
	Notes       string
}

func NewSessionService(
	sessions *repository.SessionRepository,
	departments *repository.DepartmentRepository,
	projects *repository.ProjectRepository,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		departments: departments,
		projects:    projects,
	}
}

// Start creates a running session. The guard: a user with a running or
// paused session cannot start another one.
func (s *SessionService) Start(ctx context.Context, userID string, input StartInput) (*model.Session, *apperrors.APIError) {
	now := time.Now().UTC()

	title := strings.TrimSpace(input.PlannedTitle)
	if title == "" {
		return nil, apperrors.InvalidInput("plannedTitle is required")
	}
	if len(title) > model.MaxTitleLength {
		return nil, apperrors.InvalidInput("plannedTitle must be at most 200 characters")
	}
	if !model.IsValidDuration(input.DurationMinutes) {
		return nil, apperrors.InvalidInput("durationMinutes must be one of 15, 25, 30, 45, 60, 90")
	}

	if _, err := s.departments.GetForUser(ctx, userID, input.DepartmentID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.InvalidInput("unknown department")
		}
		return nil, apperrors.Internal("failed to read department")
	}
	project, err := s.projects.GetForUser(ctx, userID, input.ProjectID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.InvalidInput("unknown project")
		}
		return nil, apperrors.Internal("failed to read project")
	}
	if project.DepartmentID != input.DepartmentID {
		return nil, apperrors.InvalidInput("project does not belong to department")
	}

	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	active, err := s.sessions.GetActiveForUserTx(ctx, tx, userID)
	if err != nil && err != repository.ErrNotFound {
		return nil, apperrors.Internal("failed to check active session")
	}
	if active != nil {
		return nil, apperrors.Conflict("another session is already active", map[string]interface{}{
			"activeSessionId": active.ID,
			"status":          active.Status,
		})
	}

	session := model.Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		DepartmentID:    input.DepartmentID,
		ProjectID:       input.ProjectID,
		PlannedTitle:    title,
		Status:          model.StatusRunning,
		DurationMinutes: input.DurationMinutes,
		StartedAt:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.sessions.InsertTx(ctx, tx, &session); err != nil {
		return nil, apperrors.Internal("failed to create session")
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}
	return &session, nil
}

// Pause stops the active interval: running -> paused, paused_at = now.
func (s *SessionService) Pause(ctx context.Context, userID, sessionID string) (*model.Session, *apperrors.APIError) {
	now := time.Now().UTC()
	return s.transition(ctx, userID, sessionID, func(session *model.Session) *apperrors.APIError {
		if session.Status != model.StatusRunning {
			return invalidTransition("pause", session)
		}
		session.Status = model.StatusPaused
		session.PausedAt = &now
		session.UpdatedAt = now
		return nil
	})
}

// Resume closes the open pause interval, folding it into the accumulator.
func (s *SessionService) Resume(ctx context.Context, userID, sessionID string) (*model.Session, *apperrors.APIError) {
	now := time.Now().UTC()
	return s.transition(ctx, userID, sessionID, func(session *model.Session) *apperrors.APIError {
		if session.Status != model.StatusPaused || session.PausedAt == nil {
			return invalidTransition("resume", session)
		}
		foldOpenPause(session, now)
		session.Status = model.StatusRunning
		session.UpdatedAt = now
		return nil
	})
}

// Cancel ends a running or paused session, recording how much active time
// it consumed. A paused session's open interval is folded exactly once
// before elapsed_seconds is computed.
func (s *SessionService) Cancel(ctx context.Context, userID, sessionID string) (*model.Session, *apperrors.APIError) {
	now := time.Now().UTC()
	return s.transition(ctx, userID, sessionID, func(session *model.Session) *apperrors.APIError {
		if session.Status != model.StatusRunning && session.Status != model.StatusPaused {
			return invalidTransition("cancel", session)
		}
		if session.Status == model.StatusPaused {
			foldOpenPause(session, now)
		}

		elapsed := int(now.Sub(session.StartedAt).Seconds()) - session.PausedTotalSeconds
		if elapsed < 0 {
			elapsed = 0
		}
		session.Status = model.StatusCanceled
		session.ElapsedSeconds = &elapsed
		session.CanceledAt = &now
		session.UpdatedAt = now
		return nil
	})
}

// Complete finalizes a running session. A paused session must be resumed
// first; completing while paused has no sane accounting.
func (s *SessionService) Complete(ctx context.Context, userID, sessionID string, input CompleteInput) (*model.Session, *apperrors.APIError) {
	now := time.Now().UTC()

	actualTitle := strings.TrimSpace(input.ActualTitle)
	if !input.Completed && actualTitle == "" {
		return nil, apperrors.InvalidInput("actualTitle is required when the planned work was not completed")
	}
	if len(actualTitle) > model.MaxTitleLength {
		return nil, apperrors.InvalidInput("actualTitle must be at most 200 characters")
	}

	return s.transition(ctx, userID, sessionID, func(session *model.Session) *apperrors.APIError {
		if session.Status != model.StatusRunning {
			return invalidTransition("complete", session)
		}
		if input.Completed {
			session.Status = model.StatusCompletedYes
		} else {
			session.Status = model.StatusCompletedNo
		}
		if actualTitle != "" {
			session.ActualTitle = &actualTitle
		}
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			session.Notes = &notes
		}
		session.EndedAt = &now
		session.UpdatedAt = now
		return nil
	})
}

// Get is the recovery read: the client reconciles its snapshot against
// the returned status and pause accounting.
func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*model.Session, *apperrors.APIError) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("session not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read session")
	}
	if session.UserID != userID {
		return nil, apperrors.NotFound("session not found")
	}
	return session, nil
}

func (s *SessionService) History(ctx context.Context, userID string, limit int) ([]model.Session, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sessions, err := s.sessions.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to list sessions")
	}
	return sessions, nil
}

// transition loads the session inside a transaction, applies mutate, and
// persists the result. mutate runs against the row as it exists at the
// instant of the request, which is what makes the per-status guards the
// cross-tab consistency boundary.
func (s *SessionService) transition(
	ctx context.Context,
	userID, sessionID string,
	mutate func(*model.Session) *apperrors.APIError,
) (*model.Session, *apperrors.APIError) {
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session, apiErr := s.getForUpdate(ctx, tx, userID, sessionID)
	if apiErr != nil {
		return nil, apiErr
	}

	if apiErr := mutate(session); apiErr != nil {
		return nil, apiErr
	}

	if err := s.sessions.UpdateTx(ctx, tx, session); err != nil {
		return nil, apperrors.Internal("failed to update session")
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}
	return session, nil
}

func (s *SessionService) getForUpdate(ctx context.Context, tx *sql.Tx, userID, sessionID string) (*model.Session, *apperrors.APIError) {
	session, err := s.sessions.GetTx(ctx, tx, sessionID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("session not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read session")
	}
	if session.UserID != userID {
		return nil, apperrors.NotFound("session not found")
	}
	return session, nil
}

func foldOpenPause(session *model.Session, now time.Time) {
	if session.PausedAt == nil {
		return
	}
	additional := int(now.Sub(*session.PausedAt).Seconds())
	if additional > 0 {
		session.PausedTotalSeconds += additional
	}
	session.PausedAt = nil
}

func invalidTransition(op string, session *model.Session) *apperrors.APIError {
	return apperrors.InvalidTransition(
		"cannot "+op+" a "+session.Status+" session",
		map[string]interface{}{"status": session.Status},
	)
}
