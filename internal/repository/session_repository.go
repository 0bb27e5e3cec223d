package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focusblock/internal/model"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

const sessionColumns = `id, user_id, department_id, project_id, planned_title, actual_title,
	notes, status, duration_minutes, started_at, paused_at, paused_total_seconds,
	elapsed_seconds, ended_at, canceled_at, created_at, updated_at`

func (r *SessionRepository) InsertTx(ctx context.Context, tx *sql.Tx, session *model.Session) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.DepartmentID,
		session.ProjectID,
		session.PlannedTitle,
		nullString(session.ActualTitle),
		nullString(session.Notes),
		session.Status,
		session.DurationMinutes,
		formatTime(session.StartedAt),
		nullTime(session.PausedAt),
		session.PausedTotalSeconds,
		nullInt(session.ElapsedSeconds),
		nullTime(session.EndedAt),
		nullTime(session.CanceledAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) UpdateTx(ctx context.Context, tx *sql.Tx, session *model.Session) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE sessions
		 SET actual_title = ?,
		     notes = ?,
		     status = ?,
		     paused_at = ?,
		     paused_total_seconds = ?,
		     elapsed_seconds = ?,
		     ended_at = ?,
		     canceled_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		nullString(session.ActualTitle),
		nullString(session.Notes),
		session.Status,
		nullTime(session.PausedAt),
		session.PausedTotalSeconds,
		nullInt(session.ElapsedSeconds),
		nullTime(session.EndedAt),
		nullTime(session.CanceledAt),
		formatTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetTx(ctx context.Context, tx *sql.Tx, id string) (*model.Session, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`,
		id,
	)
	return scanSession(row)
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`,
		id,
	)
	return scanSession(row)
}

// GetActiveForUserTx returns the user's running or paused session, if any.
// The start guard relies on there being at most one.
func (r *SessionRepository) GetActiveForUserTx(ctx context.Context, tx *sql.Tx, userID string) (*model.Session, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE user_id = ? AND status IN (?, ?)
		 LIMIT 1`,
		userID,
		model.StatusRunning,
		model.StatusPaused,
	)
	return scanSession(row)
}

func (r *SessionRepository) ListForUser(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE user_id = ?
		 ORDER BY started_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0, limit)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var actualTitle, notes sql.NullString
	var startedAt string
	var pausedAt, endedAt, canceledAt sql.NullString
	var elapsedSeconds sql.NullInt64
	var createdAt, updatedAt string

	err := s.Scan(
		&session.ID,
		&session.UserID,
		&session.DepartmentID,
		&session.ProjectID,
		&session.PlannedTitle,
		&actualTitle,
		&notes,
		&session.Status,
		&session.DurationMinutes,
		&startedAt,
		&pausedAt,
		&session.PausedTotalSeconds,
		&elapsedSeconds,
		&endedAt,
		&canceledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if actualTitle.Valid {
		value := actualTitle.String
		session.ActualTitle = &value
	}
	if notes.Valid {
		value := notes.String
		session.Notes = &value
	}
	if elapsedSeconds.Valid {
		value := int(elapsedSeconds.Int64)
		session.ElapsedSeconds = &value
	}

	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	if session.PausedAt, err = parseNullTime(pausedAt); err != nil {
		return nil, fmt.Errorf("parse session paused_at: %w", err)
	}
	if session.EndedAt, err = parseNullTime(endedAt); err != nil {
		return nil, fmt.Errorf("parse session ended_at: %w", err)
	}
	if session.CanceledAt, err = parseNullTime(canceledAt); err != nil {
		return nil, fmt.Errorf("parse session canceled_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}

	return &session, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}
