package service

import (
	"context"
	"database/sql"
	"net/http"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"

	"focusblock/internal/db"
	apperrors "focusblock/internal/errors"
	"focusblock/internal/model"
	"focusblock/internal/repository"
)

type fixture struct {
	sessions     *SessionService
	userID       string
	departmentID string
	projectID    string
}

func setup(t *testing.T) *fixture {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return newFixture(t, database)
}

func newFixture(t *testing.T, database *sql.DB) *fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	userRepo := repository.NewUserRepository(database)
	departmentRepo := repository.NewDepartmentRepository(database)
	projectRepo := repository.NewProjectRepository(database)
	sessionRepo := repository.NewSessionRepository(database)

	user := model.User{ID: uuid.NewString(), Email: "worker@example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	if err := userRepo.Create(ctx, &user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	department := model.Department{ID: uuid.NewString(), UserID: user.ID, Name: "Engineering", CreatedAt: now, UpdatedAt: now}
	if err := departmentRepo.Create(ctx, &department); err != nil {
		t.Fatalf("create department: %v", err)
	}

	project := model.Project{ID: uuid.NewString(), UserID: user.ID, DepartmentID: department.ID, Code: "CORE", Name: "Core platform", CreatedAt: now, UpdatedAt: now}
	if err := projectRepo.Create(ctx, &project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	return &fixture{
		sessions:     NewSessionService(sessionRepo, departmentRepo, projectRepo),
		userID:       user.ID,
		departmentID: department.ID,
		projectID:    project.ID,
	}
}

func (f *fixture) start(t *testing.T) *model.Session {
	t.Helper()
	session, apiErr := f.sessions.Start(context.Background(), f.userID, StartInput{
		DepartmentID:    f.departmentID,
		ProjectID:       f.projectID,
		DurationMinutes: 25,
		PlannedTitle:    "write the report",
	})
	if apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}
	return session
}

func TestStartRejectsSecondActiveSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.start(t)

	_, apiErr := f.sessions.Start(ctx, f.userID, StartInput{
		DepartmentID:    f.departmentID,
		ProjectID:       f.projectID,
		DurationMinutes: 25,
		PlannedTitle:    "second block",
	})
	if apiErr == nil || apiErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", apiErr)
	}

	// Still rejected while the first session is merely paused.
	if _, pauseErr := f.sessions.Pause(ctx, f.userID, first.ID); pauseErr != nil {
		t.Fatalf("pause: %v", pauseErr)
	}
	_, apiErr = f.sessions.Start(ctx, f.userID, StartInput{
		DepartmentID:    f.departmentID,
		ProjectID:       f.projectID,
		DurationMinutes: 25,
		PlannedTitle:    "third block",
	})
	if apiErr == nil || apiErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict for paused session, got %v", apiErr)
	}

	// After cancel the guard opens again.
	if _, cancelErr := f.sessions.Cancel(ctx, f.userID, first.ID); cancelErr != nil {
		t.Fatalf("cancel: %v", cancelErr)
	}
	if _, apiErr = f.sessions.Start(ctx, f.userID, StartInput{
		DepartmentID:    f.departmentID,
		ProjectID:       f.projectID,
		DurationMinutes: 25,
		PlannedTitle:    "fresh block",
	}); apiErr != nil {
		t.Fatalf("start after cancel: %v", apiErr)
	}
}

func TestStartValidatesInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input StartInput
	}{
		{"empty title", StartInput{DepartmentID: f.departmentID, ProjectID: f.projectID, DurationMinutes: 25}},
		{"bad duration", StartInput{DepartmentID: f.departmentID, ProjectID: f.projectID, DurationMinutes: 7, PlannedTitle: "x"}},
		{"unknown department", StartInput{DepartmentID: uuid.NewString(), ProjectID: f.projectID, DurationMinutes: 25, PlannedTitle: "x"}},
		{"unknown project", StartInput{DepartmentID: f.departmentID, ProjectID: uuid.NewString(), DurationMinutes: 25, PlannedTitle: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, apiErr := f.sessions.Start(ctx, f.userID, tc.input)
			if apiErr == nil || apiErr.Code != apperrors.CodeInvalidInput {
				t.Fatalf("expected invalid_input, got %v", apiErr)
			}
		})
	}
}

func TestPauseResumeAccounting(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	session := f.start(t)

	paused, apiErr := f.sessions.Pause(ctx, f.userID, session.ID)
	if apiErr != nil {
		t.Fatalf("pause: %v", apiErr)
	}
	if paused.Status != model.StatusPaused || paused.PausedAt == nil {
		t.Fatalf("unexpected paused state: %+v", paused)
	}

	// Pausing twice violates the guard.
	if _, apiErr = f.sessions.Pause(ctx, f.userID, session.ID); apiErr == nil || apiErr.Code != apperrors.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition on double pause, got %v", apiErr)
	}

	resumed, apiErr := f.sessions.Resume(ctx, f.userID, session.ID)
	if apiErr != nil {
		t.Fatalf("resume: %v", apiErr)
	}
	if resumed.Status != model.StatusRunning || resumed.PausedAt != nil {
		t.Fatalf("unexpected resumed state: %+v", resumed)
	}
	if resumed.PausedTotalSeconds < 0 {
		t.Fatalf("negative pause accumulator: %d", resumed.PausedTotalSeconds)
	}

	// Resuming a running session violates the guard.
	if _, apiErr = f.sessions.Resume(ctx, f.userID, session.ID); apiErr == nil || apiErr.Code != apperrors.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition on double resume, got %v", apiErr)
	}
}

func TestCancelWhilePausedFoldsOpenPauseOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	session := f.start(t)
	if _, apiErr := f.sessions.Pause(ctx, f.userID, session.ID); apiErr != nil {
		t.Fatalf("pause: %v", apiErr)
	}

	canceled, apiErr := f.sessions.Cancel(ctx, f.userID, session.ID)
	if apiErr != nil {
		t.Fatalf("cancel: %v", apiErr)
	}
	if canceled.Status != model.StatusCanceled || canceled.CanceledAt == nil {
		t.Fatalf("unexpected canceled state: %+v", canceled)
	}
	if canceled.PausedAt != nil {
		t.Fatal("open pause interval was not folded")
	}
	if canceled.ElapsedSeconds == nil {
		t.Fatal("elapsed_seconds not recorded")
	}

	// elapsed + paused must not exceed wall time between start and
	// cancel; double-counting the open pause would break this.
	wall := int(canceled.CanceledAt.Sub(canceled.StartedAt).Seconds())
	if *canceled.ElapsedSeconds+canceled.PausedTotalSeconds > wall+1 {
		t.Fatalf("pause interval double-counted: elapsed=%d paused=%d wall=%d",
			*canceled.ElapsedSeconds, canceled.PausedTotalSeconds, wall)
	}

	// Terminal: no further transitions.
	if _, apiErr = f.sessions.Cancel(ctx, f.userID, session.ID); apiErr == nil || apiErr.Code != apperrors.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition on second cancel, got %v", apiErr)
	}
}

func TestCompleteOnlyFromRunning(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	session := f.start(t)
	if _, apiErr := f.sessions.Pause(ctx, f.userID, session.ID); apiErr != nil {
		t.Fatalf("pause: %v", apiErr)
	}

	// A paused session must be resumed before completion.
	_, apiErr := f.sessions.Complete(ctx, f.userID, session.ID, CompleteInput{Completed: true})
	if apiErr == nil || apiErr.Code != apperrors.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition for complete-while-paused, got %v", apiErr)
	}

	if _, apiErr = f.sessions.Resume(ctx, f.userID, session.ID); apiErr != nil {
		t.Fatalf("resume: %v", apiErr)
	}

	// Not completed requires an actual title.
	_, apiErr = f.sessions.Complete(ctx, f.userID, session.ID, CompleteInput{Completed: false})
	if apiErr == nil || apiErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected invalid_input without actualTitle, got %v", apiErr)
	}

	completed, apiErr := f.sessions.Complete(ctx, f.userID, session.ID, CompleteInput{
		Completed:   false,
		ActualTitle: "got pulled into a production incident",
		Notes:       "retry tomorrow",
	})
	if apiErr != nil {
		t.Fatalf("complete: %v", apiErr)
	}
	if completed.Status != model.StatusCompletedNo || completed.EndedAt == nil {
		t.Fatalf("unexpected completed state: %+v", completed)
	}
}

func TestGetScopedToOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	session := f.start(t)

	if _, apiErr := f.sessions.Get(ctx, f.userID, session.ID); apiErr != nil {
		t.Fatalf("get: %v", apiErr)
	}

	_, apiErr := f.sessions.Get(ctx, uuid.NewString(), session.ID)
	if apiErr == nil || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected not_found for foreign user, got %v", apiErr)
	}

	_, apiErr = f.sessions.Get(ctx, f.userID, uuid.NewString())
	if apiErr == nil || apiErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected not_found for unknown id, got %v", apiErr)
	}
}
