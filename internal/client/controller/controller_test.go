package controller_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusblock/internal/client/api"
	"focusblock/internal/client/controller"
	"focusblock/internal/client/coordinator"
	"focusblock/internal/client/snapshot"
	"focusblock/internal/db"
	"focusblock/internal/handler"
	"focusblock/internal/repository"
	"focusblock/internal/router"
	"focusblock/internal/service"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Now().UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type backend struct {
	url          string
	token        string
	departmentID string
	projectID    string
	api          *api.Client
}

var userCounter int

func newBackend(t *testing.T) *backend {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "..", "migrations")
	require.NoError(t, db.RunMigrations(database, migrationsDir))

	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	departmentRepo := repository.NewDepartmentRepository(database)
	projectRepo := repository.NewProjectRepository(database)

	authService := service.NewAuthService(userRepo, "test-secret", time.Hour)
	sessionService := service.NewSessionService(sessionRepo, departmentRepo, projectRepo)
	catalogService := service.NewCatalogService(departmentRepo, projectRepo)

	engine := router.New(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewSessionHandler(sessionService),
		handler.NewCatalogHandler(catalogService),
		nil,
	)
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	userCounter++
	auth, err := api.New(server.URL, "").Register(ctx, fmt.Sprintf("user%d@example.com", userCounter), "123456")
	require.NoError(t, err)

	authed := api.New(server.URL, auth.Token)
	department, err := authed.CreateDepartment(ctx, "Engineering")
	require.NoError(t, err)
	project, err := authed.CreateProject(ctx, department.ID, "CORE", "Core platform")
	require.NoError(t, err)

	return &backend{
		url:          server.URL,
		token:        auth.Token,
		departmentID: department.ID,
		projectID:    project.ID,
		api:          authed,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newController(t *testing.T, baseURL, token, snapPath string, clock *fakeClock) *controller.Controller {
	t.Helper()
	ctrl, err := controller.New(
		api.New(baseURL, token),
		snapshot.NewStore(snapPath),
		coordinator.NewMemoryBus(),
		controller.Options{
			Clock:      clock.Now,
			TickPeriod: 5 * time.Millisecond,
			Heartbeat: coordinator.Options{
				HeartbeatInterval: 10 * time.Millisecond,
				WatchdogTimeout:   60 * time.Millisecond,
			},
			Logger: quietLogger(),
		},
	)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	return ctrl
}

func (b *backend) startParams() controller.StartParams {
	return controller.StartParams{
		DepartmentID:    b.departmentID,
		DepartmentName:  "Engineering",
		ProjectID:       b.projectID,
		ProjectCode:     "CORE",
		ProjectName:     "Core platform",
		DurationMinutes: 25,
		PlannedTitle:    "write the report",
	}
}

func TestStartPauseResumeComplete(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	clock := newFakeClock()
	snapPath := filepath.Join(t.TempDir(), "snapshot.json")
	ctrl := newController(t, b.url, b.token, snapPath, clock)

	require.NoError(t, ctrl.Init(ctx))
	assert.Nil(t, ctrl.Snapshot())

	require.NoError(t, ctrl.Start(ctx, b.startParams()))
	snap := ctrl.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, snapshot.StatusRunning, snap.Status)
	assert.Equal(t, 25, snap.DurationMinutes)
	assert.Equal(t, "Engineering", snap.DepartmentName)

	// The snapshot survives on disk for the next process.
	persisted, err := snapshot.NewStore(snapPath).Load()
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, snap.SessionID, persisted.SessionID)

	require.NoError(t, ctrl.Pause(ctx))
	snap = ctrl.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, snapshot.StatusPaused, snap.Status)
	assert.NotNil(t, snap.PausedAt)

	require.NoError(t, ctrl.Resume(ctx))
	snap = ctrl.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, snapshot.StatusRunning, snap.Status)
	assert.Nil(t, snap.PausedAt)

	require.NoError(t, ctrl.Complete(ctx, true, "", "went fine"))
	assert.Nil(t, ctrl.Snapshot())

	persisted, err = snapshot.NewStore(snapPath).Load()
	require.NoError(t, err)
	assert.Nil(t, persisted)
}

func TestStartRejectedByServerGuard(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	clock := newFakeClock()
	dir := t.TempDir()

	first := newController(t, b.url, b.token, filepath.Join(dir, "tab1.json"), clock)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.Start(ctx, b.startParams()))

	// A second tab with its own snapshot slot hits the server guard and
	// keeps no local state.
	second := newController(t, b.url, b.token, filepath.Join(dir, "tab2.json"), clock)
	require.NoError(t, second.Init(ctx))
	err := second.Start(ctx, b.startParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrConflict)
	assert.Nil(t, second.Snapshot())
}

func TestCancelRequiresSession(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	ctrl := newController(t, b.url, b.token, filepath.Join(t.TempDir(), "snapshot.json"), newFakeClock())

	require.NoError(t, ctrl.Init(ctx))
	assert.ErrorIs(t, ctrl.Cancel(ctx), controller.ErrNoSession)
}

func TestCancelClearsSnapshot(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	snapPath := filepath.Join(t.TempDir(), "snapshot.json")
	ctrl := newController(t, b.url, b.token, snapPath, newFakeClock())

	require.NoError(t, ctrl.Init(ctx))
	require.NoError(t, ctrl.Start(ctx, b.startParams()))
	require.NoError(t, ctrl.Cancel(ctx))
	assert.Nil(t, ctrl.Snapshot())

	persisted, err := snapshot.NewStore(snapPath).Load()
	require.NoError(t, err)
	assert.Nil(t, persisted)
}

func TestRecoveryAdoptsServerState(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	clock := newFakeClock()
	snapPath := filepath.Join(t.TempDir(), "snapshot.json")

	first := newController(t, b.url, b.token, snapPath, clock)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.Start(ctx, b.startParams()))
	sessionID := first.Snapshot().SessionID
	first.Close()

	// The session was paused out of band while this snapshot slept.
	_, err := b.api.PauseSession(ctx, sessionID)
	require.NoError(t, err)

	second := newController(t, b.url, b.token, snapPath, clock)
	require.NoError(t, second.Init(ctx))
	snap := second.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, snapshot.StatusPaused, snap.Status)
	assert.NotNil(t, snap.PausedAt)
	assert.Equal(t, sessionID, snap.SessionID)
}

func TestRecoveryClearsTerminalSession(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	clock := newFakeClock()
	snapPath := filepath.Join(t.TempDir(), "snapshot.json")

	first := newController(t, b.url, b.token, snapPath, clock)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.Start(ctx, b.startParams()))
	sessionID := first.Snapshot().SessionID
	first.Close()

	_, err := b.api.CancelSession(ctx, sessionID)
	require.NoError(t, err)

	second := newController(t, b.url, b.token, snapPath, clock)
	require.NoError(t, second.Init(ctx))
	assert.Nil(t, second.Snapshot())
}

func TestRecoveryClearsUnknownSession(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	snapPath := filepath.Join(t.TempDir(), "snapshot.json")

	store := snapshot.NewStore(snapPath)
	require.NoError(t, store.Save(&snapshot.Snapshot{
		SessionID:       "no-such-session",
		DurationMinutes: 25,
		StartedAt:       time.Now().UTC().Add(-time.Minute),
		Status:          snapshot.StatusRunning,
	}))

	ctrl := newController(t, b.url, b.token, snapPath, newFakeClock())
	require.NoError(t, ctrl.Init(ctx))
	assert.Nil(t, ctrl.Snapshot())

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, persisted)
}

func TestExpiredSnapshotFinishesWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	snapPath := filepath.Join(t.TempDir(), "snapshot.json")

	store := snapshot.NewStore(snapPath)
	require.NoError(t, store.Save(&snapshot.Snapshot{
		SessionID:       "sess-1",
		DurationMinutes: 25,
		StartedAt:       clock.Now().Add(-26 * time.Minute),
		Status:          snapshot.StatusRunning,
	}))

	// The server is unreachable on purpose: local expiry needs no round
	// trip.
	ctrl := newController(t, "http://127.0.0.1:1", "token", snapPath, clock)
	require.NoError(t, ctrl.Init(ctx))

	snap := ctrl.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, snapshot.StatusFinished, snap.Status)

	persisted, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, snapshot.StatusFinished, persisted.Status)
}

func TestTickDrivesRunningToFinished(t *testing.T) {
	b := newBackend(t)
	clock := newFakeClock()
	snapPath := filepath.Join(t.TempDir(), "snapshot.json")
	ctrl := newController(t, b.url, b.token, snapPath, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, ctrl.Init(ctx))
	require.NoError(t, ctrl.Start(ctx, b.startParams()))

	runErr := make(chan error, 1)
	go func() {
		runErr <- ctrl.Run(ctx)
	}()

	clock.Advance(26 * time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := ctrl.Snapshot()
		if snap != nil && snap.Status == snapshot.StatusFinished {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("countdown never finished: %+v", snap)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// finished is display-only: the ledger still sees the session
	// running until an outcome is recorded.
	session, err := b.api.GetSession(context.Background(), ctrl.Snapshot().SessionID)
	require.NoError(t, err)
	assert.Equal(t, "running", session.Status)

	cancel()
	select {
	case err := <-runErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
