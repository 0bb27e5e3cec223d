// Package controller orchestrates the timer: it issues transitions to
// the ledger, mirrors results into the local snapshot, drives the ticker,
// and reconciles after reloads. Local state is a cache of convenience;
// the server wins every conflict after an explicit round trip.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"focusblock/internal/client/api"
	"focusblock/internal/client/coordinator"
	"focusblock/internal/client/snapshot"
	"focusblock/internal/client/ticker"
	"focusblock/internal/model"
	"focusblock/internal/timekeep"
)

var (
	// ErrBusy rejects re-entry while a mutating call is still in flight.
	ErrBusy = errors.New("another timer operation is in flight")
	// ErrNoSession means the operation needs an active snapshot.
	ErrNoSession = errors.New("no active session")
)

type StartParams struct {
	DepartmentID    string
	DepartmentName  string
	ProjectID       string
	ProjectCode     string
	ProjectName     string
	DurationMinutes int
	PlannedTitle    string
}

type Options struct {
	// Clock defaults to time.Now. Tests inject a fake.
	Clock      func() time.Time
	TickPeriod time.Duration
	Heartbeat  coordinator.Options
	// OnUpdate fires after every snapshot change or tick with the
	// current snapshot (nil when idle). Display-only.
	OnUpdate func(*snapshot.Snapshot)
	Logger   *slog.Logger
}

type Controller struct {
	api   *api.Client
	store *snapshot.Store
	tick  *ticker.Ticker
	coord *coordinator.Coordinator
	now   func() time.Time
	log   *slog.Logger

	onUpdate func(*snapshot.Snapshot)

	mu      sync.Mutex
	snap    *snapshot.Snapshot
	busy    bool
	ticking bool
}

func New(apiClient *api.Client, store *snapshot.Store, bus coordinator.Bus, opts Options) (*Controller, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Controller{
		api:      apiClient,
		store:    store,
		tick:     ticker.New(opts.TickPeriod),
		now:      opts.Clock,
		log:      opts.Logger.With("component", "controller"),
		onUpdate: opts.OnUpdate,
	}

	heartbeat := opts.Heartbeat
	heartbeat.OnChanged = c.Refresh
	if heartbeat.Logger == nil {
		heartbeat.Logger = opts.Logger
	}
	coord, err := coordinator.New(bus, heartbeat)
	if err != nil {
		c.tick.Close()
		return nil, err
	}
	c.coord = coord
	return c, nil
}

// Init runs the recovery protocol once and arranges the ticker and
// heartbeat to match whatever survived.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.recoverLocked(ctx); err != nil {
		return err
	}
	c.syncRuntimeLocked()
	c.notifyLocked()
	return nil
}

// Run consumes tick signals and snapshot-file change notifications until
// ctx is canceled. Time values are always recomputed from the wall clock
// at delivery time, never counted.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.store.Watch(ctx, c.Refresh); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.tick.C():
			c.handleTick()
		}
	}
}

func (c *Controller) Close() {
	c.tick.Close()
	c.coord.Close()
}

// Snapshot returns a copy of the current snapshot, or nil when idle.
func (c *Controller) Snapshot() *snapshot.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return nil
	}
	copied := *c.snap
	return &copied
}

func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return 0
	}
	return timekeep.Remaining(c.snap.Vector(), c.now())
}

func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return 0
	}
	return timekeep.Elapsed(c.snap.Vector(), c.now())
}

// OtherTabActive reports the advisory cross-tab flag. The UI warns on it;
// the server guard is what actually rejects a doomed start.
func (c *Controller) OtherTabActive() bool {
	return c.coord.OtherActive()
}

// Start creates a session on the ledger and, only on success, builds the
// fresh snapshot and begins ticking.
func (c *Controller) Start(ctx context.Context, params StartParams) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	session, err := c.api.StartSession(ctx, api.StartParams{
		DepartmentID:    params.DepartmentID,
		ProjectID:       params.ProjectID,
		DurationMinutes: params.DurationMinutes,
		PlannedTitle:    params.PlannedTitle,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = &snapshot.Snapshot{
		SessionID:          session.ID,
		DepartmentID:       params.DepartmentID,
		DepartmentName:     params.DepartmentName,
		ProjectID:          params.ProjectID,
		ProjectCode:        params.ProjectCode,
		ProjectName:        params.ProjectName,
		PlannedTitle:       session.PlannedTitle,
		DurationMinutes:    session.DurationMinutes,
		StartedAt:          session.StartedAt,
		PausedAt:           nil,
		PausedTotalSeconds: 0,
		Status:             snapshot.StatusRunning,
	}
	c.persistLocked()
	c.syncRuntimeLocked()
	c.notifyLocked()
	return nil
}

// Pause is a no-op unless running. The pausedAt written locally is the
// client clock, a display hint only; authoritative pause accounting stays
// server-side and is re-adopted on resume or recovery.
func (c *Controller) Pause(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	if c.snap == nil || c.snap.Status != snapshot.StatusRunning {
		c.mu.Unlock()
		return nil
	}
	sessionID := c.snap.SessionID
	c.mu.Unlock()

	if _, err := c.api.PauseSession(ctx, sessionID); err != nil {
		c.reconcileOnTransitionError(ctx, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil || c.snap.SessionID != sessionID {
		return nil
	}
	now := c.now().UTC()
	c.snap.Status = snapshot.StatusPaused
	c.snap.PausedAt = &now
	c.persistLocked()
	c.notifyLocked()
	return nil
}

// Resume adopts the server's pause accumulator, overwriting the local
// estimate.
func (c *Controller) Resume(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	if c.snap == nil || c.snap.Status != snapshot.StatusPaused {
		c.mu.Unlock()
		return nil
	}
	sessionID := c.snap.SessionID
	c.mu.Unlock()

	session, err := c.api.ResumeSession(ctx, sessionID)
	if err != nil {
		c.reconcileOnTransitionError(ctx, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil || c.snap.SessionID != sessionID {
		return nil
	}
	c.snap.Status = snapshot.StatusRunning
	c.snap.PausedAt = nil
	c.snap.PausedTotalSeconds = session.PausedTotalSeconds
	c.persistLocked()
	c.syncRuntimeLocked()
	c.notifyLocked()
	return nil
}

// Cancel ends the session on the ledger. Once the call resolves the
// snapshot is cleared whatever the outcome. If the request never reached
// the server, local state is left untouched for the next attempt.
func (c *Controller) Cancel(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	if c.snap == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	sessionID := c.snap.SessionID
	c.mu.Unlock()

	_, err := c.api.CancelSession(ctx, sessionID)
	if errors.Is(err, api.ErrNetwork) {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.syncRuntimeLocked()
	c.notifyLocked()
	return err
}

// Complete records the outcome of a running (or locally finished)
// session and clears the snapshot on success.
func (c *Controller) Complete(ctx context.Context, completed bool, actualTitle, notes string) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	if c.snap == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	sessionID := c.snap.SessionID
	c.mu.Unlock()

	_, err := c.api.CompleteSession(ctx, sessionID, api.CompleteParams{
		Completed:   completed,
		ActualTitle: actualTitle,
		Notes:       notes,
	})
	if err != nil {
		c.reconcileOnTransitionError(ctx, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.syncRuntimeLocked()
	c.notifyLocked()
	return nil
}

// Reset clears local state without touching the server. For snapshots
// whose session was already finalized elsewhere.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.syncRuntimeLocked()
	c.notifyLocked()
	return nil
}

// Refresh re-reads the persisted snapshot and recomputes. Invoked by the
// file watcher and by foreign changed broadcasts; mutates no server
// state.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.store.Load()
	if err != nil {
		c.log.Warn("reload snapshot", "error", err)
		return
	}
	c.snap = snap
	c.syncRuntimeLocked()
	c.notifyLocked()
}

func (c *Controller) handleTick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap == nil || c.snap.Status == snapshot.StatusFinished {
		return
	}

	// The tick is only a signal; the clock is read here, at delivery
	// time, so sleeping through ticks cannot stretch the countdown.
	if c.snap.Status == snapshot.StatusRunning && timekeep.Remaining(c.snap.Vector(), c.now()) <= 0 {
		c.snap.Status = snapshot.StatusFinished
		c.persistLocked()
		c.syncRuntimeLocked()
	}
	c.notifyLocked()
}

// recoverLocked is the reload/crash recovery pass. Expiry observed
// locally is authoritative without a round trip, so the alarm still fires
// for a tab that slept past zero.
func (c *Controller) recoverLocked(ctx context.Context) error {
	snap, err := c.store.Load()
	if err != nil {
		return err
	}
	if snap == nil || snap.Status == snapshot.StatusIdle {
		c.snap = nil
		return nil
	}

	if snap.Status == snapshot.StatusRunning && timekeep.Remaining(snap.Vector(), c.now()) <= 0 {
		snap.Status = snapshot.StatusFinished
		c.snap = snap
		c.persistLocked()
		return nil
	}
	if snap.Status == snapshot.StatusFinished {
		c.snap = snap
		return nil
	}

	session, err := c.api.GetSession(ctx, snap.SessionID)
	if err != nil {
		// NotFound: the session no longer exists. Anything else,
		// including a transport failure, degrades the same way:
		// assume stale and clear rather than leave the UI stuck.
		c.log.Info("recovery read failed, clearing snapshot", "error", err)
		c.clearLocked()
		return nil
	}

	if model.IsTerminal(session.Status) {
		c.clearLocked()
		return nil
	}

	switch session.Status {
	case model.StatusRunning:
		snap.Status = snapshot.StatusRunning
	case model.StatusPaused:
		snap.Status = snapshot.StatusPaused
	}
	snap.PausedAt = session.PausedAt
	snap.PausedTotalSeconds = session.PausedTotalSeconds
	c.snap = snap
	c.persistLocked()
	return nil
}

// reconcileOnTransitionError refreshes local state from the server after
// a guard rejection: the snapshot was stale, not the server wrong.
func (c *Controller) reconcileOnTransitionError(ctx context.Context, err error) {
	if !errors.Is(err, api.ErrInvalidTransition) && !errors.Is(err, api.ErrNotFound) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if recoverErr := c.recoverLocked(ctx); recoverErr != nil {
		c.log.Warn("reconcile after transition error", "error", recoverErr)
		return
	}
	c.syncRuntimeLocked()
	c.notifyLocked()
}

func (c *Controller) persistLocked() {
	if err := c.store.Save(c.snap); err != nil {
		c.log.Error("persist snapshot", "error", err)
		return
	}
	c.coord.AnnounceChanged()
}

func (c *Controller) clearLocked() {
	if err := c.store.Clear(); err != nil {
		c.log.Error("clear snapshot", "error", err)
	}
	c.snap = nil
	c.coord.AnnounceChanged()
}

// syncRuntimeLocked points the ticker and the heartbeat at the current
// snapshot: both run exactly while a running or paused timer exists.
func (c *Controller) syncRuntimeLocked() {
	active := c.snap.Active()
	if active && !c.ticking {
		c.tick.Start()
		c.ticking = true
	}
	if !active && c.ticking {
		c.tick.Stop()
		c.ticking = false
	}
	c.coord.SetActive(active)
}

func (c *Controller) notifyLocked() {
	if c.onUpdate == nil {
		return
	}
	var copied *snapshot.Snapshot
	if c.snap != nil {
		value := *c.snap
		copied = &value
	}
	c.onUpdate(copied)
}

func (c *Controller) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}
