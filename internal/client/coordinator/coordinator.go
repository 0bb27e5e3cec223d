// Package coordinator keeps multiple tabs from silently running
// conflicting timers. It is advisory: the warning flag improves UX, the
// server's single-active-session guard is the real boundary.
package coordinator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultHeartbeatInterval = 3 * time.Second
	DefaultWatchdogTimeout   = 5 * time.Second
)

type Options struct {
	HeartbeatInterval time.Duration
	WatchdogTimeout   time.Duration
	// OnChanged fires when another tab announces it rewrote the
	// snapshot. The handler should re-read local state, never touch the
	// server.
	OnChanged func()
	Logger    *slog.Logger
}

type Coordinator struct {
	bus         Bus
	tabID       string
	heartbeat   time.Duration
	watchdogTTL time.Duration
	onChanged   func()
	log         *slog.Logger
	unsubscribe func()

	mu          sync.Mutex
	otherActive bool
	watchdog    *time.Timer
	hbStop      chan struct{}
	closed      bool
}

func New(bus Bus, opts Options) (*Coordinator, error) {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if opts.WatchdogTimeout <= 0 {
		opts.WatchdogTimeout = DefaultWatchdogTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Coordinator{
		bus:         bus,
		tabID:       uuid.NewString(),
		heartbeat:   opts.HeartbeatInterval,
		watchdogTTL: opts.WatchdogTimeout,
		onChanged:   opts.OnChanged,
		log:         opts.Logger.With("component", "coordinator"),
	}

	unsubscribe, err := bus.Subscribe(c.handle)
	if err != nil {
		return nil, err
	}
	c.unsubscribe = unsubscribe
	return c, nil
}

func (c *Coordinator) TabID() string {
	return c.tabID
}

// OtherActive reports whether another tab has recently asserted ownership
// of the timer.
func (c *Coordinator) OtherActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.otherActive
}

// SetActive starts the heartbeat while this tab owns an active timer and
// broadcasts a single stopped message when it lets go. Idempotent in both
// directions.
func (c *Coordinator) SetActive(active bool) {
	c.mu.Lock()
	if c.closed || (active == (c.hbStop != nil)) {
		c.mu.Unlock()
		return
	}

	if active {
		stop := make(chan struct{})
		c.hbStop = stop
		c.mu.Unlock()
		go c.heartbeatLoop(stop)
		return
	}

	close(c.hbStop)
	c.hbStop = nil
	c.mu.Unlock()
	c.publish(MessageStopped)
}

// AnnounceChanged tells other tabs the snapshot was rewritten. It closes
// the gap on platforms where the native file notification lags.
func (c *Coordinator) AnnounceChanged() {
	c.publish(MessageChanged)
}

func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	wasActive := c.hbStop != nil
	if wasActive {
		close(c.hbStop)
		c.hbStop = nil
	}
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
	c.mu.Unlock()

	if wasActive {
		c.publish(MessageStopped)
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *Coordinator) heartbeatLoop(stop chan struct{}) {
	c.publish(MessageActive)
	interval := time.NewTicker(c.heartbeat)
	defer interval.Stop()
	for {
		select {
		case <-stop:
			return
		case <-interval.C:
			c.publish(MessageActive)
		}
	}
}

func (c *Coordinator) handle(msg Message) {
	if msg.TabID == c.tabID {
		return
	}

	switch msg.Type {
	case MessageActive:
		c.mu.Lock()
		c.otherActive = true
		if c.watchdog != nil {
			c.watchdog.Stop()
		}
		c.watchdog = time.AfterFunc(c.watchdogTTL, c.watchdogExpired)
		c.mu.Unlock()
	case MessageStopped:
		c.mu.Lock()
		c.otherActive = false
		if c.watchdog != nil {
			c.watchdog.Stop()
			c.watchdog = nil
		}
		c.mu.Unlock()
	case MessageChanged:
		if c.onChanged != nil {
			c.onChanged()
		}
	}
}

// watchdogExpired assumes the other tab closed or crashed: its heartbeats
// stopped arriving.
func (c *Coordinator) watchdogExpired() {
	c.mu.Lock()
	c.otherActive = false
	c.watchdog = nil
	c.mu.Unlock()
}

func (c *Coordinator) publish(msgType string) {
	if err := c.bus.Publish(Message{Type: msgType, TabID: c.tabID}); err != nil {
		c.log.Debug("broadcast failed", "type", msgType, "error", err)
	}
}
