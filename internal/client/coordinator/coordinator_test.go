package coordinator

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPair(t *testing.T, bus Bus, onChanged func()) (*Coordinator, *Coordinator) {
	t.Helper()
	opts := Options{
		HeartbeatInterval: 10 * time.Millisecond,
		WatchdogTimeout:   60 * time.Millisecond,
		Logger:            quiet(),
	}

	a, err := New(bus, opts)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	opts.OnChanged = onChanged
	b, err := New(bus, opts)
	require.NoError(t, err)
	t.Cleanup(b.Close)

	return a, b
}

func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHeartbeatSetsFlagOnOtherTab(t *testing.T) {
	a, b := newPair(t, NewMemoryBus(), nil)

	a.SetActive(true)
	eventually(t, b.OtherActive, "flag on tab b")

	// The announcing tab's own heartbeats must not flip its own flag.
	assert.False(t, a.OtherActive())
}

func TestStoppedClearsFlagImmediately(t *testing.T) {
	a, b := newPair(t, NewMemoryBus(), nil)

	a.SetActive(true)
	eventually(t, b.OtherActive, "flag on tab b")

	a.SetActive(false)
	eventually(t, func() bool { return !b.OtherActive() }, "flag cleared on tab b")
}

func TestWatchdogExpiresWhenHeartbeatsCease(t *testing.T) {
	bus := NewMemoryBus()
	_, b := newPair(t, bus, nil)

	// A single heartbeat with no follow-up, as if the other tab crashed.
	require.NoError(t, bus.Publish(Message{Type: MessageActive, TabID: "ghost-tab"}))
	eventually(t, b.OtherActive, "flag on tab b")

	eventually(t, func() bool { return !b.OtherActive() }, "watchdog expiry")
}

func TestCloseBroadcastsStoppedWhileActive(t *testing.T) {
	bus := NewMemoryBus()
	a, b := newPair(t, bus, nil)

	a.SetActive(true)
	eventually(t, b.OtherActive, "flag on tab b")

	a.Close()
	eventually(t, func() bool { return !b.OtherActive() }, "flag cleared after close")
}

func TestChangedInvokesHandler(t *testing.T) {
	changed := make(chan struct{}, 1)
	a, _ := newPair(t, NewMemoryBus(), func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	a.AnnounceChanged()
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("changed handler not invoked")
	}
}

func TestOwnChangedIsIgnored(t *testing.T) {
	changed := make(chan struct{}, 1)
	bus := NewMemoryBus()
	opts := Options{
		HeartbeatInterval: 10 * time.Millisecond,
		WatchdogTimeout:   60 * time.Millisecond,
		Logger:            quiet(),
		OnChanged: func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
	}
	c, err := New(bus, opts)
	require.NoError(t, err)
	defer c.Close()

	c.AnnounceChanged()
	select {
	case <-changed:
		t.Fatal("tab reacted to its own change broadcast")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSetActiveIsIdempotent(t *testing.T) {
	a, b := newPair(t, NewMemoryBus(), nil)

	a.SetActive(true)
	a.SetActive(true)
	eventually(t, b.OtherActive, "flag on tab b")

	a.SetActive(false)
	a.SetActive(false)
	eventually(t, func() bool { return !b.OtherActive() }, "flag cleared")
}
