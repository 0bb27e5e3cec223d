// Package ticker is the background tick source for the timer. It runs on
// its own goroutine behind a small command protocol and carries no
// session data: ticks are a signal to re-read the wall clock, never a
// count of elapsed seconds.
package ticker

import (
	"sync"
	"time"
)

type command int

const (
	cmdStart command = iota
	cmdStop
)

type Ticker struct {
	period time.Duration
	out    chan time.Time
	cmds   chan command
	done   chan struct{}
	once   sync.Once
}

// New spawns the ticker goroutine. It emits nothing until Start is
// called.
func New(period time.Duration) *Ticker {
	if period <= 0 {
		period = time.Second
	}
	t := &Ticker{
		period: period,
		out:    make(chan time.Time, 1),
		cmds:   make(chan command),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

// C delivers tick signals. The channel is buffered by one and ticks are
// dropped when the consumer lags; a late consumer recomputes from the
// wall clock anyway.
func (t *Ticker) C() <-chan time.Time {
	return t.out
}

// Start begins (or restarts) the period. Any previous period is cleared
// first.
func (t *Ticker) Start() {
	t.send(cmdStart)
}

// Stop cancels the period. Safe to call before Start and after Close.
func (t *Ticker) Stop() {
	t.send(cmdStop)
}

// Close stops the period and releases the goroutine.
func (t *Ticker) Close() {
	t.once.Do(func() {
		close(t.done)
	})
}

func (t *Ticker) send(cmd command) {
	select {
	case t.cmds <- cmd:
	case <-t.done:
	}
}

func (t *Ticker) run() {
	var interval *time.Ticker
	var ticks <-chan time.Time

	stop := func() {
		if interval != nil {
			interval.Stop()
			interval = nil
			ticks = nil
		}
	}
	defer stop()

	for {
		select {
		case <-t.done:
			return
		case cmd := <-t.cmds:
			switch cmd {
			case cmdStart:
				stop()
				interval = time.NewTicker(t.period)
				ticks = interval.C
			case cmdStop:
				stop()
			}
		case now := <-ticks:
			select {
			case t.out <- now:
			default:
			}
		}
	}
}
