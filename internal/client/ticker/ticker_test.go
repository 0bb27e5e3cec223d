package ticker

import (
	"testing"
	"time"
)

func TestEmitsNothingBeforeStart(t *testing.T) {
	tk := New(5 * time.Millisecond)
	defer tk.Close()

	select {
	case <-tk.C():
		t.Fatal("tick before Start")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTicksAfterStart(t *testing.T) {
	tk := New(5 * time.Millisecond)
	defer tk.Close()

	tk.Start()
	for i := 0; i < 3; i++ {
		select {
		case <-tk.C():
		case <-time.After(time.Second):
			t.Fatalf("no tick %d", i)
		}
	}
}

func TestStopSilencesTicks(t *testing.T) {
	tk := New(5 * time.Millisecond)
	defer tk.Close()

	tk.Start()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("no tick after start")
	}

	tk.Stop()
	// Drain anything emitted before the stop landed.
	time.Sleep(20 * time.Millisecond)
	select {
	case <-tk.C():
	default:
	}

	select {
	case <-tk.C():
		t.Fatal("tick after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	tk := New(5 * time.Millisecond)
	defer tk.Close()

	tk.Stop()
	tk.Start()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("no tick after stop-then-start")
	}
}

func TestRestartReplacesPeriod(t *testing.T) {
	tk := New(5 * time.Millisecond)
	defer tk.Close()

	tk.Start()
	tk.Start()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("no tick after restart")
	}
}

func TestCloseReleasesCallers(t *testing.T) {
	tk := New(5 * time.Millisecond)
	tk.Start()
	tk.Close()
	tk.Close()

	// Commands after Close must not block.
	done := make(chan struct{})
	go func() {
		tk.Start()
		tk.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("command blocked after Close")
	}
}
