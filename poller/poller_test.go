package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/logger"
	"github.com/AadityaKP/MoodBoard/moodboard"
)

type countingRunner struct {
	runs   atomic.Int32
	status moodboard.Status
}

func (c *countingRunner) Run(context.Context) moodboard.Result {
	c.runs.Add(1)
	return moodboard.Result{Status: c.status, Message: "x"}
}

type conn bool

func (c conn) Connected() bool { return bool(c) }

func TestPollerRunsUntilStopped(t *testing.T) {
	log, _ := logger.NewTestLogger()
	r := &countingRunner{status: moodboard.StatusNoPlayback}
	p := NewPoller(log, config.Config{PollInterval: 5 * time.Millisecond}, r, conn(true))

	p.Start()
	p.Start()

	deadline := time.Now().Add(2 * time.Second)
	for r.runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.runs.Load() < 3 {
		t.Fatalf("runs = %d, want at least 3", r.runs.Load())
	}

	after := r.runs.Load()
	time.Sleep(20 * time.Millisecond)
	if r.runs.Load() != after {
		t.Error("poller kept running after Stop")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestPollSkipsWhenDisconnected(t *testing.T) {
	log, _ := logger.NewTestLogger()
	r := &countingRunner{}
	p := NewPoller(log, config.Config{}, r, conn(false))

	p.Poll(context.Background())
	if r.runs.Load() != 0 {
		t.Errorf("runs = %d, want 0", r.runs.Load())
	}
	if p.interval != 30*time.Second {
		t.Errorf("default interval = %s", p.interval)
	}
}

func TestPollLogsErrors(t *testing.T) {
	log, logs := logger.NewTestLogger()
	r := &countingRunner{status: moodboard.StatusError}
	p := NewPoller(log, config.Config{}, r, conn(true))

	p.Poll(context.Background())
	if n := logs.FilterMessage("Poll failed").Len(); n != 1 {
		t.Errorf("error logs = %d, want 1", n)
	}
}
