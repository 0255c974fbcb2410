// Package poller drives the pipeline on a fixed interval for as long as the
// app runs.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/pipeline"
	"github.com/AadityaKP/MoodBoard/spotify"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type runner interface {
	Run(ctx context.Context) moodboard.Result
}

type connection interface {
	Connected() bool
}

// Poller runs one pipeline pass per tick. Passes never overlap.
type Poller struct {
	log      *zap.SugaredLogger
	pipeline runner
	spotify  connection
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

func NewPoller(log *zap.SugaredLogger, cfg config.Config, p runner, conn connection) *Poller {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{log: log, pipeline: p, spotify: conn, interval: interval}
}

// ProvidePoller starts polling when the app starts and stops it on shutdown.
func ProvidePoller(lc fx.Lifecycle, log *zap.SugaredLogger, cfg config.Config, p *pipeline.Pipeline, sc *spotify.SpotifyClient) *Poller {
	poller := NewPoller(log, cfg, p, sc)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			poller.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return poller.Stop(ctx)
		},
	})
	return poller
}

var Options = ProvidePoller

// Start launches the loop. Calling Start twice is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	p.log.Infow("Starting playback poller", "interval", p.interval)
	go p.loop(ctx, p.done)
}

// Stop cancels the loop and waits for the current pass to finish or ctx to
// expire.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.Poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll runs one pass unless Spotify has not been connected yet.
func (p *Poller) Poll(ctx context.Context) {
	if !p.spotify.Connected() {
		p.log.Debug("Spotify not connected, skipping poll")
		return
	}

	res := p.pipeline.Run(ctx)
	switch res.Status {
	case moodboard.StatusError:
		p.log.Errorw("Poll failed", "message", res.Message)
	case moodboard.StatusAnalysisComplete, moodboard.StatusAlreadyAnalyzed, moodboard.StatusFileNotFound:
		p.log.Infow("Poll", "status", res.Status, "mood", res.Mood, "message", res.Message)
	default:
		p.log.Debugw("Poll", "status", res.Status)
	}
}
