package features

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/AadityaKP/MoodBoard/audio"
	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"go.uber.org/zap"
)

// Extractor cuts a song into 30 second windows and measures each one.
type Extractor struct {
	log      *zap.SugaredLogger
	seg      audio.Segmenter
	svc      Service
	tempDir  string
	attempts int
	backoff  time.Duration
}

func NewExtractor(log *zap.SugaredLogger, cfg config.Config, seg audio.Segmenter, svc Service) *Extractor {
	return &Extractor{
		log:      log,
		seg:      seg,
		svc:      svc,
		tempDir:  cfg.TempDir,
		attempts: cfg.FeatureAttempts,
		backoff:  cfg.RetryBackoff,
	}
}

// ProvideExtractor wires the HTTP feature client.
func ProvideExtractor(log *zap.SugaredLogger, cfg config.Config, seg audio.Segmenter) *Extractor {
	return NewExtractor(log, cfg, seg, NewClient(cfg))
}

var Options = ProvideExtractor

// Extract probes path and returns the sequence of chunk records for songKey.
//
// Chunks are produced strictly in order and the next one is not cut until the
// loop body for the previous one returns. A chunk whose segment comes out
// missing or empty, or whose upload fails every attempt, yields nothing and
// processing moves on. The temporary segment is removed after each chunk. The
// sequence is single-use; a failed run starts over from the first chunk.
func (e *Extractor) Extract(ctx context.Context, path, songKey string) (iter.Seq[moodboard.ChunkFeatureRecord], error) {
	total, err := e.seg.Duration(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("features: probe: %w", err)
	}
	windows := audio.Windows(total)

	if err := os.MkdirAll(e.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("features: temp dir: %w", err)
	}

	return func(yield func(moodboard.ChunkFeatureRecord) bool) {
		runDir, err := os.MkdirTemp(e.tempDir, "chunks-")
		if err != nil {
			e.log.Errorw("Failed to create segment dir", "error", err, "song_key", songKey)
			return
		}
		defer os.RemoveAll(runDir)

		for _, w := range windows {
			if ctx.Err() != nil {
				e.log.Warnw("Extraction canceled", "song_key", songKey, "chunk", w.Index)
				return
			}
			if !e.chunk(ctx, path, songKey, runDir, w, yield) {
				return
			}
		}
	}, nil
}

// chunk processes one window and reports whether iteration should continue.
func (e *Extractor) chunk(ctx context.Context, path, songKey, dir string, w audio.Window, yield func(moodboard.ChunkFeatureRecord) bool) bool {
	out := filepath.Join(dir, audio.SegmentName(w.Index))
	defer os.Remove(out)

	if err := e.seg.Extract(ctx, path, w.Start, w.Length, out); err != nil {
		e.log.Warnw("Segment extraction failed, skipping", "error", err, "song_key", songKey, "chunk", w.Index)
		return true
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		e.log.Warnw("Segment missing or empty, skipping", "song_key", songKey, "chunk", w.Index)
		return true
	}

	var feats moodboard.ChunkFeatures
	err := withRetry(ctx, e.attempts, e.backoff, func(attempt int) error {
		f, err := e.svc.Analyze(ctx, out)
		if err != nil {
			e.log.Warnw("Feature upload failed", "error", err, "song_key", songKey, "chunk", w.Index, "attempt", attempt+1)
			return err
		}
		feats = f
		return nil
	})
	if err != nil {
		e.log.Errorw("Giving up on chunk", "error", err, "song_key", songKey, "chunk", w.Index)
		return true
	}

	return yield(moodboard.ChunkFeatureRecord{
		SongKey:    songKey,
		ChunkIndex: w.Index,
		Features:   feats,
	})
}
