// Package pipeline runs one poll of the playback source through session
// gating, file resolution, chunk analysis and the ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/AadityaKP/MoodBoard/classifier"
	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/features"
	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/resolver"
	"github.com/AadityaKP/MoodBoard/session"
	"github.com/AadityaKP/MoodBoard/spotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaybackSource reports what the user is listening to.
type PlaybackSource interface {
	CurrentPlayback(ctx context.Context) (moodboard.PlaybackSample, error)
}

// FeatureExtractor yields one record per analysed chunk of the file at path.
type FeatureExtractor interface {
	Extract(ctx context.Context, path, songKey string) (iter.Seq[moodboard.ChunkFeatureRecord], error)
}

// MoodClassifier labels one chunk. Failures come back as mood.Unknown.
type MoodClassifier interface {
	Classify(ctx context.Context, f moodboard.ChunkFeatures, songName string, chunk int) mood.Mood
}

// Pipeline owns the session state and per-song locks. Use one per process.
type Pipeline struct {
	log        *zap.SugaredLogger
	source     PlaybackSource
	extractor  FeatureExtractor
	classifier MoodClassifier
	store      ledger.Store
	dir        string

	tracker *session.Tracker
	locks   *session.Locks
	now     func() time.Time
}

func NewPipeline(log *zap.SugaredLogger, cfg config.Config, source PlaybackSource, ex FeatureExtractor, cl MoodClassifier, store ledger.Store) *Pipeline {
	return &Pipeline{
		log:        log,
		source:     source,
		extractor:  ex,
		classifier: cl,
		store:      store,
		dir:        cfg.PlaylistDir,
		tracker:    session.NewTracker(),
		locks:      session.NewLocks(),
		now:        time.Now,
	}
}

// ProvidePipeline wires the Spotify player and HTTP-backed analysis services.
func ProvidePipeline(log *zap.SugaredLogger, cfg config.Config, sp *spotify.SpotifyClient, ex *features.Extractor, cl *classifier.Classifier, store ledger.Store) *Pipeline {
	return NewPipeline(log, cfg, sp, ex, cl, store)
}

var Options = ProvidePipeline

// Session returns a copy of the current session state.
func (p *Pipeline) Session() session.State {
	return p.tracker.Snapshot()
}

// Locked reports whether an analysis for songKey is running.
func (p *Pipeline) Locked(songKey string) bool {
	return p.locks.Held(songKey)
}

// Run polls the playback source once and acts on it. It never panics; every
// outcome is described by the returned Result.
func (p *Pipeline) Run(ctx context.Context) (res moodboard.Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("Analysis panicked", "panic", r)
			res = moodboard.Result{Status: moodboard.StatusError, Message: fmt.Sprintf("analysis failed: %v", r)}
		}
	}()

	sample, err := p.source.CurrentPlayback(ctx)
	if err != nil {
		p.log.Errorw("Failed to get playback state", "error", err)
		return moodboard.Result{Status: moodboard.StatusError, Message: err.Error()}
	}
	return p.Handle(ctx, sample)
}

// Handle acts on one playback sample. The song lock is taken before the
// session decision so a poll racing an analysis always sees it in progress.
func (p *Pipeline) Handle(ctx context.Context, sample moodboard.PlaybackSample) moodboard.Result {
	key := sample.SongKey()
	if sample.IsPlaying && sample.Title != "" {
		if !p.locks.TryAcquire(key) {
			return inProgress(sample)
		}
		defer p.locks.Release(key)
	}

	switch p.tracker.Decide(sample, p.now()) {
	case session.NoPlayback:
		return moodboard.Result{Status: moodboard.StatusNoPlayback, Message: "No active playback detected"}
	case session.SkipTooShort:
		current := p.tracker.Snapshot().CurrentTrack
		return moodboard.Result{
			Status:       moodboard.StatusPlaybackInfo,
			Message:      "Playback info retrieved",
			Track:        moodboard.NewTrackInfo(sample),
			CurrentTrack: current,
		}
	case session.SkipSession:
		return moodboard.Result{
			Status:  moodboard.StatusAlreadyLogged,
			Message: "Song already logged/analyzed for this play session.",
			Track:   moodboard.NewTrackInfo(sample),
		}
	}

	p.tracker.SetInFlight(true)
	defer p.tracker.SetInFlight(false)

	log := p.log.With("run_id", uuid.NewString(), "song_key", key)
	res, err := p.analyze(ctx, log, sample)
	if err != nil {
		log.Errorw("Analysis failed", "error", err)
		if ctx.Err() != nil {
			// an interrupted run records nothing, so the next poll starts over
			p.tracker.Forget(key)
		}
		return moodboard.Result{Status: moodboard.StatusError, Message: err.Error(), Track: moodboard.NewTrackInfo(sample)}
	}
	return res
}

func inProgress(sample moodboard.PlaybackSample) moodboard.Result {
	return moodboard.Result{
		Status:  moodboard.StatusInProgress,
		Message: "Analysis already in progress for this song",
		Track:   moodboard.NewTrackInfo(sample),
	}
}

func (p *Pipeline) analyze(ctx context.Context, log *zap.SugaredLogger, sample moodboard.PlaybackSample) (moodboard.Result, error) {
	title, artist := sample.Title, sample.Artist()
	now := p.now()

	known, err := p.store.SongMood(ctx, title, artist)
	switch {
	case err == nil:
		log.Infow("Song already analyzed, updating frequency", "mood", known.FinalMood.String())
		if err := p.record(ctx, sample, mood.Unknown, now); err != nil {
			return moodboard.Result{}, err
		}
		p.tracker.SetCurrentTrack(currentTrack(sample, known.FinalMood))
		return moodboard.Result{
			Status:  moodboard.StatusAlreadyAnalyzed,
			Message: "Song already analyzed, frequency updated",
			Track:   moodboard.NewTrackInfo(sample),
			Mood:    known.FinalMood.String(),
		}, nil
	case !errors.Is(err, ledger.ErrNotFound):
		return moodboard.Result{}, fmt.Errorf("pipeline: lookup song: %w", err)
	}

	path, err := resolver.Resolve(title, artist, p.dir)
	if errors.Is(err, resolver.ErrNotFound) {
		log.Warnw("Song file not found", "dir", p.dir)
		return moodboard.Result{
			Status:  moodboard.StatusFileNotFound,
			Message: "Song file not found in playlist folder",
			Track:   moodboard.NewTrackInfo(sample),
		}, nil
	}
	if err != nil {
		return moodboard.Result{}, fmt.Errorf("pipeline: resolve: %w", err)
	}

	log.Infow("Analyzing song", "path", path)
	songMood, chunks, err := p.analyzeChunks(ctx, log, path, sample)
	if err != nil {
		return moodboard.Result{}, err
	}

	if err := p.record(ctx, sample, songMood, now); err != nil {
		return moodboard.Result{}, err
	}
	p.tracker.SetCurrentTrack(currentTrack(sample, songMood))

	log.Infow("Analysis complete", "mood", songMood.String(), "chunks", chunks)
	return moodboard.Result{
		Status:  moodboard.StatusAnalysisComplete,
		Message: "Song analysis completed successfully",
		Track:   moodboard.NewTrackInfo(sample),
		Mood:    songMood.String(),
		Chunks:  chunks,
	}, nil
}

// analyzeChunks classifies and stores every chunk, then votes the song mood.
// Each chunk is fully persisted before the next is cut.
func (p *Pipeline) analyzeChunks(ctx context.Context, log *zap.SugaredLogger, path string, sample moodboard.PlaybackSample) (mood.Mood, int, error) {
	key := sample.SongKey()
	seq, err := p.extractor.Extract(ctx, path, key)
	if err != nil {
		return mood.Unknown, 0, fmt.Errorf("pipeline: extract: %w", err)
	}

	var (
		moods   []mood.Mood
		chunks  int
		loopErr error
	)
	for rec := range seq {
		if err := p.store.AppendChunkFeatures(ctx, rec); err != nil {
			loopErr = fmt.Errorf("pipeline: store features: %w", err)
			break
		}

		m := p.classifier.Classify(ctx, rec.Features, sample.Title, rec.ChunkIndex)
		if err := p.store.AppendChunkMood(ctx, moodboard.ChunkMoodRecord{SongKey: key, ChunkIndex: rec.ChunkIndex, Mood: m}); err != nil {
			loopErr = fmt.Errorf("pipeline: store chunk mood: %w", err)
			break
		}
		log.Debugw("Chunk classified", "chunk", rec.ChunkIndex, "mood", m.String())

		moods = append(moods, m)
		chunks++
	}
	if loopErr != nil {
		return mood.Unknown, chunks, loopErr
	}
	// a canceled sequence ends early without an error of its own
	if err := ctx.Err(); err != nil {
		return mood.Unknown, chunks, fmt.Errorf("pipeline: interrupted after %d chunks: %w", chunks, err)
	}
	return mood.Vote(moods), chunks, nil
}

// record bumps (or creates) the song mood, logs the play and refreshes the
// user mood for the play's time slot.
func (p *Pipeline) record(ctx context.Context, sample moodboard.PlaybackSample, m mood.Mood, now time.Time) error {
	title, artist := sample.Title, sample.Artist()

	if _, err := p.store.UpsertSongMood(ctx, title, artist, m); err != nil {
		return fmt.Errorf("pipeline: upsert song mood: %w", err)
	}

	play := moodboard.ListeningHistoryRecord{
		Title:    title,
		Artist:   artist,
		TimeSlot: moodboard.SlotAt(now),
		Date:     now,
	}
	if err := p.store.AppendListening(ctx, play); err != nil {
		return fmt.Errorf("pipeline: append listening: %w", err)
	}

	if _, err := RecomputeUserMood(ctx, p.store, now); err != nil {
		return fmt.Errorf("pipeline: user mood: %w", err)
	}
	return nil
}

func currentTrack(sample moodboard.PlaybackSample, m mood.Mood) moodboard.CurrentTrack {
	ct := moodboard.CurrentTrack{
		ID:       sample.TrackID,
		Name:     sample.Title,
		Artist:   sample.Artist(),
		Analyzed: true,
		Image:    sample.ImageURL,
	}
	if !m.IsUnknown() {
		ct.Mood = m.String()
	}
	return ct
}
