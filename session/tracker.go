// Package session decides whether a playback sample is a new listening event
// and guards analyses with a per-song lock.
package session

import (
	"sync"
	"time"

	"github.com/AadityaKP/MoodBoard/moodboard"
)

const (
	// MinProgress is how long a track must play before it is eligible.
	MinProgress = 60 * time.Second
	// RestartWindow treats a sample this close to the start as a replay.
	RestartWindow = 10 * time.Second
)

// Decision is the tracker's verdict on one sample.
type Decision int

const (
	NoPlayback Decision = iota
	SkipTooShort
	SkipSession
	Analyze
)

func (d Decision) String() string {
	switch d {
	case NoPlayback:
		return "NO_PLAYBACK"
	case SkipTooShort:
		return "SKIP_TOO_SHORT"
	case SkipSession:
		return "SKIP_SESSION"
	case Analyze:
		return "ANALYZE"
	}
	return "UNKNOWN"
}

// State is a copy of the tracker's session state.
type State struct {
	LastAnalyzedKey string
	LastAnalyzedEnd time.Time
	ActiveTrackID   string
	InFlight        bool
	CurrentTrack    *moodboard.CurrentTrack
}

// Tracker owns the process-wide session state. The zero value is ready to use;
// state is never persisted, so a restart treats the current track as new.
type Tracker struct {
	mu    sync.Mutex
	state State
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Decide classifies sample at wall-clock now. On Analyze the key and expected
// end of the playthrough are recorded before returning, so a poll that
// arrives during a slow analysis does not trigger a second one.
func (t *Tracker) Decide(sample moodboard.PlaybackSample, now time.Time) Decision {
	if !sample.IsPlaying || sample.Title == "" {
		return NoPlayback
	}

	progress := time.Duration(sample.ProgressMs) * time.Millisecond
	if progress < MinProgress {
		return SkipTooShort
	}

	key := sample.SongKey()

	t.mu.Lock()
	defer t.mu.Unlock()

	if key == t.state.LastAnalyzedKey && progress >= RestartWindow && !now.After(t.state.LastAnalyzedEnd) {
		return SkipSession
	}

	remaining := time.Duration(sample.DurationMs-sample.ProgressMs) * time.Millisecond
	t.state.LastAnalyzedKey = key
	t.state.LastAnalyzedEnd = now.Add(remaining)
	t.state.ActiveTrackID = sample.TrackID
	return Analyze
}

// Forget drops the playthrough mark for key so the next poll of the same
// playthrough is analysed again. Other keys are left alone.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.LastAnalyzedKey == key {
		t.state.LastAnalyzedKey = ""
		t.state.LastAnalyzedEnd = time.Time{}
	}
}

// SetInFlight flags whether an analysis is running.
func (t *Tracker) SetInFlight(v bool) {
	t.mu.Lock()
	t.state.InFlight = v
	t.mu.Unlock()
}

// SetCurrentTrack records the track last handed to analysis.
func (t *Tracker) SetCurrentTrack(ct moodboard.CurrentTrack) {
	t.mu.Lock()
	t.state.CurrentTrack = &ct
	t.mu.Unlock()
}

// Snapshot returns a copy of the session state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state
	if s.CurrentTrack != nil {
		ct := *s.CurrentTrack
		s.CurrentTrack = &ct
	}
	return s
}
