package pipeline

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/logger"
	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
)

var evening = time.Date(2025, time.June, 7, 15, 0, 0, 0, time.UTC)

type fakeSource struct {
	sample moodboard.PlaybackSample
	err    error
}

func (f *fakeSource) CurrentPlayback(context.Context) (moodboard.PlaybackSample, error) {
	return f.sample, f.err
}

// fakeExtractor yields chunks 1..n, leaving out the indexes in skip. Like the
// real extractor it stops quietly once ctx is done; cancel, when set, is
// called right after chunk cancelAfter is consumed.
type fakeExtractor struct {
	n           int
	skip        map[int]bool
	calls       int
	err         error
	cancelAfter int
	cancel      context.CancelFunc
}

func (f *fakeExtractor) Extract(ctx context.Context, _ string, songKey string) (iter.Seq[moodboard.ChunkFeatureRecord], error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return func(yield func(moodboard.ChunkFeatureRecord) bool) {
		for i := 1; i <= f.n; i++ {
			if ctx.Err() != nil {
				return
			}
			if f.cancel != nil && i == f.cancelAfter+1 {
				f.cancel()
				return
			}
			if f.skip[i] {
				continue
			}
			rec := moodboard.ChunkFeatureRecord{SongKey: songKey, ChunkIndex: i, Features: moodboard.ChunkFeatures{Energy: float64(i) / 10}}
			if !yield(rec) {
				return
			}
		}
	}, nil
}

type fakeClassifier struct {
	moods map[int]mood.Mood
	panic bool
}

func (f *fakeClassifier) Classify(_ context.Context, _ moodboard.ChunkFeatures, _ string, chunk int) mood.Mood {
	if f.panic {
		panic("classifier exploded")
	}
	if m, ok := f.moods[chunk]; ok {
		return m
	}
	return mood.Unknown
}

type harness struct {
	p     *Pipeline
	src   *fakeSource
	ex    *fakeExtractor
	cl    *fakeClassifier
	store ledger.Store
	clock time.Time
}

func newHarness(t *testing.T, files ...string) *harness {
	t.Helper()
	root := t.TempDir()
	playlist := filepath.Join(root, "playlist")
	if err := os.MkdirAll(playlist, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(playlist, f), []byte("ID3"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store, err := ledger.NewCSVStore(filepath.Join(root, "CSVS"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	h := &harness{
		src:   &fakeSource{},
		ex:    &fakeExtractor{n: 7},
		cl:    &fakeClassifier{moods: map[int]mood.Mood{}},
		store: store,
		clock: evening,
	}
	log, _ := logger.NewTestLogger()
	h.p = NewPipeline(log, config.Config{PlaylistDir: playlist}, h.src, h.ex, h.cl, store)
	h.p.now = func() time.Time { return h.clock }
	return h
}

func chillVibes(progressMs int) moodboard.PlaybackSample {
	return moodboard.PlaybackSample{
		TrackID:    "track-1",
		Title:      "Chill Vibes",
		Artists:    []string{"DJ Test"},
		ProgressMs: progressMs,
		DurationMs: 200000,
		IsPlaying:  true,
	}
}

func TestRunAnalysisComplete(t *testing.T) {
	h := newHarness(t, "chill_vibes_dj_test.mp3", "other_song_someone.mp3")
	h.cl.moods = map[int]mood.Mood{
		1: mood.HappyLabel, 2: mood.EnergeticLabel, 3: mood.CalmLabel,
		4: mood.HappyLabel, 5: mood.EnergeticLabel, 6: mood.SadLabel,
	}
	h.src.sample = chillVibes(65000)
	ctx := context.Background()

	res := h.p.Run(ctx)
	if res.Status != moodboard.StatusAnalysisComplete {
		t.Fatalf("status = %s (%s)", res.Status, res.Message)
	}
	if res.Chunks != 7 {
		t.Errorf("chunks = %d, want 7", res.Chunks)
	}
	if res.Mood != "Happy and Energetic" {
		t.Errorf("mood = %q", res.Mood)
	}

	song, err := h.store.SongMood(ctx, "Chill Vibes", "DJ Test")
	if err != nil {
		t.Fatal(err)
	}
	if song.Frequency != 1 || song.FinalMood != mood.HappyEnergetic {
		t.Errorf("song mood = %+v", song)
	}

	key := chillVibes(0).SongKey()
	chunkMoods, _ := h.store.ChunkMoods(ctx, key)
	if len(chunkMoods) != 7 {
		t.Errorf("chunk moods = %d, want 7", len(chunkMoods))
	}
	if !chunkMoods[6].Mood.IsUnknown() {
		t.Errorf("chunk 7 mood = %s, want Unknown", chunkMoods[6].Mood)
	}
	feats, _ := h.store.ChunkFeatures(ctx, key)
	if len(feats) != 7 {
		t.Errorf("chunk features = %d, want 7", len(feats))
	}

	userMoods, _ := h.store.UserMoods(ctx)
	if len(userMoods) != 1 || userMoods[0].TimeSlot != moodboard.Evening || userMoods[0].FinalMood != mood.HappyEnergetic {
		t.Errorf("user moods = %+v", userMoods)
	}

	ct := h.p.Session().CurrentTrack
	if ct == nil || !ct.Analyzed || ct.Mood != "Happy and Energetic" {
		t.Errorf("current track = %+v", ct)
	}
	if h.p.Locked(key) {
		t.Error("lock still held after run")
	}

	// same playthrough five seconds later
	h.clock = h.clock.Add(5 * time.Second)
	h.src.sample = chillVibes(66000)
	res = h.p.Run(ctx)
	if res.Status != moodboard.StatusAlreadyLogged {
		t.Fatalf("second poll status = %s", res.Status)
	}
	if h.ex.calls != 1 {
		t.Errorf("extractor calls = %d, want 1", h.ex.calls)
	}
	history, _ := h.store.ListeningHistory(ctx)
	if len(history) != 1 {
		t.Errorf("history rows = %d, want 1", len(history))
	}
}

func TestRunSkipsFailedChunk(t *testing.T) {
	h := newHarness(t, "chill_vibes_dj_test.mp3")
	h.ex.n = 5
	h.ex.skip = map[int]bool{3: true}
	h.cl.moods = map[int]mood.Mood{1: mood.SadLabel, 2: mood.CalmLabel, 3: mood.HappyLabel, 4: mood.SadLabel, 5: mood.EnergeticLabel}
	h.src.sample = chillVibes(65000)

	res := h.p.Run(context.Background())
	if res.Status != moodboard.StatusAnalysisComplete || res.Chunks != 4 {
		t.Fatalf("result = %+v", res)
	}
	if res.Mood != "Sad and Calm" {
		t.Errorf("mood = %q, want Sad and Calm", res.Mood)
	}

	got, _ := h.store.ChunkMoods(context.Background(), chillVibes(0).SongKey())
	var idx []int
	for _, r := range got {
		idx = append(idx, r.ChunkIndex)
	}
	if len(idx) != 4 || idx[0] != 1 || idx[1] != 2 || idx[2] != 4 || idx[3] != 5 {
		t.Errorf("chunk indexes = %v, want [1 2 4 5]", idx)
	}
}

func TestRunUnknownSongNotStored(t *testing.T) {
	h := newHarness(t, "chill_vibes_dj_test.mp3")
	h.src.sample = chillVibes(65000)
	ctx := context.Background()

	res := h.p.Run(ctx)
	if res.Status != moodboard.StatusAnalysisComplete || res.Mood != "Unknown" {
		t.Fatalf("result = %+v", res)
	}
	if _, err := h.store.SongMood(ctx, "Chill Vibes", "DJ Test"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("SongMood err = %v, want ErrNotFound", err)
	}
	chunkMoods, _ := h.store.ChunkMoods(ctx, chillVibes(0).SongKey())
	if len(chunkMoods) != 7 {
		t.Errorf("unknown chunks still recorded: got %d", len(chunkMoods))
	}
	userMoods, _ := h.store.UserMoods(ctx)
	if len(userMoods) != 0 {
		t.Errorf("user moods = %+v, want none", userMoods)
	}
}

func TestRunAlreadyAnalyzed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.store.UpsertSongMood(ctx, "Chill Vibes", "DJ Test", mood.SadCalm); err != nil {
		t.Fatal(err)
	}
	h.src.sample = chillVibes(65000)

	res := h.p.Run(ctx)
	if res.Status != moodboard.StatusAlreadyAnalyzed || res.Mood != "Sad and Calm" {
		t.Fatalf("result = %+v", res)
	}
	if h.ex.calls != 0 {
		t.Error("known song was re-analyzed")
	}

	song, _ := h.store.SongMood(ctx, "Chill Vibes", "DJ Test")
	if song.Frequency != 2 || song.FinalMood != mood.SadCalm {
		t.Errorf("song = %+v", song)
	}
	userMoods, _ := h.store.UserMoods(ctx)
	if len(userMoods) != 1 || userMoods[0].FinalMood != mood.SadCalm {
		t.Errorf("user moods = %+v", userMoods)
	}
}

func TestRunStatuses(t *testing.T) {
	tests := []struct {
		name   string
		sample moodboard.PlaybackSample
		err    error
		want   moodboard.Status
	}{
		{"nothing playing", moodboard.PlaybackSample{}, nil, moodboard.StatusNoPlayback},
		{"under a minute", chillVibes(30000), nil, moodboard.StatusPlaybackInfo},
		{"no file", chillVibes(65000), nil, moodboard.StatusFileNotFound},
		{"upstream failure", moodboard.PlaybackSample{}, errors.New("token expired"), moodboard.StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.src.sample, h.src.err = tt.sample, tt.err

			res := h.p.Run(context.Background())
			if res.Status != tt.want {
				t.Errorf("status = %s, want %s (%s)", res.Status, tt.want, res.Message)
			}
			if h.p.Locked(chillVibes(0).SongKey()) {
				t.Error("lock held after run")
			}
		})
	}
}

func TestRunInProgress(t *testing.T) {
	h := newHarness(t, "chill_vibes_dj_test.mp3")
	h.src.sample = chillVibes(65000)
	key := chillVibes(0).SongKey()

	if !h.p.locks.TryAcquire(key) {
		t.Fatal("could not take lock")
	}
	res := h.p.Run(context.Background())
	if res.Status != moodboard.StatusInProgress {
		t.Errorf("status = %s, want %s", res.Status, moodboard.StatusInProgress)
	}
	if h.ex.calls != 0 {
		t.Error("analysis started while locked")
	}
	h.p.locks.Release(key)
}

func TestRunReleasesLockOnPanic(t *testing.T) {
	h := newHarness(t, "chill_vibes_dj_test.mp3")
	h.cl.panic = true
	h.src.sample = chillVibes(65000)

	res := h.p.Run(context.Background())
	if res.Status != moodboard.StatusError {
		t.Fatalf("status = %s, want error", res.Status)
	}
	if h.p.Locked(chillVibes(0).SongKey()) {
		t.Error("lock held after panic")
	}
	if h.p.Session().InFlight {
		t.Error("in-flight flag left set")
	}
}

func TestRunExtractError(t *testing.T) {
	h := newHarness(t, "chill_vibes_dj_test.mp3")
	h.ex.err = errors.New("ffprobe: exit status 1")
	h.src.sample = chillVibes(65000)

	res := h.p.Run(context.Background())
	if res.Status != moodboard.StatusError {
		t.Errorf("status = %s, want error", res.Status)
	}
	if h.p.Locked(chillVibes(0).SongKey()) {
		t.Error("lock held after error")
	}
}

func TestRunCanceledMidSongRecordsNothing(t *testing.T) {
	h := newHarness(t, "chill_vibes_dj_test.mp3")
	// the first two chunks alone would vote Happy and Energetic
	h.cl.moods = map[int]mood.Mood{
		1: mood.HappyLabel, 2: mood.EnergeticLabel, 3: mood.SadLabel,
		4: mood.CalmLabel, 5: mood.SadLabel, 6: mood.CalmLabel, 7: mood.SadLabel,
	}
	h.src.sample = chillVibes(65000)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.ex.cancelAfter, h.ex.cancel = 2, cancel

	res := h.p.Run(ctx)
	if res.Status != moodboard.StatusError {
		t.Fatalf("status = %s (%s), want error", res.Status, res.Message)
	}

	bg := context.Background()
	if _, err := h.store.SongMood(bg, "Chill Vibes", "DJ Test"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("SongMood err = %v, want ErrNotFound", err)
	}
	if history, _ := h.store.ListeningHistory(bg); len(history) != 0 {
		t.Errorf("history = %+v, want none", history)
	}
	if userMoods, _ := h.store.UserMoods(bg); len(userMoods) != 0 {
		t.Errorf("user moods = %+v, want none", userMoods)
	}
	if h.p.Locked(chillVibes(0).SongKey()) {
		t.Error("lock held after canceled run")
	}

	// the same playthrough is picked up again and analysed in full
	h.ex.cancel = nil
	res = h.p.Run(bg)
	if res.Status != moodboard.StatusAnalysisComplete || res.Chunks != 7 {
		t.Fatalf("retry result = %+v", res)
	}
	song, err := h.store.SongMood(bg, "Chill Vibes", "DJ Test")
	if err != nil {
		t.Fatal(err)
	}
	if song.FinalMood != mood.SadCalm || song.Frequency != 1 {
		t.Errorf("song = %+v, want Sad and Calm once", song)
	}
}

func TestRunLockTakenBeforeSessionDecision(t *testing.T) {
	h := newHarness(t, "chill_vibes_dj_test.mp3")
	sample := chillVibes(65000)
	h.src.sample = sample

	// a second poll lands while the first is about to decide
	var second moodboard.Result
	first := true
	h.p.now = func() time.Time {
		if first {
			first = false
			second = h.p.Handle(context.Background(), sample)
		}
		return h.clock
	}

	res := h.p.Run(context.Background())
	if res.Status != moodboard.StatusAnalysisComplete {
		t.Fatalf("first poll status = %s (%s)", res.Status, res.Message)
	}
	if second.Status != moodboard.StatusInProgress {
		t.Errorf("second poll status = %s, want %s", second.Status, moodboard.StatusInProgress)
	}
	if h.ex.calls != 1 {
		t.Errorf("extractor calls = %d, want 1", h.ex.calls)
	}
}
