package mood

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/AadityaKP/MoodBoard/dashboard"
	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/logger"
	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
)

var evening = time.Date(2025, time.June, 7, 15, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) ledger.Store {
	t.Helper()
	store, err := ledger.NewCSVStore(filepath.Join(t.TempDir(), "CSVS"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	if _, err := store.UpsertSongMood(ctx, "Chill Vibes", "DJ Test", mood.HappyEnergetic); err != nil {
		t.Fatal(err)
	}
	if err := store.AppendListening(ctx, moodboard.ListeningHistoryRecord{Title: "Chill Vibes", Artist: "DJ Test", TimeSlot: moodboard.Evening, Date: evening}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertUserMood(ctx, moodboard.UserMoodRecord{Date: evening, TimeSlot: moodboard.Evening, FinalMood: mood.HappyEnergetic}); err != nil {
		t.Fatal(err)
	}
	return store
}

func serve(t *testing.T, h http.Handler, target string, out any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("%s: status = %d body = %s", target, rr.Code, rr.Body.String())
	}
	if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
		t.Fatalf("%s: %v", target, err)
	}
}

func TestMoodHandlers(t *testing.T) {
	log, _ := logger.NewTestLogger()
	store := seededStore(t)
	clock := func() time.Time { return evening }

	var um dashboard.UserMood
	serve(t, &UserMoodHandler{log: log, store: store, now: clock}, "/user-mood", &um)
	if um.UserMood != "Happy and Energetic" || um.Time != moodboard.Evening {
		t.Errorf("user mood = %+v", um)
	}

	var dist dashboard.Distribution
	serve(t, NewDistributionHandler(log, store), "/mood-distribution", &dist)
	if len(dist.Moods) != 1 || dist.Records[0].Day != "Saturday" {
		t.Errorf("distribution = %+v", dist)
	}

	var top dashboard.TopSongs
	serve(t, NewTopSongsHandler(log, store), "/top-songs?mood=Happy", &top)
	if top.Mood != "Happy" || len(top.Songs) != 1 || top.Songs[0].Title != "Chill Vibes" {
		t.Errorf("top songs = %+v", top)
	}

	var sugg dashboard.Suggestions
	serve(t, &SuggestionsHandler{log: log, store: store, now: clock}, "/suggestions", &sugg)
	if sugg.Mood != "happyenergetic" || len(sugg.Suggestions) != 1 || sugg.Suggestions[0] != dashboard.DefaultSuggestion {
		t.Errorf("suggestions = %+v", sugg)
	}

	var history []dashboard.HistoryEntry
	serve(t, NewHistoryHandler(log, store), "/listening-history", &history)
	if len(history) != 1 || history[0].Artist != "DJ Test" {
		t.Errorf("history = %+v", history)
	}
}
