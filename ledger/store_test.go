package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/AadityaKP/MoodBoard/database"
	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
)

type storeFactory func(t *testing.T) Store

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"csv": func(t *testing.T) Store {
			s, err := NewCSVStore(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
		"sqlite": func(t *testing.T) Store {
			db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "ledger.db"))
			if err != nil {
				t.Fatal(err)
			}
			s, err := NewSQLStore(db, DialectSQLite)
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

var june7 = time.Date(2025, time.June, 7, 0, 0, 0, 0, time.Local)

func TestSongMoodUpsert(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		created, err := s.UpsertSongMood(ctx, "Chill Vibes", "DJ Test", mood.HappyCalm)
		if err != nil || !created {
			t.Fatalf("first upsert = %v, %v", created, err)
		}

		for i := 0; i < 2; i++ {
			created, err := s.UpsertSongMood(ctx, "Chill Vibes", "DJ Test", mood.Unknown)
			if err != nil || created {
				t.Fatalf("bump %d = %v, %v", i, created, err)
			}
		}

		// a different mood for an existing record only bumps frequency
		if _, err := s.UpsertSongMood(ctx, "chill vibes", "dj test", mood.SadEnergetic); err != nil {
			t.Fatal(err)
		}

		got, err := s.SongMood(ctx, "Chill Vibes", "DJ Test")
		if err != nil {
			t.Fatal(err)
		}
		if got.Frequency != 4 {
			t.Errorf("Frequency = %d, want 4", got.Frequency)
		}
		if got.FinalMood != mood.HappyCalm {
			t.Errorf("FinalMood = %v, want Happy and Calm", got.FinalMood)
		}
	})
}

func TestSongMoodUnknownNotInserted(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		created, err := s.UpsertSongMood(ctx, "Silence", "Nobody", mood.Unknown)
		if err != nil || created {
			t.Fatalf("upsert = %v, %v", created, err)
		}
		if _, err := s.SongMood(ctx, "Silence", "Nobody"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		all, err := s.SongMoods(ctx)
		if err != nil || len(all) != 0 {
			t.Errorf("SongMoods = %v, %v", all, err)
		}
	})
}

func TestSongMoodDelimiterRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		title := `Hello, "Goodbye", Hello`
		artist := "Crosby, Stills, Nash & Young"

		if _, err := s.UpsertSongMood(ctx, title, artist, mood.SadCalm); err != nil {
			t.Fatal(err)
		}
		if _, err := s.UpsertSongMood(ctx, "Plain", "Artist", mood.HappyEnergetic); err != nil {
			t.Fatal(err)
		}

		all, err := s.SongMoods(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 {
			t.Fatalf("len = %d, want 2", len(all))
		}
		if all[0].Title != title || all[0].Artist != artist {
			t.Errorf("round trip = %q / %q", all[0].Title, all[0].Artist)
		}
		if all[0].FinalMood != mood.SadCalm || all[0].Frequency != 1 {
			t.Errorf("record = %+v", all[0])
		}
	})
}

func TestChunkTables(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		key := "chill vibes::dj test"

		for i, m := range []mood.Mood{mood.HappyLabel, mood.Unknown, mood.CalmLabel} {
			feat := moodboard.ChunkFeatureRecord{SongKey: key, ChunkIndex: i + 1, Features: moodboard.ChunkFeatures{Energy: 0.25 * float64(i), Tempo: 100 + float64(i)}}
			if err := s.AppendChunkFeatures(ctx, feat); err != nil {
				t.Fatal(err)
			}
			if err := s.AppendChunkMood(ctx, moodboard.ChunkMoodRecord{SongKey: key, ChunkIndex: i + 1, Mood: m}); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.AppendChunkMood(ctx, moodboard.ChunkMoodRecord{SongKey: "other::x", ChunkIndex: 1, Mood: mood.SadLabel}); err != nil {
			t.Fatal(err)
		}

		moods, err := s.ChunkMoods(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if len(moods) != 3 || moods[0].Mood != mood.HappyLabel || moods[1].Mood != mood.Unknown || moods[2].ChunkIndex != 3 {
			t.Errorf("ChunkMoods = %+v", moods)
		}

		feats, err := s.ChunkFeatures(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if len(feats) != 3 || feats[2].Features.Energy != 0.5 || feats[2].Features.Tempo != 102 {
			t.Errorf("ChunkFeatures = %+v", feats)
		}
	})
}

func TestListeningHistoryAppend(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		rec := moodboard.ListeningHistoryRecord{Title: "Chill Vibes", Artist: "DJ Test", TimeSlot: moodboard.Evening, Date: june7}

		for i := 0; i < 2; i++ {
			if err := s.AppendListening(ctx, rec); err != nil {
				t.Fatal(err)
			}
		}

		got, err := s.ListeningHistory(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[1].TimeSlot != moodboard.Evening || !got[1].Date.Equal(june7) || got[1].Title != "Chill Vibes" {
			t.Errorf("record = %+v", got[1])
		}
	})
}

func TestUserMoodUpsertInPlace(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		writes := []moodboard.UserMoodRecord{
			{Date: june7, TimeSlot: moodboard.Morning, FinalMood: mood.SadCalm},
			{Date: june7, TimeSlot: moodboard.Evening, FinalMood: mood.HappyCalm},
			{Date: june7, TimeSlot: moodboard.Morning, FinalMood: mood.HappyEnergetic},
		}
		for _, w := range writes {
			if err := s.UpsertUserMood(ctx, w); err != nil {
				t.Fatal(err)
			}
		}

		got, err := s.UserMoods(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].TimeSlot != moodboard.Morning || got[0].FinalMood != mood.HappyEnergetic {
			t.Errorf("morning = %+v", got[0])
		}
		if got[1].FinalMood != mood.HappyCalm {
			t.Errorf("evening = %+v", got[1])
		}
	})
}

func TestReflectionsAppendNote(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		first, err := s.AddReflection(ctx, moodboard.ReflectionRecord{Date: june7, TimeSlot: moodboard.Night, Note: "long day"})
		if err != nil {
			t.Fatal(err)
		}
		if first.Day != "Saturday" {
			t.Errorf("Day = %q, want Saturday", first.Day)
		}

		second, err := s.AddReflection(ctx, moodboard.ReflectionRecord{Date: june7, TimeSlot: moodboard.Night, Note: "better now, thanks"})
		if err != nil {
			t.Fatal(err)
		}
		if second.Note != "long day | better now, thanks" {
			t.Errorf("Note = %q", second.Note)
		}

		all, err := s.Reflections(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 1 || all[0].Note != second.Note {
			t.Errorf("Reflections = %+v", all)
		}
	})
}

func TestEmptyLedgerReads(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if recs, err := s.ListeningHistory(ctx); err != nil || len(recs) != 0 {
			t.Errorf("ListeningHistory = %v, %v", recs, err)
		}
		if recs, err := s.UserMoods(ctx); err != nil || len(recs) != 0 {
			t.Errorf("UserMoods = %v, %v", recs, err)
		}
		if recs, err := s.ChunkMoods(ctx, "k"); err != nil || len(recs) != 0 {
			t.Errorf("ChunkMoods = %v, %v", recs, err)
		}
		if recs, err := s.Reflections(ctx); err != nil || len(recs) != 0 {
			t.Errorf("Reflections = %v, %v", recs, err)
		}
		if recs, err := s.Suggestions(ctx, mood.HappyCalm); err != nil || len(recs) != 0 {
			t.Errorf("Suggestions = %v, %v", recs, err)
		}
	})
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(configFor("redis", t.TempDir())); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
