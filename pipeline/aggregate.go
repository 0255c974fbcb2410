package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/util"
)

// SessionMoods returns the stored song mood of every play logged in the slot
// containing at, in history order. Plays of unknown or unanalysed songs are
// left out.
func SessionMoods(ctx context.Context, store ledger.Store, at time.Time) ([]mood.Mood, error) {
	history, err := store.ListeningHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	songs, err := store.SongMoods(ctx)
	if err != nil {
		return nil, fmt.Errorf("read song moods: %w", err)
	}

	byKey := make(map[string]mood.Mood, len(songs))
	for _, s := range songs {
		if _, ok := byKey[s.Key()]; !ok {
			byKey[s.Key()] = s.FinalMood
		}
	}

	day, slot := util.FormatDate(at), moodboard.SlotAt(at)
	var moods []mood.Mood
	for _, h := range history {
		if h.TimeSlot != slot || util.FormatDate(h.Date) != day {
			continue
		}
		if m, ok := byKey[h.Key()]; ok && !m.IsUnknown() {
			moods = append(moods, m)
		}
	}
	return moods, nil
}

// RecomputeUserMood votes the session's song moods into the user mood for the
// slot containing at and upserts it. Nothing is written when no play in the
// slot has a known mood; Unknown is returned in that case.
func RecomputeUserMood(ctx context.Context, store ledger.Store, at time.Time) (mood.Mood, error) {
	moods, err := SessionMoods(ctx, store, at)
	if err != nil {
		return mood.Unknown, err
	}

	m := mood.Vote(moods)
	if m.IsUnknown() {
		return m, nil
	}

	rec := moodboard.UserMoodRecord{Date: util.Day(at), TimeSlot: moodboard.SlotAt(at), FinalMood: m}
	if err := store.UpsertUserMood(ctx, rec); err != nil {
		return mood.Unknown, fmt.Errorf("upsert user mood: %w", err)
	}
	return m, nil
}
