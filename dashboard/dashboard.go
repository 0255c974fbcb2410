// Package dashboard builds the read-mostly views served to the web UI from
// the ledger tables.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/util"
	"golang.org/x/exp/maps"
)

const (
	// DistributionSize is how many user-mood rows the distribution covers.
	DistributionSize = 20
	// TopSongsLimit caps the top-songs list.
	TopSongsLimit = 5
	// DefaultTopSongsMood is used when no mood is asked for.
	DefaultTopSongsMood = "Happy"
	// DefaultSuggestion is offered when the table has nothing for the mood.
	DefaultSuggestion = "Try something new!"
)

type UserMood struct {
	UserMood string             `json:"user_mood"`
	Date     string             `json:"date"`
	Day      string             `json:"day"`
	Time     moodboard.TimeSlot `json:"time"`
}

// CurrentUserMood reports the user mood for the slot containing now, or
// Unknown when nothing has been recorded for it.
func CurrentUserMood(ctx context.Context, store ledger.Store, now time.Time) (UserMood, error) {
	m, err := currentMood(ctx, store, now)
	if err != nil {
		return UserMood{}, err
	}
	return UserMood{
		UserMood: m.String(),
		Date:     util.FormatDate(now),
		Day:      now.Weekday().String(),
		Time:     moodboard.SlotAt(now),
	}, nil
}

func currentMood(ctx context.Context, store ledger.Store, now time.Time) (mood.Mood, error) {
	recs, err := store.UserMoods(ctx)
	if err != nil {
		return mood.Unknown, fmt.Errorf("dashboard: user moods: %w", err)
	}
	day, slot := util.FormatDate(now), moodboard.SlotAt(now)
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].TimeSlot == slot && util.FormatDate(recs[i].Date) == day {
			return recs[i].FinalMood, nil
		}
	}
	return mood.Unknown, nil
}

type DistributionRecord struct {
	Date string             `json:"date"`
	Day  string             `json:"day"`
	Time moodboard.TimeSlot `json:"time"`
	Mood string             `json:"mood"`
}

type Distribution struct {
	Moods   []string             `json:"moods"`
	Records []DistributionRecord `json:"records"`
}

// MoodDistribution returns the most recent user-mood rows in ledger order.
func MoodDistribution(ctx context.Context, store ledger.Store) (Distribution, error) {
	recs, err := store.UserMoods(ctx)
	if err != nil {
		return Distribution{}, fmt.Errorf("dashboard: user moods: %w", err)
	}
	if len(recs) > DistributionSize {
		recs = recs[len(recs)-DistributionSize:]
	}

	d := Distribution{
		Moods:   make([]string, 0, len(recs)),
		Records: make([]DistributionRecord, 0, len(recs)),
	}
	for _, r := range recs {
		d.Moods = append(d.Moods, r.FinalMood.String())
		d.Records = append(d.Records, DistributionRecord{
			Date: util.FormatDate(r.Date),
			Day:  r.Date.Weekday().String(),
			Time: r.TimeSlot,
			Mood: r.FinalMood.String(),
		})
	}
	return d, nil
}

type SongRef struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type TopSongs struct {
	Mood  string    `json:"mood"`
	Songs []SongRef `json:"songs"`
}

// RankTopSongs returns the most played songs whose mood matches query once
// both sides are normalised and aliased. Equal play counts keep ledger order.
func RankTopSongs(ctx context.Context, store ledger.Store, query string) (TopSongs, error) {
	if query == "" {
		query = DefaultTopSongsMood
	}
	out := TopSongs{Mood: query, Songs: []SongRef{}}

	target := mood.Alias(mood.Parse(query))
	if target.IsUnknown() {
		return out, nil
	}

	recs, err := store.SongMoods(ctx)
	if err != nil {
		return TopSongs{}, fmt.Errorf("dashboard: song moods: %w", err)
	}

	scores := make(map[SongRef]int)
	order := make(map[SongRef]int)
	for i, r := range recs {
		if mood.Alias(r.FinalMood) != target {
			continue
		}
		ref := SongRef{Title: r.Title, Artist: r.Artist}
		if _, ok := order[ref]; !ok {
			order[ref] = i
		}
		scores[ref] += r.Frequency
	}

	ranked := maps.Keys(scores)
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return order[ranked[i]] < order[ranked[j]]
	})
	if len(ranked) > TopSongsLimit {
		ranked = ranked[:TopSongsLimit]
	}
	out.Songs = ranked
	return out, nil
}

type Suggestions struct {
	Mood        string   `json:"mood"`
	Suggestions []string `json:"suggestions"`
}

// SuggestionsFor looks up activity suggestions for the current user mood.
func SuggestionsFor(ctx context.Context, store ledger.Store, now time.Time) (Suggestions, error) {
	m, err := currentMood(ctx, store, now)
	if err != nil {
		return Suggestions{}, err
	}

	out := Suggestions{Mood: m.Key()}
	if m.IsCompound() {
		list, err := store.Suggestions(ctx, m)
		if err != nil {
			return Suggestions{}, fmt.Errorf("dashboard: suggestions: %w", err)
		}
		out.Suggestions = list
	}
	if len(out.Suggestions) == 0 {
		out.Suggestions = []string{DefaultSuggestion}
	}
	return out, nil
}

type HistoryEntry struct {
	Title    string             `json:"title"`
	Artist   string             `json:"artist"`
	TimeSlot moodboard.TimeSlot `json:"time_of_day"`
	Date     string             `json:"date"`
}

// History lists every logged play in ledger order.
func History(ctx context.Context, store ledger.Store) ([]HistoryEntry, error) {
	recs, err := store.ListeningHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: history: %w", err)
	}
	out := make([]HistoryEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, HistoryEntry{Title: r.Title, Artist: r.Artist, TimeSlot: r.TimeSlot, Date: util.FormatDate(r.Date)})
	}
	return out, nil
}
