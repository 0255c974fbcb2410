package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/util"
)

// table describes one CSV file and how its rows map to a record type.
type table[T any] struct {
	file   string
	header []string
	encode func(T) []string
	decode func([]string) (T, bool)
}

var songMoodTable = table[moodboard.SongMoodRecord]{
	file:   "song_mood.csv",
	header: []string{"Song Name", "Artist", "Final Mood", "Frequency"},
	encode: func(r moodboard.SongMoodRecord) []string {
		return []string{r.Title, r.Artist, r.FinalMood.String(), strconv.Itoa(r.Frequency)}
	},
	decode: func(row []string) (moodboard.SongMoodRecord, bool) {
		if len(row) < 4 {
			return moodboard.SongMoodRecord{}, false
		}
		freq, _ := strconv.Atoi(strings.TrimSpace(row[3]))
		return moodboard.SongMoodRecord{
			Title:     row[0],
			Artist:    row[1],
			FinalMood: mood.Parse(row[2]),
			Frequency: freq,
		}, true
	},
}

var chunkFeatureTable = table[moodboard.ChunkFeatureRecord]{
	file: "song_chunk_analysis.csv",
	header: []string{
		"Song Key", "Chunk Number",
		"danceability", "energy", "loudness", "speechiness", "acousticness",
		"instrumentalness", "liveness", "valence", "tempo",
	},
	encode: func(r moodboard.ChunkFeatureRecord) []string {
		f := r.Features
		row := []string{r.SongKey, strconv.Itoa(r.ChunkIndex)}
		for _, v := range []float64{f.Danceability, f.Energy, f.Loudness, f.Speechiness, f.Acousticness, f.Instrumentalness, f.Liveness, f.Valence, f.Tempo} {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		return row
	},
	decode: func(row []string) (moodboard.ChunkFeatureRecord, bool) {
		if len(row) < 11 {
			return moodboard.ChunkFeatureRecord{}, false
		}
		idx, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return moodboard.ChunkFeatureRecord{}, false
		}
		v := make([]float64, 9)
		for i := range v {
			v[i], _ = strconv.ParseFloat(strings.TrimSpace(row[2+i]), 64)
		}
		return moodboard.ChunkFeatureRecord{
			SongKey:    row[0],
			ChunkIndex: idx,
			Features: moodboard.ChunkFeatures{
				Danceability:     v[0],
				Energy:           v[1],
				Loudness:         v[2],
				Speechiness:      v[3],
				Acousticness:     v[4],
				Instrumentalness: v[5],
				Liveness:         v[6],
				Valence:          v[7],
				Tempo:            v[8],
			},
		}, true
	},
}

var chunkMoodTable = table[moodboard.ChunkMoodRecord]{
	file:   "song_chunk_mood.csv",
	header: []string{"Song Key", "Chunk Number", "Mood"},
	encode: func(r moodboard.ChunkMoodRecord) []string {
		return []string{r.SongKey, strconv.Itoa(r.ChunkIndex), r.Mood.String()}
	},
	decode: func(row []string) (moodboard.ChunkMoodRecord, bool) {
		if len(row) < 3 {
			return moodboard.ChunkMoodRecord{}, false
		}
		idx, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return moodboard.ChunkMoodRecord{}, false
		}
		return moodboard.ChunkMoodRecord{SongKey: row[0], ChunkIndex: idx, Mood: mood.Parse(row[2])}, true
	},
}

var listeningTable = table[moodboard.ListeningHistoryRecord]{
	file:   "listening_history.csv",
	header: []string{"Song Name", "Artist", "Time of Day", "Date"},
	encode: func(r moodboard.ListeningHistoryRecord) []string {
		return []string{r.Title, r.Artist, string(r.TimeSlot), util.FormatDate(r.Date)}
	},
	decode: func(row []string) (moodboard.ListeningHistoryRecord, bool) {
		if len(row) < 4 {
			return moodboard.ListeningHistoryRecord{}, false
		}
		slot, err := moodboard.ParseTimeSlot(row[2])
		if err != nil {
			return moodboard.ListeningHistoryRecord{}, false
		}
		d, ok := parseDate(row[3])
		if !ok {
			return moodboard.ListeningHistoryRecord{}, false
		}
		return moodboard.ListeningHistoryRecord{Title: row[0], Artist: row[1], TimeSlot: slot, Date: d}, true
	},
}

var userMoodTable = table[moodboard.UserMoodRecord]{
	file:   "user_mood.csv",
	header: []string{"Date", "Time of Day", "Final Mood"},
	encode: func(r moodboard.UserMoodRecord) []string {
		return []string{util.FormatDate(r.Date), string(r.TimeSlot), r.FinalMood.String()}
	},
	decode: func(row []string) (moodboard.UserMoodRecord, bool) {
		if len(row) < 3 {
			return moodboard.UserMoodRecord{}, false
		}
		d, ok := parseDate(row[0])
		if !ok {
			return moodboard.UserMoodRecord{}, false
		}
		slot, err := moodboard.ParseTimeSlot(row[1])
		if err != nil {
			return moodboard.UserMoodRecord{}, false
		}
		return moodboard.UserMoodRecord{Date: d, TimeSlot: slot, FinalMood: mood.Parse(row[2])}, true
	},
}

var reflectionTable = table[moodboard.ReflectionRecord]{
	file:   "reflections.csv",
	header: []string{"Date", "Day", "Time of Day", "Short Notes"},
	encode: func(r moodboard.ReflectionRecord) []string {
		return []string{util.FormatDate(r.Date), r.Day, string(r.TimeSlot), r.Note}
	},
	decode: func(row []string) (moodboard.ReflectionRecord, bool) {
		if len(row) < 4 {
			return moodboard.ReflectionRecord{}, false
		}
		d, ok := parseDate(row[0])
		if !ok {
			return moodboard.ReflectionRecord{}, false
		}
		slot, err := moodboard.ParseTimeSlot(row[2])
		if err != nil {
			return moodboard.ReflectionRecord{}, false
		}
		return moodboard.ReflectionRecord{Date: d, Day: row[1], TimeSlot: slot, Note: row[3]}, true
	},
}

// suggestionFile has one column per compound mood and one suggestion per cell.
const suggestionFile = "mood_transitions_activities.csv"

func parseDate(s string) (time.Time, bool) {
	d, err := util.ParseDate(s, time.Local)
	return d, err == nil
}

func sameDay(a, b time.Time) bool {
	return util.FormatDate(a) == util.FormatDate(b)
}
