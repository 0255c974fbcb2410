package moodboard

import (
	"time"

	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/util"
)

// PlaybackSample is one poll of the playback source. It is never persisted.
type PlaybackSample struct {
	TrackID string   `json:"track_id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	// ProgressMs is how far into the track playback is.
	// Example: 65000
	ProgressMs int `json:"progress_ms"`
	// DurationMs is the duration of the track in milliseconds.
	// Example: 237040
	DurationMs int    `json:"duration_ms"`
	IsPlaying  bool   `json:"is_playing"`
	ImageURL   string `json:"image"`
}

// Artist returns the joined artist string, as stored in the ledger.
func (s PlaybackSample) Artist() string {
	return util.JoinArtists(s.Artists)
}

// SongKey returns the normalized identity used for sessions, locks and the ledger.
func (s PlaybackSample) SongKey() string {
	return util.SongKey(s.Title, s.Artist())
}

// ChunkFeatures are the acoustic features measured for one 30 second window.
type ChunkFeatures struct {
	// Danceability describes how suitable a track is for dancing based on a combination of
	// musical elements including tempo, rhythm stability, beat strength, and overall regularity.
	// A value of 0.0 is least danceable and 1.0 is most danceable.
	// Example: 0.585
	Danceability float64 `json:"danceability"`
	// Energy is a measure from 0.0 to 1.0 and represents a perceptual measure of intensity
	// and activity. Typically, energetic tracks feel fast, loud, and noisy.
	// Example: 0.842
	Energy float64 `json:"energy"`
	// Loudness is the overall loudness in decibels (dB). Values typically range between -60 and 0 db.
	// Example: -5.883
	Loudness float64 `json:"loudness"`
	// Speechiness detects the presence of spoken words. Values above 0.66 describe audio that is
	// probably made entirely of spoken words.
	// Example: 0.0556
	Speechiness float64 `json:"speechiness"`
	// Acousticness is a confidence measure from 0.0 to 1.0 of whether the audio is acoustic.
	// Example: 0.00242
	Acousticness float64 `json:"acousticness"`
	// Instrumentalness predicts whether the audio contains no vocals. "Ooh" and "aah" sounds are treated as instrumental.
	// Example: 0.00686
	Instrumentalness float64 `json:"instrumentalness"`
	// Liveness detects the presence of an audience in the recording. A value above 0.8 provides strong likelihood that it is live.
	// Example: 0.0866
	Liveness float64 `json:"liveness"`
	// Valence is a measure from 0.0 to 1.0 describing the musical positiveness conveyed.
	// Range: 0 - 1
	// Example: 0.428
	Valence float64 `json:"valence"`
	// Tempo is the overall estimated tempo in beats per minute (BPM).
	// Example: 118.211
	Tempo float64 `json:"tempo"`
}

// ChunkFeatureRecord is one analysed window of a song. ChunkIndex is 1-based.
type ChunkFeatureRecord struct {
	SongKey    string        `json:"song_key"`
	ChunkIndex int           `json:"chunk_number"`
	Features   ChunkFeatures `json:"features"`
}

type ChunkMoodRecord struct {
	SongKey    string    `json:"song_key"`
	ChunkIndex int       `json:"chunk_number"`
	Mood       mood.Mood `json:"mood"`
}

// SongMoodRecord is unique per song key. FinalMood is written once; later plays
// only bump Frequency.
type SongMoodRecord struct {
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	FinalMood mood.Mood `json:"final_mood"`
	Frequency int       `json:"frequency"`
}

func (r SongMoodRecord) Key() string {
	return util.SongKey(r.Title, r.Artist)
}

// ListeningHistoryRecord is one logged play.
type ListeningHistoryRecord struct {
	Title    string    `json:"title"`
	Artist   string    `json:"artist"`
	TimeSlot TimeSlot  `json:"time_of_day"`
	Date     time.Time `json:"date"`
}

func (r ListeningHistoryRecord) Key() string {
	return util.SongKey(r.Title, r.Artist)
}

// UserMoodRecord is unique per (Date, TimeSlot).
type UserMoodRecord struct {
	Date      time.Time `json:"date"`
	TimeSlot  TimeSlot  `json:"time_of_day"`
	FinalMood mood.Mood `json:"final_mood"`
}

// ReflectionRecord is a free-text note, unique per (Date, TimeSlot).
type ReflectionRecord struct {
	Date     time.Time `json:"date"`
	Day      string    `json:"day"`
	TimeSlot TimeSlot  `json:"time_of_day"`
	Note     string    `json:"note"`
}

// CurrentTrack is the last track handed to analysis.
type CurrentTrack struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	Analyzed bool   `json:"analyzed"`
	Mood     string `json:"mood,omitempty"`
	Image    string `json:"image,omitempty"`
}
