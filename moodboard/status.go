package moodboard

// Status tags every pipeline invocation.
type Status string

const (
	StatusNoPlayback       Status = "no_playback"
	StatusPlaybackInfo     Status = "playback_info"
	StatusAlreadyLogged    Status = "already_logged_this_session"
	StatusInProgress       Status = "analysis_in_progress"
	StatusAlreadyAnalyzed  Status = "already_analyzed"
	StatusAnalysisComplete Status = "analysis_complete"
	StatusFileNotFound     Status = "file_not_found"
	StatusError            Status = "error"
)

// TrackInfo describes the sample a result refers to.
type TrackInfo struct {
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	ProgressMs int    `json:"progress_ms"`
	DurationMs int    `json:"duration_ms"`
	Image      string `json:"image,omitempty"`
}

// Result is what one pipeline run reports back. Mood is the display string of
// the song mood when one is known.
type Result struct {
	Status       Status        `json:"status"`
	Message      string        `json:"message"`
	Track        *TrackInfo    `json:"track,omitempty"`
	Mood         string        `json:"mood,omitempty"`
	Chunks       int           `json:"chunks,omitempty"`
	CurrentTrack *CurrentTrack `json:"currentTrack,omitempty"`
}

// NewTrackInfo builds the TrackInfo for a sample.
func NewTrackInfo(s PlaybackSample) *TrackInfo {
	return &TrackInfo{
		Name:       s.Title,
		Artist:     s.Artist(),
		ProgressMs: s.ProgressMs,
		DurationMs: s.DurationMs,
		Image:      s.ImageURL,
	}
}
