package spotify

import (
	"context"
	"net/http"
	"time"

	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/pipeline"
	"github.com/AadityaKP/MoodBoard/session"
	"github.com/AadityaKP/MoodBoard/spotify"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type PlayerStateUpdate struct {
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
	IsPlaying  bool   `json:"is_playing"`
	ProgressMs int    `json:"progress_ms"`
	DurationMs int    `json:"duration_ms"`
	Image      string `json:"image,omitempty"`
	Mood       string `json:"mood,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// the dashboard is served from a different local port
		return true
	},
}

type playbackSource interface {
	CurrentPlayback(ctx context.Context) (moodboard.PlaybackSample, error)
}

type sessionSource interface {
	Session() session.State
}

// PlayerHandler pushes the player state to a websocket client every tick.
type PlayerHandler struct {
	log      *zap.SugaredLogger
	source   playbackSource
	session  sessionSource
	interval time.Duration
}

func (*PlayerHandler) Pattern() string {
	return "/ws/player"
}

func NewPlayerHandler(log *zap.SugaredLogger, cfg config.Config, spotifyClient *spotify.SpotifyClient, p *pipeline.Pipeline) *PlayerHandler {
	interval := cfg.PlayerInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &PlayerHandler{log: log, source: spotifyClient, session: p, interval: interval}
}

func (h *PlayerHandler) update(ctx context.Context) (PlayerStateUpdate, error) {
	sample, err := h.source.CurrentPlayback(ctx)
	if err != nil {
		return PlayerStateUpdate{}, err
	}
	if sample.Title == "" {
		// No track playing
		return PlayerStateUpdate{}, nil
	}

	update := PlayerStateUpdate{
		TrackName:  sample.Title,
		ArtistName: sample.Artist(),
		IsPlaying:  sample.IsPlaying,
		ProgressMs: sample.ProgressMs,
		DurationMs: sample.DurationMs,
		Image:      sample.ImageURL,
	}
	if ct := h.session.Session().CurrentTrack; ct != nil && ct.ID == sample.TrackID {
		update.Mood = ct.Mood
	}
	return update, nil
}

func (h *PlayerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("Error upgrading connection to WebSocket", "error", err)
		return
	}
	defer conn.Close()

	h.log.Info("WebSocket client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// the read loop notices the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("WebSocket client disconnected")
			return
		case <-ticker.C:
		}

		update, err := h.update(ctx)
		if err != nil {
			h.log.Errorw("Error fetching Spotify player state", "error", err)
			return
		}

		if err := conn.WriteJSON(update); err != nil {
			h.log.Errorw("Error sending WebSocket message", "error", err)
			return // Client likely disconnected
		}
	}
}
