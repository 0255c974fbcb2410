package health

import (
	"encoding/json"
	"net/http"

	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/spotify"
	"go.uber.org/zap"
)

type spotifyStatus interface {
	Configured() bool
}

// HealthHandler reports whether the server, the Spotify credentials and the
// ledger are usable.
type HealthHandler struct {
	log           *zap.SugaredLogger
	spotifyClient spotifyStatus
	store         ledger.Store
}

func (*HealthHandler) Pattern() string {
	return "/health"
}

// NewHealthHandler builds a new HealthHandler.
func NewHealthHandler(log *zap.SugaredLogger, spotifyClient *spotify.SpotifyClient, store ledger.Store) *HealthHandler {
	return &HealthHandler{
		log:           log,
		spotifyClient: spotifyClient,
		store:         store,
	}
}

type Response struct {
	Server  bool `json:"server"`
	Spotify bool `json:"spotify"`
	Ledger  bool `json:"ledger"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var resp Response

	h.log.Debug("health check")

	resp.Server = true

	// Make sure Spotify client is set up properly
	resp.Spotify = h.spotifyClient.Configured()

	if _, err := h.store.SongMoods(r.Context()); err != nil {
		h.log.Warnw("Ledger unreadable", "error", err)
	} else {
		resp.Ledger = true
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
