package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AadityaKP/MoodBoard/spotify"
	spot "github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
)

type controller interface {
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Devices(ctx context.Context) ([]spot.PlayerDevice, error)
}

// --- Control Handler ---

// ControlHandler skips forward or back on the user's active device.
type ControlHandler struct {
	log    *zap.SugaredLogger
	player controller
}

func (*ControlHandler) Pattern() string {
	return "/control"
}

func NewControlHandler(log *zap.SugaredLogger, spotifyClient *spotify.SpotifyClient) *ControlHandler {
	return &ControlHandler{log: log, player: spotifyClient}
}

type ControlRequest struct {
	Action string `json:"action"`
}

func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	var err error
	switch req.Action {
	case "next":
		err = h.player.Next(r.Context())
	case "previous":
		err = h.player.Previous(r.Context())
	default:
		http.Error(w, `{"error":"invalid action"}`, http.StatusBadRequest)
		return
	}

	if errors.Is(err, spotify.ErrNotConnected) {
		http.Error(w, `{"error":"spotify not connected"}`, http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.log.Errorw("Playback control failed", "action", req.Action, "error", err)
		http.Error(w, `{"error":"playback control failed"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Devices Handler ---

// DevicesHandler lists the user's available Spotify playback devices.
type DevicesHandler struct {
	log    *zap.SugaredLogger
	player controller
}

func (*DevicesHandler) Pattern() string {
	return "/spotify/devices"
}

func NewDevicesHandler(log *zap.SugaredLogger, spotifyClient *spotify.SpotifyClient) *DevicesHandler {
	return &DevicesHandler{log: log, player: spotifyClient}
}

type DeviceInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
	Volume   int    `json:"volume"`
}

func (h *DevicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	devices, err := h.player.Devices(r.Context())
	if errors.Is(err, spotify.ErrNotConnected) {
		http.Error(w, `{"error":"spotify not connected"}`, http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.log.Errorw("Failed to get devices", "error", err)
		http.Error(w, `{"error":"failed to get devices"}`, http.StatusInternalServerError)
		return
	}

	result := []DeviceInfo{}
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:       string(d.ID),
			Name:     d.Name,
			Type:     d.Type,
			IsActive: d.Active,
			Volume:   int(d.Volume),
		})
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"devices": result,
	})
}
