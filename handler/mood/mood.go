package mood

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/AadityaKP/MoodBoard/dashboard"
	"github.com/AadityaKP/MoodBoard/ledger"
	"go.uber.org/zap"
)

// --- User Mood Handler ---

// UserMoodHandler returns the mood for the current day and time slot.
type UserMoodHandler struct {
	log   *zap.SugaredLogger
	store ledger.Store
	now   func() time.Time
}

func (*UserMoodHandler) Pattern() string {
	return "/user-mood"
}

func NewUserMoodHandler(log *zap.SugaredLogger, store ledger.Store) *UserMoodHandler {
	return &UserMoodHandler{log: log, store: store, now: time.Now}
}

func (h *UserMoodHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := dashboard.CurrentUserMood(r.Context(), h.store, h.now())
	if err != nil {
		h.log.Errorw("Failed to read user mood", "error", err)
		http.Error(w, `{"error":"failed to read user mood"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

// --- Mood Distribution Handler ---

type DistributionHandler struct {
	log   *zap.SugaredLogger
	store ledger.Store
}

func (*DistributionHandler) Pattern() string {
	return "/mood-distribution"
}

func NewDistributionHandler(log *zap.SugaredLogger, store ledger.Store) *DistributionHandler {
	return &DistributionHandler{log: log, store: store}
}

func (h *DistributionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := dashboard.MoodDistribution(r.Context(), h.store)
	if err != nil {
		h.log.Errorw("Failed to read mood distribution", "error", err)
		http.Error(w, `{"error":"failed to read mood distribution"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

// --- Top Songs Handler ---

// TopSongsHandler ranks the most played songs for ?mood=.
type TopSongsHandler struct {
	log   *zap.SugaredLogger
	store ledger.Store
}

func (*TopSongsHandler) Pattern() string {
	return "/top-songs"
}

func NewTopSongsHandler(log *zap.SugaredLogger, store ledger.Store) *TopSongsHandler {
	return &TopSongsHandler{log: log, store: store}
}

func (h *TopSongsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := dashboard.RankTopSongs(r.Context(), h.store, r.URL.Query().Get("mood"))
	if err != nil {
		h.log.Errorw("Failed to rank top songs", "error", err)
		http.Error(w, `{"error":"failed to read song moods"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

// --- Suggestions Handler ---

type SuggestionsHandler struct {
	log   *zap.SugaredLogger
	store ledger.Store
	now   func() time.Time
}

func (*SuggestionsHandler) Pattern() string {
	return "/suggestions"
}

func NewSuggestionsHandler(log *zap.SugaredLogger, store ledger.Store) *SuggestionsHandler {
	return &SuggestionsHandler{log: log, store: store, now: time.Now}
}

func (h *SuggestionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := dashboard.SuggestionsFor(r.Context(), h.store, h.now())
	if err != nil {
		h.log.Errorw("Failed to read suggestions", "error", err)
		http.Error(w, `{"error":"failed to read suggestions"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

// --- Listening History Handler ---

type HistoryHandler struct {
	log   *zap.SugaredLogger
	store ledger.Store
}

func (*HistoryHandler) Pattern() string {
	return "/listening-history"
}

func NewHistoryHandler(log *zap.SugaredLogger, store ledger.Store) *HistoryHandler {
	return &HistoryHandler{log: log, store: store}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := dashboard.History(r.Context(), h.store)
	if err != nil {
		h.log.Errorw("Failed to read listening history", "error", err)
		http.Error(w, `{"error":"failed to read listening history"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(resp)
}
