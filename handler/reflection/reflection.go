package reflection

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/AadityaKP/MoodBoard/dashboard"
	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/util"
	"go.uber.org/zap"
)

// ReflectionHandler lists reflections on GET and stores one on POST. A second
// note for the same day and slot is appended to the first.
type ReflectionHandler struct {
	log   *zap.SugaredLogger
	store ledger.Store
}

func (*ReflectionHandler) Pattern() string {
	return "/reflections"
}

func NewReflectionHandler(log *zap.SugaredLogger, store ledger.Store) *ReflectionHandler {
	return &ReflectionHandler{log: log, store: store}
}

type AddRequest struct {
	Reflection string `json:"reflection"`
	Date       string `json:"date"`
	TimeSlot   string `json:"timeSlot"`
}

type AddResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *ReflectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.add(w, r)
	default:
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (h *ReflectionHandler) list(w http.ResponseWriter, r *http.Request) {
	reflections, err := dashboard.Reflections(r.Context(), h.store)
	if err != nil {
		h.log.Errorw("Failed to read reflections", "error", err)
		http.Error(w, `{"error":"failed to read reflections"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"reflections": reflections})
}

func (h *ReflectionHandler) add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	note := strings.TrimSpace(req.Reflection)
	if note == "" || req.Date == "" || req.TimeSlot == "" {
		http.Error(w, `{"error":"Missing fields: reflection, date, timeSlot"}`, http.StatusBadRequest)
		return
	}
	date, err := util.ParseDate(req.Date, time.Local)
	if err != nil {
		http.Error(w, `{"error":"Invalid date format. Use YYYY-MM-DD or DD-MM-YYYY"}`, http.StatusBadRequest)
		return
	}
	slot, err := moodboard.ParseTimeSlot(req.TimeSlot)
	if err != nil {
		http.Error(w, `{"error":"timeSlot must be morning, afternoon, evening or night"}`, http.StatusBadRequest)
		return
	}

	rec, err := h.store.AddReflection(r.Context(), moodboard.ReflectionRecord{Date: date, TimeSlot: slot, Note: note})
	if err != nil {
		h.log.Errorw("Failed to save reflection", "error", err)
		http.Error(w, `{"error":"failed to save reflection"}`, http.StatusInternalServerError)
		return
	}

	h.log.Infow("Reflection saved", "date", util.FormatDate(rec.Date), "time_of_day", rec.TimeSlot)
	json.NewEncoder(w).Encode(AddResponse{Success: true, Message: "Reflection saved successfully"})
}
