package trends

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/AadityaKP/MoodBoard/dashboard"
	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/util"
	"go.uber.org/zap"
)

// --- Weekly Handler ---

// WeeklyHandler returns the Sunday-start week containing ?date= (default today).
// It is registered under both /trends/weekly and /weekly-trends.
type WeeklyHandler struct {
	log     *zap.SugaredLogger
	store   ledger.Store
	pattern string
	now     func() time.Time
}

func (h *WeeklyHandler) Pattern() string {
	return h.pattern
}

func NewWeeklyHandler(log *zap.SugaredLogger, store ledger.Store) *WeeklyHandler {
	return &WeeklyHandler{log: log, store: store, pattern: "/trends/weekly", now: time.Now}
}

// NewWeeklyTrendsHandler serves the same week under the path older dashboards use.
func NewWeeklyTrendsHandler(log *zap.SugaredLogger, store ledger.Store) *WeeklyHandler {
	return &WeeklyHandler{log: log, store: store, pattern: "/weekly-trends", now: time.Now}
}

func (h *WeeklyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	date := h.now()
	if q := r.URL.Query().Get("date"); q != "" {
		d, err := util.ParseDate(q, time.Local)
		if err != nil {
			http.Error(w, `{"error":"Invalid date format. Use YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		date = d
	}

	week, err := dashboard.Week(r.Context(), h.store, date)
	if err != nil {
		h.log.Errorw("Failed to build weekly trends", "error", err)
		http.Error(w, `{"error":"failed to read user moods"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"week": week})
}

// --- Day Handler ---

type DayHandler struct {
	log   *zap.SugaredLogger
	store ledger.Store
}

func (*DayHandler) Pattern() string {
	return "/trends/day"
}

func NewDayHandler(log *zap.SugaredLogger, store ledger.Store) *DayHandler {
	return &DayHandler{log: log, store: store}
}

func (h *DayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("date")
	if q == "" {
		http.Error(w, `{"error":"No date provided"}`, http.StatusBadRequest)
		return
	}
	date, err := util.ParseDate(q, time.Local)
	if err != nil {
		http.Error(w, `{"error":"Invalid date format. Use YYYY-MM-DD or DD-MM-YYYY"}`, http.StatusBadRequest)
		return
	}

	sections, err := dashboard.DayGrid(r.Context(), h.store, date)
	if err != nil {
		h.log.Errorw("Failed to build day trends", "error", err)
		http.Error(w, `{"error":"failed to read user moods"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"date": q, "data": sections})
}

// --- Monthly Handler ---

type MonthlyHandler struct {
	log   *zap.SugaredLogger
	store ledger.Store
	now   func() time.Time
}

func (*MonthlyHandler) Pattern() string {
	return "/trends/monthly"
}

func NewMonthlyHandler(log *zap.SugaredLogger, store ledger.Store) *MonthlyHandler {
	return &MonthlyHandler{log: log, store: store, now: time.Now}
}

func (h *MonthlyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	month, year := int(now.Month()), now.Year()

	if q := r.URL.Query().Get("month"); q != "" {
		m, err := strconv.Atoi(q)
		if err != nil || m < 1 || m > 12 {
			http.Error(w, `{"error":"month must be 1-12"}`, http.StatusBadRequest)
			return
		}
		month = m
	}
	if q := r.URL.Query().Get("year"); q != "" {
		y, err := strconv.Atoi(q)
		if err != nil {
			http.Error(w, `{"error":"invalid year"}`, http.StatusBadRequest)
			return
		}
		year = y
	}

	days, err := dashboard.Month(r.Context(), h.store, year, time.Month(month), now.Location())
	if err != nil {
		h.log.Errorw("Failed to build monthly trends", "error", err)
		http.Error(w, `{"error":"failed to read user moods"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"month": days})
}

// --- Notes Handler ---

// NotesHandler returns the reflections written on ?date=.
type NotesHandler struct {
	log   *zap.SugaredLogger
	store ledger.Store
}

func (*NotesHandler) Pattern() string {
	return "/trends/notes"
}

func NewNotesHandler(log *zap.SugaredLogger, store ledger.Store) *NotesHandler {
	return &NotesHandler{log: log, store: store}
}

func (h *NotesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("date")
	if q == "" {
		http.Error(w, `{"error":"No date provided"}`, http.StatusBadRequest)
		return
	}
	date, err := util.ParseDate(q, time.Local)
	if err != nil {
		http.Error(w, `{"error":"Invalid date format. Use YYYY-MM-DD or DD-MM-YYYY"}`, http.StatusBadRequest)
		return
	}

	notes, err := dashboard.Notes(r.Context(), h.store, date)
	if err != nil {
		h.log.Errorw("Failed to read notes", "error", err)
		http.Error(w, `{"error":"failed to read reflections"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"notes": notes})
}
