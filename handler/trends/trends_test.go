package trends

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/AadityaKP/MoodBoard/dashboard"
	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/logger"
	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
)

func seededStore(t *testing.T) ledger.Store {
	t.Helper()
	store, err := ledger.NewCSVStore(filepath.Join(t.TempDir(), "CSVS"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	day := time.Date(2025, time.June, 7, 0, 0, 0, 0, time.Local)
	if err := store.UpsertUserMood(ctx, moodboard.UserMoodRecord{Date: day, TimeSlot: moodboard.Evening, FinalMood: mood.HappyCalm}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddReflection(ctx, moodboard.ReflectionRecord{Date: day, TimeSlot: moodboard.Evening, Note: "good day, mostly"}); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestTrendHandlers(t *testing.T) {
	log, _ := logger.NewTestLogger()
	store := seededStore(t)
	june := func() time.Time { return time.Date(2025, time.June, 20, 12, 0, 0, 0, time.Local) }

	tests := []struct {
		name    string
		handler http.Handler
		target  string
		code    int
		check   func(t *testing.T, body []byte)
	}{
		{
			name:    "weekly by date",
			handler: NewWeeklyHandler(log, store),
			target:  "/trends/weekly?date=2025-06-04",
			code:    http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp struct{ Week []dashboard.WeekDay }
				json.Unmarshal(body, &resp)
				if len(resp.Week) != 7 || resp.Week[6].Sections[moodboard.Evening] != "Happy + Calm" {
					t.Errorf("week = %+v", resp.Week)
				}
			},
		},
		{
			name:    "weekly bad date",
			handler: NewWeeklyHandler(log, store),
			target:  "/trends/weekly?date=June",
			code:    http.StatusBadRequest,
		},
		{
			name:    "weekly alias defaults to today",
			handler: &WeeklyHandler{log: log, store: store, pattern: "/weekly-trends", now: june},
			target:  "/weekly-trends",
			code:    http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp struct{ Week []dashboard.WeekDay }
				json.Unmarshal(body, &resp)
				if len(resp.Week) != 7 || resp.Week[0].Day != "2025-06-15" {
					t.Errorf("week = %+v", resp.Week)
				}
			},
		},
		{
			name:    "day in ledger format",
			handler: NewDayHandler(log, store),
			target:  "/trends/day?date=07-06-2025",
			code:    http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp struct {
					Date string
					Data dashboard.Sections
				}
				json.Unmarshal(body, &resp)
				if resp.Date != "07-06-2025" || resp.Data[moodboard.Evening] != "Happy + Calm" || resp.Data[moodboard.Morning] != "" {
					t.Errorf("day = %+v", resp)
				}
			},
		},
		{
			name:    "day without date",
			handler: NewDayHandler(log, store),
			target:  "/trends/day",
			code:    http.StatusBadRequest,
		},
		{
			name:    "monthly",
			handler: &MonthlyHandler{log: log, store: store, now: june},
			target:  "/trends/monthly?month=6&year=2025",
			code:    http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp struct{ Month []dashboard.MonthDay }
				json.Unmarshal(body, &resp)
				if len(resp.Month) != 30 || resp.Month[6].Sections[moodboard.Evening] != "Happy + Calm" {
					t.Errorf("month = %d days", len(resp.Month))
				}
			},
		},
		{
			name:    "monthly bad month",
			handler: &MonthlyHandler{log: log, store: store, now: june},
			target:  "/trends/monthly?month=13",
			code:    http.StatusBadRequest,
		},
		{
			name:    "notes",
			handler: NewNotesHandler(log, store),
			target:  "/trends/notes?date=2025-06-07",
			code:    http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp struct{ Notes []dashboard.Note }
				json.Unmarshal(body, &resp)
				if len(resp.Notes) != 1 || resp.Notes[0].Note != "good day, mostly" {
					t.Errorf("notes = %+v", resp.Notes)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rr.Code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.code, rr.Body.String())
			}
			if tt.check != nil {
				tt.check(t, rr.Body.Bytes())
			}
		})
	}
}

func TestWeeklyPatterns(t *testing.T) {
	log, _ := logger.NewTestLogger()
	if got := NewWeeklyHandler(log, nil).Pattern(); got != "/trends/weekly" {
		t.Errorf("weekly pattern = %s", got)
	}
	if got := NewWeeklyTrendsHandler(log, nil).Pattern(); got != "/weekly-trends" {
		t.Errorf("alias pattern = %s", got)
	}
}
