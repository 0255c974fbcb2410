package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/util"
)

// Sections maps each time slot to its grid label, "" when nothing was recorded.
type Sections map[moodboard.TimeSlot]string

type WeekDay struct {
	Day       string   `json:"day"`
	DayOfWeek string   `json:"dayOfWeek"`
	Sections  Sections `json:"sections"`
}

type MonthDay struct {
	Day      string   `json:"day"`
	Sections Sections `json:"sections"`
}

type Note struct {
	Date string             `json:"date"`
	Time moodboard.TimeSlot `json:"time"`
	Note string             `json:"note"`
}

type Reflection struct {
	Date string             `json:"date"`
	Day  string             `json:"day"`
	Time moodboard.TimeSlot `json:"time"`
	Note string             `json:"note"`
}

// grid indexes user moods by day and slot; the first row for a key wins.
type grid map[string]Sections

func loadGrid(ctx context.Context, store ledger.Store) (grid, error) {
	recs, err := store.UserMoods(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: user moods: %w", err)
	}
	g := make(grid)
	for _, r := range recs {
		day := util.FormatDate(r.Date)
		if g[day] == nil {
			g[day] = make(Sections)
		}
		if _, ok := g[day][r.TimeSlot]; !ok {
			g[day][r.TimeSlot] = r.FinalMood.Label()
		}
	}
	return g, nil
}

func (g grid) sections(day time.Time) Sections {
	s := make(Sections, len(moodboard.TimeSlots))
	found := g[util.FormatDate(day)]
	for _, slot := range moodboard.TimeSlots {
		s[slot] = found[slot]
	}
	return s
}

// Week returns the Sunday-to-Saturday week containing date.
func Week(ctx context.Context, store ledger.Store, date time.Time) ([]WeekDay, error) {
	g, err := loadGrid(ctx, store)
	if err != nil {
		return nil, err
	}

	start := util.Day(date).AddDate(0, 0, -int(date.Weekday()))
	week := make([]WeekDay, 0, 7)
	for i := range 7 {
		d := start.AddDate(0, 0, i)
		week = append(week, WeekDay{
			Day:       d.Format(util.ISODateLayout),
			DayOfWeek: d.Weekday().String()[:3],
			Sections:  g.sections(d),
		})
	}
	return week, nil
}

// DayGrid returns the slot labels for one day.
func DayGrid(ctx context.Context, store ledger.Store, date time.Time) (Sections, error) {
	g, err := loadGrid(ctx, store)
	if err != nil {
		return nil, err
	}
	return g.sections(date), nil
}

// Month returns every day of the month with its slot labels.
func Month(ctx context.Context, store ledger.Store, year int, month time.Month, loc *time.Location) ([]MonthDay, error) {
	g, err := loadGrid(ctx, store)
	if err != nil {
		return nil, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days := first.AddDate(0, 1, -1).Day()
	out := make([]MonthDay, 0, days)
	for i := range days {
		d := first.AddDate(0, 0, i)
		out = append(out, MonthDay{Day: d.Format(util.ISODateLayout), Sections: g.sections(d)})
	}
	return out, nil
}

// Notes returns the reflections written for date.
func Notes(ctx context.Context, store ledger.Store, date time.Time) ([]Note, error) {
	recs, err := store.Reflections(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: reflections: %w", err)
	}
	day := util.FormatDate(date)
	notes := []Note{}
	for _, r := range recs {
		if util.FormatDate(r.Date) == day {
			notes = append(notes, Note{Date: day, Time: r.TimeSlot, Note: r.Note})
		}
	}
	return notes, nil
}

// Reflections lists every stored reflection.
func Reflections(ctx context.Context, store ledger.Store) ([]Reflection, error) {
	recs, err := store.Reflections(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: reflections: %w", err)
	}
	out := make([]Reflection, 0, len(recs))
	for _, r := range recs {
		out = append(out, Reflection{Date: util.FormatDate(r.Date), Day: r.Day, Time: r.TimeSlot, Note: r.Note})
	}
	return out, nil
}
