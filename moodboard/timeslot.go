package moodboard

import (
	"fmt"
	"strings"
	"time"
)

// TimeSlot is a quarter of the listening day.
type TimeSlot string

const (
	Morning   TimeSlot = "morning"
	Afternoon TimeSlot = "afternoon"
	Evening   TimeSlot = "evening"
	Night     TimeSlot = "night"
)

// TimeSlots lists the slots in display order.
var TimeSlots = []TimeSlot{Morning, Afternoon, Evening, Night}

// SlotAt maps a wall-clock time to its slot: morning [06,10), afternoon [10,14),
// evening [14,18), night otherwise.
func SlotAt(t time.Time) TimeSlot {
	switch h := t.Hour(); {
	case h >= 6 && h < 10:
		return Morning
	case h >= 10 && h < 14:
		return Afternoon
	case h >= 14 && h < 18:
		return Evening
	default:
		return Night
	}
}

// ParseTimeSlot accepts any casing of the four slot names.
func ParseTimeSlot(s string) (TimeSlot, error) {
	ts := TimeSlot(strings.ToLower(strings.TrimSpace(s)))
	for _, slot := range TimeSlots {
		if ts == slot {
			return ts, nil
		}
	}
	return "", fmt.Errorf("invalid time slot %q", s)
}
