package moodboard

import (
	"testing"
	"time"
)

func TestSlotAt(t *testing.T) {
	tests := []struct {
		hour int
		want TimeSlot
	}{
		{0, Night},
		{5, Night},
		{6, Morning},
		{9, Morning},
		{10, Afternoon},
		{13, Afternoon},
		{14, Evening},
		{17, Evening},
		{18, Night},
		{23, Night},
	}

	for _, tt := range tests {
		at := time.Date(2025, time.June, 7, tt.hour, 30, 0, 0, time.UTC)
		if got := SlotAt(at); got != tt.want {
			t.Errorf("SlotAt(%02d:30) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestParseTimeSlot(t *testing.T) {
	got, err := ParseTimeSlot(" Evening ")
	if err != nil {
		t.Fatal(err)
	}
	if got != Evening {
		t.Errorf("ParseTimeSlot = %s, want evening", got)
	}

	if _, err := ParseTimeSlot("dusk"); err == nil {
		t.Error("expected error for unknown slot")
	}
}

func TestSampleSongKey(t *testing.T) {
	s := PlaybackSample{Title: "Chill Vibes", Artists: []string{"DJ Test", "MC Other"}}
	if got := s.Artist(); got != "DJ Test, MC Other" {
		t.Errorf("Artist() = %q", got)
	}
	if got := s.SongKey(); got != "chill vibes::dj test mc other" {
		t.Errorf("SongKey() = %q", got)
	}
}
