package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	spot "github.com/zmb3/spotify/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// LedgerDateLayout is how calendar days are stored in the ledger (DD-MM-YYYY).
	LedgerDateLayout = "02-01-2006"
	// ISODateLayout is the YYYY-MM-DD form used by the dashboard.
	ISODateLayout = "2006-01-02"

	songKeySeparator = "::"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Sanitize normalizes a title or artist string for matching: NFKD decomposition,
// then only ASCII letters, digits, spaces, hyphens and underscores survive.
// The result is trimmed and lower-cased.
func Sanitize(s string) string {
	// transform.Chain is stateful, so build one per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(dropRune)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func dropRune(r rune) bool {
	switch {
	case r > unicode.MaxASCII:
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == ' ', r == '-', r == '_':
		return false
	}
	return true
}

// SongKey returns the normalized identity of a song: sanitize(title)::sanitize(artist).
func SongKey(title, artist string) string {
	return Sanitize(title) + songKeySeparator + Sanitize(artist)
}

// JoinArtists returns a comma-separated list of artist names
func JoinArtists(artists []string) string {
	return strings.Join(artists, ", ")
}

// GetImage returns the 300x300 album image when present, otherwise the first one.
func GetImage(a spot.SimpleAlbum) string {
	for _, img := range a.Images {
		if img.Height == 300 && img.Width == 300 {
			return img.URL
		}
	}
	if len(a.Images) > 0 {
		return a.Images[0].URL
	}
	return ""
}

// FormatDate renders t as a ledger calendar day.
func FormatDate(t time.Time) string {
	return t.Format(LedgerDateLayout)
}

// ParseDate accepts YYYY-MM-DD or DD-MM-YYYY and returns midnight of that day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	layout := LedgerDateLayout
	if isoDate.MatchString(s) {
		layout = ISODateLayout
	}
	d, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or DD-MM-YYYY", s)
	}
	return d, nil
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
