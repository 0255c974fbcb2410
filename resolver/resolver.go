// Package resolver maps a playing track to an audio file in the local playlist
// directory.
package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AadityaKP/MoodBoard/util"
)

// ErrNotFound is returned when no file in the directory matches.
var ErrNotFound = errors.New("resolver: no matching audio file")

var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".aac":  true,
}

// IsAudio reports whether name carries a recognised audio extension.
func IsAudio(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}

// Resolve returns the first audio file in dir whose sanitized name contains the
// sanitized title and at least one sanitized artist. Matching is by substring so
// variants like "Song Name (Remastered) - Artist.mp3" still resolve.
func Resolve(title, artists, dir string) (string, error) {
	want := matchTitle(title)
	if want == "" {
		return "", ErrNotFound
	}
	names := matchArtists(artists)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("resolver: read %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !IsAudio(e.Name()) {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		candidate := loose(util.Sanitize(stem))

		if !strings.Contains(candidate, want) {
			continue
		}
		for _, a := range names {
			if strings.Contains(candidate, a) {
				return filepath.Join(dir, e.Name()), nil
			}
		}
	}
	return "", ErrNotFound
}

// matchTitle sanitizes title and drops a trailing "from ..." credit, as in
// "Song (From "Some Film")".
func matchTitle(title string) string {
	words := strings.Fields(loose(util.Sanitize(title)))
	for i, w := range words {
		if w == "from" && i > 0 {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

func matchArtists(artists string) []string {
	var out []string
	for _, a := range strings.Split(artists, ",") {
		if s := loose(util.Sanitize(a)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// loose treats underscores and hyphens as word breaks and collapses runs of
// spaces, so "chill_vibes_dj_test" contains "chill vibes".
func loose(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
