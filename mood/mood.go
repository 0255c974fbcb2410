// Package mood models moods on a valence (happy/sad) and arousal (calm/energetic)
// grid, normalizes the many spellings found in the wild and folds collections
// of moods into a single compound by per-axis majority vote.
package mood

import (
	"strings"
)

// Valence is the happy/sad axis.
type Valence uint8

const (
	NoValence Valence = iota
	Happy
	Sad
)

// Arousal is the calm/energetic axis.
type Arousal uint8

const (
	NoArousal Arousal = iota
	Calm
	Energetic
)

// Mood is a point on the grid. Either axis may be absent; both absent is Unknown.
type Mood struct {
	Valence Valence
	Arousal Arousal
}

var (
	Unknown        = Mood{}
	HappyCalm      = Mood{Happy, Calm}
	HappyEnergetic = Mood{Happy, Energetic}
	SadCalm        = Mood{Sad, Calm}
	SadEnergetic   = Mood{Sad, Energetic}

	// Single-axis labels, as produced per chunk by the classifier.
	HappyLabel     = Mood{Valence: Happy}
	SadLabel       = Mood{Valence: Sad}
	CalmLabel      = Mood{Arousal: Calm}
	EnergeticLabel = Mood{Arousal: Energetic}
)

const unknownName = "Unknown"

func (v Valence) String() string {
	switch v {
	case Happy:
		return "Happy"
	case Sad:
		return "Sad"
	}
	return ""
}

func (a Arousal) String() string {
	switch a {
	case Calm:
		return "Calm"
	case Energetic:
		return "Energetic"
	}
	return ""
}

// IsUnknown reports whether neither axis carries data.
func (m Mood) IsUnknown() bool {
	return m.Valence == NoValence && m.Arousal == NoArousal
}

// IsCompound reports whether both axes are set.
func (m Mood) IsCompound() bool {
	return m.Valence != NoValence && m.Arousal != NoArousal
}

// String renders the ledger/API form: "Happy and Energetic", "Calm" or "Unknown".
func (m Mood) String() string {
	return m.join(" and ", unknownName)
}

// Label renders the dashboard grid form ("Happy + Calm"). Only full compounds
// have a grid cell; everything else renders empty.
func (m Mood) Label() string {
	if !m.IsCompound() {
		return ""
	}
	return m.join(" + ", "")
}

// Key is the lower-case, separator-free form used to match mood columns and
// query parameters ("happyenergetic").
func (m Mood) Key() string {
	return strings.ToLower(m.join("", strings.ToLower(unknownName)))
}

func (m Mood) join(sep, empty string) string {
	parts := make([]string, 0, 2)
	if s := m.Valence.String(); s != "" {
		parts = append(parts, s)
	}
	if s := m.Arousal.String(); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return empty
	}
	return strings.Join(parts, sep)
}

// Parse normalizes any mood spelling ("Happy and Energetic", "happy+energetic",
// "HappyEnergetic", "Sad + Calm", "calm") by case-insensitive substring match on
// the four axis words. Anything else is Unknown.
func Parse(s string) Mood {
	l := strings.ToLower(s)
	var m Mood
	switch {
	case strings.Contains(l, "happy"):
		m.Valence = Happy
	case strings.Contains(l, "sad"):
		m.Valence = Sad
	}
	switch {
	case strings.Contains(l, "energetic"):
		m.Arousal = Energetic
	case strings.Contains(l, "calm"):
		m.Arousal = Calm
	}
	return m
}

// ParseLabel accepts exactly one of the four chunk labels, case-insensitively.
func ParseLabel(s string) Mood {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "happy":
		return HappyLabel
	case "sad":
		return SadLabel
	case "calm":
		return CalmLabel
	case "energetic":
		return EnergeticLabel
	}
	return Unknown
}

// MarshalText renders the display form so JSON payloads carry "Happy and Calm".
func (m Mood) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts any spelling Parse understands.
func (m *Mood) UnmarshalText(b []byte) error {
	*m = Parse(string(b))
	return nil
}

// Alias applies the lone-valence relabeling: a lone Happy becomes Happy and
// Energetic, a lone Sad becomes Sad and Calm.
func Alias(m Mood) Mood {
	if m.Arousal != NoArousal {
		return m
	}
	switch m.Valence {
	case Happy:
		return HappyEnergetic
	case Sad:
		return SadCalm
	}
	return m
}
