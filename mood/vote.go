package mood

// tally counts votes and remembers first-seen order so ties resolve to the
// label encountered first.
type tally[T comparable] struct {
	order  []T
	counts map[T]int
}

func newTally[T comparable]() *tally[T] {
	return &tally[T]{counts: make(map[T]int)}
}

func (t *tally[T]) add(v T) {
	if _, ok := t.counts[v]; !ok {
		t.order = append(t.order, v)
	}
	t.counts[v]++
}

func (t *tally[T]) winner() (T, bool) {
	var best T
	found := false
	for _, v := range t.order {
		if !found || t.counts[v] > t.counts[best] {
			best = v
			found = true
		}
	}
	return best, found
}

// Vote folds moods into one. Each axis is decided independently by majority
// with ties going to the first label seen; Unknown inputs contribute nothing.
// The lone-valence aliasing is applied to the result.
func Vote(moods []Mood) Mood {
	valence := newTally[Valence]()
	arousal := newTally[Arousal]()

	for _, m := range moods {
		if m.Valence != NoValence {
			valence.add(m.Valence)
		}
		if m.Arousal != NoArousal {
			arousal.add(m.Arousal)
		}
	}

	var out Mood
	if v, ok := valence.winner(); ok {
		out.Valence = v
	}
	if a, ok := arousal.winner(); ok {
		out.Arousal = a
	}
	return Alias(out)
}
