package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/util"
	"github.com/gofrs/flock"
)

const lockFile = ".ledger.lock"

// CSVStore keeps one RFC 4180 file per table in a directory. Rewrites go
// through a temp file and rename. A lock file keeps a second process from
// writing the same directory.
type CSVStore struct {
	dir  string
	mu   sync.RWMutex
	lock *flock.Flock
}

// NewCSVStore opens (creating if needed) the ledger directory.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ledger: create dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("ledger: acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("ledger: %s is in use by another process", dir)
	}

	return &CSVStore{dir: dir, lock: lock}, nil
}

func (s *CSVStore) Close() error {
	return s.lock.Unlock()
}

func (s *CSVStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readRaw returns every row after the header. A missing file is an empty table.
func (s *CSVStore) readRaw(name string) ([][]string, error) {
	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ledger: parse %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

func readTable[T any](s *CSVStore, t table[T]) ([]T, error) {
	rows, err := s.readRaw(t.file)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if rec, ok := t.decode(row); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// writeTable replaces the whole file.
func writeTable[T any](s *CSVStore, t table[T], recs []T) error {
	tmp, err := os.CreateTemp(s.dir, t.file+".*.tmp")
	if err != nil {
		return fmt.Errorf("ledger: write %s: %w", t.file, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Write(t.header)
	for _, r := range recs {
		w.Write(t.encode(r))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("ledger: write %s: %w", t.file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ledger: write %s: %w", t.file, err)
	}
	if err := os.Rename(tmp.Name(), s.path(t.file)); err != nil {
		return fmt.Errorf("ledger: replace %s: %w", t.file, err)
	}
	return nil
}

// appendRow adds one record, writing the header first for a new file.
func appendRow[T any](s *CSVStore, t table[T], rec T) error {
	p := s.path(t.file)
	needHeader := true
	if info, err := os.Stat(p); err == nil && info.Size() > 0 {
		needHeader = false
	}

	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: append %s: %w", t.file, err)
	}

	w := csv.NewWriter(f)
	if needHeader {
		w.Write(t.header)
	}
	w.Write(t.encode(rec))
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("ledger: append %s: %w", t.file, err)
	}
	return f.Close()
}

func (s *CSVStore) UpsertSongMood(_ context.Context, title, artist string, m mood.Mood) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := readTable(s, songMoodTable)
	if err != nil {
		return false, err
	}

	key := util.SongKey(title, artist)
	for i := range recs {
		if recs[i].Key() == key {
			recs[i].Frequency++
			return false, writeTable(s, songMoodTable, recs)
		}
	}

	if m.IsUnknown() {
		return false, nil
	}
	rec := moodboard.SongMoodRecord{Title: title, Artist: artist, FinalMood: m, Frequency: 1}
	if err := appendRow(s, songMoodTable, rec); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CSVStore) SongMood(_ context.Context, title, artist string) (moodboard.SongMoodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, err := readTable(s, songMoodTable)
	if err != nil {
		return moodboard.SongMoodRecord{}, err
	}
	key := util.SongKey(title, artist)
	for _, r := range recs {
		if r.Key() == key {
			return r, nil
		}
	}
	return moodboard.SongMoodRecord{}, ErrNotFound
}

func (s *CSVStore) SongMoods(context.Context) ([]moodboard.SongMoodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readTable(s, songMoodTable)
}

func (s *CSVStore) AppendChunkFeatures(_ context.Context, rec moodboard.ChunkFeatureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendRow(s, chunkFeatureTable, rec)
}

func (s *CSVStore) ChunkFeatures(_ context.Context, songKey string) ([]moodboard.ChunkFeatureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, err := readTable(s, chunkFeatureTable)
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, r := range recs {
		if r.SongKey == songKey {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *CSVStore) AppendChunkMood(_ context.Context, rec moodboard.ChunkMoodRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendRow(s, chunkMoodTable, rec)
}

func (s *CSVStore) ChunkMoods(_ context.Context, songKey string) ([]moodboard.ChunkMoodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, err := readTable(s, chunkMoodTable)
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, r := range recs {
		if r.SongKey == songKey {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *CSVStore) AppendListening(_ context.Context, rec moodboard.ListeningHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendRow(s, listeningTable, rec)
}

func (s *CSVStore) ListeningHistory(context.Context) ([]moodboard.ListeningHistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readTable(s, listeningTable)
}

func (s *CSVStore) UpsertUserMood(_ context.Context, rec moodboard.UserMoodRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := readTable(s, userMoodTable)
	if err != nil {
		return err
	}
	for i := range recs {
		if sameDay(recs[i].Date, rec.Date) && recs[i].TimeSlot == rec.TimeSlot {
			recs[i].FinalMood = rec.FinalMood
			return writeTable(s, userMoodTable, recs)
		}
	}
	return appendRow(s, userMoodTable, rec)
}

func (s *CSVStore) UserMoods(context.Context) ([]moodboard.UserMoodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readTable(s, userMoodTable)
}

func (s *CSVStore) AddReflection(_ context.Context, rec moodboard.ReflectionRecord) (moodboard.ReflectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Day == "" {
		rec.Day = rec.Date.Weekday().String()
	}

	recs, err := readTable(s, reflectionTable)
	if err != nil {
		return moodboard.ReflectionRecord{}, err
	}
	for i := range recs {
		if sameDay(recs[i].Date, rec.Date) && recs[i].TimeSlot == rec.TimeSlot {
			recs[i].Note = joinNote(recs[i].Note, rec.Note)
			if err := writeTable(s, reflectionTable, recs); err != nil {
				return moodboard.ReflectionRecord{}, err
			}
			return recs[i], nil
		}
	}
	if err := appendRow(s, reflectionTable, rec); err != nil {
		return moodboard.ReflectionRecord{}, err
	}
	return rec, nil
}

func (s *CSVStore) Reflections(context.Context) ([]moodboard.ReflectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readTable(s, reflectionTable)
}

// Suggestions reads the column whose header normalises to m.
func (s *CSVStore) Suggestions(_ context.Context, m mood.Mood) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cols, err := readSuggestionFile(s.path(suggestionFile))
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c.mood == m {
			return c.items, nil
		}
	}
	return nil, nil
}

type suggestionColumn struct {
	mood  mood.Mood
	items []string
}

// readSuggestionFile parses the suggestion table at path, skipping columns
// whose header is not a mood and blank cells. A missing file has no columns.
func readSuggestionFile(path string) ([]suggestionColumn, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", suggestionFile, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ledger: parse %s: %w", suggestionFile, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var cols []suggestionColumn
	for i, h := range rows[0] {
		m := mood.Parse(h)
		if m.IsUnknown() {
			continue
		}
		c := suggestionColumn{mood: m}
		for _, row := range rows[1:] {
			if i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					c.items = append(c.items, v)
				}
			}
		}
		cols = append(cols, c)
	}
	return cols, nil
}
