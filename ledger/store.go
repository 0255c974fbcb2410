// Package ledger persists song moods, chunk analyses, listening history, user
// moods and reflections. Every write is serialised behind one mutex per store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/database"
	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrNotFound is returned by single-record lookups that match nothing.
var ErrNotFound = errors.New("ledger: not found")

// Store is the typed ledger. Readers treat a missing table as empty.
type Store interface {
	// UpsertSongMood bumps the frequency of an existing (title, artist) record
	// and never touches its mood. With no record, one is created with
	// frequency 1 only when m is not Unknown. created reports an insert.
	UpsertSongMood(ctx context.Context, title, artist string, m mood.Mood) (created bool, err error)
	SongMood(ctx context.Context, title, artist string) (moodboard.SongMoodRecord, error)
	SongMoods(ctx context.Context) ([]moodboard.SongMoodRecord, error)

	AppendChunkFeatures(ctx context.Context, rec moodboard.ChunkFeatureRecord) error
	ChunkFeatures(ctx context.Context, songKey string) ([]moodboard.ChunkFeatureRecord, error)
	AppendChunkMood(ctx context.Context, rec moodboard.ChunkMoodRecord) error
	ChunkMoods(ctx context.Context, songKey string) ([]moodboard.ChunkMoodRecord, error)

	AppendListening(ctx context.Context, rec moodboard.ListeningHistoryRecord) error
	ListeningHistory(ctx context.Context) ([]moodboard.ListeningHistoryRecord, error)

	// UpsertUserMood replaces the row for (Date, TimeSlot) or appends one.
	UpsertUserMood(ctx context.Context, rec moodboard.UserMoodRecord) error
	UserMoods(ctx context.Context) ([]moodboard.UserMoodRecord, error)

	// AddReflection stores a note for (Date, TimeSlot). A second note for the
	// same key is joined to the first with " | ". The stored record is returned.
	AddReflection(ctx context.Context, rec moodboard.ReflectionRecord) (moodboard.ReflectionRecord, error)
	Reflections(ctx context.Context) ([]moodboard.ReflectionRecord, error)

	// Suggestions lists activity suggestions for a compound mood, in table order.
	Suggestions(ctx context.Context, m mood.Mood) ([]string, error)

	Close() error
}

const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	noteSeparator = " | "
)

// Open builds the store selected by cfg.LedgerBackend.
func Open(cfg config.Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LedgerBackend)) {
	case "", BackendCSV:
		return NewCSVStore(cfg.LedgerDir)
	case BackendSQLite:
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = filepath.Join(cfg.LedgerDir, "moodboard.db")
		}
		return openSQL(database.DriverSQLite, dsn, DialectSQLite, cfg.LedgerDir)
	case BackendPostgres:
		return openSQL(database.DriverPostgres, cfg.DatabaseURL, DialectPostgres, cfg.LedgerDir)
	}
	return nil, fmt.Errorf("ledger: unknown backend %q", cfg.LedgerBackend)
}

// openSQL opens a SQL store and seeds its suggestions from the CSV table kept
// in dir, so both backends answer suggestions from the same file.
func openSQL(driver, dsn string, dialect Dialect, dir string) (Store, error) {
	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	s, err := NewSQLStore(db, dialect)
	if err != nil {
		return nil, err
	}
	if _, err := s.SeedSuggestions(context.Background(), filepath.Join(dir, suggestionFile)); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// ProvideStore opens the configured store and closes it on shutdown.
func ProvideStore(lc fx.Lifecycle, log *zap.SugaredLogger, cfg config.Config) (Store, error) {
	s, err := Open(cfg)
	if err != nil {
		log.Errorw("Failed to open ledger", "backend", cfg.LedgerBackend, "error", err)
		return nil, err
	}
	log.Infow("Ledger ready", "backend", cfg.LedgerBackend)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}

var Options = ProvideStore

func joinNote(existing, note string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return note
	}
	return existing + noteSeparator + note
}
