package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/util"
)

// Dialect captures the few differences between the supported SQL engines.
type Dialect struct {
	Name         string
	autoID       string
	dollarParams bool
}

var (
	DialectSQLite   = Dialect{Name: "sqlite", autoID: "INTEGER PRIMARY KEY AUTOINCREMENT"}
	DialectPostgres = Dialect{Name: "postgres", autoID: "BIGSERIAL PRIMARY KEY", dollarParams: true}
)

// SQLStore keeps the ledger in a relational database. Dates are stored as
// YYYY-MM-DD text and rows are read back in insertion order.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex
}

// NewSQLStore takes ownership of db and migrates the schema.
func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate() error {
	id := s.dialect.autoID
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS song_moods (
			id ` + id + `,
			song_key TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			final_mood TEXT NOT NULL,
			frequency INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS chunk_features (
			id ` + id + `,
			song_key TEXT NOT NULL,
			chunk_number INTEGER NOT NULL,
			danceability DOUBLE PRECISION,
			energy DOUBLE PRECISION,
			loudness DOUBLE PRECISION,
			speechiness DOUBLE PRECISION,
			acousticness DOUBLE PRECISION,
			instrumentalness DOUBLE PRECISION,
			liveness DOUBLE PRECISION,
			valence DOUBLE PRECISION,
			tempo DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS chunk_moods (
			id ` + id + `,
			song_key TEXT NOT NULL,
			chunk_number INTEGER NOT NULL,
			mood TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS listening_history (
			id ` + id + `,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			time_slot TEXT NOT NULL,
			play_date TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_moods (
			id ` + id + `,
			play_date TEXT NOT NULL,
			time_slot TEXT NOT NULL,
			final_mood TEXT NOT NULL,
			UNIQUE (play_date, time_slot)
		)`,
		`CREATE TABLE IF NOT EXISTS reflections (
			id ` + id + `,
			note_date TEXT NOT NULL,
			day TEXT NOT NULL,
			time_slot TEXT NOT NULL,
			note TEXT NOT NULL,
			UNIQUE (note_date, time_slot)
		)`,
		`CREATE TABLE IF NOT EXISTS suggestions (
			id ` + id + `,
			mood_key TEXT NOT NULL,
			suggestion TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_moods_song ON chunk_moods (song_key)`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_features_song ON chunk_features (song_key)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// q rewrites ? placeholders to $n for postgres.
func (s *SQLStore) q(query string) string {
	if !s.dialect.dollarParams {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isoDate(t time.Time) string {
	return t.Format(util.ISODateLayout)
}

func parseISODate(s string) time.Time {
	d, _ := util.ParseDate(s, time.Local)
	return d
}

func (s *SQLStore) UpsertSongMood(ctx context.Context, title, artist string, m mood.Mood) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback()

	key := util.SongKey(title, artist)
	res, err := tx.ExecContext(ctx, s.q(`UPDATE song_moods SET frequency = frequency + 1 WHERE song_key = ?`), key)
	if err != nil {
		return false, fmt.Errorf("ledger: bump frequency: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return false, tx.Commit()
	}

	if m.IsUnknown() {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx,
		s.q(`INSERT INTO song_moods (song_key, title, artist, final_mood, frequency) VALUES (?, ?, ?, ?, 1)`),
		key, title, artist, m.String(),
	); err != nil {
		return false, fmt.Errorf("ledger: insert song mood: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("ledger: commit: %w", err)
	}
	return true, nil
}

func scanSongMood(sc interface{ Scan(...any) error }) (moodboard.SongMoodRecord, error) {
	var (
		r       moodboard.SongMoodRecord
		rawMood string
	)
	if err := sc.Scan(&r.Title, &r.Artist, &rawMood, &r.Frequency); err != nil {
		return r, err
	}
	r.FinalMood = mood.Parse(rawMood)
	return r, nil
}

func (s *SQLStore) SongMood(ctx context.Context, title, artist string) (moodboard.SongMoodRecord, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT title, artist, final_mood, frequency FROM song_moods WHERE song_key = ?`),
		util.SongKey(title, artist),
	)
	r, err := scanSongMood(row)
	if errors.Is(err, sql.ErrNoRows) {
		return moodboard.SongMoodRecord{}, ErrNotFound
	}
	if err != nil {
		return moodboard.SongMoodRecord{}, fmt.Errorf("ledger: load song mood: %w", err)
	}
	return r, nil
}

func (s *SQLStore) SongMoods(ctx context.Context) ([]moodboard.SongMoodRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, artist, final_mood, frequency FROM song_moods ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list song moods: %w", err)
	}
	defer rows.Close()

	var out []moodboard.SongMoodRecord
	for rows.Next() {
		r, err := scanSongMood(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: scan song mood: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendChunkFeatures(ctx context.Context, rec moodboard.ChunkFeatureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := rec.Features
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO chunk_features
		(song_key, chunk_number, danceability, energy, loudness, speechiness, acousticness, instrumentalness, liveness, valence, tempo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.SongKey, rec.ChunkIndex,
		f.Danceability, f.Energy, f.Loudness, f.Speechiness, f.Acousticness, f.Instrumentalness, f.Liveness, f.Valence, f.Tempo,
	)
	if err != nil {
		return fmt.Errorf("ledger: insert chunk features: %w", err)
	}
	return nil
}

func (s *SQLStore) ChunkFeatures(ctx context.Context, songKey string) ([]moodboard.ChunkFeatureRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT chunk_number,
		COALESCE(danceability, 0), COALESCE(energy, 0), COALESCE(loudness, 0), COALESCE(speechiness, 0),
		COALESCE(acousticness, 0), COALESCE(instrumentalness, 0), COALESCE(liveness, 0),
		COALESCE(valence, 0), COALESCE(tempo, 0)
		FROM chunk_features WHERE song_key = ? ORDER BY id`), songKey)
	if err != nil {
		return nil, fmt.Errorf("ledger: list chunk features: %w", err)
	}
	defer rows.Close()

	var out []moodboard.ChunkFeatureRecord
	for rows.Next() {
		r := moodboard.ChunkFeatureRecord{SongKey: songKey}
		f := &r.Features
		if err := rows.Scan(&r.ChunkIndex,
			&f.Danceability, &f.Energy, &f.Loudness, &f.Speechiness,
			&f.Acousticness, &f.Instrumentalness, &f.Liveness, &f.Valence, &f.Tempo,
		); err != nil {
			return nil, fmt.Errorf("ledger: scan chunk features: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendChunkMood(ctx context.Context, rec moodboard.ChunkMoodRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO chunk_moods (song_key, chunk_number, mood) VALUES (?, ?, ?)`),
		rec.SongKey, rec.ChunkIndex, rec.Mood.String(),
	)
	if err != nil {
		return fmt.Errorf("ledger: insert chunk mood: %w", err)
	}
	return nil
}

func (s *SQLStore) ChunkMoods(ctx context.Context, songKey string) ([]moodboard.ChunkMoodRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT chunk_number, mood FROM chunk_moods WHERE song_key = ? ORDER BY id`), songKey)
	if err != nil {
		return nil, fmt.Errorf("ledger: list chunk moods: %w", err)
	}
	defer rows.Close()

	var out []moodboard.ChunkMoodRecord
	for rows.Next() {
		var (
			idx int
			raw string
		)
		if err := rows.Scan(&idx, &raw); err != nil {
			return nil, fmt.Errorf("ledger: scan chunk mood: %w", err)
		}
		out = append(out, moodboard.ChunkMoodRecord{SongKey: songKey, ChunkIndex: idx, Mood: mood.Parse(raw)})
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendListening(ctx context.Context, rec moodboard.ListeningHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO listening_history (title, artist, time_slot, play_date) VALUES (?, ?, ?, ?)`),
		rec.Title, rec.Artist, string(rec.TimeSlot), isoDate(rec.Date),
	)
	if err != nil {
		return fmt.Errorf("ledger: insert listening: %w", err)
	}
	return nil
}

func (s *SQLStore) ListeningHistory(ctx context.Context) ([]moodboard.ListeningHistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, artist, time_slot, play_date FROM listening_history ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list listening: %w", err)
	}
	defer rows.Close()

	var out []moodboard.ListeningHistoryRecord
	for rows.Next() {
		var (
			r         moodboard.ListeningHistoryRecord
			slot, day string
		)
		if err := rows.Scan(&r.Title, &r.Artist, &slot, &day); err != nil {
			return nil, fmt.Errorf("ledger: scan listening: %w", err)
		}
		r.TimeSlot = moodboard.TimeSlot(slot)
		r.Date = parseISODate(day)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertUserMood(ctx context.Context, rec moodboard.UserMoodRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback()

	day, slot, m := isoDate(rec.Date), string(rec.TimeSlot), rec.FinalMood.String()
	res, err := tx.ExecContext(ctx,
		s.q(`UPDATE user_moods SET final_mood = ? WHERE play_date = ? AND time_slot = ?`), m, day, slot)
	if err != nil {
		return fmt.Errorf("ledger: update user mood: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		if _, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO user_moods (play_date, time_slot, final_mood) VALUES (?, ?, ?)`), day, slot, m,
		); err != nil {
			return fmt.Errorf("ledger: insert user mood: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) UserMoods(ctx context.Context) ([]moodboard.UserMoodRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT play_date, time_slot, final_mood FROM user_moods ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list user moods: %w", err)
	}
	defer rows.Close()

	var out []moodboard.UserMoodRecord
	for rows.Next() {
		var day, slot, raw string
		if err := rows.Scan(&day, &slot, &raw); err != nil {
			return nil, fmt.Errorf("ledger: scan user mood: %w", err)
		}
		out = append(out, moodboard.UserMoodRecord{
			Date:      parseISODate(day),
			TimeSlot:  moodboard.TimeSlot(slot),
			FinalMood: mood.Parse(raw),
		})
	}
	return out, rows.Err()
}

func (s *SQLStore) AddReflection(ctx context.Context, rec moodboard.ReflectionRecord) (moodboard.ReflectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Day == "" {
		rec.Day = rec.Date.Weekday().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return moodboard.ReflectionRecord{}, fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback()

	day, slot := isoDate(rec.Date), string(rec.TimeSlot)

	var existing string
	err = tx.QueryRowContext(ctx,
		s.q(`SELECT note FROM reflections WHERE note_date = ? AND time_slot = ?`), day, slot,
	).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			s.q(`INSERT INTO reflections (note_date, day, time_slot, note) VALUES (?, ?, ?, ?)`),
			day, rec.Day, slot, rec.Note)
	case err == nil:
		rec.Note = joinNote(existing, rec.Note)
		_, err = tx.ExecContext(ctx,
			s.q(`UPDATE reflections SET note = ? WHERE note_date = ? AND time_slot = ?`), rec.Note, day, slot)
	}
	if err != nil {
		return moodboard.ReflectionRecord{}, fmt.Errorf("ledger: save reflection: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return moodboard.ReflectionRecord{}, fmt.Errorf("ledger: commit: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) Reflections(ctx context.Context) ([]moodboard.ReflectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT note_date, day, time_slot, note FROM reflections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list reflections: %w", err)
	}
	defer rows.Close()

	var out []moodboard.ReflectionRecord
	for rows.Next() {
		var (
			r         moodboard.ReflectionRecord
			day, slot string
		)
		if err := rows.Scan(&day, &r.Day, &slot, &r.Note); err != nil {
			return nil, fmt.Errorf("ledger: scan reflection: %w", err)
		}
		r.Date = parseISODate(day)
		r.TimeSlot = moodboard.TimeSlot(slot)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SeedSuggestions copies the suggestion file at path into an empty
// suggestions table and reports how many rows were inserted. A seeded table or
// a missing file is left alone.
func (s *SQLStore) SeedSuggestions(ctx context.Context, path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM suggestions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger: count suggestions: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	cols, err := readSuggestionFile(path)
	if err != nil || len(cols) == 0 {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback()

	insert := s.q(`INSERT INTO suggestions (mood_key, suggestion) VALUES (?, ?)`)
	inserted := 0
	for _, c := range cols {
		for _, v := range c.items {
			if _, err := tx.ExecContext(ctx, insert, c.mood.Key(), v); err != nil {
				return 0, fmt.Errorf("ledger: seed suggestions: %w", err)
			}
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ledger: commit: %w", err)
	}
	return inserted, nil
}

func (s *SQLStore) Suggestions(ctx context.Context, m mood.Mood) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT suggestion FROM suggestions WHERE mood_key = ? ORDER BY id`), m.Key())
	if err != nil {
		return nil, fmt.Errorf("ledger: list suggestions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("ledger: scan suggestion: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
