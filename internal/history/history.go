package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrClosed is returned by a Store after Close.
var ErrClosed = errors.New("history closed")

// Entry records one subtitle load.
type Entry struct {
	ID       int64     `json:"id"`
	Session  string    `json:"session"`
	Filename string    `json:"filename"`
	Format   string    `json:"format"`
	Encoding string    `json:"encoding"`
	Cues     int       `json:"cues"`
	OffsetMs float64   `json:"offsetMs"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Store persists loads in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create history dir")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open history %s", path)
	}
	// one connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS loads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			filename TEXT NOT NULL,
			format TEXT NOT NULL,
			encoding TEXT NOT NULL,
			cues INTEGER NOT NULL,
			offset_ms REAL NOT NULL DEFAULT 0,
			loaded_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_loads_loaded_at ON loads(loaded_at);
		CREATE INDEX IF NOT EXISTS idx_loads_filename ON loads(filename);
	`)
	return errors.Wrap(err, "init history schema")
}

// Record stores e and returns its id. A zero LoadedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	if e.LoadedAt.IsZero() {
		e.LoadedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO loads (session, filename, format, encoding, cues, offset_ms, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Session, e.Filename, e.Format, e.Encoding, e.Cues, e.OffsetMs, e.LoadedAt.UnixMilli(),
	)
	if err != nil {
		return 0, errors.Wrap(err, "record load")
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session, filename, format, encoding, cues, offset_ms, loaded_at
		FROM loads
		ORDER BY loaded_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			loadedAt int64
		)
		if err := rows.Scan(&e.ID, &e.Session, &e.Filename, &e.Format,
			&e.Encoding, &e.Cues, &e.OffsetMs, &loadedAt); err != nil {
			return nil, errors.Wrap(err, "scan history row")
		}
		e.LoadedAt = time.UnixMilli(loadedAt)
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "iterate history")
}

// LastOffset returns the offset used the last time filename was loaded,
// so a re-timed file keeps its timing on the next load.
func (s *Store) LastOffset(ctx context.Context, filename string) (float64, bool, error) {
	if s.db == nil {
		return 0, false, ErrClosed
	}

	var offset float64
	err := s.db.QueryRowContext(ctx, `
		SELECT offset_ms FROM loads
		WHERE filename = ?
		ORDER BY loaded_at DESC, id DESC
		LIMIT 1`, filename).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "query last offset")
	}
	return offset, true, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
