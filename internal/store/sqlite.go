package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/match"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// Assert SQLiteStore is a Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore returns a store for the database at path. Call Init before using it.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// OpenSQLite creates and initializes a SQLiteStore.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	s := NewSQLiteStore(path)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Init opens the database and creates the tables if needed. It is a no-op if already initialized.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.Wrapf(err, "failed to open sqlite database %q", s.path)
	}
	// SQLite serializes writers: a single connection avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrapf(err, "failed to connect to sqlite database %q", s.path)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			white INTEGER NOT NULL,
			black INTEGER NOT NULL,
			result TEXT NOT NULL,
			winner TEXT NOT NULL,
			termination TEXT NOT NULL,
			moves INTEGER NOT NULL,
			white_elo REAL NOT NULL,
			black_elo REAL NOT NULL,
			final_fen TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS matches_started_at ON matches (started_at);
	`)
	return errors.Wrap(err, "failed to create sqlite tables")
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

// SaveMatch implements Store.
func (s *SQLiteStore) SaveMatch(ctx context.Context, summary *match.Summary) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO matches (id, session_id, white, black, result, winner, termination, moves,
			white_elo, black_elo, final_fen, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			white = excluded.white,
			black = excluded.black,
			result = excluded.result,
			winner = excluded.winner,
			termination = excluded.termination,
			moves = excluded.moves,
			white_elo = excluded.white_elo,
			black_elo = excluded.black_elo,
			final_fen = excluded.final_fen,
			started_at = excluded.started_at,
			duration_ns = excluded.duration_ns
	`, summary.MatchID, summary.SessionID, summary.White, summary.Black, summary.Result, summary.Winner,
		summary.Termination, summary.Moves, summary.WhiteElo, summary.BlackElo, summary.FinalFEN,
		summary.Started.UnixNano(), int64(summary.Duration))
	return errors.Wrapf(err, "failed to save match %s", summary.MatchID)
}

// ListMatches implements Store.
func (s *SQLiteStore) ListMatches(ctx context.Context, limit int) ([]match.Summary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, session_id, white, black, result, winner, termination, moves,
			white_elo, black_elo, final_fen, started_at, duration_ns
		FROM matches
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list matches")
	}
	defer func() { _ = rows.Close() }()

	var summaries []match.Summary
	for rows.Next() {
		var summary match.Summary
		var startedAt, durationNs int64
		if err := rows.Scan(&summary.MatchID, &summary.SessionID, &summary.White, &summary.Black,
			&summary.Result, &summary.Winner, &summary.Termination, &summary.Moves,
			&summary.WhiteElo, &summary.BlackElo, &summary.FinalFEN, &startedAt, &durationNs); err != nil {
			return nil, errors.Wrap(err, "failed to read match")
		}
		summary.Outcome, err = board.ResultFromCode(summary.Result)
		if err != nil {
			return nil, errors.WithMessagef(err, "match %s", summary.MatchID)
		}
		summary.Started = time.Unix(0, startedAt)
		summary.Duration = time.Duration(durationNs)
		summaries = append(summaries, summary)
	}
	return summaries, errors.Wrap(rows.Err(), "failed to list matches")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
