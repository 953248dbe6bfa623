package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jeefy/llmmoe/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS responses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    query TEXT NOT NULL,
    expert1_response TEXT,
    expert2_response TEXT,
    expert3_response TEXT,
    timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// timestamps are read back through strftime so the driver always hands us
// plain text regardless of the declared column type.
const sqliteColumns = `id, query, expert1_response, expert2_response, expert3_response,
    strftime('%Y-%m-%dT%H:%M:%SZ', timestamp)`

type sqliteStore struct {
	path string
	db   *sql.DB
}

// NewSQLite opens (lazily) the SQLite database at path. The path should be
// absolute; the caller resolves it once at start-up.
func NewSQLite(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return &sqliteStore{path: path, db: db}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("sqlite: create database directory: %w", err)
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: connect: %w", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("sqlite: create schema: %w", err)
	}
	return nil
}

func (s *sqliteStore) InsertResponse(ctx context.Context, r *models.ResponseRecord) (int64, error) {
	if r == nil {
		return 0, errors.New("nil record")
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("sqlite: connect: %w", err)
	}
	defer conn.Close()

	var ts sql.NullString
	err = conn.QueryRowContext(ctx,
		`INSERT INTO responses (query, expert1_response, expert2_response, expert3_response)
		 VALUES (?, ?, ?, ?)
		 RETURNING id, strftime('%Y-%m-%dT%H:%M:%SZ', timestamp)`,
		r.Query, nullable(r.Expert1Response), nullable(r.Expert2Response), nullable(r.Expert3Response),
	).Scan(&r.ID, &ts)
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert response: %w", err)
	}
	r.Timestamp = parseTimestamp(ts)
	return r.ID, nil
}

func (s *sqliteStore) GetResponse(ctx context.Context, id int64) (*models.ResponseRecord, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: connect: %w", err)
	}
	defer conn.Close()

	row := conn.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM responses WHERE id = ?`, id)
	r, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get response %d: %w", id, err)
	}
	return r, nil
}

func (s *sqliteStore) ListResponses(ctx context.Context, limit int) ([]*models.ResponseRecord, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: connect: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM responses ORDER BY id DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list responses: %w", err)
	}
	defer rows.Close()

	out := []*models.ResponseRecord{}
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func scanRecord(scan func(dest ...any) error) (*models.ResponseRecord, error) {
	var (
		r          models.ResponseRecord
		e1, e2, e3 sql.NullString
		ts         sql.NullString
	)
	if err := scan(&r.ID, &r.Query, &e1, &e2, &e3, &ts); err != nil {
		return nil, err
	}
	r.Expert1Response = fromNull(e1)
	r.Expert2Response = fromNull(e2)
	r.Expert3Response = fromNull(e3)
	r.Timestamp = parseTimestamp(ts)
	return &r, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func parseTimestamp(ns sql.NullString) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
