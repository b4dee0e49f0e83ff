package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"SyncBoard/internal/ot"
	"SyncBoard/internal/state"

	_ "modernc.org/sqlite"
)

// SQLite keeps boards in a single database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	// modernc.org/sqlite registers itself as "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps appends strictly serialized.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			snapshot_json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ops (
			board_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			ops_json TEXT NOT NULL,
			PRIMARY KEY(board_id, version)
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, id string) (Board, error) {
	var (
		version  int64
		snapshot string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, snapshot_json FROM boards WHERE id = ?`, id,
	).Scan(&version, &snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return Board{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Board{}, err
	}

	b := Board{ID: id, Version: version}
	if err := json.Unmarshal([]byte(snapshot), &b.Doc); err != nil {
		return Board{}, fmt.Errorf("decode snapshot of %s: %w", id, err)
	}
	if b.Doc.Lines == nil {
		b.Doc.Lines = []state.Line{}
	}
	return b, nil
}

func (s *SQLite) Append(ctx context.Context, id string, base int64, ops []ot.Op, doc state.Document) error {
	if ops == nil {
		ops = []ot.Op{}
	}
	opsJSON, err := json.Marshal(ops)
	if err != nil {
		return err
	}
	snapshot, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT version FROM boards WHERE id = ?`, id).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if current != base {
		return fmt.Errorf("%s at %d, append at %d: %w", id, current, base, ErrVersionConflict)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ops(board_id, version, ops_json) VALUES(?, ?, ?)`,
		id, base, string(opsJSON),
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("%s at %d: %w", id, base, ErrVersionConflict)
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO boards(id, version, snapshot_json, updated_at_unixms) VALUES(?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET version = excluded.version,
			snapshot_json = excluded.snapshot_json,
			updated_at_unixms = excluded.updated_at_unixms`,
		id, base+1, string(snapshot), time.Now().UnixMilli(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) OpsSince(ctx context.Context, id string, from int64) ([][]ot.Op, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, ops_json FROM ops WHERE board_id = ? AND version >= ? ORDER BY version`,
		id, from,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]ot.Op
	next := from
	for rows.Next() {
		var (
			version int64
			raw     string
		)
		if err := rows.Scan(&version, &raw); err != nil {
			return nil, err
		}
		if version != next {
			return nil, fmt.Errorf("%s: op log has a gap at version %d", id, next)
		}
		var ops []ot.Op
		if err := json.Unmarshal([]byte(raw), &ops); err != nil {
			return nil, fmt.Errorf("decode ops %s@%d: %w", id, version, err)
		}
		out = append(out, ops)
		next++
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }
