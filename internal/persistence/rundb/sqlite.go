// Package rundb keeps a small SQLite index of planning-scene runs: which
// scene was loaded, how big the grid was, how long propagation took and
// what the resulting field looked like. It indexes run metadata only —
// the field itself is never persisted.
package rundb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type DB struct {
	db *sql.DB
}

type RunRow struct {
	ID          int64
	StartedAt   string
	SceneFile   string
	Frame       string
	GridCells   int
	Occupied    int
	PropagateMS float64

	MinDistance     float64
	MeanDistance    float64
	MedianDistance  float64
	ClampedFraction float64
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("rundb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		scene_file TEXT NOT NULL,
		frame TEXT NOT NULL,
		grid_cells INTEGER NOT NULL,
		occupied INTEGER NOT NULL,
		propagate_ms REAL NOT NULL,
		min_distance REAL NOT NULL,
		mean_distance REAL NOT NULL,
		median_distance REAL NOT NULL,
		clamped_fraction REAL NOT NULL
	);`)
	return err
}

func (d *DB) InsertRun(ctx context.Context, r RunRow) (int64, error) {
	res, err := d.db.ExecContext(ctx, `INSERT INTO runs
		(started_at, scene_file, frame, grid_cells, occupied, propagate_ms,
		 min_distance, mean_distance, median_distance, clamped_fraction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt, r.SceneFile, r.Frame, r.GridCells, r.Occupied, r.PropagateMS,
		r.MinDistance, r.MeanDistance, r.MedianDistance, r.ClampedFraction)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `SELECT
		id, started_at, scene_file, frame, grid_cells, occupied, propagate_ms,
		min_distance, mean_distance, median_distance, clamped_fraction
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.SceneFile, &r.Frame,
			&r.GridCells, &r.Occupied, &r.PropagateMS,
			&r.MinDistance, &r.MeanDistance, &r.MedianDistance, &r.ClampedFraction); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) Close() error {
	return d.db.Close()
}
