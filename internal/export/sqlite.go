package export

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/doomsat/internal/record"
)

const createTables = `
CREATE TABLE IF NOT EXISTS ticks (
	run_id        TEXT    NOT NULL,
	episode_id    TEXT    NOT NULL,
	algo_id       TEXT    NOT NULL,
	step          INTEGER NOT NULL,
	unix_time_ms  INTEGER NOT NULL,
	level         TEXT    NOT NULL,
	health        INTEGER NOT NULL,
	armor         INTEGER NOT NULL,
	weapon        INTEGER NOT NULL,
	x             REAL    NOT NULL,
	y             REAL    NOT NULL,
	yaw_deg       REAL    NOT NULL,
	dmg_in        INTEGER NOT NULL,
	dmg_out       INTEGER NOT NULL,
	kills         INTEGER NOT NULL,
	crc32c        TEXT    NOT NULL,
	PRIMARY KEY (run_id, episode_id, step)
);
CREATE TABLE IF NOT EXISTS summaries (
	run_id        TEXT    NOT NULL,
	episode_id    TEXT    NOT NULL,
	algo_id       TEXT    NOT NULL,
	unix_time     INTEGER NOT NULL,
	result        TEXT    NOT NULL,
	duration_s    REAL    NOT NULL,
	deaths        INTEGER NOT NULL,
	taken_total   INTEGER NOT NULL,
	dealt_total   INTEGER NOT NULL,
	kills         INTEGER NOT NULL,
	path_len_m    REAL    NOT NULL,
	crc32c        TEXT    NOT NULL
);`

// SQLiteStore loads records into a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the tables.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("export: sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("export: open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("export: ping sqlite db: %w", err)
	}
	if _, err := db.Exec(createTables); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("export: create tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the handle for queries.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Load inserts ticks and summaries in a single transaction. Re-loading the
// same tick replaces it.
func (s *SQLiteStore) Load(ctx context.Context, ticks []record.Tick, sums []record.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	tickStmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO ticks
		(run_id, episode_id, algo_id, step, unix_time_ms, level, health, armor, weapon,
		 x, y, yaw_deg, dmg_in, dmg_out, kills, crc32c)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare ticks: %w", err)
	}
	defer tickStmt.Close()
	for _, t := range ticks {
		if _, err := tickStmt.ExecContext(ctx,
			t.RunID, t.EpisodeID, t.AlgoID, t.Step, t.UnixTimeMs, t.Level,
			t.Health, t.Armor, t.SelectedWeapon,
			float64(t.Pose.X), float64(t.Pose.Y), float64(t.Pose.YawDeg),
			t.Combat.DmgInDelta, t.Combat.DmgOutDelta, t.Combat.KillsDelta, t.CRC32C,
		); err != nil {
			return fmt.Errorf("export: insert tick %d: %w", t.Step, err)
		}
	}

	sumStmt, err := tx.PrepareContext(ctx, `INSERT INTO summaries
		(run_id, episode_id, algo_id, unix_time, result, duration_s, deaths,
		 taken_total, dealt_total, kills, path_len_m, crc32c)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare summaries: %w", err)
	}
	defer sumStmt.Close()
	for _, m := range sums {
		if _, err := sumStmt.ExecContext(ctx,
			m.RunID, m.EpisodeID, m.AlgoID, m.UnixTime, m.Result, float64(m.DurationS), m.Deaths,
			m.Damage.TakenTotal, m.Damage.DealtTotal, m.Kills, float64(m.Nav.PathLenM), m.CRC32C,
		); err != nil {
			return fmt.Errorf("export: insert summary: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: commit: %w", err)
	}
	return nil
}

// SQLite writes ticks and summaries into the database at path.
func SQLite(ctx context.Context, path string, ticks []record.Tick, sums []record.Summary) error {
	store, err := OpenSQLite(path)
	if err != nil {
		return err
	}
	if err := store.Load(ctx, ticks, sums); err != nil {
		_ = store.Close()
		return err
	}
	return store.Close()
}
