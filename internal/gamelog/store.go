package gamelog

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mindplay/internal/common/fsutil"
	"mindplay/pkg/types"
)

const gamesSchema = `
CREATE TABLE IF NOT EXISTS games (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	track TEXT NOT NULL,
	public_model_name TEXT NOT NULL,
	env_name TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	reward REAL,
	steps INTEGER NOT NULL DEFAULT 0,
	started_at_ms INTEGER NOT NULL,
	ended_at_ms INTEGER,
	log_path TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_games_track ON games(track);
`

// Store is the sqlite-backed results database behind `mindplay stats`.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the results database at path.
func OpenStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("results db path is required")
	}
	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(expanded); dir != "." {
		if err := fsutil.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create results dir: %w", err)
		}
	}
	dsn := filepath.Clean(expanded) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping results db: %w", err)
	}
	if _, err := db.Exec(gamesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

// Insert records a finished game. logPath is the JSON record file, empty
// when writing it failed.
func (s *Store) Insert(ctx context.Context, rec Record, logPath string) error {
	var reward sql.NullFloat64
	if v, ok := rec.OwnReward(); ok {
		reward = sql.NullFloat64{Float64: v, Valid: true}
	}
	var envName string
	if rec.Match != nil {
		envName = rec.Match.MatchedEnvName
	}
	var endedAt sql.NullInt64
	if rec.EndTime != nil {
		endedAt = sql.NullInt64{Int64: toMillis(*rec.EndTime), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (track, public_model_name, env_name, outcome, reward, steps, started_at_ms, ended_at_ms, log_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Track), rec.PublicModelName, envName, string(rec.Outcome),
		reward, len(rec.Steps), toMillis(rec.StartTime), endedAt, logPath,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

// Summary aggregates recorded games per track.
func (s *Store) Summary(ctx context.Context) ([]types.TrackSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track,
		       COUNT(*),
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		       COALESCE(AVG(reward), 0)
		FROM games GROUP BY track ORDER BY track`,
		string(types.OutcomeCompleted), string(types.OutcomeTerminated), string(types.OutcomeError),
	)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var out []types.TrackSummary
	for rows.Next() {
		var ts types.TrackSummary
		var track string
		if err := rows.Scan(&track, &ts.Games, &ts.Completed, &ts.Terminated, &ts.Errored, &ts.MeanReward); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		ts.Track = types.Track(track)
		out = append(out, ts)
	}
	return out, rows.Err()
}
