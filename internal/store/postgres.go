package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/me/modelrun/pkg/model"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL via the pgx stdlib driver.
// It is selected when the configured database URL has a postgres:// scheme.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore connects to the database at url and verifies it with a ping.
// Pool sizing can be tuned with DATABASE_MAX_OPEN_CONNS, DATABASE_MAX_IDLE_CONNS
// and DATABASE_CONN_MAX_LIFETIME.
func NewPostgresStore(ctx context.Context, url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(envInt("DATABASE_MAX_OPEN_CONNS", 10))
	db.SetMaxIdleConns(envInt("DATABASE_MAX_IDLE_CONNS", 5))
	db.SetConnMaxLifetime(envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute))

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db, postgresSchema)
}

// --- Run operations ---

func (s *PostgresStore) CreateRun(ctx context.Context, modelID, ownerID string, params map[string]any) (string, error) {
	id := "run_" + uuid.New().String()
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", id)

	if params == nil {
		params = map[string]any{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, model_id, owner_id, status, params, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, modelID, ownerID, string(model.RunStateQueued), string(paramsJSON), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", runID)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, model_id, owner_id, status, params, created_at, finished_at
		 FROM runs WHERE id = $1`, runID)
	return pgScanRun(row)
}

func (s *PostgresStore) GetRunForOwner(ctx context.Context, runID, ownerID string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select_for_owner", "table", "runs", "id", runID)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, model_id, owner_id, status, params, created_at, finished_at
		 FROM runs WHERE id = $1 AND owner_id = $2`, runID, ownerID)
	return pgScanRun(row)
}

func (s *PostgresStore) ListRunsForOwner(ctx context.Context, ownerID string) ([]*model.Run, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs", "owner_id", ownerID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model_id, owner_id, status, params, created_at, finished_at
		 FROM runs WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		r, err := pgScanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunState) error {
	s.logger.Debug("sql", "op", "update_status", "table", "runs", "id", runID, "status", status)

	var err error
	if status.IsTerminal() {
		_, err = s.db.ExecContext(ctx,
			`UPDATE runs SET status = $1, finished_at = $2 WHERE id = $3`,
			string(status), time.Now().UTC(), runID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE runs SET status = $1 WHERE id = $2`, string(status), runID)
	}
	// Unknown run ids match zero rows, which is deliberately not an error.
	return err
}

// --- Result operations ---

func (s *PostgresStore) UpsertResult(ctx context.Context, runID string, summary map[string]any, table []map[string]any) error {
	s.logger.Debug("sql", "op", "upsert", "table", "run_results", "run_id", runID)

	if summary == nil {
		summary = map[string]any{}
	}
	if table == nil {
		table = []map[string]any{}
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	tableJSON, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_results (run_id, summary, table_rows) VALUES ($1, $2, $3)
		 ON CONFLICT (run_id) DO UPDATE SET summary = excluded.summary, table_rows = excluded.table_rows`,
		runID, string(summaryJSON), string(tableJSON))
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetResult(ctx context.Context, runID string) (*model.RunResult, error) {
	s.logger.Debug("sql", "op", "select", "table", "run_results", "run_id", runID)

	var res model.RunResult
	var summaryJSON, tableJSON []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, summary, table_rows FROM run_results WHERE run_id = $1`, runID,
	).Scan(&res.RunID, &summaryJSON, &tableJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(summaryJSON, &res.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := json.Unmarshal(tableJSON, &res.Table); err != nil {
		return nil, fmt.Errorf("unmarshal table: %w", err)
	}
	return &res, nil
}

// --- Model catalog ---

func (s *PostgresStore) SeedModels(ctx context.Context, models []model.ModelInfo) error {
	s.logger.Debug("sql", "op", "seed", "table", "models", "count", len(models))

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM models`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for i, m := range models {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO models (model_id, name, description, seq) VALUES ($1, $2, $3, $4)`,
			m.ModelID, m.Name, m.Description, i)
		if err != nil {
			return fmt.Errorf("seed model %s: %w", m.ModelID, err)
		}
	}
	return nil
}

func (s *PostgresStore) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	s.logger.Debug("sql", "op", "list", "table", "models")

	rows, err := s.db.QueryContext(ctx,
		`SELECT model_id, name, description FROM models ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []model.ModelInfo
	for rows.Next() {
		var m model.ModelInfo
		if err := rows.Scan(&m.ModelID, &m.Name, &m.Description); err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

func pgScanRun(sc scanner) (*model.Run, error) {
	var r model.Run
	var status string
	var paramsJSON []byte
	var finishedAt *time.Time

	err := sc.Scan(&r.ID, &r.ModelID, &r.OwnerID, &status, &paramsJSON, &r.CreatedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.Status = model.RunState(status)
	if err := json.Unmarshal(paramsJSON, &r.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	r.FinishedAt = finishedAt
	return &r, nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
