package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/me/modelrun/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	// A single connection serializes row access and keeps :memory:
	// databases from vanishing between pooled connections.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db, sqliteSchema)
}

// --- Run operations ---

func (s *SQLiteStore) CreateRun(ctx context.Context, modelID, ownerID string, params map[string]any) (string, error) {
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
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, modelID, ownerID, string(model.RunStateQueued), string(paramsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", runID)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, model_id, owner_id, status, params, created_at, finished_at
		 FROM runs WHERE id = ?`, runID)
	return scanRun(row)
}

func (s *SQLiteStore) GetRunForOwner(ctx context.Context, runID, ownerID string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select_for_owner", "table", "runs", "id", runID)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, model_id, owner_id, status, params, created_at, finished_at
		 FROM runs WHERE id = ? AND owner_id = ?`, runID, ownerID)
	return scanRun(row)
}

func (s *SQLiteStore) ListRunsForOwner(ctx context.Context, ownerID string) ([]*model.Run, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs", "owner_id", ownerID)

	// rowid preserves insertion order exactly, so newest first is rowid DESC.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model_id, owner_id, status, params, created_at, finished_at
		 FROM runs WHERE owner_id = ? ORDER BY rowid DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunState) error {
	s.logger.Debug("sql", "op", "update_status", "table", "runs", "id", runID, "status", status)

	var err error
	if status.IsTerminal() {
		_, err = s.db.ExecContext(ctx,
			`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
			string(status), time.Now().UTC().Format(time.RFC3339Nano), runID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE runs SET status = ? WHERE id = ?`, string(status), runID)
	}
	// Unknown run ids match zero rows, which is deliberately not an error.
	return err
}

// --- Result operations ---

func (s *SQLiteStore) UpsertResult(ctx context.Context, runID string, summary map[string]any, table []map[string]any) error {
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
		`INSERT INTO run_results (run_id, summary, table_rows) VALUES (?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET summary = excluded.summary, table_rows = excluded.table_rows`,
		runID, string(summaryJSON), string(tableJSON))
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetResult(ctx context.Context, runID string) (*model.RunResult, error) {
	s.logger.Debug("sql", "op", "select", "table", "run_results", "run_id", runID)

	var res model.RunResult
	var summaryJSON, tableJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, summary, table_rows FROM run_results WHERE run_id = ?`, runID,
	).Scan(&res.RunID, &summaryJSON, &tableJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(summaryJSON), &res.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := json.Unmarshal([]byte(tableJSON), &res.Table); err != nil {
		return nil, fmt.Errorf("unmarshal table: %w", err)
	}
	return &res, nil
}

// --- Model catalog ---

func (s *SQLiteStore) SeedModels(ctx context.Context, models []model.ModelInfo) error {
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
			`INSERT INTO models (model_id, name, description, seq) VALUES (?, ?, ?, ?)`,
			m.ModelID, m.Name, m.Description, i)
		if err != nil {
			return fmt.Errorf("seed model %s: %w", m.ModelID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
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

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*model.Run, error) {
	var r model.Run
	var status, paramsJSON, createdAt string
	var finishedAt *string

	err := sc.Scan(&r.ID, &r.ModelID, &r.OwnerID, &status, &paramsJSON, &createdAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.Status = model.RunState(status)
	if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if finishedAt != nil {
		t, _ := time.Parse(time.RFC3339Nano, *finishedAt)
		r.FinishedAt = &t
	}
	return &r, nil
}
