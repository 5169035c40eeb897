package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

// runTimeLayout keeps started_at fixed width so it sorts as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunRepository provides data access methods for the run_log table.
// It stores operational metadata about acquisition and analysis calls only.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the provided database connection.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// InsertRun stores a single journal entry.
func (r *RunRepository) InsertRun(ctx context.Context, run model.Run) error {
	query := `
		INSERT INTO run_log (id, kind, started_at, duration_ms, requested, succeeded, path, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		string(run.Kind),
		run.StartedAt.UTC().Format(runTimeLayout),
		run.DurationMs,
		run.Requested,
		run.Succeeded,
		run.Path,
		run.Outcome,
		nullString(run.Detail),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRuns returns journal entries matching filters, newest first.
// A non-positive limit returns every matching entry.
func (r *RunRepository) GetRuns(ctx context.Context, filters model.RunFilters) ([]model.Run, error) {
	query := `
		SELECT id, kind, started_at, duration_ms, requested, succeeded, path, outcome, detail
		FROM run_log
	`
	var (
		conditions []string
		args       []any
	)
	if filters.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(filters.Kind))
	}
	if filters.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, filters.Outcome)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run table: %w", err)
	}
	return runs, nil
}

// GetRun retrieves a single journal entry by ID.
// Returns apperrors.ErrRunNotFound when no entry matches.
func (r *RunRepository) GetRun(ctx context.Context, id string) (model.Run, error) {
	query := `
		SELECT id, kind, started_at, duration_ms, requested, succeeded, path, outcome, detail
		FROM run_log
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Run{}, apperrors.ErrRunNotFound
		}
		return model.Run{}, err
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (model.Run, error) {
	var (
		run       model.Run
		kind      string
		startedAt string
		detail    sql.NullString
	)

	if err := row.Scan(&run.ID, &kind, &startedAt, &run.DurationMs, &run.Requested, &run.Succeeded, &run.Path, &run.Outcome, &detail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Run{}, err
		}
		return model.Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return model.Run{}, fmt.Errorf("failed to parse run start time: %w", err)
	}

	run.Kind = model.RunKind(kind)
	run.StartedAt = t.UTC()
	run.Detail = detail.String
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
