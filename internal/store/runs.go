package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gavel/internal/services"
)

// CreateRun inserts a new run in the idle phase and returns it.
func (s *Store) CreateRun(ctx context.Context, target, rubricName, rubricVersion string) (*Run, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (
            id, target, rubric_name, rubric_version, phase, incomplete,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		id,
		target,
		rubricName,
		rubricVersion,
		string(PhaseIdle),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, id)
}

// UpdateRun persists the mutable fields of a run.
func (s *Store) UpdateRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("nil run")
	}
	if !run.Phase.Valid() {
		return fmt.Errorf("unknown phase %q", run.Phase)
	}
	run.UpdatedAt = time.Now().UTC()

	err := s.execWithRetry(
		ctx,
		`UPDATE runs SET
            phase = ?, incomplete = ?, overall_score = ?, report_json = ?,
            error_message = ?, updated_at = ?
        WHERE id = ?`,
		string(run.Phase),
		boolToInt(run.Incomplete),
		nullableFloat(run.OverallScore),
		nullableString(run.ReportJSON),
		nullableString(run.ErrorMessage),
		run.UpdatedAt.Format(time.RFC3339Nano),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun fetches a run by id. Prefixes are accepted when unambiguous.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "get run", "run id required", nil)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, target, rubric_name, rubric_version, phase, incomplete,
            overall_score, report_json, error_message, created_at, updated_at
        FROM runs WHERE id = ? OR id LIKE ? LIMIT 2`,
		id,
		id+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, services.Wrap(services.ErrNotFound, "store", "get run", fmt.Sprintf("run %s", id), nil)
	case 1:
		return matches[0], nil
	default:
		return nil, services.Wrap(services.ErrValidation, "store", "get run", fmt.Sprintf("run id %q is ambiguous", id), nil)
	}
}

// ListRuns returns runs newest first, up to limit. A non-positive limit
// returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	ctx = ensureContext(ctx)

	query := `SELECT id, target, rubric_name, rubric_version, phase, incomplete,
            overall_score, report_json, error_message, created_at, updated_at
        FROM runs ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var (
		run          Run
		phase        string
		incomplete   int
		overallScore sql.NullFloat64
		reportJSON   sql.NullString
		errorMessage sql.NullString
		createdAt    string
		updatedAt    string
	)
	if err := rows.Scan(
		&run.ID, &run.Target, &run.RubricName, &run.RubricVersion, &phase,
		&incomplete, &overallScore, &reportJSON, &errorMessage, &createdAt, &updatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.Phase = Phase(phase)
	run.Incomplete = incomplete != 0
	if overallScore.Valid {
		value := overallScore.Float64
		run.OverallScore = &value
	}
	run.ReportJSON = reportJSON.String
	run.ErrorMessage = errorMessage.String

	var err error
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if run.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return &run, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
