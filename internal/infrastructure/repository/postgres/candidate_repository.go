package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

const uniqueViolation = "23505"

type CandidateRepository struct {
	db *sql.DB
}

func NewCandidateRepository(db *sql.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

func (r *CandidateRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS candidates (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	role TEXT NOT NULL,
	salary DOUBLE PRECISION NOT NULL DEFAULT 0,
	experience DOUBLE PRECISION NOT NULL DEFAULT 0,
	date_of_joining TEXT NOT NULL DEFAULT '',
	drive_folder_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	doc_status JSONB NOT NULL DEFAULT '{}'::jsonb,
	reminders JSONB NOT NULL DEFAULT '[]'::jsonb,
	activity_log JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	version BIGINT NOT NULL DEFAULT 0
);

ALTER TABLE candidates ADD COLUMN IF NOT EXISTS version BIGINT NOT NULL DEFAULT 0;

CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(status);
CREATE INDEX IF NOT EXISTS idx_candidates_created_at ON candidates(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CandidateRepository) Create(ctx context.Context, c *domain.Candidate) error {
	docStatus, reminders, activity, err := marshalCandidateJSON(c)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO candidates (
	id, name, email, role, salary, experience, date_of_joining, drive_folder_id, status, doc_status, reminders, activity_log, created_at, updated_at, version
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
		c.ID, c.Name, c.Email, c.Role, c.Salary, c.Experience, c.DateOfJoining, c.DriveFolderID,
		string(c.Status), docStatus, reminders, activity, c.CreatedAt, c.UpdatedAt, c.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.WrapError(domain.ErrConflict, "insert candidate", fmt.Errorf("id=%s", c.ID))
		}
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

const selectCandidateColumns = `
SELECT id, name, email, role, salary, experience, date_of_joining, drive_folder_id, status, doc_status, reminders, activity_log, created_at, updated_at, version
FROM candidates
`

func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	row := r.db.QueryRowContext(ctx, selectCandidateColumns+`WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCandidateNotFound, "get candidate", fmt.Errorf("id=%s", id))
		}
		return nil, err
	}
	return c, nil
}

func (r *CandidateRepository) List(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, selectCandidateColumns+`ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

func (r *CandidateRepository) Update(ctx context.Context, c *domain.Candidate) error {
	docStatus, reminders, activity, err := marshalCandidateJSON(c)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE candidates
SET name = $2, email = $3, role = $4, salary = $5, experience = $6, date_of_joining = $7, drive_folder_id = $8,
	status = $9, doc_status = $10, reminders = $11, activity_log = $12, updated_at = $13, version = version + 1
WHERE id = $1 AND version = $14
`,
		c.ID, c.Name, c.Email, c.Role, c.Salary, c.Experience, c.DateOfJoining, c.DriveFolderID,
		string(c.Status), docStatus, reminders, activity, c.UpdatedAt, c.Version,
	)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update candidate rows affected: %w", err)
	}
	if affected == 0 {
		return r.updateMiss(ctx, c)
	}
	c.Version++
	return nil
}

// updateMiss tells a missing row apart from a version mismatch.
func (r *CandidateRepository) updateMiss(ctx context.Context, c *domain.Candidate) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM candidates WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check candidate exists: %w", err)
	}
	if !exists {
		return domain.WrapError(domain.ErrCandidateNotFound, "update candidate", fmt.Errorf("id=%s", c.ID))
	}
	return domain.WrapError(domain.ErrConflict, "update candidate",
		fmt.Errorf("%w: id=%s version=%d", domain.ErrStaleRecord, c.ID, c.Version))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*domain.Candidate, error) {
	var c domain.Candidate
	var status string
	var docStatusRaw, remindersRaw, activityRaw []byte

	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Role, &c.Salary, &c.Experience, &c.DateOfJoining, &c.DriveFolderID,
		&status, &docStatusRaw, &remindersRaw, &activityRaw, &c.CreatedAt, &c.UpdatedAt, &c.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}

	c.Status = domain.CandidateStatus(status)
	if err := json.Unmarshal(docStatusRaw, &c.DocStatus); err != nil {
		return nil, fmt.Errorf("unmarshal doc_status: %w", err)
	}
	if err := json.Unmarshal(remindersRaw, &c.Reminders); err != nil {
		return nil, fmt.Errorf("unmarshal reminders: %w", err)
	}
	if err := json.Unmarshal(activityRaw, &c.Log); err != nil {
		return nil, fmt.Errorf("unmarshal activity_log: %w", err)
	}
	if c.DocStatus == nil {
		c.DocStatus = domain.StatusMap{}
	}
	return &c, nil
}

func marshalCandidateJSON(c *domain.Candidate) (docStatus, reminders, activity []byte, err error) {
	statuses := c.DocStatus
	if statuses == nil {
		statuses = domain.StatusMap{}
	}
	if docStatus, err = json.Marshal(statuses); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal doc_status: %w", err)
	}
	rules := c.Reminders
	if rules == nil {
		rules = []domain.ReminderRule{}
	}
	if reminders, err = json.Marshal(rules); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal reminders: %w", err)
	}
	entries := c.Log
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	if activity, err = json.Marshal(entries); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal activity_log: %w", err)
	}
	return docStatus, reminders, activity, nil
}
