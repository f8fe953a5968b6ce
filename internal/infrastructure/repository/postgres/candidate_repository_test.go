package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

var candidateColumns = []string{
	"id", "name", "email", "role", "salary", "experience", "date_of_joining", "drive_folder_id",
	"status", "doc_status", "reminders", "activity_log", "created_at", "updated_at", "version",
}

func newRepoWithMock(t *testing.T) (*CandidateRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &CandidateRepository{db: db}, mock, func() { _ = db.Close() }
}

func sampleCandidate() *domain.Candidate {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Candidate{
		ID:        "c-1",
		Name:      "Asha",
		Email:     "asha@example.com",
		Role:      "Engineer",
		Status:    domain.StageInitiated,
		DocStatus: domain.StatusMap{"pan": {Uploaded: true}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(int64(2026101401)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS candidates").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, name, email, role").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDDecodesJSONColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(candidateColumns).AddRow(
		"c-1", "Asha", "asha@example.com", "Engineer", 1200000.0, 3.5, "2026-04-01", "folder-1",
		"Waiting for HR NDA",
		[]byte(`{"nda":{"uploaded":false,"verified":false,"specialApproval":true}}`),
		[]byte(`[{"mailNumber":2,"afterDays":3}]`),
		[]byte(`[{"timestamp":"2026-03-01T09:00:00Z","event":"Candidate created"}]`),
		now, now, int64(4),
	)
	mock.ExpectQuery("SELECT id, name, email, role").WithArgs("c-1").WillReturnRows(rows)

	c, err := repo.GetByID(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if c.Status != domain.StageWaitingForHRNDA || c.Version != 4 {
		t.Fatalf("unexpected status %q version %d", c.Status, c.Version)
	}
	if !c.DocStatus["nda"].SpecialApproval {
		t.Fatalf("doc_status not decoded: %+v", c.DocStatus)
	}
	if len(c.Reminders) != 1 || c.Reminders[0].AfterDays != 3 {
		t.Fatalf("reminders not decoded: %+v", c.Reminders)
	}
	if len(c.Log) != 1 || c.Log[0].Event != "Candidate created" {
		t.Fatalf("activity log not decoded: %+v", c.Log)
	}
}

func TestCreateMapsUniqueViolationToConflict(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO candidates").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), sampleCandidate())
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func expectUpdate(mock sqlmock.Sqlmock, c *domain.Candidate) *sqlmock.ExpectedExec {
	return mock.ExpectExec(`UPDATE candidates .* WHERE id = \$1 AND version = \$14`).
		WithArgs(c.ID, c.Name, c.Email, c.Role, c.Salary, c.Experience, c.DateOfJoining, c.DriveFolderID,
			string(c.Status), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), c.UpdatedAt, c.Version)
}

func TestUpdateReturnsDomainNotFoundWhenRowIsGone(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	c := sampleCandidate()
	expectUpdate(mock, c).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(c.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.Update(context.Background(), c)
	if !domain.IsKind(err, domain.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateRejectsStaleVersion(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	c := sampleCandidate()
	c.Version = 3
	expectUpdate(mock, c).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(c.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.Update(context.Background(), c)
	if !domain.IsKind(err, domain.ErrStaleRecord) || !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected stale conflict, got %v", err)
	}
	if c.Version != 3 {
		t.Fatalf("version must not move on a rejected write, got %d", c.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateBumpsVersion(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	c := sampleCandidate()
	c.Version = 7
	expectUpdate(mock, c).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), c); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if c.Version != 8 {
		t.Fatalf("expected version 8, got %d", c.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListReturnsEmptySlice(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, name, email, role").WillReturnRows(sqlmock.NewRows(candidateColumns))

	items, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}
