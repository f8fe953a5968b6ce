package ports

import (
	"context"
	"io"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

// CandidateService is the inbound contract for candidate records.
type CandidateService interface {
	Create(ctx context.Context, in domain.NewCandidateInput) (*domain.Candidate, error)
	List(ctx context.Context) ([]domain.Candidate, error)
	Get(ctx context.Context, id string) (*domain.Candidate, error)
	OverrideStatus(ctx context.Context, id string, status domain.CandidateStatus) (*domain.Candidate, error)
	UpdateReminders(ctx context.Context, id string, rules []domain.ReminderRule) (*domain.Candidate, error)
}

// DocumentView is the verification dashboard for one candidate.
type DocumentView struct {
	CandidateID string                 `json:"candidateId"`
	Stage       domain.CandidateStatus `json:"stage"`
	Documents   domain.Resolution      `json:"documents"`
	DocStatus   domain.StatusMap       `json:"docStatus"`
	Files       []domain.RemoteFile    `json:"files"`
	Degraded    bool                   `json:"degraded,omitempty"`
}

// VerificationService derives and mutates document verification state.
type VerificationService interface {
	Catalog() domain.Catalog
	Documents(ctx context.Context, candidateID string) (*DocumentView, error)
	ToggleDocument(ctx context.Context, candidateID, key string, field domain.DocumentField, value bool) (*DocumentView, error)
	SyncDrive(ctx context.Context, candidateID string) (*DocumentView, error)
	ListFolder(ctx context.Context, folderID string) ([]domain.RemoteFile, bool)
}

// WorkflowService triggers mail and stage transitions.
type WorkflowService interface {
	ResendMail(ctx context.Context, candidateID string, mailNumber int) (*domain.WorkflowEvent, error)
	ReleaseOffer(ctx context.Context, candidateID string) (*domain.Candidate, error)
	Finalize(ctx context.Context, candidateID string) (*domain.Candidate, error)
}

// SyncReport summarizes one SyncAll pass.
type SyncReport struct {
	Scanned int `json:"scanned"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// DriveSyncer is the worker-facing sync contract.
type DriveSyncer interface {
	SyncDrive(ctx context.Context, candidateID string) (*DocumentView, error)
	SyncAll(ctx context.Context) (SyncReport, error)
}

// RosterExporter renders the candidate roster.
type RosterExporter interface {
	ExportRoster(ctx context.Context, w io.Writer) error
}
