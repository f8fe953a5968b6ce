package ports

import (
	"context"
	"io"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

// CandidateRepository persists candidates with their document status records.
// Update is a compare-and-swap on Version: it fails with ErrStaleRecord when
// the stored version differs from c.Version and bumps c.Version on success.
type CandidateRepository interface {
	Create(ctx context.Context, c *domain.Candidate) error
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)
	List(ctx context.Context) ([]domain.Candidate, error)
	Update(ctx context.Context, c *domain.Candidate) error
}

// FolderLister lists the files of a remote storage folder.
type FolderLister interface {
	ListFiles(ctx context.Context, folderID string) ([]domain.RemoteFile, error)
}

// EventPublisher publishes workflow events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.WorkflowEvent) error
}

// EventSubscriber consumes workflow events until ctx is done.
type EventSubscriber interface {
	SubscribeEvents(ctx context.Context, handler func(context.Context, domain.WorkflowEvent) error) error
}

// RosterWriter renders resolved candidate rows into a document format.
type RosterWriter interface {
	Write(w io.Writer, catalog domain.Catalog, rows []RosterRow) error
}

type RosterRow struct {
	Candidate domain.Candidate
	Documents domain.Resolution
}
