package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
)

// NDARequirementKey gates the "Waiting for HR NDA" stage.
const NDARequirementKey = "nda"

const defaultSyncConcurrency = 4

type VerificationUseCase struct {
	repo        ports.CandidateRepository
	lister      ports.FolderLister
	events      ports.EventPublisher
	catalog     domain.Catalog
	concurrency int
	now         func() time.Time
}

func NewVerificationUseCase(
	repo ports.CandidateRepository,
	lister ports.FolderLister,
	events ports.EventPublisher,
	catalog domain.Catalog,
	syncConcurrency int,
) *VerificationUseCase {
	if syncConcurrency <= 0 {
		syncConcurrency = defaultSyncConcurrency
	}
	return &VerificationUseCase{
		repo:        repo,
		lister:      lister,
		events:      events,
		catalog:     catalog,
		concurrency: syncConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *VerificationUseCase) Catalog() domain.Catalog {
	return uc.catalog
}

func (uc *VerificationUseCase) Documents(ctx context.Context, candidateID string) (*ports.DocumentView, error) {
	c, err := uc.load(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	files, degraded := uc.ListFolder(ctx, c.DriveFolderID)
	return uc.view(c, files, degraded), nil
}

// ListFolder never fails: a provider error is reported as an empty, degraded listing.
func (uc *VerificationUseCase) ListFolder(ctx context.Context, folderID string) ([]domain.RemoteFile, bool) {
	if strings.TrimSpace(folderID) == "" {
		return []domain.RemoteFile{}, false
	}
	files, err := uc.lister.ListFiles(ctx, folderID)
	if err != nil {
		slog.Warn("folder_listing_failed", "folder_id", folderID, "error", err)
		return []domain.RemoteFile{}, true
	}
	if files == nil {
		files = []domain.RemoteFile{}
	}
	return files, false
}

func (uc *VerificationUseCase) ToggleDocument(
	ctx context.Context,
	candidateID, key string,
	field domain.DocumentField,
	value bool,
) (*ports.DocumentView, error) {
	if _, ok := domain.ParseDocumentField(string(field)); !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "toggle document", fmt.Errorf("unknown field %q", field))
	}
	req, ok := uc.catalog.Lookup(key)
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "toggle document", fmt.Errorf("unknown document key %q", key))
	}

	c, err := mutateCandidate(ctx, uc.repo, candidateID, "toggle document", func(c *domain.Candidate) error {
		statuses := c.DocStatus.Clone()
		statuses[req.Key] = statuses[req.Key].With(field, value)
		c.DocStatus = statuses
		c.AppendLog(uc.now(), "%s: %s set to %t", req.DisplayName, field, value)
		return nil
	})
	if err != nil {
		return nil, err
	}

	files, degraded := uc.ListFolder(ctx, c.DriveFolderID)
	return uc.view(c, files, degraded), nil
}

// SyncDrive mirrors the folder contents into the uploaded flags and releases
// the NDA gate once the signed NDA shows up.
func (uc *VerificationUseCase) SyncDrive(ctx context.Context, candidateID string) (*ports.DocumentView, error) {
	c, err := uc.load(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.DriveFolderID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "sync drive", fmt.Errorf("candidate %s has no drive folder", c.ID))
	}

	folderID := c.DriveFolderID
	files, err := uc.lister.ListFiles(ctx, folderID)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) || domain.IsKind(err, domain.ErrTemporary) {
			return nil, fmt.Errorf("sync drive: %w", err)
		}
		return nil, domain.WrapError(domain.ErrTemporary, "sync drive", err)
	}
	if files == nil {
		files = []domain.RemoteFile{}
	}
	matched := domain.MatchedKeys(uc.catalog, files)

	// Applied to a fresh read, never to c.
	ndaReleased := false
	synced, err := mutateCandidate(ctx, uc.repo, candidateID, "sync drive", func(c *domain.Candidate) error {
		if c.DriveFolderID != folderID {
			return domain.WrapError(domain.ErrConflict, "sync drive", fmt.Errorf("candidate %s folder changed during sync", c.ID))
		}
		now := uc.now()
		statuses := c.DocStatus.Clone()
		for _, req := range uc.catalog {
			statuses[req.Key] = statuses[req.Key].With(domain.FieldUploaded, matched[req.Key])
		}
		c.DocStatus = statuses
		c.AppendLog(now, "Drive synced: %d files", len(files))

		if c.Status == domain.StageWaitingForHRNDA && matched[NDARequirementKey] {
			// Publish first: a failed save re-runs the gate on the next pass, a failed publish would not.
			if !ndaReleased {
				if err := uc.events.PublishEvent(ctx, newEvent(domain.EventDocumentsSynced, c.ID, 0, now)); err != nil {
					return fmt.Errorf("publish nda release: %w", err)
				}
				ndaReleased = true
			}
			c.Status = domain.StageDocumentsRequested
			c.AppendLog(now, "NDA detected in folder; candidate notified")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.view(synced, files, false), nil
}

// SyncAll syncs every active candidate that has a folder. Individual failures
// are counted and logged without aborting the pass.
func (uc *VerificationUseCase) SyncAll(ctx context.Context) (ports.SyncReport, error) {
	candidates, err := uc.repo.List(ctx)
	if err != nil {
		return ports.SyncReport{}, fmt.Errorf("list candidates for sync: %w", err)
	}

	report := ports.SyncReport{Scanned: len(candidates)}
	active := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Status == domain.StageOnboarded || strings.TrimSpace(c.DriveFolderID) == "" {
			report.Skipped++
			continue
		}
		active = append(active, c.ID)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)

	for _, candidateID := range active {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			_, syncErr := uc.SyncDrive(gctx, candidateID)

			mu.Lock()
			defer mu.Unlock()
			if syncErr != nil {
				report.Failed++
				slog.Warn("candidate_sync_failed", "candidate_id", candidateID, "error", syncErr)
				return nil
			}
			report.Synced++
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return report, err
	}
	return report, nil
}

func (uc *VerificationUseCase) load(ctx context.Context, candidateID string) (*domain.Candidate, error) {
	if strings.TrimSpace(candidateID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load candidate", fmt.Errorf("candidate id is required"))
	}
	c, err := uc.repo.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load candidate: %w", err)
	}
	return c, nil
}

func (uc *VerificationUseCase) view(c *domain.Candidate, files []domain.RemoteFile, degraded bool) *ports.DocumentView {
	statuses := c.DocStatus
	if statuses == nil {
		statuses = domain.StatusMap{}
	}
	return &ports.DocumentView{
		CandidateID: c.ID,
		Stage:       c.Status,
		Documents:   domain.Resolve(uc.catalog, statuses, files),
		DocStatus:   statuses,
		Files:       files,
		Degraded:    degraded,
	}
}
