package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
)

type CandidateUseCase struct {
	repo    ports.CandidateRepository
	events  ports.EventPublisher
	catalog domain.Catalog
	now     func() time.Time
}

func NewCandidateUseCase(
	repo ports.CandidateRepository,
	events ports.EventPublisher,
	catalog domain.Catalog,
) *CandidateUseCase {
	return &CandidateUseCase{
		repo:    repo,
		events:  events,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *CandidateUseCase) Create(ctx context.Context, in domain.NewCandidateInput) (*domain.Candidate, error) {
	if err := in.Validate(); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create candidate", err)
	}

	now := uc.now()
	c := &domain.Candidate{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.TrimSpace(in.Email),
		Role:          strings.TrimSpace(in.Role),
		Salary:        in.Salary,
		Experience:    in.Experience,
		DateOfJoining: in.DateOfJoining,
		DriveFolderID: strings.TrimSpace(in.DriveFolderID),
		Status:        domain.StageInitiated,
		DocStatus:     domain.NewStatusMap(uc.catalog),
		Reminders:     []domain.ReminderRule{},
		CreatedAt:     now,
	}
	c.AppendLog(now, "Candidate created")

	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create candidate record: %w", err)
	}

	// The first sync also runs on the worker's timer, so a lost event only delays it.
	if err := uc.events.PublishEvent(ctx, newEvent(domain.EventCandidateCreated, c.ID, 0, now)); err != nil {
		slog.Warn("publish_candidate_created_failed", "candidate_id", c.ID, "error", err)
	}
	return c, nil
}

// List returns the most recently touched candidates first.
func (uc *CandidateUseCase) List(ctx context.Context) ([]domain.Candidate, error) {
	out, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (uc *CandidateUseCase) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get candidate", fmt.Errorf("candidate id is required"))
	}
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

func (uc *CandidateUseCase) OverrideStatus(ctx context.Context, id string, status domain.CandidateStatus) (*domain.Candidate, error) {
	stage, ok := domain.ParseCandidateStatus(string(status))
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "override status", fmt.Errorf("unknown stage %q", status))
	}
	return mutateCandidate(ctx, uc.repo, id, "override status", func(c *domain.Candidate) error {
		previous := c.Status
		c.Status = stage
		c.AppendLog(uc.now(), "Status overridden: %s -> %s", previous, stage)
		return nil
	})
}

func (uc *CandidateUseCase) UpdateReminders(ctx context.Context, id string, rules []domain.ReminderRule) (*domain.Candidate, error) {
	normalized, err := domain.NormalizeReminders(rules)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update reminders", err)
	}
	return mutateCandidate(ctx, uc.repo, id, "update reminders", func(c *domain.Candidate) error {
		c.Reminders = normalized
		c.AppendLog(uc.now(), "Reminder schedule updated (%d rules)", len(normalized))
		return nil
	})
}

func newEvent(kind domain.EventKind, candidateID string, mailNumber int, now time.Time) domain.WorkflowEvent {
	return domain.WorkflowEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		CandidateID: candidateID,
		MailNumber:  mailNumber,
		OccurredAt:  now,
	}
}
