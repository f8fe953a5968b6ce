package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
)

type WorkflowUseCase struct {
	repo   ports.CandidateRepository
	events ports.EventPublisher
	now    func() time.Time
}

func NewWorkflowUseCase(repo ports.CandidateRepository, events ports.EventPublisher) *WorkflowUseCase {
	return &WorkflowUseCase{
		repo:   repo,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ResendMail republishes mail 1 (provisional offer) or mail 2 (reminder).
// While the candidate waits on HR's NDA, mail 2 nudges HR instead.
func (uc *WorkflowUseCase) ResendMail(ctx context.Context, candidateID string, mailNumber int) (*domain.WorkflowEvent, error) {
	if !domain.ValidMailNumber(mailNumber) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "resend mail", fmt.Errorf("unknown mail number %d", mailNumber))
	}

	var event *domain.WorkflowEvent
	_, err := mutateCandidate(ctx, uc.repo, candidateID, "resend mail", func(c *domain.Candidate) error {
		// The mail goes out once; a stale write only re-applies the log entry.
		if event == nil {
			kind := domain.EventMailResend
			if mailNumber == domain.MailReminder && c.Status == domain.StageWaitingForHRNDA {
				kind = domain.EventHRNDANudge
			}
			e := newEvent(kind, c.ID, mailNumber, uc.now())
			if err := uc.events.PublishEvent(ctx, e); err != nil {
				return fmt.Errorf("publish %s: %w", kind, err)
			}
			event = &e
		}

		if event.Kind == domain.EventHRNDANudge {
			c.AppendLog(event.OccurredAt, "HR nudged to upload NDA")
		} else {
			c.AppendLog(event.OccurredAt, "Mail %d resent", mailNumber)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (uc *WorkflowUseCase) ReleaseOffer(ctx context.Context, candidateID string) (*domain.Candidate, error) {
	return uc.transition(ctx, candidateID, domain.StageFinalOfferSent, domain.EventOfferReleased, "Official offer letter released")
}

func (uc *WorkflowUseCase) Finalize(ctx context.Context, candidateID string) (*domain.Candidate, error) {
	return uc.transition(ctx, candidateID, domain.StageOnboarded, domain.EventOnboardingFinalized, "Onboarding finalized")
}

func (uc *WorkflowUseCase) transition(
	ctx context.Context,
	candidateID string,
	target domain.CandidateStatus,
	kind domain.EventKind,
	logEvent string,
) (*domain.Candidate, error) {
	published := false
	now := uc.now()
	return mutateCandidate(ctx, uc.repo, candidateID, string(kind), func(c *domain.Candidate) error {
		if c.Status == domain.StageOnboarded {
			return domain.WrapError(domain.ErrConflict, string(kind), fmt.Errorf("candidate %s is already onboarded", c.ID))
		}
		if !published {
			if err := uc.events.PublishEvent(ctx, newEvent(kind, c.ID, 0, now)); err != nil {
				return fmt.Errorf("publish %s: %w", kind, err)
			}
			published = true
		}
		c.Status = target
		c.AppendLog(now, "%s", logEvent)
		return nil
	})
}
