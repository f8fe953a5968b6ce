package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
)

const maxWriteAttempts = 5

// mutateCandidate applies fn to a freshly loaded candidate and saves it.
// A stale write reloads and re-applies fn, so fn must derive every change
// from the candidate it is handed.
func mutateCandidate(
	ctx context.Context,
	repo ports.CandidateRepository,
	candidateID, operation string,
	fn func(c *domain.Candidate) error,
) (*domain.Candidate, error) {
	if strings.TrimSpace(candidateID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, operation, fmt.Errorf("candidate id is required"))
	}

	var lastErr error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		c, err := repo.GetByID(ctx, candidateID)
		if err != nil {
			return nil, fmt.Errorf("%s: load candidate: %w", operation, err)
		}
		if err := fn(c); err != nil {
			return nil, err
		}
		err = repo.Update(ctx, c)
		if err == nil {
			return c, nil
		}
		if !domain.IsKind(err, domain.ErrStaleRecord) {
			return nil, fmt.Errorf("%s: save candidate: %w", operation, err)
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}
	return nil, fmt.Errorf("%s: gave up after %d concurrent writes: %w", operation, maxWriteAttempts, lastErr)
}
