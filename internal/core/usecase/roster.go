package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
)

// RosterUseCase exports every candidate with the stored verification state.
// No folders are scanned; the uploaded flag from the last sync stands in.
type RosterUseCase struct {
	repo    ports.CandidateRepository
	catalog domain.Catalog
	writer  ports.RosterWriter
}

func NewRosterUseCase(repo ports.CandidateRepository, catalog domain.Catalog, writer ports.RosterWriter) *RosterUseCase {
	return &RosterUseCase{repo: repo, catalog: catalog, writer: writer}
}

func (uc *RosterUseCase) ExportRoster(ctx context.Context, w io.Writer) error {
	candidates, err := uc.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list candidates for roster: %w", err)
	}
	rows := make([]ports.RosterRow, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, ports.RosterRow{
			Candidate: c,
			Documents: domain.Resolve(uc.catalog, c.DocStatus, nil),
		})
	}
	if err := uc.writer.Write(w, uc.catalog, rows); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	return nil
}
