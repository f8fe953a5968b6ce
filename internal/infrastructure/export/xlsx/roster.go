package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
)

const SheetName = "Roster"

var fixedHeaders = []string{"Candidate ID", "Name", "Email", "Role", "Stage", "Date of Joining"}

// RosterWriter renders one row per candidate and one column per catalog requirement.
type RosterWriter struct{}

func NewRosterWriter() *RosterWriter {
	return &RosterWriter{}
}

func (RosterWriter) Write(w io.Writer, catalog domain.Catalog, rows []ports.RosterRow) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, 0, len(fixedHeaders)+len(catalog)+1)
	for _, h := range fixedHeaders {
		header = append(header, h)
	}
	for _, req := range catalog {
		header = append(header, req.DisplayName)
	}
	header = append(header, "Satisfied")
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		values := rosterValues(row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", row.Candidate.ID, err)
		}
	}

	if err := f.AutoFilter(SheetName, "A1:"+lastHeader, nil); err != nil {
		return fmt.Errorf("add filter: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func rosterValues(row ports.RosterRow) []any {
	c := row.Candidate
	values := []any{c.ID, c.Name, c.Email, c.Role, string(c.Status), c.DateOfJoining}
	satisfied := 0
	for _, doc := range row.Documents {
		values = append(values, string(doc.Label))
		if doc.Label.Satisfied() {
			satisfied++
		}
	}
	return append(values, fmt.Sprintf("%d/%d", satisfied, len(row.Documents)))
}
