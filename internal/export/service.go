package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/entity"
	"github.com/kattabharath12/tax-1040/internal/form1040"
)

const (
	formSheet       = "Form 1040"
	dependentsSheet = "Dependents"
)

// SummaryValidator builds a summary together with its completeness verdict.
type SummaryValidator interface {
	Validate(ctx context.Context, returnID, userID uuid.UUID) (*entity.TaxReturnSummary, entity.Completeness, error)
}

// Service produces Form 1040 workbooks.
type Service struct {
	summaries SummaryValidator
	logger    *slog.Logger
}

func NewService(summaries SummaryValidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{summaries: summaries, logger: logger}
}

// ExportForm1040XLSX returns the workbook for a complete return. An incomplete
// return is rejected with the missing field labels.
func (s *Service) ExportForm1040XLSX(ctx context.Context, returnID, userID uuid.UUID) ([]byte, error) {
	start := time.Now()
	sum, c, err := s.summaries.Validate(ctx, returnID, userID)
	if err != nil {
		return nil, err
	}
	if !c.IsValid {
		return nil, common.InvalidArgumentErrorf("return is incomplete, missing: %s", strings.Join(c.MissingFields, ", "))
	}

	b, err := Workbook(sum)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"tax_return_id", returnID.String(),
		"bytes", len(b),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// Workbook renders the summary as a two-sheet workbook: the form lines and the dependents.
func Workbook(sum *entity.TaxReturnSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", formSheet); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	row := 1
	write := func(sheet string, col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	header := [][2]any{
		{"Tax Year", sum.TaxYear},
		{"Filing Status", string(sum.FilingStatus)},
		{"Name", strings.TrimSpace(sum.FirstName + " " + sum.LastName)},
		{"Spouse", strings.TrimSpace(sum.SpouseFirstName + " " + sum.SpouseLastName)},
		{"Address", sum.Address},
		{"City, State, ZIP", fmt.Sprintf("%s, %s %s", sum.City, sum.State, sum.ZipCode)},
	}
	for _, h := range header {
		write(formSheet, 1, h[0])
		write(formSheet, 2, h[1])
		row++
	}

	row++
	headerRow := row
	for i, h := range []string{"Line", "Description", "Amount"} {
		write(formSheet, i+1, h)
	}
	_ = f.SetCellStyle(formSheet, cellName(1, headerRow), cellName(3, headerRow), bold)
	row++
	first := row
	for _, l := range form1040.Lines(sum) {
		write(formSheet, 1, l.Number)
		write(formSheet, 2, l.Description)
		write(formSheet, 3, l.Amount.InexactFloat64())
		row++
	}
	_ = f.SetCellStyle(formSheet, cellName(3, first), cellName(3, row-1), money)
	_ = f.SetColWidth(formSheet, "A", "A", 18)
	_ = f.SetColWidth(formSheet, "B", "B", 52)
	_ = f.SetColWidth(formSheet, "C", "C", 16)

	if _, err := f.NewSheet(dependentsSheet); err != nil {
		return nil, err
	}
	row = 1
	for i, h := range []string{"First Name", "Last Name", "Relationship", "Child Tax Credit", "EITC"} {
		write(dependentsSheet, i+1, h)
	}
	_ = f.SetCellStyle(dependentsSheet, cellName(1, 1), cellName(5, 1), bold)
	for _, d := range sum.Dependents {
		row++
		write(dependentsSheet, 1, d.FirstName)
		write(dependentsSheet, 2, d.LastName)
		write(dependentsSheet, 3, d.Relationship)
		write(dependentsSheet, 4, yesNo(d.QualifiesForCTC))
		write(dependentsSheet, 5, yesNo(d.QualifiesForEITC))
	}
	_ = f.SetColWidth(dependentsSheet, "A", "E", 18)

	idx, _ := f.GetSheetIndex(formSheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	c, _ := excelize.CoordinatesToCellName(col, row)
	return c
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
