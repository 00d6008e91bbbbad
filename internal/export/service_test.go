package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/entity"
)

type stubValidator struct {
	sum *entity.TaxReturnSummary
	c   entity.Completeness
}

func (s stubValidator) Validate(context.Context, uuid.UUID, uuid.UUID) (*entity.TaxReturnSummary, entity.Completeness, error) {
	return s.sum, s.c, nil
}

func completeSummary() *entity.TaxReturnSummary {
	s := &entity.TaxReturnSummary{
		TaxYear:      2024,
		FilingStatus: constants.Single,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Address:      "12 St James's Square",
		City:         "New York",
		State:        "NY",
		ZipCode:      "10001",
		TotalIncome:  decimal.RequireFromString("50000.00"),
		Dependents:   []entity.Dependent{{FirstName: "Byron", LastName: "King", Relationship: "son", QualifiesForCTC: true}},
	}
	s.W2Wages = decimal.RequireFromString("50000.00")
	s.FederalWithholding = decimal.RequireFromString("1234.56")
	return s
}

func TestExportRejectsIncompleteReturn(t *testing.T) {
	svc := NewService(stubValidator{
		sum: &entity.TaxReturnSummary{},
		c:   entity.Completeness{MissingFields: []string{"City", "Spouse Last Name"}},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.ExportForm1040XLSX(context.Background(), uuid.New(), uuid.New())
	if common.CodeOf(err) != common.CodeInvalidArgument {
		t.Fatalf("code = %q, err = %v", common.CodeOf(err), err)
	}
	if !strings.Contains(err.Error(), "City, Spouse Last Name") {
		t.Fatalf("missing labels not reported: %v", err)
	}
}

func TestExportWorkbook(t *testing.T) {
	svc := NewService(stubValidator{sum: completeSummary(), c: entity.Completeness{IsValid: true}},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	b, err := svc.ExportForm1040XLSX(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != formSheet || got[1] != dependentsSheet {
		t.Fatalf("sheets = %v", got)
	}
	rows, err := f.GetRows(formSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	var line1a, line25a string
	for _, r := range rows {
		if len(r) < 3 {
			continue
		}
		switch r[0] {
		case "1a":
			line1a = r[2]
		case "25a":
			line25a = r[2]
		}
	}
	if line1a != "50000" || line25a != "1234.56" {
		t.Fatalf("line 1a = %q, line 25a = %q", line1a, line25a)
	}

	deps, err := f.GetRows(dependentsSheet)
	if err != nil {
		t.Fatalf("dependents: %v", err)
	}
	if len(deps) != 2 || deps[1][0] != "Byron" || deps[1][3] != "Yes" {
		t.Fatalf("dependents sheet = %v", deps)
	}
}
