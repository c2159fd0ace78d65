package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
)

type fixedSource struct {
	batches []models.Batch
}

func (s *fixedSource) ListBatches() []models.Batch { return s.batches }

func TestExportBatchesRoundTrip(t *testing.T) {
	score := 88.0
	source := &fixedSource{batches: []models.Batch{
		{
			ID:            "alpha-7",
			Name:          "Alpha 7",
			Status:        "active",
			TotalTrainees: 1,
			Trainer:       "Priya Sharma",
			Trainees: []models.Trainee{
				{Name: "Asha Rao", Email: "asha@example.com", EmployeeID: "E100", QualifierScore: &score, Eligibility: "Eligible"},
			},
		},
	}}

	buf, filename, err := NewService(source).ExportBatches()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filename == "" {
		t.Fatal("expected a suggested filename")
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("expected overview plus one roster sheet, got %v", sheets)
	}

	name, err := f.GetCellValue("Batches", "A2")
	if err != nil || name != "Alpha 7" {
		t.Fatalf("unexpected overview cell: %q %v", name, err)
	}
	trainee, err := f.GetCellValue("Alpha 7", "A2")
	if err != nil || trainee != "Asha Rao" {
		t.Fatalf("unexpected roster cell: %q %v", trainee, err)
	}
}

func TestExportBatchesEmpty(t *testing.T) {
	_, _, err := NewService(&fixedSource{}).ExportBatches()
	if !errors.Is(err, ErrNoBatches) {
		t.Fatalf("expected ErrNoBatches, got %v", err)
	}
}

func TestSheetTitle(t *testing.T) {
	used := map[string]bool{}
	if got := sheetTitle("Alpha 7", used); got != "Alpha 7" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := sheetTitle("Alpha 7", used); got != "Alpha 7 2" {
		t.Fatalf("expected collision suffix, got %q", got)
	}
	if got := sheetTitle("Java/React: Cohort [2025]", used); got != "Java-React- Cohort -2025-" {
		t.Fatalf("expected sanitized title, got %q", got)
	}
	if got := sheetTitle("", used); got != "Batch" {
		t.Fatalf("expected fallback title, got %q", got)
	}
	long := sheetTitle("An Extremely Long Cohort Name That Overflows", used)
	if len(long) > 28 {
		t.Fatalf("title too long: %q", long)
	}
}
