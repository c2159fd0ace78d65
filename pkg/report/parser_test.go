package report

import (
	"bytes"
	"os"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// cohortSheet builds a representative coach report grid: a metadata block,
// some noise, the trainee table, and padding to a realistic sheet length.
func cohortSheet() [][]string {
	rows := [][]string{
		{"Weekly Coach Report"},
		{"Cohort Name", "Alpha 7"},
		{"Cohort members count", "3"},
		{"Learning Path", "Java Full Stack"},
		{"Cohort Start Date", "2025-01-06"},
		{"Graduation Date", "2025-03-28"},
		{"Qualifier Date", "2025-02-14"},
		{"Current Week", "Week 5 of 12"},
		{"Total Weeks", "12"},
		{},
		{"Name", "Email", "Emp ID", "Schedule Adherence (Current)", "Learning Status", "Interim Evaluation Status", "Final Evaluation Re-attempt Status", "Final Evaluation Status", "Qualifier Score (Out of 100)", "Qualifier Eligibility"},
		{"Asha Rao", "asha@example.com", "E100", "Behind Schedule", "In Progress", "Cleared", "", "", "72", "Eligible"},
		{"Vikram Nair", "vikram@example.com", "E101", "On Schedule", "In Progress", "NA", "", "", "NA", ""},
		{"Meera Iyer", "meera@example.com", "E102", "Behind", "In Progress", "Cleared", "", "", "88", "Eligible"},
	}
	for len(rows) < 22 {
		rows = append(rows, []string{})
	}
	return rows
}

func TestParseSheetCohortReport(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	batch := parser.ParseSheet(cohortSheet(), "Sheet1")
	if batch == nil {
		t.Fatal("expected a batch, got nil")
	}

	if batch.ID != "alpha-7" {
		t.Fatalf("expected id alpha-7, got %q", batch.ID)
	}
	if batch.Name != "Alpha 7" {
		t.Fatalf("expected name Alpha 7, got %q", batch.Name)
	}
	if batch.Description != "Java Full Stack" {
		t.Fatalf("expected description from learning path, got %q", batch.Description)
	}
	if batch.TotalTrainees != 3 || len(batch.Trainees) != 3 {
		t.Fatalf("expected 3 trainees, got %d/%d", batch.TotalTrainees, len(batch.Trainees))
	}
	if batch.Status != "active" {
		t.Fatalf("expected active status, got %q", batch.Status)
	}
	if batch.StartDate != "2025-01-06" || batch.EndDate != "2025-03-28" {
		t.Fatalf("unexpected dates: %q / %q", batch.StartDate, batch.EndDate)
	}

	ss := batch.ScheduleStatus
	if ss.Behind != 2 || ss.OnSchedule != 1 || ss.Advanced != 0 {
		t.Fatalf("unexpected schedule status: %+v", ss)
	}

	qs := batch.QualifierScores
	if qs.Average != 80 || qs.Highest != 88 || qs.Lowest != 72 || qs.PassRate != 100 {
		t.Fatalf("unexpected qualifier scores: %+v", qs)
	}

	if !batch.Milestones.Qualifier.Completed || batch.Milestones.Qualifier.Date != "2025-02-14" {
		t.Fatalf("expected completed qualifier milestone, got %+v", batch.Milestones.Qualifier)
	}
	if !batch.Milestones.Interim.Completed {
		t.Fatal("expected interim milestone completed, a trainee was evaluated")
	}
	if batch.Milestones.Final.Completed {
		t.Fatal("expected final milestone pending, no final evaluations yet")
	}

	first := batch.Trainees[0]
	if first.ID != "E100" || first.EmployeeID != "E100" {
		t.Fatalf("expected trainee id from emp id, got %q", first.ID)
	}
	if first.QualifierScore == nil || *first.QualifierScore != 72 {
		t.Fatalf("unexpected qualifier score: %v", first.QualifierScore)
	}

	second := batch.Trainees[1]
	if second.QualifierScore != nil {
		t.Fatalf("expected no score for unevaluated trainee, got %v", *second.QualifierScore)
	}
	if second.Eligibility != "Eligible" {
		t.Fatalf("expected eligibility to default to Eligible, got %q", second.Eligibility)
	}
}

func TestParseSheetTooShort(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	rows := cohortSheet()[:14]
	if batch := parser.ParseSheet(rows, "Sheet1"); batch != nil {
		t.Fatalf("expected nil for a short sheet, got %+v", batch)
	}
}

func TestParseSheetNoHeaderRow(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	rows := make([][]string, 25)
	for i := range rows {
		rows[i] = []string{"some", "unrelated", "content"}
	}
	if batch := parser.ParseSheet(rows, "Sheet1"); batch != nil {
		t.Fatalf("expected nil without a trainee header, got %+v", batch)
	}
}

func TestParseSheetNoTraineeRows(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	rows := cohortSheet()
	// Blank out the trainee rows, keep the header.
	rows[11] = []string{}
	rows[12] = []string{}
	rows[13] = []string{}
	if batch := parser.ParseSheet(rows, "Sheet1"); batch != nil {
		t.Fatalf("expected nil without trainee rows, got %+v", batch)
	}
}

func TestParseSheetColonMetadata(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	rows := cohortSheet()
	rows[1] = []string{"Cohort Name: Zeta 1"}
	batch := parser.ParseSheet(rows, "Sheet1")
	if batch == nil {
		t.Fatal("expected a batch, got nil")
	}
	if batch.Name != "Zeta 1" || batch.ID != "zeta-1" {
		t.Fatalf("expected colon-form metadata to parse, got %q / %q", batch.Name, batch.ID)
	}
}

func TestParseSheetNameFallsBackToSheetName(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	rows := cohortSheet()
	rows[1] = []string{}
	batch := parser.ParseSheet(rows, "Batch 12")
	if batch == nil {
		t.Fatal("expected a batch, got nil")
	}
	if batch.Name != "Batch 12" || batch.ID != "batch-12" {
		t.Fatalf("expected sheet name fallback, got %q / %q", batch.Name, batch.ID)
	}
}

func TestParseSheetProgramOver(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	rows := cohortSheet()
	rows[7] = []string{"Current Week", "Program Over"}
	batch := parser.ParseSheet(rows, "Sheet1")
	if batch == nil {
		t.Fatal("expected a batch, got nil")
	}
	if batch.Status != "graduated" {
		t.Fatalf("expected graduated status, got %q", batch.Status)
	}
}

func TestParseSheetFinalEvaluationSkipsReAttempt(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	rows := cohortSheet()
	rows[11] = []string{"Asha Rao", "asha@example.com", "E100", "Behind Schedule", "In Progress", "Cleared", "Failed", "Passed", "72", "Eligible"}
	batch := parser.ParseSheet(rows, "Sheet1")
	if batch == nil {
		t.Fatal("expected a batch, got nil")
	}
	if got := batch.Trainees[0].FinalStatus; got != "Passed" {
		t.Fatalf("expected final status from the non-re-attempt column, got %q", got)
	}
	if !batch.Milestones.Final.Completed {
		t.Fatal("expected final milestone completed")
	}
}

func TestParseSheetUnmatchedAdherenceCountsNowhere(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	rows := cohortSheet()
	rows[12] = []string{"Vikram Nair", "vikram@example.com", "E101", "Unknown", "In Progress", "NA", "", "", "NA", ""}
	batch := parser.ParseSheet(rows, "Sheet1")
	if batch == nil {
		t.Fatal("expected a batch, got nil")
	}
	if batch.TotalTrainees != 3 {
		t.Fatalf("expected 3 trainees, got %d", batch.TotalTrainees)
	}

	ss := batch.ScheduleStatus
	if ss.Behind != 2 || ss.OnSchedule != 0 || ss.Advanced != 0 {
		t.Fatalf("row with unrecognized adherence must land in no bucket: %+v", ss)
	}
	if sum := ss.OnSchedule + ss.Behind + ss.Advanced; sum >= batch.TotalTrainees {
		t.Fatalf("bucket sum %d must stay below trainee count %d", sum, batch.TotalTrainees)
	}
}

func TestParseSheetFallbackTraineeID(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	rows := cohortSheet()
	rows[12] = []string{"Vikram Nair", "vikram@example.com", "", "On Schedule", "In Progress", "NA", "", "", "NA", ""}
	batch := parser.ParseSheet(rows, "Sheet1")
	if batch == nil {
		t.Fatal("expected a batch, got nil")
	}
	if got := batch.Trainees[1].ID; got != "trainee-12" {
		t.Fatalf("expected positional fallback id, got %q", got)
	}
}

// Positional fallback ids are row-scoped, so the same trainee gets a
// different id when the roster order shifts between imports. Records with
// such ids will not merge across re-imports.
func TestFallbackTraineeIDUnstableAcrossReorderedImports(t *testing.T) {
	parser := NewParser(DefaultHeuristics())

	noID := func(name, email, adherence string) []string {
		return []string{name, email, "", adherence, "In Progress", "NA", "", "", "NA", ""}
	}

	first := cohortSheet()
	first[11] = noID("Asha Rao", "asha@example.com", "Behind Schedule")
	first[12] = noID("Vikram Nair", "vikram@example.com", "On Schedule")

	second := cohortSheet()
	second[11] = noID("Vikram Nair", "vikram@example.com", "On Schedule")
	second[12] = noID("Asha Rao", "asha@example.com", "Behind Schedule")

	batchA := parser.ParseSheet(first, "Sheet1")
	batchB := parser.ParseSheet(second, "Sheet1")
	if batchA == nil || batchB == nil {
		t.Fatal("expected both imports to parse")
	}

	var ashaFirst, ashaSecond string
	for _, tr := range batchA.Trainees {
		if tr.Name == "Asha Rao" {
			ashaFirst = tr.ID
		}
	}
	for _, tr := range batchB.Trainees {
		if tr.Name == "Asha Rao" {
			ashaSecond = tr.ID
		}
	}

	if ashaFirst != "trainee-11" || ashaSecond != "trainee-12" {
		t.Fatalf("expected row-scoped ids trainee-11 / trainee-12, got %q / %q", ashaFirst, ashaSecond)
	}
	if ashaFirst == ashaSecond {
		t.Fatal("reordered import must yield a different positional id")
	}
}

func TestParseLeadingFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"88", 88},
		{"72.5 pts", 72.5},
		{" 64 ", 64},
		{"-3", -3},
		{"91.", 91},
		{"NA", 0},
		{"", 0},
		{"score 80", 0},
		{".", 0},
	}
	for _, c := range cases {
		if got := parseLeadingFloat(c.in); got != c.want {
			t.Errorf("parseLeadingFloat(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseWorkbook(t *testing.T) {
	f := excelize.NewFile()
	for r, row := range cohortSheet() {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	// An extra sheet that is not a report must be skipped silently.
	if _, err := f.NewSheet("Notes"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	f.SetCellValue("Notes", "A1", "scratch")

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	parser := NewParser(DefaultHeuristics())
	batches, err := parser.ParseWorkbook(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	if batches[0].ID != "alpha-7" {
		t.Fatalf("expected id alpha-7, got %q", batches[0].ID)
	}
}

func TestParseWorkbookRejectsGarbage(t *testing.T) {
	parser := NewParser(DefaultHeuristics())
	if _, err := parser.ParseWorkbook(bytes.NewReader([]byte("not a workbook"))); err == nil {
		t.Fatal("expected error for unreadable workbook")
	}
}
