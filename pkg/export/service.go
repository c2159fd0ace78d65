package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
)

var ErrNoBatches = errors.New("no batches to export")

// BatchSource yields the current batch collection.
type BatchSource interface {
	ListBatches() []models.Batch
}

// Service renders the batch collection back into a workbook: one overview
// sheet plus one roster sheet per batch.
type Service struct {
	source BatchSource
}

func NewService(source BatchSource) *Service {
	return &Service{source: source}
}

var overviewHeader = []string{
	"Batch", "Status", "Trainees", "Trainer", "Start Date", "End Date",
	"Current Week", "On Schedule", "Behind", "Advanced", "Average Score", "Pass Rate",
}

var rosterHeader = []string{
	"Name", "Email", "Employee ID", "Schedule Adherence", "Learning Status",
	"Interim Status", "Final Status", "Qualifier Score", "Eligibility",
}

// ExportBatches builds the workbook and returns its bytes plus a suggested
// download filename.
func (s *Service) ExportBatches() (*bytes.Buffer, string, error) {
	batches := s.source.ListBatches()
	if len(batches) == 0 {
		return nil, "", ErrNoBatches
	}

	f := excelize.NewFile()
	defer f.Close()

	const overview = "Batches"
	idx, err := f.NewSheet(overview)
	if err != nil {
		return nil, "", fmt.Errorf("creating overview sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})

	writeRow(f, overview, 1, overviewHeader)
	top, _ := excelize.CoordinatesToCellName(1, 1)
	end, _ := excelize.CoordinatesToCellName(len(overviewHeader), 1)
	f.SetCellStyle(overview, top, end, headerStyle)

	usedTitles := map[string]bool{overview: true}
	for i, batch := range batches {
		writeRow(f, overview, i+2, []interface{}{
			batch.Name, batch.Status, batch.TotalTrainees, batch.Trainer,
			batch.StartDate, batch.EndDate, batch.CurrentWeek,
			batch.ScheduleStatus.OnSchedule, batch.ScheduleStatus.Behind,
			batch.ScheduleStatus.Advanced, batch.QualifierScores.Average,
			batch.QualifierScores.PassRate,
		})

		if err := s.writeRoster(f, batch, usedTitles, headerStyle); err != nil {
			return nil, "", err
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("writing workbook: %w", err)
	}

	filename := fmt.Sprintf("batch-report-%s.xlsx", time.Now().Format("2006-01-02"))
	return buf, filename, nil
}

func (s *Service) writeRoster(f *excelize.File, batch models.Batch, used map[string]bool, headerStyle int) error {
	title := sheetTitle(batch.Name, used)
	if _, err := f.NewSheet(title); err != nil {
		return fmt.Errorf("creating sheet %q: %w", title, err)
	}

	writeRow(f, title, 1, rosterHeader)
	top, _ := excelize.CoordinatesToCellName(1, 1)
	end, _ := excelize.CoordinatesToCellName(len(rosterHeader), 1)
	f.SetCellStyle(title, top, end, headerStyle)

	for i, t := range batch.Trainees {
		score := interface{}("")
		if t.QualifierScore != nil {
			score = *t.QualifierScore
		}
		writeRow(f, title, i+2, []interface{}{
			t.Name, t.Email, t.EmployeeID, t.ScheduleAdherence, t.LearningStatus,
			t.InterimStatus, t.FinalStatus, score, t.Eligibility,
		})
	}
	return nil
}

// sheetTitle sanitizes a batch name into a legal, unique sheet title. Sheet
// titles cap at 31 characters and may not contain []:*?/\ characters.
func sheetTitle(name string, used map[string]bool) string {
	title := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '-'
		}
		return r
	}, name)
	if title == "" {
		title = "Batch"
	}
	if len(title) > 28 {
		title = title[:28]
	}

	candidate := title
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s %d", title, n)
	}
	used[candidate] = true
	return candidate
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}
