package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/logger"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
	"github.com/xuri/excelize/v2"
)

// Metadata labels looked up in the block above the trainee table. Matching is
// by case-insensitive substring, first hit wins per label.
const (
	labelCohortName   = "Cohort Name"
	labelMembersCount = "Cohort members count"
	labelLearningPath = "Learning Path"
	labelStartDate    = "Cohort Start Date"
	labelGradDate     = "Graduation Date"
	labelQualDate     = "Qualifier Date"
	labelCurrentWeek  = "Current Week"
	labelTotalWeeks   = "Total Weeks"
)

// Parser turns coach report workbooks into normalized Batch records. Every
// sheet is treated as one candidate cohort; sheets that do not look like a
// report are skipped without error.
type Parser struct {
	rules Heuristics
}

func NewParser(rules Heuristics) *Parser {
	return &Parser{rules: rules}
}

// ParseWorkbook reads an .xlsx workbook and parses every sheet independently.
// It returns an error only when the workbook itself cannot be read; sheets
// that fail structural checks simply produce no batch.
func (p *Parser) ParseWorkbook(r io.Reader) ([]models.Batch, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	var batches []models.Batch
	for _, sheetName := range file.GetSheetList() {
		rows, err := file.GetRows(sheetName)
		if err != nil {
			logger.Log.WithError(err).WithField("sheet", sheetName).Warn("failed to read sheet")
			continue
		}
		if batch := p.ParseSheet(rows, sheetName); batch != nil {
			batches = append(batches, *batch)
		}
	}

	return batches, nil
}

// ParseSheet parses a single sheet grid. It returns nil when the sheet does
// not look like a coach report: too few rows, no trainee header row, or no
// trainee rows beneath it.
func (p *Parser) ParseSheet(rows [][]string, sheetName string) *models.Batch {
	if len(rows) < p.rules.MinSheetRows {
		return nil
	}

	cohortName := p.metaValue(rows, labelCohortName)
	if cohortName == "" {
		cohortName = sheetName
	}
	learningPath := p.metaValue(rows, labelLearningPath)
	startDate := p.metaValue(rows, labelStartDate)
	graduationDate := p.metaValue(rows, labelGradDate)
	qualifierDate := p.metaValue(rows, labelQualDate)
	currentWeek := p.metaValue(rows, labelCurrentWeek)
	totalWeeks := p.metaValue(rows, labelTotalWeeks)
	membersCount, _ := strconv.Atoi(p.metaValue(rows, labelMembersCount))

	headerRow, headers := p.findHeaderRow(rows)
	if headerRow < 0 {
		return nil
	}

	nameIdx := findExact(headers, "name")
	emailIdx := findExact(headers, "email")
	empIDIdx := findContains(headers, "emp id")
	scheduleIdx := findContains(headers, "schedule adherence")
	learningStatusIdx := findContains(headers, "learning status")
	interimIdx := findContains(headers, "interim evaluation")
	// The re-attempt evaluation column is recognized only so the final
	// evaluation lookup can skip past it; its values are never read.
	finalIdx := findFinalEvaluation(headers)
	finalStatusIdx := findContains(headers, "final status")
	qualifierScoreIdx := findContains(headers, "qualifier score")
	eligibilityIdx := findContains(headers, "qualifier eligibility")

	var (
		trainees       []models.Trainee
		scheduleStatus models.ScheduleStatus
		scoreSum       float64
		scoreCount     int
		scoreHighest   float64
		scoreLowest    float64
		passCount      int
	)

	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		name := cellAt(row, nameIdx)
		if name == "" || strings.EqualFold(name, "name") {
			continue
		}

		scheduleAdherence := cellAt(row, scheduleIdx)
		interimEval := cellAt(row, interimIdx)
		finalEval := cellAt(row, finalIdx)
		finalStatus := cellAt(row, finalStatusIdx)
		score := parseLeadingFloat(cellAt(row, qualifierScoreIdx))
		eligibility := cellAt(row, eligibilityIdx)
		empID := cellAt(row, empIDIdx)

		adherence := strings.ToLower(scheduleAdherence)
		switch {
		case strings.Contains(adherence, "behind"):
			scheduleStatus.Behind++
		case strings.Contains(adherence, "advanced"):
			scheduleStatus.Advanced++
		case strings.Contains(adherence, "on schedule"):
			scheduleStatus.OnSchedule++
		}

		if score > 0 {
			scoreSum += score
			if scoreCount == 0 {
				scoreHighest = score
				scoreLowest = score
			} else {
				if score > scoreHighest {
					scoreHighest = score
				}
				if score < scoreLowest {
					scoreLowest = score
				}
			}
			scoreCount++
			if score >= p.rules.PassMark {
				passCount++
			}
		}

		traineeID := empID
		if traineeID == "" {
			traineeID = fmt.Sprintf("trainee-%d", i)
		}
		if eligibility == "" {
			eligibility = "Eligible"
		}
		if finalEval == "" {
			finalEval = finalStatus
		}

		var qualifierScore *float64
		if score > 0 {
			s := score
			qualifierScore = &s
		}

		trainees = append(trainees, models.Trainee{
			ID:                traineeID,
			Name:              name,
			Email:             cellAt(row, emailIdx),
			EmployeeID:        empID,
			ScheduleAdherence: scheduleAdherence,
			LearningStatus:    cellAt(row, learningStatusIdx),
			InterimStatus:     interimEval,
			FinalStatus:       finalEval,
			QualifierScore:    qualifierScore,
			Eligibility:       eligibility,
		})
	}

	if len(trainees) == 0 {
		return nil
	}

	if membersCount > 0 && membersCount != len(trainees) {
		logger.Log.WithFields(map[string]interface{}{
			"sheet":    sheetName,
			"declared": membersCount,
			"parsed":   len(trainees),
		}).Debug("cohort members count does not match parsed rows")
	}

	weekText := strings.ToLower(currentWeek)
	status := models.StatusActive
	if strings.Contains(weekText, "program over") || strings.Contains(weekText, "over") {
		status = models.StatusGraduated
	}

	average := 0.0
	passRate := 0.0
	if scoreCount > 0 {
		average = math.Round(scoreSum / float64(scoreCount))
		passRate = math.Round(float64(passCount) / float64(scoreCount) * 100)
	}

	qualifierCompleted := qualifierDate != "" &&
		!strings.Contains(strings.ToLower(qualifierDate), "not provided")
	interimCompleted := anyEvaluated(trainees, func(t models.Trainee) string { return t.InterimStatus })
	finalCompleted := anyEvaluated(trainees, func(t models.Trainee) string { return t.FinalStatus })

	description := learningPath
	if description == "" {
		description = "Training Program"
	}

	return &models.Batch{
		ID:                models.DeriveBatchID(cohortName),
		Name:              cohortName,
		Description:       description,
		TotalTrainees:     len(trainees),
		Trainer:           "N/A", // not carried by this report format
		BehavioralTrainer: "N/A",
		Mentor:            "N/A",
		StartDate:         startDate,
		EndDate:           graduationDate,
		Status:            status,
		CurrentWeek:       currentWeek,
		TotalWeeks:        totalWeeks,
		ScheduleStatus:    scheduleStatus,
		Milestones: models.Milestones{
			Qualifier: models.Milestone{Completed: qualifierCompleted, Date: qualifierDate},
			Interim:   models.Milestone{Completed: interimCompleted},
			Final:     models.Milestone{Completed: finalCompleted},
		},
		Stakeholders: map[string]models.StakeholderInfo{
			models.RoleTrainer:           {Name: "N/A", Category: models.CategoryInternal},
			models.RoleBehavioralTrainer: {Name: "N/A", Category: models.CategoryInternal},
			models.RoleMentor:            {Name: "N/A", Category: models.CategoryInternal},
		},
		QualifierScores: models.QualifierScores{
			Average:  average,
			Highest:  scoreHighest,
			Lowest:   scoreLowest,
			PassRate: passRate,
		},
		Trainees: trainees,
	}
}

// metaValue scans the metadata block for a cell containing the label. The
// value is the adjacent cell when non-empty, otherwise whatever follows a
// colon in the label cell itself; a label cell with neither keeps the scan
// going.
func (p *Parser) metaValue(rows [][]string, label string) string {
	needle := strings.ToLower(label)
	limit := p.rules.MetadataScanRows
	if len(rows) < limit {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		for j, raw := range rows[i] {
			cell := strings.TrimSpace(raw)
			if cell == "" || !strings.Contains(strings.ToLower(cell), needle) {
				continue
			}
			if j+1 < len(rows[i]) {
				if next := strings.TrimSpace(rows[i][j+1]); next != "" {
					return next
				}
			}
			if idx := strings.Index(cell, ":"); idx >= 0 {
				return strings.TrimSpace(cell[idx+1:])
			}
		}
	}
	return ""
}

// findHeaderRow locates the first row whose joined, lowercased cells contain
// every signature substring. Unlike the metadata scan this covers the whole
// sheet, because the table offset varies between reports.
func (p *Parser) findHeaderRow(rows [][]string) (int, []string) {
	for i, row := range rows {
		joined := strings.ToLower(strings.Join(row, ","))
		match := true
		for _, sig := range p.rules.HeaderSignature {
			if !strings.Contains(joined, sig) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		headers := make([]string, len(row))
		for k, cell := range row {
			headers[k] = strings.TrimSpace(cell)
		}
		return i, headers
	}
	return -1, nil
}

func findExact(headers []string, key string) int {
	for i, h := range headers {
		if strings.EqualFold(h, key) {
			return i
		}
	}
	return -1
}

func findContains(headers []string, key string) int {
	for i, h := range headers {
		if strings.Contains(strings.ToLower(h), key) {
			return i
		}
	}
	return -1
}

// findFinalEvaluation skips the re-attempt column, which also contains the
// "final evaluation" phrase.
func findFinalEvaluation(headers []string) int {
	for i, h := range headers {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "final evaluation") && !strings.Contains(lower, "re-attempt") {
			return i
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseLeadingFloat reads a leading numeric prefix the way spreadsheet cells
// tend to carry one ("88", "72.5 pts"). Anything without a usable prefix is 0.
func parseLeadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit := false
	seenDot := false
	for i, r := range s {
		switch {
		case r == '+' || r == '-':
			if i != 0 {
				goto done
			}
		case r == '.':
			if seenDot {
				goto done
			}
			seenDot = true
		case r >= '0' && r <= '9':
			seenDigit = true
		default:
			goto done
		}
		end = i + 1
	}
done:
	if !seenDigit {
		return 0
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return value
}

func anyEvaluated(trainees []models.Trainee, field func(models.Trainee) string) bool {
	for _, t := range trainees {
		value := field(t)
		if value != "" && value != "NA" {
			return true
		}
	}
	return false
}

