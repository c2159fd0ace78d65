package stats

import (
	"math"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
)

// Summary aggregates the dashboard headline numbers across every batch.
type Summary struct {
	TotalBatches     int     `json:"totalBatches"`
	ActiveBatches    int     `json:"activeBatches"`
	GraduatedBatches int     `json:"graduatedBatches"`
	TotalTrainees    int     `json:"totalTrainees"`
	OnSchedule       int     `json:"onSchedule"`
	Behind           int     `json:"behind"`
	Advanced         int     `json:"advanced"`
	AverageScore     float64 `json:"averageScore"`
	AveragePassRate  float64 `json:"averagePassRate"`
}

// Compute folds the batch collection into a Summary. Score averages only
// consider batches that actually carry qualifier scores, so a freshly
// created batch with no evaluations does not drag the numbers down.
func Compute(batches []models.Batch) Summary {
	var summary Summary
	summary.TotalBatches = len(batches)

	var scoreSum, passSum float64
	scored := 0
	for _, b := range batches {
		switch b.Status {
		case models.StatusGraduated:
			summary.GraduatedBatches++
		default:
			summary.ActiveBatches++
		}

		summary.TotalTrainees += b.TotalTrainees
		summary.OnSchedule += b.ScheduleStatus.OnSchedule
		summary.Behind += b.ScheduleStatus.Behind
		summary.Advanced += b.ScheduleStatus.Advanced

		if b.QualifierScores.Average > 0 {
			scoreSum += b.QualifierScores.Average
			passSum += b.QualifierScores.PassRate
			scored++
		}
	}

	if scored > 0 {
		summary.AverageScore = math.Round(scoreSum / float64(scored))
		summary.AveragePassRate = math.Round(passSum / float64(scored))
	}

	return summary
}
