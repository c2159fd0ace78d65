package attendance

import (
	"context"
	"errors"
	"strings"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

var ErrDateRequired = errors.New("attendance date is required")

// TraineeDirectory resolves the trainee roster of a batch; the batch service
// implements it.
type TraineeDirectory interface {
	TraineesForBatch(batchID string) ([]models.Trainee, error)
}

// RecordStore persists attendance sheets; Repository implements it.
type RecordStore interface {
	SaveForDate(ctx context.Context, batchID, date string, records []recordModel) error
	ListByTrainee(ctx context.Context, traineeID string) ([]recordModel, error)
}

type Service struct {
	repo      RecordStore
	directory TraineeDirectory
}

func NewService(repo RecordStore, directory TraineeDirectory) *Service {
	return &Service{repo: repo, directory: directory}
}

// SaveAttendance marks every trainee of the batch for the given date.
// Trainees not listed as absent count as present.
func (s *Service) SaveAttendance(ctx context.Context, batchID string, req models.SaveAttendanceRequest) (int, error) {
	if strings.TrimSpace(req.Date) == "" {
		return 0, ErrDateRequired
	}

	trainees, err := s.directory.TraineesForBatch(batchID)
	if err != nil {
		return 0, err
	}

	absent := make(map[string]struct{}, len(req.AbsentIDs))
	for _, id := range req.AbsentIDs {
		absent[id] = struct{}{}
	}

	records := make([]recordModel, 0, len(trainees))
	for _, t := range trainees {
		status := StatusPresent
		if _, ok := absent[t.ID]; ok {
			status = StatusAbsent
		}
		records = append(records, recordModel{
			TraineeID:    t.ID,
			TraineeName:  t.Name,
			TraineeEmail: t.Email,
			Status:       status,
		})
	}

	if err := s.repo.SaveForDate(ctx, batchID, req.Date, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *Service) GetTraineeAttendance(ctx context.Context, traineeID string) (models.TraineeAttendance, error) {
	rows, err := s.repo.ListByTrainee(ctx, traineeID)
	if err != nil {
		return models.TraineeAttendance{}, err
	}

	result := models.TraineeAttendance{
		TraineeID: traineeID,
		Records:   make([]models.AttendanceRecord, 0, len(rows)),
	}
	for _, row := range rows {
		if result.TraineeName == "" {
			result.TraineeName = row.TraineeName
			result.TraineeEmail = row.TraineeEmail
		}
		result.Records = append(result.Records, models.AttendanceRecord{
			Date:   row.Date,
			Status: row.Status,
		})
	}
	return result, nil
}
