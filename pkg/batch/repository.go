package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrUnavailable marks the primary sink as unreachable, as opposed to a write
// that was attempted and rolled back.
var ErrUnavailable = errors.New("primary batch store unavailable")

type batchModel struct {
	ID                 string         `gorm:"primaryKey;column:id"`
	Name               string         `gorm:"column:name"`
	Description        string         `gorm:"column:description"`
	TotalTrainees      int            `gorm:"column:total_trainees"`
	Trainer            string         `gorm:"column:trainer"`
	BehavioralTrainer  string         `gorm:"column:behavioral_trainer"`
	Mentor             string         `gorm:"column:mentor"`
	StartDate          string         `gorm:"column:start_date"`
	EndDate            string         `gorm:"column:end_date"`
	Status             string         `gorm:"column:status"`
	CurrentWeek        string         `gorm:"column:current_week"`
	TotalWeeks         string         `gorm:"column:total_weeks"`
	ScheduleOnSchedule int            `gorm:"column:schedule_on_schedule"`
	ScheduleBehind     int            `gorm:"column:schedule_behind"`
	ScheduleAdvanced   int            `gorm:"column:schedule_advanced"`
	QualifierCompleted bool           `gorm:"column:qualifier_completed"`
	QualifierDate      string         `gorm:"column:qualifier_date"`
	InterimCompleted   bool           `gorm:"column:interim_completed"`
	InterimDate        string         `gorm:"column:interim_date"`
	FinalCompleted     bool           `gorm:"column:final_completed"`
	FinalDate          string         `gorm:"column:final_date"`
	RoomDetails        datatypes.JSON `gorm:"column:room_details"`
	QualifierAverage   float64        `gorm:"column:qualifier_average"`
	QualifierHighest   float64        `gorm:"column:qualifier_highest"`
	QualifierLowest    float64        `gorm:"column:qualifier_lowest"`
	QualifierPassRate  float64        `gorm:"column:qualifier_pass_rate"`
	CreatedAt          time.Time      `gorm:"column:created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at"`
}

func (batchModel) TableName() string { return "batches" }

type traineeModel struct {
	ID                string    `gorm:"primaryKey;column:id"`
	BatchID           string    `gorm:"primaryKey;column:batch_id;index"`
	Position          int       `gorm:"column:position"`
	Name              string    `gorm:"column:name"`
	Email             string    `gorm:"column:email"`
	EmployeeID        string    `gorm:"column:employee_id"`
	ScheduleAdherence string    `gorm:"column:schedule_adherence"`
	LearningStatus    string    `gorm:"column:learning_status"`
	InterimStatus     string    `gorm:"column:interim_status"`
	FinalStatus       string    `gorm:"column:final_status"`
	QualifierScore    *float64  `gorm:"column:qualifier_score"`
	Eligibility       string    `gorm:"column:eligibility"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

func (traineeModel) TableName() string { return "trainees" }

type stakeholderModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id"`
	BatchID    string    `gorm:"column:batch_id;index"`
	Role       string    `gorm:"column:role"`
	Name       string    `gorm:"column:name"`
	Hours      float64   `gorm:"column:hours"`
	HourlyRate float64   `gorm:"column:hourly_rate"`
	Category   string    `gorm:"column:category"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (stakeholderModel) TableName() string { return "stakeholders" }

// Repository is the primary persistence sink. Each batch decomposes into a
// batch row plus owned trainee and stakeholder rows; a Save replaces all rows
// of each incoming batch id inside one transaction, so a mid-write failure
// rolls the whole call back.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&batchModel{}, &traineeModel{}, &stakeholderModel{})
}

func (r *Repository) Save(ctx context.Context, batches []models.Batch) error {
	if len(batches) == 0 {
		return nil
	}

	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, batch := range batches {
			if err := tx.Where("batch_id = ?", batch.ID).Delete(&traineeModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("batch_id = ?", batch.ID).Delete(&stakeholderModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id = ?", batch.ID).Delete(&batchModel{}).Error; err != nil {
				return err
			}

			now := time.Now().UTC()
			row := toBatchModel(batch)
			row.CreatedAt = now
			row.UpdatedAt = now
			if err := tx.Create(&row).Error; err != nil {
				return err
			}

			for i, trainee := range batch.Trainees {
				tr := toTraineeModel(batch.ID, i, trainee)
				tr.CreatedAt = now
				if err := tx.Create(&tr).Error; err != nil {
					return err
				}
			}

			for role, info := range batch.Stakeholders {
				sh := stakeholderModel{
					BatchID:    batch.ID,
					Role:       role,
					Name:       info.Name,
					Hours:      info.Hours,
					HourlyRate: info.HourlyRate,
					Category:   defaultCategory(info.Category),
					CreatedAt:  now,
				}
				if err := tx.Create(&sh).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *Repository) Load(ctx context.Context) ([]models.Batch, error) {
	var batchRows []batchModel
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&batchRows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var traineeRows []traineeModel
	if err := r.db.WithContext(ctx).Order("batch_id, position").Find(&traineeRows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var stakeholderRows []stakeholderModel
	if err := r.db.WithContext(ctx).Order("batch_id, id").Find(&stakeholderRows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	traineesByBatch := make(map[string][]models.Trainee)
	for _, row := range traineeRows {
		traineesByBatch[row.BatchID] = append(traineesByBatch[row.BatchID], models.Trainee{
			ID:                row.ID,
			Name:              row.Name,
			Email:             row.Email,
			EmployeeID:        row.EmployeeID,
			ScheduleAdherence: row.ScheduleAdherence,
			LearningStatus:    row.LearningStatus,
			InterimStatus:     row.InterimStatus,
			FinalStatus:       row.FinalStatus,
			QualifierScore:    row.QualifierScore,
			Eligibility:       row.Eligibility,
		})
	}

	stakeholdersByBatch := make(map[string]map[string]models.StakeholderInfo)
	for _, row := range stakeholderRows {
		if stakeholdersByBatch[row.BatchID] == nil {
			stakeholdersByBatch[row.BatchID] = make(map[string]models.StakeholderInfo)
		}
		stakeholdersByBatch[row.BatchID][row.Role] = models.StakeholderInfo{
			Name:       row.Name,
			Hours:      row.Hours,
			HourlyRate: row.HourlyRate,
			Category:   row.Category,
		}
	}

	batches := make([]models.Batch, 0, len(batchRows))
	for _, row := range batchRows {
		batch := models.Batch{
			ID:                row.ID,
			Name:              row.Name,
			Description:       row.Description,
			TotalTrainees:     row.TotalTrainees,
			Trainer:           row.Trainer,
			BehavioralTrainer: row.BehavioralTrainer,
			Mentor:            row.Mentor,
			StartDate:         row.StartDate,
			EndDate:           row.EndDate,
			Status:            row.Status,
			CurrentWeek:       row.CurrentWeek,
			TotalWeeks:        row.TotalWeeks,
			ScheduleStatus: models.ScheduleStatus{
				OnSchedule: row.ScheduleOnSchedule,
				Behind:     row.ScheduleBehind,
				Advanced:   row.ScheduleAdvanced,
			},
			Milestones: models.Milestones{
				Qualifier: models.Milestone{Completed: row.QualifierCompleted, Date: row.QualifierDate},
				Interim:   models.Milestone{Completed: row.InterimCompleted, Date: row.InterimDate},
				Final:     models.Milestone{Completed: row.FinalCompleted, Date: row.FinalDate},
			},
			QualifierScores: models.QualifierScores{
				Average:  row.QualifierAverage,
				Highest:  row.QualifierHighest,
				Lowest:   row.QualifierLowest,
				PassRate: row.QualifierPassRate,
			},
			Trainees:     traineesByBatch[row.ID],
			Stakeholders: stakeholdersByBatch[row.ID],
		}
		if len(row.RoomDetails) > 0 {
			var room models.RoomDetails
			if err := json.Unmarshal(row.RoomDetails, &room); err == nil {
				batch.RoomDetails = &room
			}
		}
		batches = append(batches, batch)
	}

	return batches, nil
}

func toBatchModel(batch models.Batch) batchModel {
	row := batchModel{
		ID:                 batch.ID,
		Name:               batch.Name,
		Description:        batch.Description,
		TotalTrainees:      batch.TotalTrainees,
		Trainer:            batch.Trainer,
		BehavioralTrainer:  batch.BehavioralTrainer,
		Mentor:             batch.Mentor,
		StartDate:          batch.StartDate,
		EndDate:            batch.EndDate,
		Status:             batch.Status,
		CurrentWeek:        batch.CurrentWeek,
		TotalWeeks:         batch.TotalWeeks,
		ScheduleOnSchedule: batch.ScheduleStatus.OnSchedule,
		ScheduleBehind:     batch.ScheduleStatus.Behind,
		ScheduleAdvanced:   batch.ScheduleStatus.Advanced,
		QualifierCompleted: batch.Milestones.Qualifier.Completed,
		QualifierDate:      batch.Milestones.Qualifier.Date,
		InterimCompleted:   batch.Milestones.Interim.Completed,
		InterimDate:        batch.Milestones.Interim.Date,
		FinalCompleted:     batch.Milestones.Final.Completed,
		FinalDate:          batch.Milestones.Final.Date,
		QualifierAverage:   batch.QualifierScores.Average,
		QualifierHighest:   batch.QualifierScores.Highest,
		QualifierLowest:    batch.QualifierScores.Lowest,
		QualifierPassRate:  batch.QualifierScores.PassRate,
	}
	if batch.RoomDetails != nil {
		if data, err := json.Marshal(batch.RoomDetails); err == nil {
			row.RoomDetails = datatypes.JSON(data)
		}
	}
	return row
}

func toTraineeModel(batchID string, position int, trainee models.Trainee) traineeModel {
	return traineeModel{
		ID:                trainee.ID,
		BatchID:           batchID,
		Position:          position,
		Name:              trainee.Name,
		Email:             trainee.Email,
		EmployeeID:        trainee.EmployeeID,
		ScheduleAdherence: trainee.ScheduleAdherence,
		LearningStatus:    trainee.LearningStatus,
		InterimStatus:     trainee.InterimStatus,
		FinalStatus:       trainee.FinalStatus,
		QualifierScore:    trainee.QualifierScore,
		Eligibility:       trainee.Eligibility,
	}
}

func defaultCategory(category string) string {
	if category == "" {
		return models.CategoryInternal
	}
	return category
}
