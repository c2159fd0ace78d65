package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type recordModel struct {
	ID           string    `gorm:"primaryKey;column:id"`
	BatchID      string    `gorm:"column:batch_id;index"`
	TraineeID    string    `gorm:"column:trainee_id;index"`
	TraineeName  string    `gorm:"column:trainee_name"`
	TraineeEmail string    `gorm:"column:trainee_email"`
	Date         string    `gorm:"column:date"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (recordModel) TableName() string { return "attendance_records" }

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&recordModel{})
}

// SaveForDate replaces the whole attendance sheet of a batch for one date.
// Taking attendance twice for the same day keeps only the latest take.
func (r *Repository) SaveForDate(ctx context.Context, batchID, date string, records []recordModel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id = ? AND date = ?", batchID, date).Delete(&recordModel{}).Error; err != nil {
			return err
		}
		for i := range records {
			records[i].ID = uuid.New().String()
			records[i].BatchID = batchID
			records[i].Date = date
			records[i].CreatedAt = time.Now().UTC()
			if err := tx.Create(&records[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ListByTrainee(ctx context.Context, traineeID string) ([]recordModel, error) {
	var rows []recordModel
	err := r.db.WithContext(ctx).
		Where("trainee_id = ?", traineeID).
		Order("date DESC").
		Find(&rows).Error
	return rows, err
}
