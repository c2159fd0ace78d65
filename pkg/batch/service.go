package batch

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/logger"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
	"github.com/google/uuid"
)

var (
	ErrBatchNotFound    = errors.New("batch not found")
	ErrTraineeNotFound  = errors.New("trainee not found")
	ErrIngestInFlight   = errors.New("another ingestion is already in progress")
	ErrInvalidRole      = errors.New("unknown stakeholder role")
	ErrInvalidMilestone = errors.New("unknown milestone")
	ErrNameRequired     = errors.New("batch name is required")
)

// Sink persists a set of batches by id and reads the full collection back.
// A Save replaces every row owned by each incoming batch id and preserves
// everything else.
type Sink interface {
	Save(ctx context.Context, batches []models.Batch) error
	Load(ctx context.Context) ([]models.Batch, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType, source string, data map[string]interface{}) error
}

// Service owns the in-memory batch collection and its write-through to the
// primary and fallback sinks. The in-memory view always reflects the latest
// merge, even when both sinks are down, so readers are never blocked by sink
// availability.
type Service struct {
	mu       sync.Mutex
	view     []models.Batch
	primary  Sink
	fallback Sink
	events   EventPublisher

	ingestMu sync.Mutex // serializes workbook ingestions
}

func NewService(primary, fallback Sink, events EventPublisher) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		events:   events,
	}
}

// Init seeds the in-memory view: primary store first, fallback second, empty
// when neither responds.
func (s *Service) Init(ctx context.Context) {
	batches, err := s.primary.Load(ctx)
	if err != nil {
		logger.Log.WithError(err).Warn("primary store unavailable on startup, trying fallback")
		batches, err = s.fallback.Load(ctx)
		if err != nil {
			logger.Log.WithError(err).Warn("fallback store unavailable on startup, starting empty")
			batches = nil
		}
	}

	s.mu.Lock()
	s.view = batches
	s.mu.Unlock()

	logger.Log.WithField("batches", len(batches)).Info("Batch view initialized")
}

// IngestReport upserts a parsed workbook. Only one ingestion runs at a time;
// a second upload while one is pending is rejected rather than interleaved.
func (s *Service) IngestReport(ctx context.Context, incoming []models.Batch) (models.MergeResult, error) {
	if !s.ingestMu.TryLock() {
		return models.MergeResult{}, ErrIngestInFlight
	}
	defer s.ingestMu.Unlock()

	result, err := s.SaveBatches(ctx, incoming)
	if err != nil {
		return result, err
	}

	s.publish(ctx, "report_ingested", map[string]interface{}{
		"updated":   result.UpdatedCount,
		"preserved": result.PreservedCount,
	})
	return result, nil
}

// SaveBatches merges incoming batches into the view and writes them through.
// A primary-store transaction failure is surfaced; an unreachable primary
// store degrades to the fallback sink. The view is updated in every case.
func (s *Service) SaveBatches(ctx context.Context, incoming []models.Batch) (models.MergeResult, error) {
	s.mu.Lock()
	result := UpsertMany(s.view, incoming)
	s.view = result.Merged
	s.mu.Unlock()

	err := s.persist(ctx, incoming)

	s.publish(ctx, "batches_upserted", map[string]interface{}{
		"updated":   result.UpdatedCount,
		"preserved": result.PreservedCount,
	})
	return result, err
}

func (s *Service) persist(ctx context.Context, incoming []models.Batch) error {
	err := s.primary.Save(ctx, incoming)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUnavailable) {
		// The write was attempted and rolled back; surface it.
		return err
	}

	logger.Log.WithError(err).Warn("primary store unreachable, saving to fallback")
	if fbErr := s.fallback.Save(ctx, incoming); fbErr != nil {
		logger.Log.WithError(fbErr).Error("fallback save failed, in-memory view only")
	}
	return nil
}

func (s *Service) ListBatches() []models.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Batch, len(s.view))
	copy(out, s.view)
	return out
}

func (s *Service) GetBatch(id string) (models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.view {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Batch{}, ErrBatchNotFound
}

func (s *Service) TraineesForBatch(batchID string) ([]models.Trainee, error) {
	batch, err := s.GetBatch(batchID)
	if err != nil {
		return nil, err
	}
	return batch.Trainees, nil
}

// CreateBatch registers a manually entered batch. The id derives from the
// name, so re-creating a same-named batch overwrites it.
func (s *Service) CreateBatch(ctx context.Context, batch models.Batch) (models.Batch, error) {
	if strings.TrimSpace(batch.Name) == "" {
		return models.Batch{}, ErrNameRequired
	}
	if batch.ID == "" {
		batch.ID = models.DeriveBatchID(batch.Name)
	}
	if batch.Status == "" {
		batch.Status = models.StatusActive
	}
	batch.TotalTrainees = len(batch.Trainees)

	if _, err := s.SaveBatches(ctx, []models.Batch{batch}); err != nil {
		return models.Batch{}, err
	}
	return batch, nil
}

func (s *Service) UpdateBatch(ctx context.Context, id string, req models.UpdateBatchRequest) (models.Batch, error) {
	return s.mutate(ctx, id, func(b *models.Batch) error {
		applyString(&b.Name, req.Name)
		applyString(&b.Description, req.Description)
		applyString(&b.Trainer, req.Trainer)
		applyString(&b.BehavioralTrainer, req.BehavioralTrainer)
		applyString(&b.Mentor, req.Mentor)
		applyString(&b.StartDate, req.StartDate)
		applyString(&b.EndDate, req.EndDate)
		applyString(&b.Status, req.Status)
		applyString(&b.CurrentWeek, req.CurrentWeek)
		applyString(&b.TotalWeeks, req.TotalWeeks)
		if req.RoomDetails != nil {
			b.RoomDetails = req.RoomDetails
		}
		return nil
	})
}

func (s *Service) AddTrainee(ctx context.Context, batchID string, trainee models.Trainee) (models.Batch, error) {
	if trainee.ID == "" {
		if trainee.EmployeeID != "" {
			trainee.ID = trainee.EmployeeID
		} else {
			trainee.ID = uuid.New().String()
		}
	}
	if trainee.Eligibility == "" {
		trainee.Eligibility = "Eligible"
	}
	return s.mutate(ctx, batchID, func(b *models.Batch) error {
		b.Trainees = append(b.Trainees, trainee)
		b.TotalTrainees++
		return nil
	})
}

func (s *Service) UpdateTrainee(ctx context.Context, batchID, traineeID string, req models.UpdateTraineeRequest) (models.Batch, error) {
	return s.mutate(ctx, batchID, func(b *models.Batch) error {
		for i := range b.Trainees {
			if b.Trainees[i].ID != traineeID {
				continue
			}
			t := &b.Trainees[i]
			applyString(&t.Name, req.Name)
			applyString(&t.Email, req.Email)
			applyString(&t.EmployeeID, req.EmployeeID)
			applyString(&t.ScheduleAdherence, req.ScheduleAdherence)
			applyString(&t.LearningStatus, req.LearningStatus)
			applyString(&t.InterimStatus, req.InterimStatus)
			applyString(&t.FinalStatus, req.FinalStatus)
			applyString(&t.Eligibility, req.Eligibility)
			if req.QualifierScore != nil {
				score := *req.QualifierScore
				if score > 0 {
					t.QualifierScore = &score
				} else {
					t.QualifierScore = nil
				}
			}
			return nil
		}
		return ErrTraineeNotFound
	})
}

func (s *Service) DeleteTrainee(ctx context.Context, batchID, traineeID string) (models.Batch, error) {
	return s.mutate(ctx, batchID, func(b *models.Batch) error {
		for i := range b.Trainees {
			if b.Trainees[i].ID == traineeID {
				b.Trainees = append(b.Trainees[:i], b.Trainees[i+1:]...)
				b.TotalTrainees--
				return nil
			}
		}
		return ErrTraineeNotFound
	})
}

func (s *Service) AssignStakeholder(ctx context.Context, batchID, role string, req models.AssignStakeholderRequest) (models.Batch, error) {
	switch role {
	case models.RoleTrainer, models.RoleBehavioralTrainer, models.RoleMentor, models.RoleBuddyMentor:
	default:
		return models.Batch{}, ErrInvalidRole
	}

	return s.mutate(ctx, batchID, func(b *models.Batch) error {
		if b.Stakeholders == nil {
			b.Stakeholders = make(map[string]models.StakeholderInfo)
		}
		b.Stakeholders[role] = models.StakeholderInfo{
			Name:       req.Name,
			Hours:      req.Hours,
			HourlyRate: req.HourlyRate,
			Category:   defaultCategory(req.Category),
		}

		// The top-level assignment fields mirror the stakeholder map.
		switch role {
		case models.RoleTrainer:
			b.Trainer = req.Name
		case models.RoleBehavioralTrainer:
			b.BehavioralTrainer = req.Name
		case models.RoleMentor:
			b.Mentor = req.Name
		}
		return nil
	})
}

func (s *Service) SetMilestoneDate(ctx context.Context, batchID, milestone string, req models.MilestoneDateRequest) (models.Batch, error) {
	return s.mutate(ctx, batchID, func(b *models.Batch) error {
		var target *models.Milestone
		switch milestone {
		case "qualifier":
			target = &b.Milestones.Qualifier
		case "interim":
			target = &b.Milestones.Interim
		case "final":
			target = &b.Milestones.Final
		default:
			return ErrInvalidMilestone
		}

		target.Date = req.Date
		if req.Completed != nil {
			target.Completed = *req.Completed
		} else {
			target.Completed = strings.TrimSpace(req.Date) != ""
		}
		return nil
	})
}

// mutate applies an in-place edit to one batch in the view, then writes the
// edited batch through the sinks.
func (s *Service) mutate(ctx context.Context, batchID string, fn func(*models.Batch) error) (models.Batch, error) {
	s.mu.Lock()
	var edited *models.Batch
	for i := range s.view {
		if s.view[i].ID == batchID {
			if err := fn(&s.view[i]); err != nil {
				s.mu.Unlock()
				return models.Batch{}, err
			}
			edited = &s.view[i]
			break
		}
	}
	if edited == nil {
		s.mu.Unlock()
		return models.Batch{}, ErrBatchNotFound
	}
	batch := *edited
	s.mu.Unlock()

	err := s.persist(ctx, []models.Batch{batch})
	s.publish(ctx, "batch_updated", map[string]interface{}{"batch_id": batch.ID})
	return batch, err
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, eventType, "batchhub", data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("failed to publish batch event")
	}
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
