package attendance

import (
	"context"
	"errors"
	"testing"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
)

type memoryStore struct {
	byDate map[string][]recordModel // "batchID|date"
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byDate: make(map[string][]recordModel)}
}

func (s *memoryStore) SaveForDate(ctx context.Context, batchID, date string, records []recordModel) error {
	for i := range records {
		records[i].BatchID = batchID
		records[i].Date = date
	}
	s.byDate[batchID+"|"+date] = records
	return nil
}

func (s *memoryStore) ListByTrainee(ctx context.Context, traineeID string) ([]recordModel, error) {
	var rows []recordModel
	for _, records := range s.byDate {
		for _, r := range records {
			if r.TraineeID == traineeID {
				rows = append(rows, r)
			}
		}
	}
	return rows, nil
}

type fixedDirectory struct {
	trainees []models.Trainee
	err      error
}

func (d *fixedDirectory) TraineesForBatch(batchID string) ([]models.Trainee, error) {
	return d.trainees, d.err
}

func TestSaveAttendanceMarksWholeRoster(t *testing.T) {
	store := newMemoryStore()
	directory := &fixedDirectory{trainees: []models.Trainee{
		{ID: "E100", Name: "Asha Rao"},
		{ID: "E101", Name: "Vikram Nair"},
		{ID: "E102", Name: "Meera Iyer"},
	}}
	svc := NewService(store, directory)

	marked, err := svc.SaveAttendance(context.Background(), "alpha-1", models.SaveAttendanceRequest{
		Date:      "2025-02-03",
		AbsentIDs: []string{"E101"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if marked != 3 {
		t.Fatalf("expected all 3 trainees marked, got %d", marked)
	}

	records := store.byDate["alpha-1|2025-02-03"]
	statuses := make(map[string]string, len(records))
	for _, r := range records {
		statuses[r.TraineeID] = r.Status
	}
	if statuses["E100"] != StatusPresent || statuses["E102"] != StatusPresent {
		t.Fatalf("unlisted trainees must count present: %v", statuses)
	}
	if statuses["E101"] != StatusAbsent {
		t.Fatalf("expected E101 absent, got %q", statuses["E101"])
	}
}

func TestSaveAttendanceRequiresDate(t *testing.T) {
	svc := NewService(newMemoryStore(), &fixedDirectory{})
	if _, err := svc.SaveAttendance(context.Background(), "alpha-1", models.SaveAttendanceRequest{Date: "  "}); !errors.Is(err, ErrDateRequired) {
		t.Fatalf("expected ErrDateRequired, got %v", err)
	}
}

func TestSaveAttendancePropagatesDirectoryError(t *testing.T) {
	wantErr := errors.New("batch not found")
	svc := NewService(newMemoryStore(), &fixedDirectory{err: wantErr})
	if _, err := svc.SaveAttendance(context.Background(), "missing", models.SaveAttendanceRequest{Date: "2025-02-03"}); !errors.Is(err, wantErr) {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestGetTraineeAttendance(t *testing.T) {
	store := newMemoryStore()
	directory := &fixedDirectory{trainees: []models.Trainee{{ID: "E100", Name: "Asha Rao", Email: "asha@example.com"}}}
	svc := NewService(store, directory)

	for _, date := range []string{"2025-02-03", "2025-02-04"} {
		if _, err := svc.SaveAttendance(context.Background(), "alpha-1", models.SaveAttendanceRequest{Date: date}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	history, err := svc.GetTraineeAttendance(context.Background(), "E100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if history.TraineeID != "E100" || history.TraineeName != "Asha Rao" {
		t.Fatalf("unexpected identity: %+v", history)
	}
	if len(history.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history.Records))
	}
	for _, r := range history.Records {
		if r.Status != StatusPresent {
			t.Fatalf("expected present, got %q", r.Status)
		}
	}
}
