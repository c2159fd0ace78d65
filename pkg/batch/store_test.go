package batch

import (
	"testing"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
)

func TestUpsertManyMergesByID(t *testing.T) {
	existing := []models.Batch{
		{ID: "alpha-1", Name: "Alpha 1"},
		{ID: "beta-2", Name: "Beta 2", TotalTrainees: 10},
	}
	incoming := []models.Batch{
		{ID: "beta-2", Name: "Beta 2", TotalTrainees: 12},
		{ID: "gamma-3", Name: "Gamma 3"},
	}

	result := UpsertMany(existing, incoming)

	if result.UpdatedCount != 2 || result.PreservedCount != 1 {
		t.Fatalf("expected 2 updated / 1 preserved, got %d / %d", result.UpdatedCount, result.PreservedCount)
	}
	if len(result.Merged) != 3 {
		t.Fatalf("expected 3 merged batches, got %d", len(result.Merged))
	}

	ids := []string{result.Merged[0].ID, result.Merged[1].ID, result.Merged[2].ID}
	want := []string{"alpha-1", "beta-2", "gamma-3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected order: %v", ids)
		}
	}

	if result.Merged[1].TotalTrainees != 12 {
		t.Fatalf("expected incoming batch to replace wholesale, got %d trainees", result.Merged[1].TotalTrainees)
	}
}

func TestUpsertManyEmptyExisting(t *testing.T) {
	incoming := []models.Batch{{ID: "alpha-1"}, {ID: "beta-2"}}
	result := UpsertMany(nil, incoming)
	if len(result.Merged) != 2 || result.UpdatedCount != 2 || result.PreservedCount != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestUpsertManyIdempotent(t *testing.T) {
	incoming := []models.Batch{{ID: "alpha-1", Name: "Alpha 1"}}
	first := UpsertMany(nil, incoming)
	second := UpsertMany(first.Merged, incoming)
	if len(second.Merged) != 1 {
		t.Fatalf("expected repeat upsert to keep 1 batch, got %d", len(second.Merged))
	}
	if second.UpdatedCount != 1 || second.PreservedCount != 0 {
		t.Fatalf("unexpected counts: %+v", second)
	}
}

func TestUpsertManyDoesNotMutateExisting(t *testing.T) {
	existing := []models.Batch{{ID: "alpha-1", Name: "Alpha 1"}}
	incoming := []models.Batch{{ID: "alpha-1", Name: "Renamed"}}
	UpsertMany(existing, incoming)
	if existing[0].Name != "Alpha 1" {
		t.Fatalf("input slice mutated: %q", existing[0].Name)
	}
}
