package batch

import "github.com/alpha9553/cognizant-batch-hub/pkg/common/models"

// UpsertMany merges incoming batches into the existing collection by id.
// An incoming batch replaces a same-id existing batch wholesale; no field
// survives from the old record. Order is deterministic: existing batches keep
// their positions, new ids append in incoming order.
func UpsertMany(existing, incoming []models.Batch) models.MergeResult {
	merged := make([]models.Batch, len(existing))
	copy(merged, existing)

	position := make(map[string]int, len(existing))
	for i, b := range existing {
		position[b.ID] = i
	}

	for _, b := range incoming {
		if i, ok := position[b.ID]; ok {
			merged[i] = b
			continue
		}
		position[b.ID] = len(merged)
		merged = append(merged, b)
	}

	return models.MergeResult{
		Merged:         merged,
		UpdatedCount:   len(incoming),
		PreservedCount: len(merged) - len(incoming),
	}
}
