package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/logger"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
	"github.com/redis/go-redis/v9"
)

// fallbackKey is the fixed namespace key holding the serialized collection.
const fallbackKey = "batchhub:batches"

// FallbackStore is the secondary sink used when the primary store is
// unreachable. It keeps the whole collection as one JSON document in Redis
// and applies the same merge-by-id semantics on save.
type FallbackStore struct {
	client *redis.Client
}

func NewFallbackStore(client *redis.Client) *FallbackStore {
	return &FallbackStore{client: client}
}

func (s *FallbackStore) Save(ctx context.Context, incoming []models.Batch) error {
	if len(incoming) == 0 {
		return nil
	}

	existing, err := s.Load(ctx)
	if err != nil {
		logger.Log.WithError(err).Warn("fallback store unreadable, overwriting")
		existing = nil
	}

	result := UpsertMany(existing, incoming)
	data, err := json.Marshal(result.Merged)
	if err != nil {
		return fmt.Errorf("marshaling batches: %w", err)
	}

	if err := s.client.Set(ctx, fallbackKey, data, 0).Err(); err != nil {
		return fmt.Errorf("writing fallback store: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"updated":   result.UpdatedCount,
		"preserved": result.PreservedCount,
	}).Info("Batches saved to fallback store")

	return nil
}

func (s *FallbackStore) Load(ctx context.Context) ([]models.Batch, error) {
	data, err := s.client.Get(ctx, fallbackKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading fallback store: %w", err)
	}

	var batches []models.Batch
	if err := json.Unmarshal(data, &batches); err != nil {
		return nil, fmt.Errorf("decoding fallback store: %w", err)
	}
	return batches, nil
}
