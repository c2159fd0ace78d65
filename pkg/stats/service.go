package stats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/kafka"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/logger"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
)

// summaryKey is the cache slot for the precomputed dashboard summary.
const summaryKey = "batchhub:stats:summary"

// BatchSource yields the current batch collection to aggregate over.
type BatchSource interface {
	ListBatches() []models.Batch
}

type Service struct {
	source BatchSource
	cache  *redis.Client
	ttl    time.Duration
}

func NewService(source BatchSource, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{source: source, cache: cache, ttl: ttl}
}

// GetSummary serves the cached summary when present and recomputes on a
// miss. Cache failures degrade to a live computation, never to an error.
func (s *Service) GetSummary(ctx context.Context) (Summary, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, summaryKey).Bytes()
		if err == nil {
			var summary Summary
			if err := json.Unmarshal(data, &summary); err == nil {
				return summary, nil
			}
			logger.Log.WithError(err).Warn("Discarding corrupt stats cache entry")
		} else if !errors.Is(err, redis.Nil) {
			logger.Log.WithError(err).Warn("Stats cache unavailable")
		}
	}

	return s.Refresh(ctx), nil
}

// Refresh recomputes the summary from the live collection and rewrites the
// cache entry.
func (s *Service) Refresh(ctx context.Context) Summary {
	summary := Compute(s.source.ListBatches())

	if s.cache != nil {
		data, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, summaryKey, data, s.ttl).Err(); err != nil {
				logger.Log.WithError(err).Warn("Failed to cache stats summary")
			}
		}
	}

	return summary
}

// RunConsumer tails the batch event topic and refreshes the summary cache
// whenever the collection changes. Blocks until ctx is cancelled.
func (s *Service) RunConsumer(ctx context.Context, consumer *kafka.Consumer) error {
	return consumer.Consume(ctx, func(ctx context.Context, event models.Event) error {
		logger.Log.WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Debug("Refreshing stats after batch event")
		s.Refresh(ctx)
		return nil
	})
}
