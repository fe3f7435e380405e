package app

import (
	"context"
	"fmt"

	"github.com/artpar/themebake/adapters/metrics"
	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
	"github.com/rs/zerolog"
)

// Invalidator clears the local bake cache and tells peers and live clients
// which theme stylesheets went stale.
type Invalidator struct {
	cache     ports.BakeCache
	publisher ports.Publisher
	tokens    ports.TokenSource
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// NewInvalidator creates an invalidator. A nil publisher makes invalidation
// local only.
func NewInvalidator(cache ports.BakeCache, publisher ports.Publisher, tokens ports.TokenSource, m *metrics.Collector, logger zerolog.Logger) *Invalidator {
	return &Invalidator{
		cache:     cache,
		publisher: publisher,
		tokens:    tokens,
		metrics:   m,
		logger:    logger,
	}
}

// ClearLocal drops every entry of the local bake cache.
func (i *Invalidator) ClearLocal() {
	i.cache.Clear()
	i.metrics.CacheCleared()
}

// Invalidate clears the local cache, then publishes one file-change record
// per id and stylesheet variant. The clear happens even when publishing
// fails. Publish errors are returned and never retried.
func (i *Invalidator) Invalidate(ctx context.Context, ids []int64) error {
	i.ClearLocal()

	if len(ids) == 0 || i.publisher == nil {
		return nil
	}

	changes, err := theme.FileChanges(ids, i.tokens.Token)
	if err != nil {
		i.metrics.PublishFailed()
		return err
	}

	if err := i.publisher.Publish(ctx, theme.ChannelFileChange, changes); err != nil {
		i.metrics.PublishFailed()
		i.logger.Error().
			Err(err).
			Ints64("theme_ids", ids).
			Msg("failed to publish invalidation")
		return fmt.Errorf("publish %s: %w", theme.ChannelFileChange, err)
	}

	i.metrics.Published(len(changes))
	i.logger.Debug().
		Ints64("theme_ids", ids).
		Int("records", len(changes)).
		Msg("invalidation published")
	return nil
}
