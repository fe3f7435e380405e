package app

import (
	"context"
	"fmt"

	"github.com/artpar/themebake/adapters/metrics"
	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
	"github.com/rs/zerolog"
)

// GraphResolver walks the include graph stored in a RelationStore.
type GraphResolver struct {
	relations ports.RelationStore
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// NewGraphResolver creates a resolver over relations.
func NewGraphResolver(relations ports.RelationStore, m *metrics.Collector, logger zerolog.Logger) *GraphResolver {
	return &GraphResolver{
		relations: relations,
		metrics:   m,
		logger:    logger,
	}
}

// Resolve returns the themes reachable from root in direction dir, in BFS
// discovery order. Up yields themes that include root, Down the themes root
// includes. Chains deeper than theme.MaxResolveRounds are truncated; the
// truncation is logged and counted.
func (r *GraphResolver) Resolve(ctx context.Context, root int64, dir theme.Direction) ([]int64, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %s", theme.ErrUnknownDirection, dir)
	}

	res, err := theme.Resolve(ctx, root, func(ctx context.Context, frontier []int64) ([]int64, error) {
		return r.relations.Neighbours(ctx, dir, frontier)
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s from theme %d: %w", dir, root, err)
	}

	if res.Truncated {
		r.metrics.Truncated(dir.String())
		r.logger.Warn().
			Int64("theme_id", root).
			Str("direction", dir.String()).
			Int("rounds", res.Rounds).
			Int("found", len(res.IDs)).
			Msg("theme graph deeper than resolve limit, result truncated")
	}
	return res.IDs, nil
}
