// Package app wires the theme graph, the field composer, the bake cache and
// invalidation into the services used by the transports.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/themebake/adapters/metrics"
	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrNotPersisted is returned for operations that need a saved theme.
var ErrNotPersisted = errors.New("theme not persisted")

// Deps holds the collaborators of a ThemeService.
type Deps struct {
	Themes    ports.ThemeStore
	Fields    ports.FieldStore
	Relations ports.RelationStore
	Compiler  ports.Compiler
	Cache     ports.BakeCache
	Publisher ports.Publisher
	Keys      ports.KeyGenerator
	Tokens    ports.TokenSource
	Metrics   *metrics.Collector
	Logger    zerolog.Logger
}

// ThemeService serves baked field lookups and hands out Theme handles for
// mutation. It is safe for concurrent use.
type ThemeService struct {
	themes    ports.ThemeStore
	fields    ports.FieldStore
	relations ports.RelationStore
	compiler  ports.Compiler
	cache     ports.BakeCache
	keys      ports.KeyGenerator
	metrics   *metrics.Collector
	logger    zerolog.Logger

	resolver    *GraphResolver
	composer    *FieldComposer
	invalidator *Invalidator

	misses singleflight.Group
}

// NewThemeService creates a theme service.
func NewThemeService(d Deps) *ThemeService {
	logger := d.Logger.With().Str("service", "themes").Logger()
	return &ThemeService{
		themes:      d.Themes,
		fields:      d.Fields,
		relations:   d.Relations,
		compiler:    d.Compiler,
		cache:       d.Cache,
		keys:        d.Keys,
		metrics:     d.Metrics,
		logger:      logger,
		resolver:    NewGraphResolver(d.Relations, d.Metrics, logger),
		composer:    NewFieldComposer(d.Fields, d.Compiler, logger),
		invalidator: NewInvalidator(d.Cache, d.Publisher, d.Tokens, d.Metrics, logger),
	}
}

// Resolver returns the graph resolver.
func (s *ThemeService) Resolver() *GraphResolver { return s.resolver }

// Invalidator returns the invalidator.
func (s *ThemeService) Invalidator() *Invalidator { return s.invalidator }

// New returns a handle for a theme that is not saved yet.
func (s *ThemeService) New(name string) *Theme {
	return newTheme(s, theme.Theme{Name: name})
}

// Get returns a handle for the theme with id.
func (s *ThemeService) Get(ctx context.Context, id int64) (*Theme, error) {
	rec, err := s.themes.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get theme %d: %w", id, err)
	}
	return newTheme(s, rec), nil
}

// GetByKey returns a handle for the theme with key.
func (s *ThemeService) GetByKey(ctx context.Context, key string) (*Theme, error) {
	rec, err := s.themes.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get theme %q: %w", key, err)
	}
	return newTheme(s, rec), nil
}

// List returns every theme record ordered by id.
func (s *ThemeService) List(ctx context.Context) ([]theme.Theme, error) {
	return s.themes.List(ctx)
}

// Invalidate clears the local cache and announces ids together with every
// theme that currently includes one of them. Ids of themes that no longer
// exist are announced as given. It serves changes made by other processes
// against the shared store.
func (s *ThemeService) Invalidate(ctx context.Context, ids []int64) error {
	all := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	add := func(id int64) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			all = append(all, id)
		}
	}

	var resolveErr error
	for _, id := range ids {
		add(id)
		deps, err := s.resolver.Resolve(ctx, id, theme.Up)
		if err != nil {
			resolveErr = err
			continue
		}
		for _, d := range deps {
			add(d)
		}
	}

	if err := s.invalidator.Invalidate(ctx, all); err != nil {
		return err
	}
	return resolveErr
}

// Dependencies returns the themes reachable from id in direction dir.
func (s *ThemeService) Dependencies(ctx context.Context, id int64, dir theme.Direction) ([]int64, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %s", theme.ErrUnknownDirection, dir)
	}
	if _, err := s.themes.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("get theme %d: %w", id, err)
	}
	return s.resolver.Resolve(ctx, id, dir)
}

// LookupField returns the composed value of field for target on the theme
// with key. A blank key yields "" without touching the cache or store.
// Unknown keys and store failures yield "" and that answer is cached.
// Compiler failures are returned and not cached.
func (s *ThemeService) LookupField(ctx context.Context, key string, target theme.Target, field string) (string, error) {
	if !target.Valid() {
		return "", fmt.Errorf("%w: %s", theme.ErrUnknownTarget, target)
	}
	if key == "" {
		s.metrics.Lookup(metrics.ResultBlank)
		return "", nil
	}

	ck := theme.CacheKey{
		ThemeKey:        key,
		Target:          target,
		Field:           field,
		CompilerVersion: s.compiler.Version(),
	}
	if v, ok := s.cache.Get(ck); ok {
		s.metrics.Lookup(metrics.ResultHit)
		return v, nil
	}
	s.metrics.Lookup(metrics.ResultMiss)

	v, err, _ := s.misses.Do(ck.String(), func() (any, error) {
		// Read before composing: a Clear while we work makes the result stale.
		gen := s.cache.Generation()
		if v, ok := s.cache.Get(ck); ok {
			return v, nil
		}

		start := time.Now()
		value, err := s.compose(ctx, ck)
		s.metrics.Compose(time.Since(start))
		if err != nil {
			return "", err
		}

		s.cache.SetIfGeneration(gen, ck, value)
		return value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *ThemeService) compose(ctx context.Context, ck theme.CacheKey) (string, error) {
	t, err := s.GetByKey(ctx, ck.ThemeKey)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", ck.ThemeKey).Msg("theme lookup failed, serving empty value")
		}
		return "", nil
	}

	value, err := s.composer.ComposeBakedField(ctx, t, ck.Target, ck.Field)
	if err != nil {
		if errors.Is(err, ErrCompile) {
			return "", err
		}
		s.logger.Warn().Err(err).Str("key", ck.ThemeKey).Str("field", ck.Field).Msg("field composition failed, serving empty value")
		return "", nil
	}
	return value, nil
}
