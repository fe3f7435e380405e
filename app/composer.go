package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
	"github.com/rs/zerolog"
)

// ErrCompile marks failures of the field compiler. Every other composition
// error comes from the store.
var ErrCompile = errors.New("compile field")

// FieldComposer merges a field across a theme's include closure.
type FieldComposer struct {
	fields   ports.FieldStore
	compiler ports.Compiler
	logger   zerolog.Logger
}

// NewFieldComposer creates a composer.
func NewFieldComposer(fields ports.FieldStore, compiler ports.Compiler, logger zerolog.Logger) *FieldComposer {
	return &FieldComposer{
		fields:   fields,
		compiler: compiler,
		logger:   logger,
	}
}

// ComposeBakedField returns the baked values of field name for target across
// t and everything it includes, root first, joined by newlines.
func (c *FieldComposer) ComposeBakedField(ctx context.Context, t *Theme, target theme.Target, name string) (string, error) {
	if !target.Valid() {
		return "", fmt.Errorf("%w: %s", theme.ErrUnknownTarget, target)
	}

	included, err := t.IncludedThemes(ctx)
	if err != nil {
		return "", err
	}
	priority := theme.IncludeClosure(t.ID(), included)

	fields, err := c.fields.FindOrdered(ctx, priority, target.Targets(), name)
	if err != nil {
		return "", fmt.Errorf("find fields: %w", err)
	}

	for i := range fields {
		if err := c.bake(ctx, &fields[i]); err != nil {
			return "", err
		}
	}
	return theme.Compose(fields), nil
}

// bake compiles f if needed and persists a fresh bake. Failing to persist
// only costs a recompile next time, so it is logged and not returned.
func (c *FieldComposer) bake(ctx context.Context, f *theme.Field) error {
	before, version := f.ValueBaked, f.CompilerVersion

	if err := c.compiler.EnsureBaked(ctx, f); err != nil {
		return fmt.Errorf("%w %s of theme %d: %w", ErrCompile, f.Name, f.ThemeID, err)
	}
	if f.ValueBaked == before && f.CompilerVersion == version {
		return nil
	}

	if err := c.fields.UpdateBaked(ctx, *f); err != nil {
		c.logger.Warn().
			Err(err).
			Int64("field_id", f.ID).
			Msg("failed to persist baked field")
	}
	return nil
}
