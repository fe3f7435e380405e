package app

import (
	"context"
	"fmt"

	"github.com/artpar/themebake/domain/theme"
)

type fieldSlot struct {
	target theme.Target
	name   string
}

// Theme is a mutable handle on one theme. Field writes are staged with
// SetField and flushed by Save. A Theme is not safe for concurrent use;
// take a fresh handle per request.
type Theme struct {
	svc *ThemeService
	rec theme.Theme

	pending map[fieldSlot]string
	order   []fieldSlot

	included   []int64
	dependants []int64
	resolvedDn bool
	resolvedUp bool
}

func newTheme(svc *ThemeService, rec theme.Theme) *Theme {
	return &Theme{
		svc:     svc,
		rec:     rec,
		pending: make(map[fieldSlot]string),
	}
}

// ID returns the theme id, 0 until saved.
func (t *Theme) ID() int64 { return t.rec.ID }

// Key returns the theme's shared key.
func (t *Theme) Key() string { return t.rec.Key }

// Record returns a copy of the theme record.
func (t *Theme) Record() theme.Theme { return t.rec }

// Persisted reports whether the theme has been saved.
func (t *Theme) Persisted() bool { return t.rec.Persisted() }

// SetName renames the theme on the next Save.
func (t *Theme) SetName(name string) { t.rec.Name = name }

// SetKey sets the key of an unsaved theme. Keys of saved themes never change.
func (t *Theme) SetKey(key string) error {
	if t.Persisted() {
		return fmt.Errorf("theme %d: key is immutable", t.rec.ID)
	}
	t.rec.Key = key
	return nil
}

// SetUserSelectable marks whether end users may pick the theme.
func (t *Theme) SetUserSelectable(v bool) { t.rec.UserSelectable = v }

// SetHidden marks whether the theme is hidden from listings.
func (t *Theme) SetHidden(v bool) { t.rec.Hidden = v }

// SetField stages value for (target, name). The latest value for a slot wins.
func (t *Theme) SetField(target theme.Target, name, value string) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %s", theme.ErrUnknownTarget, target)
	}
	slot := fieldSlot{target: target, name: name}
	if _, ok := t.pending[slot]; !ok {
		t.order = append(t.order, slot)
	}
	t.pending[slot] = value
	return nil
}

// Pending returns the number of staged field writes.
func (t *Theme) Pending() int { return len(t.order) }

// Fields returns the persisted fields of the theme.
func (t *Theme) Fields(ctx context.Context) ([]theme.Field, error) {
	if !t.Persisted() {
		return nil, nil
	}
	return t.svc.fields.ListByTheme(ctx, t.rec.ID)
}

// IncludedThemes returns the themes t includes, nearest first. The result
// is memoised until the next Save or AddChildTheme.
func (t *Theme) IncludedThemes(ctx context.Context) ([]int64, error) {
	if t.resolvedDn {
		return t.included, nil
	}
	ids, err := t.svc.resolver.Resolve(ctx, t.rec.ID, theme.Down)
	if err != nil {
		return nil, err
	}
	t.included, t.resolvedDn = ids, true
	return ids, nil
}

// DependantThemes returns the themes that include t, nearest first. The
// result is memoised until the next Save.
func (t *Theme) DependantThemes(ctx context.Context) ([]int64, error) {
	if t.resolvedUp {
		return t.dependants, nil
	}
	ids, err := t.svc.resolver.Resolve(ctx, t.rec.ID, theme.Up)
	if err != nil {
		return nil, err
	}
	t.dependants, t.resolvedUp = ids, true
	return ids, nil
}

func (t *Theme) resetResolutions() {
	t.included, t.dependants = nil, nil
	t.resolvedDn, t.resolvedUp = false, false
}

// Save creates or updates the theme row, flushes staged fields in one
// transaction and invalidates the theme and every theme that includes it.
// The staged fields are dropped once the flush has been attempted, whether
// or not it succeeded.
func (t *Theme) Save(ctx context.Context) error {
	s := t.svc
	t.rec.CompilerVersion = s.compiler.Version()

	if t.Persisted() {
		if err := s.themes.Update(ctx, t.rec); err != nil {
			return fmt.Errorf("update theme %d: %w", t.rec.ID, err)
		}
	} else {
		if t.rec.Key == "" {
			t.rec.Key = s.keys.New()
		}
		created, err := s.themes.Create(ctx, t.rec)
		if err != nil {
			return fmt.Errorf("create theme: %w", err)
		}
		t.rec = created
	}

	flushErr := t.flush(ctx)
	t.resetResolutions()
	invalidateErr := t.invalidate(ctx)

	if flushErr != nil {
		return flushErr
	}
	return invalidateErr
}

func (t *Theme) flush(ctx context.Context) error {
	if len(t.order) == 0 {
		return nil
	}

	fields := make([]theme.Field, 0, len(t.order))
	for _, slot := range t.order {
		fields = append(fields, theme.Field{
			ThemeID: t.rec.ID,
			Target:  slot.target,
			Name:    slot.name,
			Value:   t.pending[slot],
		})
	}
	t.pending = make(map[fieldSlot]string)
	t.order = nil

	if _, err := t.svc.fields.SaveAll(ctx, fields); err != nil {
		return fmt.Errorf("save fields of theme %d: %w", t.rec.ID, err)
	}
	return nil
}

// invalidate invalidates t and its dependants. Resolution failures still
// clear the local cache and invalidate t itself. Publish failures are only
// logged: the local cache is already clear and peers catch up on the next
// change.
func (t *Theme) invalidate(ctx context.Context) error {
	id := t.rec.ID
	deps, resolveErr := t.DependantThemes(ctx)
	t.svc.invalidate(ctx, append([]int64{id}, deps...))
	return resolveErr
}

func (s *ThemeService) invalidate(ctx context.Context, ids []int64) {
	if err := s.invalidator.Invalidate(ctx, ids); err != nil {
		s.logger.Warn().Err(err).Ints64("theme_ids", ids).Msg("invalidation not delivered to peers")
	}
}

// Destroy deletes the theme with its fields and relations and invalidates
// it together with every theme that included it.
func (t *Theme) Destroy(ctx context.Context) error {
	if !t.Persisted() {
		return ErrNotPersisted
	}
	s := t.svc
	id := t.rec.ID

	// Dependants are unreachable once the relations are gone.
	deps, err := t.DependantThemes(ctx)
	if err != nil {
		return err
	}
	if err := s.themes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete theme %d: %w", id, err)
	}

	t.rec.ID = 0
	t.resetResolutions()
	s.invalidate(ctx, append([]int64{id}, deps...))
	s.logger.Info().Int64("theme_id", id).Msg("theme destroyed")
	return nil
}

// AddChildTheme makes t include child, then saves t, which invalidates t and
// its dependants. Both themes must be saved.
func (t *Theme) AddChildTheme(ctx context.Context, child *Theme) error {
	if !t.Persisted() || !child.Persisted() {
		return ErrNotPersisted
	}
	if err := t.svc.relations.AddChild(ctx, t.rec.ID, child.rec.ID); err != nil {
		return fmt.Errorf("add child %d to theme %d: %w", child.rec.ID, t.rec.ID, err)
	}
	t.included, t.resolvedDn = nil, false
	return t.Save(ctx)
}
