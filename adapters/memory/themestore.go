// Package memory provides in-memory implementations of the store ports and
// the process-local bake cache.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
)

// Store holds themes, fields and relations in memory. Themes, Fields and
// Relations share one lock so deletes cascade atomically.
type Store struct {
	Themes    *ThemeStore
	Fields    *FieldStore
	Relations *RelationStore
}

type state struct {
	mu        sync.RWMutex
	themes    map[int64]theme.Theme
	fields    map[int64]theme.Field
	relations map[theme.Relation]struct{}
	nextTheme int64
	nextField int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	s := &state{
		themes:    make(map[int64]theme.Theme),
		fields:    make(map[int64]theme.Field),
		relations: make(map[theme.Relation]struct{}),
	}
	return &Store{
		Themes:    &ThemeStore{s: s},
		Fields:    &FieldStore{s: s},
		Relations: &RelationStore{s: s},
	}
}

// ThemeStore is an in-memory implementation of ports.ThemeStore.
type ThemeStore struct {
	s *state
}

// Get retrieves a theme by ID.
func (ts *ThemeStore) Get(ctx context.Context, id int64) (theme.Theme, error) {
	ts.s.mu.RLock()
	defer ts.s.mu.RUnlock()

	t, ok := ts.s.themes[id]
	if !ok {
		return theme.Theme{}, ports.ErrNotFound
	}
	return t, nil
}

// GetByKey retrieves a theme by key.
func (ts *ThemeStore) GetByKey(ctx context.Context, key string) (theme.Theme, error) {
	ts.s.mu.RLock()
	defer ts.s.mu.RUnlock()

	for _, t := range ts.s.themes {
		if t.Key == key {
			return t, nil
		}
	}
	return theme.Theme{}, ports.ErrNotFound
}

// List returns all themes ordered by ID.
func (ts *ThemeStore) List(ctx context.Context) ([]theme.Theme, error) {
	ts.s.mu.RLock()
	defer ts.s.mu.RUnlock()

	result := make([]theme.Theme, 0, len(ts.s.themes))
	for _, t := range ts.s.themes {
		result = append(result, t)
	}
	slices.SortFunc(result, func(a, b theme.Theme) int { return cmp.Compare(a.ID, b.ID) })
	return result, nil
}

// Create stores a new theme.
func (ts *ThemeStore) Create(ctx context.Context, t theme.Theme) (theme.Theme, error) {
	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()

	for _, existing := range ts.s.themes {
		if existing.Key == t.Key {
			return theme.Theme{}, ports.ErrDuplicate
		}
	}

	ts.s.nextTheme++
	t.ID = ts.s.nextTheme
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	ts.s.themes[t.ID] = t
	return t, nil
}

// Update modifies an existing theme, keeping its key.
func (ts *ThemeStore) Update(ctx context.Context, t theme.Theme) error {
	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()

	existing, ok := ts.s.themes[t.ID]
	if !ok {
		return ports.ErrNotFound
	}
	t.Key = existing.Key
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	ts.s.themes[t.ID] = t
	return nil
}

// Delete removes a theme, its fields and every relation touching it.
func (ts *ThemeStore) Delete(ctx context.Context, id int64) error {
	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()

	if _, ok := ts.s.themes[id]; !ok {
		return ports.ErrNotFound
	}
	delete(ts.s.themes, id)
	for fid, f := range ts.s.fields {
		if f.ThemeID == id {
			delete(ts.s.fields, fid)
		}
	}
	for r := range ts.s.relations {
		if r.ParentID == id || r.ChildID == id {
			delete(ts.s.relations, r)
		}
	}
	return nil
}

// FieldStore is an in-memory implementation of ports.FieldStore.
type FieldStore struct {
	s *state
}

// ListByTheme returns all fields of a theme ordered by target then name.
func (fs *FieldStore) ListByTheme(ctx context.Context, themeID int64) ([]theme.Field, error) {
	fs.s.mu.RLock()
	defer fs.s.mu.RUnlock()

	var result []theme.Field
	for _, f := range fs.s.fields {
		if f.ThemeID == themeID {
			result = append(result, f)
		}
	}
	slices.SortFunc(result, func(a, b theme.Field) int {
		if a.Target != b.Target {
			return cmp.Compare(a.Target, b.Target)
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return result, nil
}

// FindOrdered returns the matching fields in merge order.
func (fs *FieldStore) FindOrdered(ctx context.Context, priority []int64, targets []theme.Target, name string) ([]theme.Field, error) {
	fs.s.mu.RLock()
	defer fs.s.mu.RUnlock()

	var matched []theme.Field
	for _, f := range fs.s.fields {
		if f.Name == name && slices.Contains(targets, f.Target) {
			matched = append(matched, f)
		}
	}
	return theme.OrderFields(matched, priority), nil
}

// SaveAll upserts fields by (theme, target, name).
func (fs *FieldStore) SaveAll(ctx context.Context, fields []theme.Field) ([]theme.Field, error) {
	fs.s.mu.Lock()
	defer fs.s.mu.Unlock()

	for _, f := range fields {
		if _, ok := fs.s.themes[f.ThemeID]; !ok {
			return nil, ports.ErrNotFound
		}
	}

	saved := make([]theme.Field, 0, len(fields))
	for _, f := range fields {
		existing, ok := fs.s.find(f.ThemeID, f.Target, f.Name)
		if ok {
			if existing.Value != f.Value {
				existing.Value = f.Value
				existing.ValueBaked = nil
				existing.CompilerVersion = 0
			}
			f = existing
		} else {
			fs.s.nextField++
			f.ID = fs.s.nextField
			f.ValueBaked = nil
			f.CompilerVersion = 0
		}
		fs.s.fields[f.ID] = f
		saved = append(saved, f)
	}
	return saved, nil
}

// UpdateBaked persists the baked value of a field.
func (fs *FieldStore) UpdateBaked(ctx context.Context, f theme.Field) error {
	fs.s.mu.Lock()
	defer fs.s.mu.Unlock()

	existing, ok := fs.s.fields[f.ID]
	if !ok {
		return ports.ErrNotFound
	}
	existing.ValueBaked = f.ValueBaked
	existing.CompilerVersion = f.CompilerVersion
	fs.s.fields[f.ID] = existing
	return nil
}

func (s *state) find(themeID int64, target theme.Target, name string) (theme.Field, bool) {
	for _, f := range s.fields {
		if f.ThemeID == themeID && f.Target == target && f.Name == name {
			return f, true
		}
	}
	return theme.Field{}, false
}

// RelationStore is an in-memory implementation of ports.RelationStore.
type RelationStore struct {
	s *state
}

// AddChild records that parent includes child.
func (rs *RelationStore) AddChild(ctx context.Context, parentID, childID int64) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	if _, ok := rs.s.themes[parentID]; !ok {
		return ports.ErrNotFound
	}
	if _, ok := rs.s.themes[childID]; !ok {
		return ports.ErrNotFound
	}
	rs.s.relations[theme.Relation{ParentID: parentID, ChildID: childID}] = struct{}{}
	return nil
}

// Neighbours returns ids adjacent to any of ids in direction dir.
func (rs *RelationStore) Neighbours(ctx context.Context, dir theme.Direction, ids []int64) ([]int64, error) {
	if !dir.Valid() {
		return nil, theme.ErrUnknownDirection
	}

	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()

	seen := make(map[int64]struct{})
	var result []int64
	for r := range rs.s.relations {
		from, to := r.ParentID, r.ChildID
		if dir == theme.Up {
			from, to = r.ChildID, r.ParentID
		}
		if !slices.Contains(ids, from) {
			continue
		}
		if _, ok := rs.s.themes[to]; !ok {
			continue
		}
		if _, dup := seen[to]; dup {
			continue
		}
		seen[to] = struct{}{}
		result = append(result, to)
	}
	slices.Sort(result)
	return result, nil
}

// Ensure interface compliance.
var (
	_ ports.ThemeStore    = (*ThemeStore)(nil)
	_ ports.FieldStore    = (*FieldStore)(nil)
	_ ports.RelationStore = (*RelationStore)(nil)
)
