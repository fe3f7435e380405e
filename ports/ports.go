// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"

	"github.com/artpar/themebake/domain/theme"
)

// Store errors.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a theme key is already taken.
	ErrDuplicate = errors.New("already exists")
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// KeyGenerator generates externally shared theme keys.
type KeyGenerator interface {
	New() string
}

// TokenSource produces cache-busting nonces.
type TokenSource interface {
	// Token returns a fresh random token.
	Token() (string, error)
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// ThemeStore persists theme records.
type ThemeStore interface {
	// Get retrieves a theme by ID.
	Get(ctx context.Context, id int64) (theme.Theme, error)

	// GetByKey retrieves a theme by its shared key.
	GetByKey(ctx context.Context, key string) (theme.Theme, error)

	// List returns all themes ordered by ID.
	List(ctx context.Context) ([]theme.Theme, error)

	// Create stores a new theme and returns it with its ID assigned.
	// It returns ErrDuplicate if the key is in use.
	Create(ctx context.Context, t theme.Theme) (theme.Theme, error)

	// Update modifies an existing theme. The key is never changed.
	Update(ctx context.Context, t theme.Theme) error

	// Delete removes a theme with its fields and relations.
	Delete(ctx context.Context, id int64) error
}

// FieldStore persists theme fields.
type FieldStore interface {
	// ListByTheme returns all fields of a theme.
	ListByTheme(ctx context.Context, themeID int64) ([]theme.Field, error)

	// FindOrdered returns fields named name with a target in targets whose
	// theme is in priority, ordered by position in priority then target.
	FindOrdered(ctx context.Context, priority []int64, targets []theme.Target, name string) ([]theme.Field, error)

	// SaveAll upserts fields by (theme, target, name) in one transaction.
	// A changed value discards any baked value.
	SaveAll(ctx context.Context, fields []theme.Field) ([]theme.Field, error)

	// UpdateBaked persists the baked value of a field.
	UpdateBaked(ctx context.Context, f theme.Field) error
}

// RelationStore persists include relations between themes.
type RelationStore interface {
	// AddChild records that parent includes child. Adding an existing
	// relation is a no-op.
	AddChild(ctx context.Context, parentID, childID int64) error

	// Neighbours returns ids of existing themes adjacent to any of ids:
	// parents for theme.Up, children for theme.Down.
	Neighbours(ctx context.Context, dir theme.Direction, ids []int64) ([]int64, error)
}

// -----------------------------------------------------------------------------
// Core Ports
// -----------------------------------------------------------------------------

// Compiler bakes raw field values into their served form.
type Compiler interface {
	// Version is bumped whenever baked output changes format.
	Version() int

	// EnsureBaked populates f.ValueBaked in place. It is a no-op when f is
	// already baked at Version.
	EnsureBaked(ctx context.Context, f *theme.Field) error
}

// BakeCache memoizes composed field values within a process.
type BakeCache interface {
	// Get returns a cached value. An empty string is a valid cached value.
	Get(key theme.CacheKey) (string, bool)

	// Set stores a value, overwriting any previous one.
	Set(key theme.CacheKey, value string)

	// Generation changes every time the cache is cleared.
	Generation() uint64

	// SetIfGeneration stores a value only if no Clear happened since gen was read.
	SetIfGeneration(gen uint64, key theme.CacheKey, value string) bool

	// Clear drops every entry.
	Clear()

	// Len returns the number of entries.
	Len() int
}

// -----------------------------------------------------------------------------
// Event Ports
// -----------------------------------------------------------------------------

// Publisher delivers invalidation events to peers and live clients.
type Publisher interface {
	// Publish sends changes on channel. Delivery is best effort.
	Publish(ctx context.Context, channel string, changes []theme.FileChange) error
}
