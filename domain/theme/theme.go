// Package theme provides theme value types and the pure graph and merge
// functions that drive theme inheritance.
// This package has NO dependencies on I/O or external packages.
package theme

import (
	"errors"
	"fmt"
	"time"
)

// Errors returned for caller faults.
var (
	ErrUnknownTarget    = errors.New("unknown target")
	ErrUnknownDirection = errors.New("unknown direction")
)

// Target is the platform variant a field applies to.
// The ordinal values are persisted and drive merge ordering.
type Target int

const (
	TargetCommon  Target = 0
	TargetDesktop Target = 1
	TargetMobile  Target = 2
)

var targetNames = map[Target]string{
	TargetCommon:  "common",
	TargetDesktop: "desktop",
	TargetMobile:  "mobile",
}

// ParseTarget maps a target name to its Target.
func ParseTarget(s string) (Target, error) {
	for t, name := range targetNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownTarget, s)
}

// Valid reports whether t is one of the known targets.
func (t Target) Valid() bool {
	_, ok := targetNames[t]
	return ok
}

func (t Target) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}
	return fmt.Sprintf("target(%d)", int(t))
}

// Targets returns the targets whose rows apply when composing for t:
// t itself and common.
func (t Target) Targets() []Target {
	if t == TargetCommon {
		return []Target{TargetCommon}
	}
	return []Target{t, TargetCommon}
}

// Direction selects which side of the include relation to follow.
type Direction int

const (
	// Up follows child -> parent edges: themes that include the root.
	Up Direction = iota + 1
	// Down follows parent -> child edges: themes the root includes.
	Down
)

// Valid reports whether d is Up or Down.
func (d Direction) Valid() bool {
	return d == Up || d == Down
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection maps "up" or "down" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownDirection, s)
}

// Theme is a persisted theme record (value type).
type Theme struct {
	ID              int64 // 0 until persisted
	Key             string
	Name            string
	CompilerVersion int
	UserSelectable  bool
	Hidden          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Persisted reports whether the theme has been assigned an identity.
func (t Theme) Persisted() bool {
	return t.ID != 0
}

// Field is a single overridable content field of a theme.
type Field struct {
	ID              int64
	ThemeID         int64
	Target          Target
	Name            string
	Value           string
	ValueBaked      *string // nil until compiled
	CompilerVersion int     // version ValueBaked was produced at
}

// BakedOrRaw returns the baked value, or the raw value if the field
// has not been baked.
func (f Field) BakedOrRaw() string {
	if f.ValueBaked != nil {
		return *f.ValueBaked
	}
	return f.Value
}

// Relation is a directed include edge: Parent includes Child.
type Relation struct {
	ParentID int64
	ChildID  int64
}

// CacheKey identifies one composed value in the bake cache.
type CacheKey struct {
	ThemeKey        string
	Target          Target
	Field           string
	CompilerVersion int
}

// String renders k so that distinct keys never render alike. Theme keys and
// field names are quoted since either may contain the separator.
func (k CacheKey) String() string {
	return fmt.Sprintf("%q:%s:%q:%d", k.ThemeKey, k.Target, k.Field, k.CompilerVersion)
}
