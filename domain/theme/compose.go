package theme

import (
	"fmt"
	"sort"
	"strings"
)

// FieldSeparator joins composed field values.
const FieldSeparator = "\n"

// IncludeClosure returns the override-priority list for a root theme:
// the root first, then its included themes in discovery order.
func IncludeClosure(root int64, included []int64) []int64 {
	ids := make([]int64, 0, len(included)+1)
	ids = append(ids, root)
	for _, id := range included {
		if id != root {
			ids = append(ids, id)
		}
	}
	return ids
}

// OrderFields returns the fields that belong to a theme in priority, sorted by
// the theme's position in priority and then by target ordinal. Fields of
// themes outside priority are dropped.
func OrderFields(fields []Field, priority []int64) []Field {
	pos := make(map[int64]int, len(priority))
	for i, id := range priority {
		if _, dup := pos[id]; !dup {
			pos[id] = i
		}
	}

	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if _, ok := pos[f.ThemeID]; ok {
			out = append(out, f)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := pos[out[i].ThemeID], pos[out[j].ThemeID]
		if pi != pj {
			return pi < pj
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// Compose joins the baked values of already ordered fields.
func Compose(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.BakedOrRaw()
	}
	return strings.Join(parts, FieldSeparator)
}

// ChannelFileChange is the channel invalidation records are published on.
const ChannelFileChange = "file-change"

// Stylesheet variants regenerated per theme.
var stylesheetPrefixes = []string{"mobile", "desktop"}

// FileChange tells clients a generated asset is stale.
// Hash is a cache-busting nonce with no other meaning.
type FileChange struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// StylesheetName returns the asset path of a theme's stylesheet variant.
func StylesheetName(prefix string, themeID int64) string {
	return fmt.Sprintf("/stylesheets/%s_theme_%d", prefix, themeID)
}

// FileChanges builds one record per theme id and stylesheet variant,
// drawing a fresh hash for each from token.
func FileChanges(ids []int64, token func() (string, error)) ([]FileChange, error) {
	changes := make([]FileChange, 0, len(ids)*len(stylesheetPrefixes))
	for _, id := range ids {
		for _, prefix := range stylesheetPrefixes {
			hash, err := token()
			if err != nil {
				return nil, fmt.Errorf("generate hash: %w", err)
			}
			changes = append(changes, FileChange{
				Name: StylesheetName(prefix, id),
				Hash: hash,
			})
		}
	}
	return changes, nil
}
