package sqlite

import (
	"context"
	"fmt"

	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
)

// RelationStore implements ports.RelationStore over the child_themes table.
type RelationStore struct {
	db *DB
}

// NewRelationStore creates a new SQLite relation store.
func NewRelationStore(db *DB) *RelationStore {
	return &RelationStore{db: db}
}

// AddChild records that parent includes child. Existing relations are kept.
func (s *RelationStore) AddChild(ctx context.Context, parentID, childID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO child_themes (parent_theme_id, child_theme_id)
		VALUES (?, ?)
	`, parentID, childID)
	if isForeignKeyViolation(err) {
		return ports.ErrNotFound
	}
	return err
}

// Neighbours returns ids of existing themes adjacent to any of ids.
func (s *RelationStore) Neighbours(ctx context.Context, dir theme.Direction, ids []int64) ([]int64, error) {
	var from, to string
	switch dir {
	case theme.Up:
		from, to = "child_theme_id", "parent_theme_id"
	case theme.Down:
		from, to = "parent_theme_id", "child_theme_id"
	default:
		return nil, theme.ErrUnknownDirection
	}
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id FROM themes
		WHERE id IN (SELECT %s FROM child_themes WHERE %s IN (%s))
		ORDER BY id
	`, to, from, placeholders(len(ids)))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

// Ensure interface compliance.
var _ ports.RelationStore = (*RelationStore)(nil)
