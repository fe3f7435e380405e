package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
)

// FieldStore implements ports.FieldStore using SQLite.
type FieldStore struct {
	db *DB
}

// NewFieldStore creates a new SQLite field store.
func NewFieldStore(db *DB) *FieldStore {
	return &FieldStore{db: db}
}

const fieldColumns = `f.id, f.theme_id, f.target, f.name, f.value, f.value_baked, f.compiler_version`

// ListByTheme returns all fields of a theme ordered by target then name.
func (s *FieldStore) ListByTheme(ctx context.Context, themeID int64) ([]theme.Field, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+fieldColumns+`
		FROM theme_fields f
		WHERE f.theme_id = ?
		ORDER BY f.target, f.name
	`, themeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFields(rows)
}

// FindOrdered returns the matching fields in merge order. The priority list
// is joined as an inline table carrying each theme's position, so the
// database does the ordering.
func (s *FieldStore) FindOrdered(ctx context.Context, priority []int64, targets []theme.Target, name string) ([]theme.Field, error) {
	priority = dedupe(priority)
	if len(priority) == 0 || len(targets) == 0 {
		return nil, nil
	}

	var order strings.Builder
	args := make([]any, 0, 2*len(priority)+len(targets)+1)
	for i, id := range priority {
		if i > 0 {
			order.WriteString(" UNION ALL ")
		}
		order.WriteString("SELECT ? AS theme_id, ? AS sort_column")
		args = append(args, id, i)
	}
	args = append(args, name)
	for _, t := range targets {
		args = append(args, int(t))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM theme_fields f
		JOIN (%s) x ON x.theme_id = f.theme_id
		WHERE f.name = ? AND f.target IN (%s)
		ORDER BY x.sort_column, f.target
	`, fieldColumns, order.String(), placeholders(len(targets)))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFields(rows)
}

// SaveAll upserts fields by (theme, target, name) in one transaction. A row
// whose value changes loses its baked value.
func (s *FieldStore) SaveAll(ctx context.Context, fields []theme.Field) ([]theme.Field, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	saved := make([]theme.Field, 0, len(fields))
	for _, f := range fields {
		var baked sql.NullString
		err := tx.QueryRowContext(ctx, `
			INSERT INTO theme_fields (theme_id, target, name, value, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (theme_id, target, name) DO UPDATE SET
				value_baked = CASE WHEN theme_fields.value = excluded.value THEN theme_fields.value_baked ELSE NULL END,
				compiler_version = CASE WHEN theme_fields.value = excluded.value THEN theme_fields.compiler_version ELSE 0 END,
				value = excluded.value,
				updated_at = excluded.updated_at
			RETURNING id, value_baked, compiler_version
		`, f.ThemeID, int(f.Target), f.Name, f.Value, now, now).Scan(&f.ID, &baked, &f.CompilerVersion)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, ports.ErrNotFound
			}
			return nil, fmt.Errorf("upsert field %s: %w", f.Name, err)
		}
		f.ValueBaked = nil
		if baked.Valid {
			v := baked.String
			f.ValueBaked = &v
		}
		saved = append(saved, f)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit fields: %w", err)
	}
	return saved, nil
}

// UpdateBaked persists the baked value of a field.
func (s *FieldStore) UpdateBaked(ctx context.Context, f theme.Field) error {
	var baked sql.NullString
	if f.ValueBaked != nil {
		baked = sql.NullString{String: *f.ValueBaked, Valid: true}
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE theme_fields
		SET value_baked = ?, compiler_version = ?, updated_at = ?
		WHERE id = ?
	`, baked, f.CompilerVersion, time.Now().UTC(), f.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func scanFields(rows *sql.Rows) ([]theme.Field, error) {
	var fields []theme.Field
	for rows.Next() {
		var f theme.Field
		var target int
		var baked sql.NullString
		if err := rows.Scan(&f.ID, &f.ThemeID, &target, &f.Name, &f.Value, &baked, &f.CompilerVersion); err != nil {
			return nil, err
		}
		f.Target = theme.Target(target)
		if baked.Valid {
			v := baked.String
			f.ValueBaked = &v
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// Ensure interface compliance.
var _ ports.FieldStore = (*FieldStore)(nil)
