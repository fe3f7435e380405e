package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
)

// ThemeStore implements ports.ThemeStore using SQLite.
type ThemeStore struct {
	db *DB
}

// NewThemeStore creates a new SQLite theme store.
func NewThemeStore(db *DB) *ThemeStore {
	return &ThemeStore{db: db}
}

const themeColumns = `id, name, key, compiler_version, user_selectable, hidden, created_at, updated_at`

// Get retrieves a theme by ID.
func (s *ThemeStore) Get(ctx context.Context, id int64) (theme.Theme, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+themeColumns+`
		FROM themes
		WHERE id = ?
	`, id)
	return scanTheme(row)
}

// GetByKey retrieves a theme by its shared key.
func (s *ThemeStore) GetByKey(ctx context.Context, key string) (theme.Theme, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+themeColumns+`
		FROM themes
		WHERE key = ?
	`, key)
	return scanTheme(row)
}

// List returns all themes ordered by ID.
func (s *ThemeStore) List(ctx context.Context) ([]theme.Theme, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+themeColumns+`
		FROM themes
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var themes []theme.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// Create stores a new theme and returns it with its ID assigned.
func (s *ThemeStore) Create(ctx context.Context, t theme.Theme) (theme.Theme, error) {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO themes (name, key, compiler_version, user_selectable, hidden, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.Name, t.Key, t.CompilerVersion, t.UserSelectable, t.Hidden, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return theme.Theme{}, ports.ErrDuplicate
		}
		return theme.Theme{}, err
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return theme.Theme{}, err
	}
	return t, nil
}

// Update modifies an existing theme. The key column is never written.
func (s *ThemeStore) Update(ctx context.Context, t theme.Theme) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE themes
		SET name = ?, compiler_version = ?, user_selectable = ?, hidden = ?, updated_at = ?
		WHERE id = ?
	`, t.Name, t.CompilerVersion, t.UserSelectable, t.Hidden, time.Now().UTC(), t.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Delete removes a theme. Fields and relations go with it via ON DELETE CASCADE.
func (s *ThemeStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM themes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTheme(row scanner) (theme.Theme, error) {
	var t theme.Theme
	err := row.Scan(
		&t.ID, &t.Name, &t.Key, &t.CompilerVersion, &t.UserSelectable, &t.Hidden, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return theme.Theme{}, notFound(err)
	}
	return t, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Ensure interface compliance.
var _ ports.ThemeStore = (*ThemeStore)(nil)
