package sqlite_test

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"

	"github.com/artpar/themebake/adapters/sqlite"
	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
)

func setupTestDB(t *testing.T) (*sqlite.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "themebake-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(path)
	}

	return db, cleanup
}

func createThemes(t *testing.T, store *sqlite.ThemeStore, keys ...string) []theme.Theme {
	t.Helper()
	var out []theme.Theme
	for _, k := range keys {
		th, err := store.Create(context.Background(), theme.Theme{Key: k, Name: "Theme " + k})
		if err != nil {
			t.Fatalf("create theme %s: %v", k, err)
		}
		out = append(out, th)
	}
	return out
}

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

// -----------------------------------------------------------------------------
// ThemeStore Tests
// -----------------------------------------------------------------------------

func TestThemeStore_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewThemeStore(db)
	ctx := context.Background()

	created, err := store.Create(ctx, theme.Theme{
		Key:             "k-1",
		Name:            "Dark",
		CompilerVersion: 3,
		UserSelectable:  true,
	})
	if err != nil {
		t.Fatalf("create theme: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("ID should be assigned")
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get theme: %v", err)
	}
	if got.Key != "k-1" {
		t.Errorf("Key = %s, want k-1", got.Key)
	}
	if got.Name != "Dark" {
		t.Errorf("Name = %s, want Dark", got.Name)
	}
	if got.CompilerVersion != 3 {
		t.Errorf("CompilerVersion = %d, want 3", got.CompilerVersion)
	}
	if !got.UserSelectable || got.Hidden {
		t.Errorf("flags = (%v, %v), want (true, false)", got.UserSelectable, got.Hidden)
	}

	byKey, err := store.GetByKey(ctx, "k-1")
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if byKey.ID != created.ID {
		t.Errorf("GetByKey ID = %d, want %d", byKey.ID, created.ID)
	}
}

func TestThemeStore_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewThemeStore(db)
	ctx := context.Background()

	if _, err := store.Get(ctx, 42); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetByKey(ctx, "nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("GetByKey error = %v, want ErrNotFound", err)
	}
	if err := store.Update(ctx, theme.Theme{ID: 42}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, 42); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
}

func TestThemeStore_DuplicateKey(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewThemeStore(db)
	createThemes(t, store, "dup")

	_, err := store.Create(context.Background(), theme.Theme{Key: "dup"})
	if !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

func TestThemeStore_UpdateKeepsKey(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewThemeStore(db)
	ctx := context.Background()
	th := createThemes(t, store, "fixed")[0]

	th.Key = "other"
	th.Name = "Renamed"
	th.Hidden = true
	if err := store.Update(ctx, th); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := store.Get(ctx, th.ID)
	if got.Key != "fixed" {
		t.Errorf("Key = %s, want fixed", got.Key)
	}
	if got.Name != "Renamed" || !got.Hidden {
		t.Errorf("got %+v", got)
	}
}

func TestThemeStore_List(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewThemeStore(db)
	createThemes(t, store, "a", "b", "c")

	themes, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(themes) != 3 {
		t.Fatalf("len = %d, want 3", len(themes))
	}
	for i := 1; i < len(themes); i++ {
		if themes[i-1].ID >= themes[i].ID {
			t.Errorf("themes not ordered by id: %d before %d", themes[i-1].ID, themes[i].ID)
		}
	}
}

func TestThemeStore_DeleteCascades(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	themes := sqlite.NewThemeStore(db)
	fields := sqlite.NewFieldStore(db)
	relations := sqlite.NewRelationStore(db)
	ctx := context.Background()

	th := createThemes(t, themes, "parent", "child")
	parent, child := th[0], th[1]

	if _, err := fields.SaveAll(ctx, []theme.Field{{ThemeID: child.ID, Name: "header", Value: "x"}}); err != nil {
		t.Fatalf("save fields: %v", err)
	}
	if err := relations.AddChild(ctx, parent.ID, child.ID); err != nil {
		t.Fatalf("add child: %v", err)
	}

	if err := themes.Delete(ctx, child.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := fields.ListByTheme(ctx, child.ID)
	if err != nil {
		t.Fatalf("list fields: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("fields survived delete: %v", got)
	}

	down, err := relations.Neighbours(ctx, theme.Down, []int64{parent.ID})
	if err != nil {
		t.Fatalf("neighbours: %v", err)
	}
	if len(down) != 0 {
		t.Errorf("relation survived delete: %v", down)
	}
}

// -----------------------------------------------------------------------------
// FieldStore Tests
// -----------------------------------------------------------------------------

func TestFieldStore_SaveAllUpserts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	fields := sqlite.NewFieldStore(db)
	ctx := context.Background()
	th := createThemes(t, sqlite.NewThemeStore(db), "a")[0]

	saved, err := fields.SaveAll(ctx, []theme.Field{{ThemeID: th.ID, Target: theme.TargetDesktop, Name: "header", Value: "v1"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved[0].ID == 0 {
		t.Fatal("field ID should be assigned")
	}

	baked := "<b>v1</b>"
	saved[0].ValueBaked = &baked
	saved[0].CompilerVersion = 2
	if err := fields.UpdateBaked(ctx, saved[0]); err != nil {
		t.Fatalf("update baked: %v", err)
	}

	// Same value keeps the bake.
	again, err := fields.SaveAll(ctx, []theme.Field{{ThemeID: th.ID, Target: theme.TargetDesktop, Name: "header", Value: "v1"}})
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if again[0].ID != saved[0].ID {
		t.Errorf("ID = %d, want %d", again[0].ID, saved[0].ID)
	}
	if again[0].ValueBaked == nil || *again[0].ValueBaked != baked {
		t.Errorf("ValueBaked = %v, want %q", again[0].ValueBaked, baked)
	}
	if again[0].CompilerVersion != 2 {
		t.Errorf("CompilerVersion = %d, want 2", again[0].CompilerVersion)
	}

	// A new value discards it.
	changed, err := fields.SaveAll(ctx, []theme.Field{{ThemeID: th.ID, Target: theme.TargetDesktop, Name: "header", Value: "v2"}})
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if changed[0].ValueBaked != nil {
		t.Errorf("ValueBaked = %q, want nil", *changed[0].ValueBaked)
	}

	all, _ := fields.ListByTheme(ctx, th.ID)
	if len(all) != 1 {
		t.Fatalf("len = %d, want 1", len(all))
	}
	if all[0].Value != "v2" || all[0].CompilerVersion != 0 {
		t.Errorf("stored field = %+v", all[0])
	}
}

func TestFieldStore_SaveAllUnknownTheme(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	fields := sqlite.NewFieldStore(db)
	_, err := fields.SaveAll(context.Background(), []theme.Field{{ThemeID: 999, Name: "header", Value: "x"}})
	if !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFieldStore_SaveAllIsAtomic(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	fields := sqlite.NewFieldStore(db)
	ctx := context.Background()
	th := createThemes(t, sqlite.NewThemeStore(db), "a")[0]

	_, err := fields.SaveAll(ctx, []theme.Field{
		{ThemeID: th.ID, Name: "header", Value: "x"},
		{ThemeID: 999, Name: "footer", Value: "y"},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	all, _ := fields.ListByTheme(ctx, th.ID)
	if len(all) != 0 {
		t.Errorf("partial save persisted: %v", all)
	}
}

func TestFieldStore_FindOrdered(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	fields := sqlite.NewFieldStore(db)
	ctx := context.Background()
	th := createThemes(t, sqlite.NewThemeStore(db), "root", "child", "other")
	root, child, other := th[0], th[1], th[2]

	_, err := fields.SaveAll(ctx, []theme.Field{
		{ThemeID: child.ID, Target: theme.TargetCommon, Name: "header", Value: "child-common"},
		{ThemeID: root.ID, Target: theme.TargetDesktop, Name: "header", Value: "root-desktop"},
		{ThemeID: root.ID, Target: theme.TargetCommon, Name: "header", Value: "root-common"},
		{ThemeID: root.ID, Target: theme.TargetMobile, Name: "header", Value: "root-mobile"},
		{ThemeID: root.ID, Target: theme.TargetCommon, Name: "footer", Value: "root-footer"},
		{ThemeID: other.ID, Target: theme.TargetCommon, Name: "header", Value: "other"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := fields.FindOrdered(ctx, []int64{root.ID, child.ID}, theme.TargetDesktop.Targets(), "header")
	if err != nil {
		t.Fatalf("find ordered: %v", err)
	}

	var values []string
	for _, f := range got {
		values = append(values, f.Value)
	}
	want := []string{"root-common", "root-desktop", "child-common"}
	if !slices.Equal(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestFieldStore_FindOrderedPriorityWins(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	fields := sqlite.NewFieldStore(db)
	ctx := context.Background()
	th := createThemes(t, sqlite.NewThemeStore(db), "a", "b")

	_, err := fields.SaveAll(ctx, []theme.Field{
		{ThemeID: th[0].ID, Name: "header", Value: "a"},
		{ThemeID: th[1].ID, Name: "header", Value: "b"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// b listed before a, despite its higher id.
	got, err := fields.FindOrdered(ctx, []int64{th[1].ID, th[0].ID, th[1].ID}, []theme.Target{theme.TargetCommon}, "header")
	if err != nil {
		t.Fatalf("find ordered: %v", err)
	}
	if len(got) != 2 || got[0].Value != "b" || got[1].Value != "a" {
		t.Errorf("got %+v", got)
	}
}

func TestFieldStore_FindOrderedEmpty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	fields := sqlite.NewFieldStore(db)
	got, err := fields.FindOrdered(context.Background(), nil, []theme.Target{theme.TargetCommon}, "header")
	if err != nil {
		t.Fatalf("find ordered: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

// -----------------------------------------------------------------------------
// RelationStore Tests
// -----------------------------------------------------------------------------

func TestRelationStore_Neighbours(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	relations := sqlite.NewRelationStore(db)
	ctx := context.Background()
	th := createThemes(t, sqlite.NewThemeStore(db), "a", "b", "c")
	a, b, c := th[0].ID, th[1].ID, th[2].ID

	for _, r := range [][2]int64{{a, c}, {a, b}, {b, c}} {
		if err := relations.AddChild(ctx, r[0], r[1]); err != nil {
			t.Fatalf("add child %v: %v", r, err)
		}
	}
	// Adding a relation twice is a no-op.
	if err := relations.AddChild(ctx, a, b); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	down, err := relations.Neighbours(ctx, theme.Down, []int64{a})
	if err != nil {
		t.Fatalf("down: %v", err)
	}
	if !slices.Equal(down, []int64{b, c}) {
		t.Errorf("down = %v, want %v", down, []int64{b, c})
	}

	up, err := relations.Neighbours(ctx, theme.Up, []int64{c})
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	if !slices.Equal(up, []int64{a, b}) {
		t.Errorf("up = %v, want %v", up, []int64{a, b})
	}

	multi, err := relations.Neighbours(ctx, theme.Down, []int64{a, b})
	if err != nil {
		t.Fatalf("multi: %v", err)
	}
	if !slices.Equal(multi, []int64{b, c}) {
		t.Errorf("multi = %v, want %v", multi, []int64{b, c})
	}
}

func TestRelationStore_Errors(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	relations := sqlite.NewRelationStore(db)
	ctx := context.Background()
	a := createThemes(t, sqlite.NewThemeStore(db), "a")[0]

	if err := relations.AddChild(ctx, a.ID, 999); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("AddChild error = %v, want ErrNotFound", err)
	}
	if _, err := relations.Neighbours(ctx, theme.Direction(7), []int64{a.ID}); !errors.Is(err, theme.ErrUnknownDirection) {
		t.Errorf("Neighbours error = %v, want ErrUnknownDirection", err)
	}
	got, err := relations.Neighbours(ctx, theme.Up, nil)
	if err != nil || len(got) != 0 {
		t.Errorf("Neighbours(nil) = %v, %v", got, err)
	}
}
