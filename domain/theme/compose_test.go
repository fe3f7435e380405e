package theme_test

import (
	"fmt"
	"slices"
	"testing"

	"github.com/artpar/themebake/domain/theme"
)

func strPtr(s string) *string { return &s }

func TestIncludeClosure(t *testing.T) {
	got := theme.IncludeClosure(5, []int64{3, 5, 8})
	if !slices.Equal(got, []int64{5, 3, 8}) {
		t.Errorf("IncludeClosure = %v", got)
	}
}

func TestOrderFields(t *testing.T) {
	fields := []theme.Field{
		{ThemeID: 3, Target: theme.TargetDesktop, Value: "c-desktop"},
		{ThemeID: 9, Target: theme.TargetCommon, Value: "stranger"},
		{ThemeID: 1, Target: theme.TargetDesktop, Value: "root-desktop"},
		{ThemeID: 3, Target: theme.TargetCommon, Value: "c-common"},
		{ThemeID: 1, Target: theme.TargetCommon, Value: "root-common"},
	}

	got := theme.OrderFields(fields, []int64{1, 3})

	var values []string
	for _, f := range got {
		values = append(values, f.Value)
	}
	want := []string{"root-common", "root-desktop", "c-common", "c-desktop"}
	if !slices.Equal(values, want) {
		t.Errorf("order = %v, want %v", values, want)
	}
}

func TestCompose(t *testing.T) {
	if got := theme.Compose(nil); got != "" {
		t.Errorf("Compose(nil) = %q, want empty", got)
	}

	fields := []theme.Field{
		{Value: "raw-a", ValueBaked: strPtr("baked-a")},
		{Value: "raw-b"},
	}
	if got := theme.Compose(fields); got != "baked-a\nraw-b" {
		t.Errorf("Compose = %q", got)
	}
}

func TestFileChanges(t *testing.T) {
	n := 0
	token := func() (string, error) {
		n++
		return fmt.Sprintf("h%d", n), nil
	}

	got, err := theme.FileChanges([]int64{4, 7}, token)
	if err != nil {
		t.Fatalf("FileChanges: %v", err)
	}

	want := []theme.FileChange{
		{Name: "/stylesheets/mobile_theme_4", Hash: "h1"},
		{Name: "/stylesheets/desktop_theme_4", Hash: "h2"},
		{Name: "/stylesheets/mobile_theme_7", Hash: "h3"},
		{Name: "/stylesheets/desktop_theme_7", Hash: "h4"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("FileChanges = %v, want %v", got, want)
	}
}

func TestFileChanges_TokenError(t *testing.T) {
	_, err := theme.FileChanges([]int64{1}, func() (string, error) {
		return "", fmt.Errorf("entropy exhausted")
	})
	if err == nil {
		t.Error("expected error")
	}
}
