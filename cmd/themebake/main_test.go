package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_ThemeLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "themebake.yaml")
	content := "database:\n  dsn: " + filepath.Join(dir, "cli.db") + "\n"
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"theme", "list"}, "No themes found."},
		{[]string{"theme", "create", "Base", "--key", "base"}, "Created theme 1 (key base)"},
		{[]string{"theme", "create", "Extra", "--key", "extra"}, "Created theme 2 (key extra)"},
		{[]string{"theme", "set", "1", "common", "header", "A"}, "Set common/header on theme 1"},
		{[]string{"theme", "set", "2", "desktop", "header", "B"}, "Set desktop/header on theme 2"},
		{[]string{"theme", "include", "1", "2"}, "Theme 1 now includes 2"},
		{[]string{"lookup", "base", "desktop", "header"}, "A\nB\n"},
		{[]string{"lookup", "base", "mobile", "header"}, "A\n"},
		{[]string{"theme", "list"}, "extra"},
		{[]string{"theme", "delete", "2"}, "Deleted theme 2"},
		{[]string{"lookup", "base", "desktop", "header"}, "A\n"},
	}

	for _, s := range steps {
		out, err := run(t, append(s.args, "--config", cfg)...)
		if err != nil {
			t.Fatalf("%v: %v\n%s", s.args, err, out)
		}
		if !strings.Contains(out, s.want) {
			t.Fatalf("%v output = %q, want %q", s.args, out, s.want)
		}
	}
}

func TestCLI_NotifyServers(t *testing.T) {
	t.Cleanup(func() { notifyURLs = nil })

	var mu sync.Mutex
	var got [][]int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/invalidations" {
			http.NotFound(w, r)
			return
		}
		var body struct {
			ThemeIDs []int64 `json:"theme_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		got = append(got, body.ThemeIDs)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := filepath.Join(dir, "themebake.yaml")
	content := "database:\n  dsn: " + filepath.Join(dir, "notify.db") + "\n"
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	for _, args := range [][]string{
		{"theme", "create", "Base", "--key", "nbase"},
		{"theme", "create", "Extra", "--key", "nextra"},
		{"theme", "include", "1", "2", "--notify", srv.URL},
		{"theme", "delete", "2", "--notify", srv.URL + "/"},
	} {
		notifyURLs = nil
		if out, err := run(t, append(args, "--config", cfg)...); err != nil {
			t.Fatalf("%v: %v\n%s", args, err, out)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	want := [][]int64{{1}, {2, 1}}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("notification %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCLI_NotifyFailureIsReported(t *testing.T) {
	t.Cleanup(func() { notifyURLs = nil })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := filepath.Join(dir, "themebake.yaml")
	content := "database:\n  dsn: " + filepath.Join(dir, "fail.db") + "\n"
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, "theme", "create", "Base", "--key", "fbase", "--notify", srv.URL, "--config", cfg)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want unexpected status 500", err)
	}
}

func TestCLI_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "themebake.yaml")
	if err := os.WriteFile(cfg, []byte("database:\n  driver: memory\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := [][]string{
		{"lookup", "k", "tablet", "header"},
		{"theme", "set", "abc", "common", "h", "v"},
		{"theme", "delete", "9"},
	}
	for _, args := range tests {
		if _, err := run(t, append(args, "--config", cfg)...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestCLI_Validate(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "themebake.yaml")
	content := "database:\n  dsn: " + filepath.Join(dir, "v.db") + "\ncompiler:\n  mode: markdown\n"
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "validate", "--config", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}

	out, err := run(t, "validate", "--config", cfg, "--check-database")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	for _, want := range []string{"Compiler: markdown v1", "Database writable", "Configuration is valid."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
