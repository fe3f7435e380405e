package config_test

import (
	"errors"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/artpar/themebake/config"
	"github.com/rs/zerolog"
)

func validConfig() string {
	return `
database:
  dsn: "themes.db"
compiler:
  version: 2
logging:
  level: "info"
`
}

func TestHolder_Get(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Compiler.Version != 2 {
		t.Errorf("Compiler.Version = %d, want 2", got.Compiler.Version)
	}
}

func TestHolder_NewHolderInvalid(t *testing.T) {
	_, err := config.NewHolder(writeConfig(t, "compiler:\n  mode: sass\n"), zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestHolder_ReloadNotifies(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var received *config.Config
	h.OnChange(func(cfg *config.Config) { received = cfg })

	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if h.Get().Logging.Level != "debug" {
		t.Errorf("reloaded Logging.Level = %s, want debug", h.Get().Logging.Level)
	}
	if received == nil || received.Logging.Level != "debug" {
		t.Errorf("OnChange received %+v", received)
	}
}

func TestHolder_ReloadInvalidKeepsOld(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var reloadErr error
	h.OnReloadError(func(err error) { reloadErr = err })
	h.OnChange(func(*config.Config) { t.Error("OnChange called for invalid config") })

	if err := os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}
	if reloadErr == nil {
		t.Error("OnReloadError not called")
	}
	if h.Get().Compiler.Version != 2 {
		t.Errorf("should keep old config, got Compiler.Version = %d", h.Get().Compiler.Version)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan *config.Config, 1)
	h.OnChange(func(cfg *config.Config) {
		select {
		case changed <- cfg:
		default:
		}
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("file watcher did not trigger reload")
	}

	// A write can produce several events; wait for the final content.
	deadline := time.Now().Add(2 * time.Second)
	for h.Get().Logging.Level != "warn" {
		if time.Now().After(deadline) {
			t.Fatalf("Logging.Level = %s, want warn", h.Get().Logging.Level)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHolder_StopTwice(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}
	h.Stop()
	h.Stop()
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}

	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- h.Reload()
		}()
	}

	wg.Wait()
	close(errs)
	var all []error
	for err := range errs {
		all = append(all, err)
	}
	if err := errors.Join(all...); err != nil {
		t.Errorf("concurrent reload: %v", err)
	}
}

func TestReloadableFields(t *testing.T) {
	reloadable := config.ReloadableFields()
	if !slices.Contains(reloadable, "logging.level") {
		t.Error("logging.level should be reloadable")
	}

	fixed := config.NonReloadableFields()
	for _, f := range []string{"server.port", "database.dsn", "compiler.version", "broadcast.peers"} {
		if !slices.Contains(fixed, f) {
			t.Errorf("%s not in NonReloadableFields", f)
		}
		if slices.Contains(reloadable, f) {
			t.Errorf("%s listed as both reloadable and fixed", f)
		}
	}
}
