package compiler_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/artpar/themebake/adapters/compiler"
	"github.com/artpar/themebake/domain/theme"
)

func TestNew(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{"", false},
		{compiler.ModePassthrough, false},
		{compiler.ModeMarkdown, false},
		{"scss", true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			c, err := compiler.New(tt.mode, 4)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			}
			if err == nil && c.Version() != 4 {
				t.Errorf("Version = %d, want 4", c.Version())
			}
		})
	}
}

func TestPassthrough_EnsureBaked(t *testing.T) {
	c := compiler.NewPassthrough(2)
	f := theme.Field{Name: "header", Value: "<b>hi</b>"}

	if err := c.EnsureBaked(context.Background(), &f); err != nil {
		t.Fatalf("EnsureBaked: %v", err)
	}
	if f.ValueBaked == nil || *f.ValueBaked != "<b>hi</b>" {
		t.Errorf("ValueBaked = %v", f.ValueBaked)
	}
	if f.CompilerVersion != 2 {
		t.Errorf("CompilerVersion = %d, want 2", f.CompilerVersion)
	}
}

func TestPassthrough_KeepsFreshBake(t *testing.T) {
	c := compiler.NewPassthrough(2)
	baked := "already"
	f := theme.Field{Value: "raw", ValueBaked: &baked, CompilerVersion: 2}

	if err := c.EnsureBaked(context.Background(), &f); err != nil {
		t.Fatalf("EnsureBaked: %v", err)
	}
	if *f.ValueBaked != "already" {
		t.Errorf("fresh bake overwritten: %q", *f.ValueBaked)
	}

	// A bake from another version is redone.
	f.CompilerVersion = 1
	c.EnsureBaked(context.Background(), &f)
	if *f.ValueBaked != "raw" || f.CompilerVersion != 2 {
		t.Errorf("stale bake kept: %q at %d", *f.ValueBaked, f.CompilerVersion)
	}
}

func TestMarkdown_EnsureBaked(t *testing.T) {
	c := compiler.NewMarkdown(1)
	f := theme.Field{Name: "header", Value: "# Title\n\n**bold** ~~gone~~"}

	if err := c.EnsureBaked(context.Background(), &f); err != nil {
		t.Fatalf("EnsureBaked: %v", err)
	}
	got := *f.ValueBaked
	for _, want := range []string{"<h1>Title</h1>", "<strong>bold</strong>", "<del>gone</del>"} {
		if !strings.Contains(got, want) {
			t.Errorf("baked %q missing %q", got, want)
		}
	}
}

func TestMarkdown_CancelledContext(t *testing.T) {
	c := compiler.NewMarkdown(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := theme.Field{Value: "x"}
	if err := c.EnsureBaked(ctx, &f); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if f.ValueBaked != nil {
		t.Error("cancelled bake should leave field untouched")
	}
}
