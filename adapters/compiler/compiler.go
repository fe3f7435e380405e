// Package compiler provides the bake step that turns raw field values into
// their served form.
package compiler

import (
	"bytes"
	"context"
	"fmt"

	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Modes accepted by New.
const (
	ModePassthrough = "passthrough"
	ModeMarkdown    = "markdown"
)

// New returns the compiler for mode at version.
func New(mode string, version int) (ports.Compiler, error) {
	switch mode {
	case "", ModePassthrough:
		return Passthrough{version: version}, nil
	case ModeMarkdown:
		return NewMarkdown(version), nil
	default:
		return nil, fmt.Errorf("unknown compiler mode %q", mode)
	}
}

// fresh reports whether f already holds a bake from version.
func fresh(f *theme.Field, version int) bool {
	return f.ValueBaked != nil && f.CompilerVersion == version
}

// Passthrough bakes a field to its raw value.
type Passthrough struct {
	version int
}

// NewPassthrough creates a passthrough compiler.
func NewPassthrough(version int) Passthrough {
	return Passthrough{version: version}
}

// Version returns the compiler version.
func (p Passthrough) Version() int { return p.version }

// EnsureBaked copies Value into ValueBaked.
func (p Passthrough) EnsureBaked(ctx context.Context, f *theme.Field) error {
	if fresh(f, p.version) {
		return nil
	}
	baked := f.Value
	f.ValueBaked = &baked
	f.CompilerVersion = p.version
	return nil
}

// Markdown renders field values from Markdown to HTML.
type Markdown struct {
	version int
	md      goldmark.Markdown
}

// NewMarkdown creates a Markdown compiler with GitHub flavoured extensions.
// The goldmark instance is safe to share between goroutines.
func NewMarkdown(version int) *Markdown {
	return &Markdown{
		version: version,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// Version returns the compiler version.
func (m *Markdown) Version() int { return m.version }

// EnsureBaked renders Value into ValueBaked.
func (m *Markdown) EnsureBaked(ctx context.Context, f *theme.Field) error {
	if fresh(f, m.version) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := m.md.Convert([]byte(f.Value), &buf); err != nil {
		return fmt.Errorf("render field %s: %w", f.Name, err)
	}
	baked := buf.String()
	f.ValueBaked = &baked
	f.CompilerVersion = m.version
	return nil
}

// Ensure interface compliance.
var (
	_ ports.Compiler = Passthrough{}
	_ ports.Compiler = (*Markdown)(nil)
)
