// Package random provides token sources for cache-busting hashes.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/artpar/themebake/ports"
)

// TokenBytes is the number of random bytes behind each token.
const TokenBytes = 16

// Hex draws tokens from crypto/rand, hex encoded.
type Hex struct{}

// Token returns 2*TokenBytes lowercase hex characters.
func (Hex) Token() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Fake provides deterministic tokens for testing.
type Fake struct {
	mu      sync.Mutex
	counter int
	values  []string
	err     error
}

// NewFake creates a fake token source.
func NewFake() *Fake {
	return &Fake{}
}

// WithValues sets preset tokens returned before the counter kicks in.
func (f *Fake) WithValues(values ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = values
	return f
}

// WithError makes every subsequent Token call fail.
func (f *Fake) WithError(err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// Token returns the next preset value or "token-N".
func (f *Fake) Token() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	if len(f.values) > 0 {
		v := f.values[0]
		f.values = f.values[1:]
		return v, nil
	}
	f.counter++
	return fmt.Sprintf("token-%d", f.counter), nil
}

// Reset resets the fake to initial state.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter = 0
	f.values = nil
	f.err = nil
}

// Ensure interface compliance.
var (
	_ ports.TokenSource = Hex{}
	_ ports.TokenSource = (*Fake)(nil)
)
