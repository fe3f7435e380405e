// Package idgen provides theme key generation.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/artpar/themebake/ports"
	"github.com/google/uuid"
)

// UUID generates random v4 UUID keys.
type UUID struct{}

// New generates a new UUID v4.
func (UUID) New() string {
	return uuid.NewString()
}

// Sequential generates predictable keys (for testing).
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential key generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential key.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Reset resets the counter.
func (s *Sequential) Reset() {
	s.counter.Store(0)
}

// Ensure interface compliance.
var (
	_ ports.KeyGenerator = UUID{}
	_ ports.KeyGenerator = (*Sequential)(nil)
)
