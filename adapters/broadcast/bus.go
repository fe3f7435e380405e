// Package broadcast delivers file-change invalidations to local subscribers,
// websocket clients and peer nodes.
package broadcast

import (
	"context"
	"errors"
	"sync"

	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
	"github.com/rs/zerolog"
)

// ChannelFileChange carries stylesheet invalidations.
const ChannelFileChange = theme.ChannelFileChange

// Message is one publish on a channel. Origin names the node that published
// it so followers can skip their own messages.
type Message struct {
	Channel string             `json:"channel"`
	Origin  string             `json:"origin"`
	Changes []theme.FileChange `json:"data"`
}

// Handler processes a published message.
type Handler func(ctx context.Context, msg Message) error

// Bus is an in-process publish/subscribe bus keyed by channel.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	origin   string
	logger   zerolog.Logger
}

// NewBus creates a bus that stamps messages with origin.
func NewBus(origin string, logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		origin:   origin,
		logger:   logger,
	}
}

// Origin returns the node name stamped on published messages.
func (b *Bus) Origin() string {
	return b.origin
}

// Subscribe registers a handler for a channel. "*" receives every channel.
func (b *Bus) Subscribe(channel string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channel] = append(b.handlers[channel], handler)
}

// HasSubscribers reports whether any handler would receive channel.
func (b *Bus) HasSubscribers(channel string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[channel]) > 0 || len(b.handlers["*"]) > 0
}

// Publish delivers changes to every matching handler synchronously, in
// registration order. Handler errors are logged, the remaining handlers still
// run, and the joined errors are returned.
func (b *Bus) Publish(ctx context.Context, channel string, changes []theme.FileChange) error {
	b.mu.RLock()
	matched := make([]Handler, 0, len(b.handlers[channel])+len(b.handlers["*"]))
	matched = append(matched, b.handlers[channel]...)
	matched = append(matched, b.handlers["*"]...)
	b.mu.RUnlock()

	msg := Message{Channel: channel, Origin: b.origin, Changes: changes}

	b.logger.Debug().
		Str("channel", channel).
		Int("changes", len(changes)).
		Msg("message published")

	var errs []error
	for _, handler := range matched {
		if err := handler(ctx, msg); err != nil {
			b.logger.Error().
				Err(err).
				Str("channel", channel).
				Msg("subscriber error")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ensure interface compliance.
var _ ports.Publisher = (*Bus)(nil)
