package broadcast

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Follower subscribes to a peer's hub and hands every message that did not
// originate on this node to a handler. It reconnects until its context ends.
type Follower struct {
	url     string
	origin  string
	delay   time.Duration
	dialer  *websocket.Dialer
	handler Handler
	logger  zerolog.Logger

	onConnect func()
	readWait  time.Duration
}

// NewFollower creates a follower for the websocket endpoint at url.
// Messages stamped with origin are skipped.
func NewFollower(url, origin string, delay time.Duration, handler Handler, logger zerolog.Logger) *Follower {
	if delay <= 0 {
		delay = time.Second
	}
	return &Follower{
		url:      url,
		origin:   origin,
		delay:    delay,
		dialer:   websocket.DefaultDialer,
		handler:  handler,
		logger:   logger.With().Str("peer", url).Logger(),
		readWait: pongWait,
	}
}

// OnConnect registers fn to run after every successful (re)connect, before
// any message is read. Messages sent while disconnected are lost, so fn
// should drop whatever state they would have invalidated.
func (f *Follower) OnConnect(fn func()) {
	f.onConnect = fn
}

// SetReadTimeout sets how long the follower waits for a message or ping
// before treating the peer as gone. The hub pings every pingPeriod.
func (f *Follower) SetReadTimeout(d time.Duration) {
	if d > 0 {
		f.readWait = d
	}
}

// Run follows the peer until ctx is cancelled.
func (f *Follower) Run(ctx context.Context) {
	for {
		if err := f.follow(ctx); err != nil && ctx.Err() == nil {
			f.logger.Warn().Err(err).Dur("retry_in", f.delay).Msg("peer connection lost")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.delay):
		}
	}
}

func (f *Follower) follow(ctx context.Context) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetReadDeadline(time.Now().Add(f.readWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(f.readWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	f.logger.Info().Msg("following peer")
	if f.onConnect != nil {
		f.onConnect()
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(f.readWait))
		if msg.Origin == f.origin {
			continue
		}
		if err := f.handler(ctx, msg); err != nil {
			f.logger.Error().Err(err).Str("channel", msg.Channel).Msg("peer message handler error")
		}
	}
}
