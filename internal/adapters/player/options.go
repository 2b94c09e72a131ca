package player

import (
	"time"

	"github.com/okian/vitalrace/pkg/logger"
)

// Option applies a configuration option to the Player.
type Option func(*Player)

// WithInterval sets the frame interval of the playback loop.
func WithInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithNow replaces the wall clock used to measure tick deltas.
func WithNow(now func() time.Time) Option {
	return func(p *Player) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets a custom logger for the player.
func WithLogger(l logger.Logger) Option {
	return func(p *Player) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(p *Player) {
		if id != "" {
			p.id = id
		}
	}
}
