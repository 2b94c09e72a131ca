// Package player drives a playback cursor from a frame ticker and hands each
// frame to a sink.
package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/vitalrace/internal/domain/model"
	"github.com/okian/vitalrace/internal/domain/playback"
	"github.com/okian/vitalrace/pkg/logger"
	"github.com/okian/vitalrace/pkg/metrics"
)

// DefaultInterval is roughly one display frame at 60 Hz.
const DefaultInterval = 16 * time.Millisecond

// FrameSink consumes rendered frames.
type FrameSink interface {
	Render(ctx context.Context, frame model.CohortSnapshot) error
}

// SinkFunc adapts a function to FrameSink.
type SinkFunc func(ctx context.Context, frame model.CohortSnapshot) error

// Render implements FrameSink.
func (f SinkFunc) Render(ctx context.Context, frame model.CohortSnapshot) error { return f(ctx, frame) }

type discard struct{}

func (discard) Render(context.Context, model.CohortSnapshot) error { return nil }

// Status describes the player at a point in time.
type Status struct {
	SessionID  string  `json:"session_id"`
	State      string  `json:"state"`
	MetricID   string  `json:"metric_id"`
	Progress   float64 `json:"progress"`
	DurationMs int64   `json:"duration_ms"`
	Loops      int     `json:"loops"`
	Frames     uint64  `json:"frames"`
}

// Player owns a playback.Cursor and renders frames while playing.
// All methods are safe for concurrent use.
type Player struct {
	mu       sync.Mutex
	cursor   *playback.Cursor
	sink     FrameSink
	interval time.Duration
	now      func() time.Time
	logger   logger.Logger
	id       string

	last   time.Time
	latest model.CohortSnapshot
	frames uint64
	loops  int

	// loop control
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped player. A nil cursor gets a default clock and a nil
// sink drops frames.
func New(cursor *playback.Cursor, sink FrameSink, opts ...Option) *Player {
	if cursor == nil {
		cursor = playback.NewCursor(nil)
	}
	if sink == nil {
		sink = discard{}
	}
	p := &Player{
		cursor:   cursor,
		sink:     sink,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   logger.Get().Named("player"),
		id:       uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.String("session_id", p.id))
	return p
}

// ID returns the session id.
func (p *Player) ID() string { return p.id }

// Play starts or resumes playback and runs the frame loop in the background.
// The loop is detached from ctx cancellation; use Pause or Stop to end it.
// Starting from Stopped renders the frame at progress 0 first.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	clock := p.cursor.Clock()
	from := clock.State()
	clock.Play()
	p.last = p.now()
	var first model.CohortSnapshot
	if from == playback.Stopped {
		first = p.cursor.Current()
		p.latest = first
		p.frames++
	}
	if p.cancel == nil {
		loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		done := make(chan struct{})
		p.cancel, p.done = cancel, done
		go p.run(loopCtx, done)
	}
	p.publishStateLocked()
	p.mu.Unlock()

	p.logger.Info(ctx, "playback started", logger.String("from", from.String()))
	if from == playback.Stopped {
		return p.render(ctx, first)
	}
	return nil
}

// Pause freezes playback and stops the frame loop.
func (p *Player) Pause(ctx context.Context) {
	p.mu.Lock()
	p.cursor.Clock().Pause()
	p.publishStateLocked()
	cancel, done := p.detachLoopLocked()
	p.mu.Unlock()

	waitLoop(cancel, done)
	p.logger.Info(ctx, "playback paused", logger.Float64("progress", p.Status().Progress))
}

// Stop resets playback to zero. When Stop returns no further frame is
// rendered by the loop.
func (p *Player) Stop(ctx context.Context) {
	p.mu.Lock()
	p.cursor.Clock().Stop()
	p.loops = 0
	p.latest = p.cursor.Current()
	p.publishStateLocked()
	cancel, done := p.detachLoopLocked()
	p.mu.Unlock()

	waitLoop(cancel, done)
	p.logger.Info(ctx, "playback stopped")
}

// Seek moves to progress without changing state and renders that frame.
func (p *Player) Seek(ctx context.Context, progress float64) error {
	p.mu.Lock()
	p.cursor.Clock().Seek(progress)
	frame := p.cursor.Current()
	p.latest = frame
	p.frames++
	p.mu.Unlock()

	metrics.UpdatePlaybackProgress(frame.Progress)
	return p.render(ctx, frame)
}

// Select switches the active metric keeping the current progress, and
// renders the new metric's frame.
func (p *Player) Select(ctx context.Context, metricID string, series map[string]model.ResampledSeries, threshold float64) error {
	p.mu.Lock()
	p.cursor.Select(metricID, series, threshold)
	frame := p.cursor.Current()
	p.latest = frame
	p.frames++
	p.mu.Unlock()

	p.logger.Debug(ctx, "metric selected", logger.String("metric", metricID), logger.Int("subjects", len(series)))
	return p.render(ctx, frame)
}

// SetDuration changes the loop duration keeping the current progress.
func (p *Player) SetDuration(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor.Clock().SetDuration(d)
}

// Step advances playback by delta on the caller's goroutine. It reports
// whether a frame was rendered.
func (p *Player) Step(ctx context.Context, delta time.Duration) (bool, error) {
	p.mu.Lock()
	frame, ok := p.advanceLocked(delta)
	p.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, p.render(ctx, frame)
}

// Latest returns the most recent frame.
func (p *Player) Latest() model.CohortSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Status returns the current playback status.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	clock := p.cursor.Clock()
	return Status{
		SessionID:  p.id,
		State:      clock.State().String(),
		MetricID:   p.cursor.MetricID(),
		Progress:   clock.Progress(),
		DurationMs: clock.Duration().Milliseconds(),
		Loops:      clock.Loops(),
		Frames:     p.frames,
	}
}

func (p *Player) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			now := p.now()
			delta := now.Sub(p.last)
			p.last = now
			frame, ok := p.advanceLocked(delta)
			p.mu.Unlock()

			// a Stop or Pause racing this tick wins
			if !ok || ctx.Err() != nil {
				continue
			}
			if err := p.render(ctx, frame); err != nil {
				p.logger.Error(ctx, "frame render failed", logger.Error(err))
			}
		}
	}
}

func (p *Player) advanceLocked(delta time.Duration) (model.CohortSnapshot, bool) {
	frame, ok := p.cursor.Tick(delta)
	if !ok {
		return model.CohortSnapshot{}, false
	}
	if loops := p.cursor.Clock().Loops(); loops > p.loops {
		p.loops = loops
		metrics.RecordPlaybackLoop()
	}
	p.latest = frame
	p.frames++
	metrics.UpdatePlaybackProgress(frame.Progress)
	return frame, true
}

func (p *Player) render(ctx context.Context, frame model.CohortSnapshot) error {
	start := time.Now()
	err := p.sink.Render(ctx, frame)
	metrics.RecordFrameLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordErrorByComponent("player", "render_error")
		return fmt.Errorf("render frame at %.4f: %w", frame.Progress, err)
	}
	metrics.RecordFrameRendered()
	return nil
}

func (p *Player) publishStateLocked() {
	clock := p.cursor.Clock()
	metrics.UpdatePlaybackState(int(clock.State()))
	metrics.UpdatePlaybackProgress(clock.Progress())
}

func (p *Player) detachLoopLocked() (context.CancelFunc, chan struct{}) {
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	return cancel, done
}

func waitLoop(cancel context.CancelFunc, done chan struct{}) {
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
