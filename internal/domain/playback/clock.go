package playback

import (
	"fmt"
	"time"
)

// DefaultDuration is the length of one full playback loop.
const DefaultDuration = 20 * time.Second

// State is the playback state.
type State int

// Playback states. Stopped -> Playing <-> Paused -> Stopped.
const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Clock is a virtual playback clock advanced by explicit deltas.
// Progress is min(elapsed/duration, 1); once progress 1 has been delivered
// the next advance restarts from zero.
type Clock struct {
	duration time.Duration
	elapsed  time.Duration
	state    State
	wrap     bool
	loops    int
}

// NewClock returns a stopped clock. Non-positive durations fall back to
// DefaultDuration.
func NewClock(duration time.Duration) *Clock {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Clock{duration: duration}
}

// State returns the current state.
func (c *Clock) State() State { return c.state }

// Duration returns the loop duration.
func (c *Clock) Duration() time.Duration { return c.duration }

// Loops returns how many times playback has wrapped since the last Stop.
func (c *Clock) Loops() int { return c.loops }

// Progress returns the current progress in [0,1].
func (c *Clock) Progress() float64 {
	p := float64(c.elapsed) / float64(c.duration)
	if p > 1 {
		return 1
	}
	return p
}

// Play starts playback from zero when stopped, or resumes at the paused
// progress when paused.
func (c *Clock) Play() {
	switch c.state {
	case Stopped:
		c.elapsed = 0
		c.wrap = false
		c.state = Playing
	case Paused:
		c.state = Playing
	case Playing:
	}
}

// Pause freezes elapsed time. It is a no-op unless playing.
func (c *Clock) Pause() {
	if c.state == Playing {
		c.state = Paused
	}
}

// Stop resets the clock to zero.
func (c *Clock) Stop() {
	c.state = Stopped
	c.elapsed = 0
	c.wrap = false
	c.loops = 0
}

// Seek moves to progress without changing state.
func (c *Clock) Seek(progress float64) {
	progress = clamp01(progress)
	c.elapsed = time.Duration(progress * float64(c.duration))
	c.wrap = progress >= 1
}

// SetDuration changes the loop duration, keeping the current progress.
func (c *Clock) SetDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	p := c.Progress()
	c.duration = d
	c.elapsed = time.Duration(p * float64(d))
}

// Advance moves a playing clock forward by delta and returns the new
// progress. ok is false, and progress unchanged, when the clock is not
// playing or delta is not positive, so no progress value is delivered twice.
func (c *Clock) Advance(delta time.Duration) (progress float64, ok bool) {
	if c.state != Playing || delta <= 0 {
		return c.Progress(), false
	}
	if c.wrap {
		c.elapsed = 0
		c.wrap = false
		c.loops++
	}
	c.elapsed += delta
	if c.elapsed >= c.duration {
		c.elapsed = c.duration
		c.wrap = true
	}
	return c.Progress(), true
}
