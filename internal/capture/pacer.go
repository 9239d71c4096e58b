package capture

import (
	"sync"
	"time"
)

// DefaultFPS is the rate used when a camera's configured rate is zero or
// negative. Pacing is never unlimited: the detection step bounds CPU use.
const DefaultFPS = 5

// Pacer throttles per-camera frame production to a target rate. It only
// gates how often a capture+detect cycle is admitted; it never buffers or
// fabricates frames.
type Pacer struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// NewPacer creates an empty Pacer.
func NewPacer() *Pacer {
	return &Pacer{
		last: make(map[string]time.Time),
	}
}

// Interval returns the pacing interval for a configured rate. Rates of
// zero or below are normalized to DefaultFPS.
func Interval(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// ShouldEmit reports whether enough wall-clock time has elapsed since the
// camera's last accepted frame to admit a new cycle. Calling it repeatedly
// without RecordEmit returns the same answer.
func (p *Pacer) ShouldEmit(cameraID string, fps int, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	last, ok := p.last[cameraID]
	if !ok {
		return true
	}

	return now.Sub(last) >= Interval(fps)
}

// RecordEmit updates the last-accepted timestamp after a frame was
// actually emitted.
func (p *Pacer) RecordEmit(cameraID string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last[cameraID] = now
}

// Forget drops the pacing state for a camera.
func (p *Pacer) Forget(cameraID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.last, cameraID)
}
