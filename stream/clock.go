package stream

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Stopwatch accumulates elapsed time across Start/Stop pairs. Start on a
// running stopwatch and Stop on a stopped one are no-ops.
type Stopwatch struct {
	mu      sync.Mutex
	now     func() time.Time
	running bool
	started time.Time
	elapsed time.Duration
}

// NewStopwatch creates a stopped Stopwatch. A nil now uses time.Now.
func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	s := new(Stopwatch)
	s.now = now
	return s
}

func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.started = s.now()
	s.running = true
}

func (s *Stopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.elapsed += s.now().Sub(s.started)
	s.running = false
}

func (s *Stopwatch) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return s.elapsed + s.now().Sub(s.started)
	}
	return s.elapsed
}

const (
	tick        = 100 * time.Nanosecond
	ticksPerSec = int64(time.Second / tick)
)

// FormatElapsed renders d as [-][d.]hh:mm:ss[.fffffff] with seven
// fractional digits of 100ns ticks, omitted when zero.
func FormatElapsed(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}

	ticks := int64(d / tick)
	frac := ticks % ticksPerSec
	secs := ticks / ticksPerSec
	days := secs / 86400
	hours := secs / 3600 % 24
	minutes := secs / 60 % 60
	seconds := secs % 60

	if days > 0 {
		fmt.Fprintf(&b, "%d.", days)
	}
	fmt.Fprintf(&b, "%02d:%02d:%02d", hours, minutes, seconds)
	if frac != 0 {
		fmt.Fprintf(&b, ".%07d", frac)
	}
	return b.String()
}
