package common

import (
	"time"
)

// This stopwatch keeps track of time. You can set a timeout for it,
// make it start counting time, and ask it if the timeout has been reached
type Stopwatch struct {
	Timeout   time.Duration
	startTime time.Time
	Running   bool
	now       func() time.Time
}

func NewStopwatch(timeout time.Duration) Stopwatch {
	return Stopwatch{Timeout: timeout, now: time.Now}
}

func (s *Stopwatch) Start() {
	s.Running = true
	s.startTime = s.clock()
}

func (s *Stopwatch) Stop() {
	s.Running = false
}

// Time elapsed since the last start. Zero if the stopwatch never started
func (s *Stopwatch) Elapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return s.clock().Sub(s.startTime)
}

// Report if the timeout has been reached, and by how much.
// A stopwatch that is not running counts as stopped
func (s *Stopwatch) Stopped() (bool, time.Duration) {
	if !s.Running {
		return true, 0
	}
	over := s.Elapsed() - s.Timeout
	return over >= 0, over
}

func (s *Stopwatch) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
