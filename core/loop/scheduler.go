package loop

import "time"

// DelayScheduler runs idle work after a fixed delay on a timer goroutine.
// It suits hosts without a designated loop.
type DelayScheduler struct {
	delay time.Duration
}

// AfterFunc returns a scheduler that runs each work item delay after it is
// scheduled. A non-positive delay runs work on a new goroutine right away.
func AfterFunc(delay time.Duration) *DelayScheduler {
	return &DelayScheduler{delay: delay}
}

// ScheduleIdle implements the idle scheduler contract.
func (s *DelayScheduler) ScheduleIdle(work func()) {
	if work == nil {
		return
	}
	if s.delay <= 0 {
		go work()
		return
	}
	time.AfterFunc(s.delay, work)
}
