package wavespeed

import "time"

// PollPolicy bounds how long AwaitCompletion keeps asking for a job result.
// Polls 1..BackoffAfter are followed by Interval; later polls by twice the
// Interval. A zero BackoffAfter disables the backoff. Timeout bounds wall time
// since polling began and MaxAttempts bounds the number of polls; zero
// disables either bound.
type PollPolicy struct {
	Interval     time.Duration
	BackoffAfter int
	Timeout      time.Duration
	MaxAttempts  int
}

// ImagePollPolicy is the fast cadence used for still images.
func ImagePollPolicy() PollPolicy {
	return PollPolicy{Interval: 100 * time.Millisecond, MaxAttempts: 100}
}

// VideoPollPolicy is the slower cadence used for video renders.
func VideoPollPolicy() PollPolicy {
	return PollPolicy{Interval: 2 * time.Second, BackoffAfter: 5, Timeout: 600 * time.Second}
}

func (p PollPolicy) normalized() PollPolicy {
	if p.Interval <= 0 {
		p.Interval = 100 * time.Millisecond
	}
	if p.BackoffAfter < 0 {
		p.BackoffAfter = 0
	}
	if p.Timeout <= 0 && p.MaxAttempts <= 0 {
		p.MaxAttempts = 100
	}
	return p
}

// delay returns the wait that follows the given 1-based poll.
func (p PollPolicy) delay(attempt int) time.Duration {
	if p.BackoffAfter > 0 && attempt > p.BackoffAfter {
		return 2 * p.Interval
	}
	return p.Interval
}
