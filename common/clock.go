package common

import "time"

type Clock interface {
	Now() time.Time
}

type DefaultClock struct{}

func (*DefaultClock) Now() time.Time {
	return time.Now()
}

// Since measures elapsed time against the given clock.
func Since(clock Clock, start time.Time) time.Duration {
	return clock.Now().Sub(start)
}
