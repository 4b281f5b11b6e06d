package memopt

import "time"

// Clock abstracts time so the adaptive pressure loop's round-by-round
// yields are deterministically testable, grounded on the teacher's
// ratelimit.Clock interface (Now/Sleep, real vs. fake implementation).
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RealClock is the production Clock.
var RealClock Clock = realClock{}
