package delay

import (
	"context"
	"math/rand"
	"time"
)

// Sleeper blocks for durations drawn uniformly at random from a [lo, hi]
// interval. The zero value is ready to use.
type Sleeper struct {
	// Float64 returns a value in [0.0, 1.0). Defaults to math/rand.Float64.
	Float64 func() float64
}

// New returns a Sleeper backed by math/rand.
func New() *Sleeper {
	return &Sleeper{Float64: rand.Float64}
}

// Uniform maps f in [0.0, 1.0) onto [lo, hi]. If hi <= lo, lo is returned.
func Uniform(lo, hi time.Duration, f float64) time.Duration {
	if hi <= lo {
		return lo
	}
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return lo + time.Duration(f*float64(hi-lo))
}

// Seconds converts a fractional number of seconds into a time.Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Draw picks a random duration in [lo, hi] without sleeping.
func (s *Sleeper) Draw(lo, hi time.Duration) time.Duration {
	f := rand.Float64
	if s != nil && s.Float64 != nil {
		f = s.Float64
	}
	return Uniform(lo, hi, f())
}

// Sleep blocks for a random duration in [lo, hi], or until the context is
// canceled. It returns the duration it intended to wait.
func (s *Sleeper) Sleep(ctx context.Context, lo, hi time.Duration) (time.Duration, error) {
	d := s.Draw(lo, hi)
	if d <= 0 {
		return 0, ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return d, ctx.Err()
	case <-timer.C:
		return d, nil
	}
}
