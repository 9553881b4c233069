package timer

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/nudge/internal/settings"
)

// MinDuration is the floor applied to every resolved duration, in seconds.
const MinDuration = 1

// DurationSource computes the total length of the next run in seconds.
type DurationSource interface {
	Resolve() int
}

// Resolver derives run durations from settings, either the fixed H:M:S
// fields or a uniform draw between the random-mode bounds.
type Resolver struct {
	settings func() settings.Settings
	intN     func(n int) int
}

// NewResolver returns a Resolver reading settings through get.
func NewResolver(get func() settings.Settings) *Resolver {
	return &Resolver{settings: get, intN: rand.IntN}
}

// WithRand replaces the random source. intN must return a value in [0, n).
func (r *Resolver) WithRand(intN func(n int) int) *Resolver {
	r.intN = intN
	return r
}

// Resolve implements DurationSource.
func (r *Resolver) Resolve() int {
	s := r.settings()
	if s.RandomMode {
		return r.random(s)
	}
	return Fixed(s)
}

// Fixed returns the configured fixed duration, floored at MinDuration.
func Fixed(s settings.Settings) int {
	return max(toSeconds(s.Hours, s.Minutes, s.Seconds), MinDuration)
}

// Bounds returns the ordered random-mode bounds, each floored at MinDuration.
func Bounds(s settings.Settings) (lo, hi int) {
	a := toSeconds(s.RandomMinHours, s.RandomMinMinutes, s.RandomMinSeconds)
	b := toSeconds(s.RandomMaxHours, s.RandomMaxMinutes, s.RandomMaxSeconds)
	return max(MinDuration, min(a, b)), max(MinDuration, max(a, b))
}

func (r *Resolver) random(s settings.Settings) int {
	lo, hi := Bounds(s)
	if lo == hi {
		return hi
	}
	d := lo + r.intN(hi-lo+1)
	log.Debug("Resolved random duration", "min", lo, "max", hi, "seconds", d)
	return d
}

func toSeconds(h, m, s int) int {
	return h*3600 + m*60 + s
}
