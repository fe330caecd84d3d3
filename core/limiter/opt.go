package limiter

import (
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRPS      = rate.Limit(10)
	defaultBurst    = 10
	defaultCooldown = 5 * time.Minute
)

type OptFunc func(*Limiter)

func WithRPS(rps int) OptFunc {
	return func(l *Limiter) {
		l.rate = rate.Limit(rps)
	}
}

func WithBurst(burst int) OptFunc {
	return func(l *Limiter) {
		l.burst = burst
	}
}

func WithCooldown(cd time.Duration) OptFunc {
	return func(l *Limiter) {
		l.cooldown = cd
	}
}
