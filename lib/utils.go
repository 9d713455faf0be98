package lib

import (
	"math"
	"time"
)

// CalculateBackoffDuration calculates the backoff duration for a given retry count
func CalculateBackoffDuration(retryCount int, initialBackoff time.Duration, maxBackoff time.Duration, multiplier float64) time.Duration {
	backoff := time.Duration(float64(initialBackoff) * math.Pow(multiplier, float64(retryCount)))
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}

// retryDelay shapes the wait before the next attempt. With multiplier 1.0
// (the default) the delay stays fixed at base; larger multipliers grow it per
// consecutive failure up to max. The delay never shrinks below base.
func retryDelay(base time.Duration, retries int, multiplier float64, max time.Duration) time.Duration {
	if multiplier <= 1.0 || retries <= 0 {
		return base
	}
	return CalculateBackoffDuration(retries, base, max, multiplier)
}
