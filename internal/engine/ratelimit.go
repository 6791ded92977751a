package engine

import (
	"golang.org/x/time/rate"
)

// maxChunk is the largest range copied between cancellation checks.
const maxChunk = 8 << 20

// NewBWLimiter creates a rate.Limiter that caps aggregate throughput to
// bytesPerSec. The burst is 1 MiB so whole copy chunks pass through
// without unnecessary blocking.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

func limiterFor(bytesPerSec int64) *rate.Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	return NewBWLimiter(bytesPerSec)
}

// chunkSize returns the copy granularity. A limited copy never asks for
// more tokens than the limiter can grant at once.
func chunkSize(lim *rate.Limiter) int64 {
	if lim == nil {
		return maxChunk
	}
	return min(maxChunk, int64(max(lim.Burst(), 1)))
}
