package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Writer is the write side of a Collector, used by the engine.
type Writer interface {
	SetTotals(tracks, bytes int64)
	AddTracksCopied(n int64)
	AddTracksFailed(n int64)
	AddBytesCopied(n int64)
	AddTracksVerified(n int64)
	AddTracksVerifyFailed(n int64)
}

// ReadTicker is the read side of a Collector, used by presenters.
type ReadTicker interface {
	Snapshot() Snapshot
	Tick()
	RollingSpeed(seconds int) float64
	SparklineData(n int) []float64
	ETA() time.Duration
}

var (
	_ Writer     = (*Collector)(nil)
	_ ReadTicker = (*Collector)(nil)
)

// Collector tracks merge and split statistics using lock-free atomic counters.
type Collector struct {
	startTime          time.Time
	tracksCopied       atomic.Int64
	tracksFailed       atomic.Int64
	bytesCopied        atomic.Int64
	bytesTotal         atomic.Int64
	tracksTotal        atomic.Int64
	tracksVerified     atomic.Int64
	tracksVerifyFailed atomic.Int64

	// Ring buffer, written only by the presenter's Tick().
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per second
	ringIdx    int
	ringCount  int // samples written, capped at ringSize
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetTotals records plan totals (called once the plan is ready).
func (c *Collector) SetTotals(tracks, bytes int64) {
	c.tracksTotal.Store(tracks)
	c.bytesTotal.Store(bytes)
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	TracksCopied       int64
	TracksFailed       int64
	BytesCopied        int64
	BytesTotal         int64
	TracksTotal        int64
	TracksVerified     int64
	TracksVerifyFailed int64
	Elapsed            time.Duration
}

func (c *Collector) AddTracksCopied(n int64)       { c.tracksCopied.Add(n) }
func (c *Collector) AddTracksFailed(n int64)       { c.tracksFailed.Add(n) }
func (c *Collector) AddBytesCopied(n int64)        { c.bytesCopied.Add(n) }
func (c *Collector) AddTracksVerified(n int64)     { c.tracksVerified.Add(n) }
func (c *Collector) AddTracksVerifyFailed(n int64) { c.tracksVerifyFailed.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		TracksCopied:       c.tracksCopied.Load(),
		TracksFailed:       c.tracksFailed.Load(),
		BytesCopied:        c.bytesCopied.Load(),
		BytesTotal:         c.bytesTotal.Load(),
		TracksTotal:        c.tracksTotal.Load(),
		TracksVerified:     c.tracksVerified.Load(),
		TracksVerifyFailed: c.tracksVerifyFailed.Load(),
		Elapsed:            c.Elapsed(),
	}
}

// Tick snapshots the byte delta into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	current := c.bytesCopied.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = current - c.lastBytes
	c.lastBytes = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		sum += c.throughput[(c.ringIdx-1-i+ringSize)%ringSize]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns the last n bytes/sec samples, oldest first.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	if count <= 0 {
		return nil
	}

	data := make([]float64, count)
	for i := range count {
		data[i] = float64(c.throughput[(c.ringIdx-count+i+ringSize)%ringSize])
	}
	return data
}

// ETA estimates remaining time based on rolling speed and remaining bytes.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesTotal.Load() - c.bytesCopied.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"tracks=%d/%d failed=%d bytes=%d/%d verified=%d verify_failed=%d",
		s.TracksCopied, s.TracksTotal, s.TracksFailed,
		s.BytesCopied, s.BytesTotal, s.TracksVerified, s.TracksVerifyFailed,
	)
}
