package ui

import "github.com/bamsammich/cuemerge/internal/stats"

// quietPresenter drains events and prints nothing but failures in its
// summary.
type quietPresenter struct {
	stats stats.ReadTicker
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for range events {
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	snap := p.stats.Snapshot()
	if snap.TracksFailed+snap.TracksVerifyFailed == 0 {
		return ""
	}
	return CompletionSummary(snap)
}
