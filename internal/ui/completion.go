package ui

import (
	"fmt"

	"github.com/bamsammich/cuemerge/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  tracks 12/12  size 612 MB  avg 641 MB/s  time 3s  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesCopied) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.TracksFailed > 0 || snap.TracksVerifyFailed > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  tracks %s/%s  size %s  avg %s  time %s",
		icon,
		FormatCount(snap.TracksCopied),
		FormatCount(snap.TracksTotal),
		FormatBytes(snap.BytesCopied),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)

	if snap.TracksVerified > 0 || snap.TracksVerifyFailed > 0 {
		base += fmt.Sprintf("  verified %s", FormatCount(snap.TracksVerified))
	}

	base += fmt.Sprintf("  errors %d", snap.TracksFailed+snap.TracksVerifyFailed)

	return base
}
