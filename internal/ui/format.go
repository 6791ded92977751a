package ui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	byteUnits = []string{"B", "KB", "MB", "GB", "TB"}
	rateUnits = []string{"B/s", "KB/s", "MB/s", "GB/s", "TB/s"}
)

// scaled divides v by 1024 until it fits under the next unit and prints it
// with three significant digits.
func scaled(v float64, units []string) string {
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	switch {
	case v < 10:
		return fmt.Sprintf("%.2f %s", v, units[i])
	case v < 100:
		return fmt.Sprintf("%.1f %s", v, units[i])
	default:
		return fmt.Sprintf("%.0f %s", v, units[i])
	}
}

// FormatRate formats a bytes-per-second rate.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	return scaled(bytesPerSec, rateUnits)
}

// FormatBytes formats a byte count with 1024-based units. Counts below
// 1 KB are printed exactly.
func FormatBytes(b int64) string {
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}
	return scaled(float64(b), byteUnits)
}

// FormatSectors formats a byte length as a sector count.
func FormatSectors(b int64, sectorSize int) string {
	if sectorSize <= 0 {
		return "-"
	}
	return FormatCount(b/int64(sectorSize)) + " sectors"
}

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// clock renders d as "1h 02m 03s", "3m 07s" or "42s".
func clock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatETA formats a remaining duration, "--" when unknown.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "--"
	}
	return clock(d)
}

// FormatDuration formats elapsed time.
func FormatDuration(d time.Duration) string {
	return clock(d)
}

// meter draws filled ▪ cells followed by empty □ cells.
func meter(filled, width int) string {
	filled = min(max(filled, 0), width)
	return strings.Repeat("▪", filled) + strings.Repeat("□", width-filled)
}

// ProgressBar renders pct (clamped to [0, 1]) as a bar of width cells.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	return meter(int(min(max(pct, 0), 1)*float64(width)), width)
}

// WorkerIndicator shows busy of total copy workers.
func WorkerIndicator(busy, total int) string {
	if total <= 0 {
		return ""
	}
	return meter(busy, total)
}

// TrackLabel renders a track number the way cue sheets print it.
func TrackLabel(track int) string {
	if track <= 0 {
		return "--"
	}
	return fmt.Sprintf("%02d", track)
}

// StripRoot returns path relative to root when it lies under it.
func StripRoot(root, path string) string {
	if root == "" {
		return path
	}
	prefix := strings.TrimSuffix(root, string(filepath.Separator)) + string(filepath.Separator)
	if rel, ok := strings.CutPrefix(path, prefix); ok {
		return rel
	}
	return path
}

// truncPath keeps the tail of path, marking the cut with "...".
func truncPath(path string, maxLen int) string {
	switch {
	case len(path) <= maxLen:
		return path
	case maxLen <= 3:
		return path[:maxLen]
	default:
		return "..." + path[len(path)-maxLen+3:]
	}
}
