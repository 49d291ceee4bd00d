package preflight

import (
	"fmt"

	"golang.org/x/sys/unix"

	"radiobank/internal/services/sox"
)

// RequiredBytes returns the storage a full set of banks occupies: stations of
// uncompressed PCM at the module's sample format.
func RequiredBytes(banks, stations, minutes int, format sox.Format) int64 {
	seconds := int64(banks) * int64(stations) * int64(minutes) * 60
	bytesPerSecond := int64(format.SampleRate) * int64(format.BitDepth) / 8 * int64(format.Channels)
	return seconds * bytesPerSecond
}

// FreeBytes returns the space available to unprivileged writers on the
// filesystem containing path.
func FreeBytes(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}

// HumanBytes renders a byte count scaled to a convenient unit.
func HumanBytes(bytes int64) string {
	const (
		mib = 1 << 20
		gib = 1 << 30
	)
	if bytes >= gib {
		return fmt.Sprintf("%.2f GiB", float64(bytes)/float64(gib))
	}
	return fmt.Sprintf("%.2f MiB", float64(bytes)/float64(mib))
}
