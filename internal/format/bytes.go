// Package format provides shared formatting utilities.
package format

import "fmt"

var byteUnits = []struct {
	threshold int64
	suffix    string
}{
	{1 << 30, "GB"},
	{1 << 20, "MB"},
	{1 << 10, "KB"},
}

// Bytes formats a byte count as a human-readable string, e.g. "3.0 GB" or
// "512 B". Used when logging file sizes and append deltas.
func Bytes(b int64) string {
	for _, u := range byteUnits {
		if b >= u.threshold {
			return fmt.Sprintf("%.1f %s", float64(b)/float64(u.threshold), u.suffix)
		}
	}
	return fmt.Sprintf("%d B", b)
}
