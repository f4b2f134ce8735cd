package domain

import (
	"fmt"
	"strings"
)

// LineCounts holds the line-level counter of a single report node.
// A zero total is a valid state meaning "no coverable lines".
type LineCounts struct {
	Missed  int `json:"missed"`
	Covered int `json:"covered"`
}

// NewLineCounts creates a LineCounts value, clamping negative inputs to zero.
func NewLineCounts(missed, covered int) LineCounts {
	if missed < 0 {
		missed = 0
	}
	if covered < 0 {
		covered = 0
	}
	return LineCounts{Missed: missed, Covered: covered}
}

// Total returns the number of coverable lines.
func (c LineCounts) Total() int {
	return c.Missed + c.Covered
}

// Percent returns covered/total as a percentage in [0, 100].
// Returns 0 when there are no coverable lines.
func (c LineCounts) Percent() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Covered) / float64(total) * 100.0
}

// IsEmpty returns true if the node has no coverable lines.
func (c LineCounts) IsEmpty() bool {
	return c.Total() == 0
}

// Add returns the sum of two counters.
func (c LineCounts) Add(other LineCounts) LineCounts {
	return LineCounts{Missed: c.Missed + other.Missed, Covered: c.Covered + other.Covered}
}

// String returns "covered/total".
func (c LineCounts) String() string {
	return fmt.Sprintf("%d/%d", c.Covered, c.Total())
}

// FileKey identifies a source file as "<package>/<filename>".
// It is the only identity used to join changed paths with report entries.
type FileKey string

// NewFileKey builds a key from a raw slash-separated package name and a bare filename.
func NewFileKey(packageName, filename string) FileKey {
	if packageName == "" {
		return FileKey(filename)
	}
	return FileKey(packageName + "/" + filename)
}

// String returns the key as a string.
func (k FileKey) String() string {
	return string(k)
}

// DisplayPackageName converts a raw package name into its dotted form.
func DisplayPackageName(raw string) string {
	return strings.NewReplacer("/", ".", "\\", ".").Replace(raw)
}

// FormatPercent formats a percentage with exactly two decimals, e.g. "85.00%".
func FormatPercent(percent float64) string {
	return fmt.Sprintf("%.2f%%", percent)
}
