package domain

import (
	"sort"
	"strings"
)

const (
	// ReportMarker is the first line of every rendered report. Comment
	// publishers search for it to update a previous report in place.
	ReportMarker = "<!-- coverpr-coverage-report -->"

	// MaxChangedFileRows caps the changed-files table.
	MaxChangedFileRows = 50
)

// ChangedFileRow is one row of the changed-files table.
type ChangedFileRow struct {
	Path        string  `json:"path"`
	Key         FileKey `json:"key"`
	HeadPercent float64 `json:"headPercent"`
	Label       string  `json:"label"`
	Delta       *Delta  `json:"-"`
}

// ChangedFilesSection holds the per-file comparison for a diff.
type ChangedFilesSection struct {
	TotalLabel string           `json:"totalLabel"`
	TotalDelta *Delta           `json:"-"`
	Rows       []ChangedFileRow `json:"rows"`
	Omitted    int              `json:"omitted"`
}

// Summary is everything a renderer needs for one report.
type Summary struct {
	HeadTotal    LineCounts           `json:"headTotal"`
	BaseTotal    *LineCounts          `json:"baseTotal,omitempty"`
	Packages     []PackageRow         `json:"packages"`
	ChangedFiles *ChangedFilesSection `json:"changedFiles,omitempty"`
}

// HeadPercent returns the overall head line coverage.
func (s Summary) HeadPercent() float64 {
	return s.HeadTotal.Percent()
}

// Summarize derives the renderable summary of a head report, optionally
// compared against a base report. The changed-files section exists only when
// a base comparison was requested and the changed-files text is not blank;
// a nil base yields "n/a" labels throughout that section.
func Summarize(head CoverageReport, base *CoverageReport, changedFiles string, baseRequested bool) Summary {
	headIndex := NewIndex(head)
	summary := Summary{
		HeadTotal: headIndex.Total,
		Packages:  headIndex.Packages,
	}

	var baseIndex *Index
	if base != nil {
		idx := NewIndex(*base)
		baseIndex = &idx
		total := idx.Total
		summary.BaseTotal = &total
	}

	if !baseRequested || strings.TrimSpace(changedFiles) == "" {
		return summary
	}

	section := &ChangedFilesSection{}
	section.TotalLabel = CoverageLabel(headIndex.Total, summary.BaseTotal)
	if summary.BaseTotal != nil {
		delta := CompareCoverage(headIndex.Total.Percent(), summary.BaseTotal.Percent())
		section.TotalDelta = &delta
	}

	rows := changedFileRows(headIndex, baseIndex, changedFiles)
	if len(rows) > MaxChangedFileRows {
		section.Omitted = len(rows) - MaxChangedFileRows
		rows = rows[:MaxChangedFileRows]
	}
	section.Rows = rows
	summary.ChangedFiles = section
	return summary
}

func changedFileRows(head Index, base *Index, changedFiles string) []ChangedFileRow {
	seen := make(map[string]struct{})
	var rows []ChangedFileRow
	for _, line := range strings.Split(changedFiles, "\n") {
		original := strings.TrimSpace(line)
		if original == "" {
			continue
		}
		if _, dup := seen[original]; dup {
			continue
		}
		seen[original] = struct{}{}

		key, ok := ChangedPathToKey(original)
		if !ok {
			continue
		}
		headCounts, ok := head.Lookup(key)
		if !ok {
			continue
		}

		row := ChangedFileRow{
			Path:        original,
			Key:         key,
			HeadPercent: headCounts.Percent(),
		}
		var baseCounts *LineCounts
		if base != nil {
			if counts, found := base.Lookup(key); found {
				baseCounts = &counts
				delta := CompareCoverage(headCounts.Percent(), counts.Percent())
				row.Delta = &delta
			}
		}
		row.Label = CoverageLabel(headCounts, baseCounts)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Path < rows[j].Path
	})
	return rows
}
