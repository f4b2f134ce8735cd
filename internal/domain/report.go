package domain

import "sort"

// CoverageReport is the parsed form of one counter-based coverage document.
// It is built once per render and never mutated afterwards.
type CoverageReport struct {
	Name     string
	Lines    LineCounts
	Packages []Package
}

// Package is a group of source files keyed by a slash-separated name.
type Package struct {
	Name        string
	Lines       LineCounts
	SourceFiles []SourceFile
}

// SourceFile is a single file node inside a package.
type SourceFile struct {
	Name  string
	Lines LineCounts
}

// PackageRow is one line of the package table.
type PackageRow struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Covered int     `json:"covered"`
	Total   int     `json:"total"`
}

// PackageRows returns one row per package with coverable lines, sorted by dotted name.
// Package totals come from the package node itself, not from its files.
func (r CoverageReport) PackageRows() []PackageRow {
	rows := make([]PackageRow, 0, len(r.Packages))
	for _, pkg := range r.Packages {
		if pkg.Lines.IsEmpty() {
			continue
		}
		rows = append(rows, PackageRow{
			Name:    DisplayPackageName(pkg.Name),
			Percent: pkg.Lines.Percent(),
			Covered: pkg.Lines.Covered,
			Total:   pkg.Lines.Total(),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// FileIndex maps every named source file to its line counts.
// Files with zero coverable lines are kept; a present zero entry differs
// from a missing key. Repeated keys (same package in several groups) are summed.
func (r CoverageReport) FileIndex() map[FileKey]LineCounts {
	index := make(map[FileKey]LineCounts)
	for _, pkg := range r.Packages {
		for _, file := range pkg.SourceFiles {
			if file.Name == "" {
				continue
			}
			key := NewFileKey(pkg.Name, file.Name)
			if existing, ok := index[key]; ok {
				index[key] = existing.Add(file.Lines)
				continue
			}
			index[key] = file.Lines
		}
	}
	return index
}

// Index bundles the derived views of one report.
type Index struct {
	Total    LineCounts
	Packages []PackageRow
	Files    map[FileKey]LineCounts
}

// NewIndex walks a report once and builds its derived views.
func NewIndex(r CoverageReport) Index {
	return Index{
		Total:    r.Lines,
		Packages: r.PackageRows(),
		Files:    r.FileIndex(),
	}
}

// Lookup returns the counts for a key and whether the key is present.
func (i Index) Lookup(key FileKey) (LineCounts, bool) {
	counts, ok := i.Files[key]
	return counts, ok
}
