package domain

import "strings"

// SourceRoots are the JVM source-root markers, in priority order.
var SourceRoots = []string{
	"src/main/java/",
	"src/main/kotlin/",
	"src/test/java/",
	"src/test/kotlin/",
}

// ChangedPathToKey maps a repository-relative path onto the report's file key.
// Markers are tried in SourceRoots order and the first one present wins, cut at
// its leftmost occurrence. Paths outside a JVM source tree are unmappable.
func ChangedPathToKey(path string) (FileKey, bool) {
	clean := strings.TrimPrefix(strings.TrimSpace(path), "./")
	if clean == "" {
		return "", false
	}
	for _, marker := range SourceRoots {
		idx := strings.Index(clean, marker)
		if idx < 0 {
			continue
		}
		rest := clean[idx+len(marker):]
		if rest == "" {
			return "", false
		}
		return FileKey(rest), true
	}
	return "", false
}
