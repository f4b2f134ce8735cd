package domain

import "testing"

func TestChangedPathToKey(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		want   FileKey
		mapped bool
	}{
		{"main java", "app/src/main/java/com/example/Foo.java", "com/example/Foo.java", true},
		{"main kotlin", "src/main/kotlin/com/example/Bar.kt", "com/example/Bar.kt", true},
		{"test java", "src/test/java/com/example/FooTest.java", "com/example/FooTest.java", true},
		{"test kotlin", "lib/src/test/kotlin/BarTest.kt", "BarTest.kt", true},
		{"leading dot slash", "./src/main/java/a/B.java", "a/B.java", true},
		{"surrounding whitespace", "  src/main/java/a/B.java\r", "a/B.java", true},
		{"readme", "README.md", "", false},
		{"build script", "build.gradle.kts", "", false},
		{"resources", "src/main/resources/application.yml", "", false},
		{"blank", "   ", "", false},
		{"dot slash only", "./", "", false},
		{"marker without file", "src/main/java/", "", false},
		{"list order wins over position", "src/test/java/x/src/main/java/y/Z.java", "y/Z.java", true},
		{"leftmost occurrence of a marker", "src/main/java/a/src/main/java/b/C.java", "a/src/main/java/b/C.java", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ChangedPathToKey(tt.path)
			if ok != tt.mapped {
				t.Fatalf("ChangedPathToKey(%q) mapped = %v, want %v", tt.path, ok, tt.mapped)
			}
			if got != tt.want {
				t.Errorf("ChangedPathToKey(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestChangedPathToKeyDotSlashIsStable(t *testing.T) {
	paths := []string{
		"src/main/java/com/example/Foo.java",
		"module/src/test/kotlin/a/B.kt",
		"docs/index.md",
	}
	for _, p := range paths {
		first, okFirst := ChangedPathToKey(p)
		again, okAgain := ChangedPathToKey("./" + p)
		if first != again || okFirst != okAgain {
			t.Errorf("mapping %q with ./ prefix changed result: %q/%v vs %q/%v", p, first, okFirst, again, okAgain)
		}
	}
}
