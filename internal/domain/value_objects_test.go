package domain

import (
	"testing"
)

func TestLineCounts(t *testing.T) {
	t.Run("Percent is zero when there are no coverable lines", func(t *testing.T) {
		c := LineCounts{}
		if c.Percent() != 0.0 {
			t.Errorf("Expected 0, got %v", c.Percent())
		}
		if !c.IsEmpty() {
			t.Error("Expected zero counts to be empty")
		}
	})

	t.Run("Percent calculates covered over total", func(t *testing.T) {
		cases := []struct {
			missed, covered int
			want            float64
		}{
			{20, 80, 80},
			{0, 5, 100},
			{5, 0, 0},
			{1, 3, 75},
		}
		for _, tc := range cases {
			got := LineCounts{Missed: tc.missed, Covered: tc.covered}.Percent()
			if got != tc.want {
				t.Errorf("Percent(%d missed, %d covered) = %v, want %v", tc.missed, tc.covered, got, tc.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("Percent out of range: %v", got)
			}
		}
	})

	t.Run("NewLineCounts clamps negatives", func(t *testing.T) {
		c := NewLineCounts(-3, -1)
		if c.Missed != 0 || c.Covered != 0 {
			t.Errorf("Expected clamped counts, got %+v", c)
		}
	})

	t.Run("Add and String", func(t *testing.T) {
		c := LineCounts{Missed: 1, Covered: 2}.Add(LineCounts{Missed: 3, Covered: 4})
		if c.String() != "6/10" {
			t.Errorf("Expected 6/10, got %s", c.String())
		}
	})
}

func TestFileKey(t *testing.T) {
	if got := NewFileKey("com/example", "Foo.java"); got != "com/example/Foo.java" {
		t.Errorf("unexpected key %q", got)
	}
	if got := NewFileKey("", "Foo.java"); got != "Foo.java" {
		t.Errorf("unexpected key without package %q", got)
	}
}

func TestDisplayPackageName(t *testing.T) {
	cases := map[string]string{
		"com/example/core": "com.example.core",
		"com\\example":     "com.example",
		"":                 "",
		"flat":             "flat",
	}
	for raw, want := range cases {
		if got := DisplayPackageName(raw); got != want {
			t.Errorf("DisplayPackageName(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(0); got != "0.00%" {
		t.Errorf("got %s", got)
	}
	if got := FormatPercent(200.0 / 3.0); got != "66.67%" {
		t.Errorf("got %s", got)
	}
}
