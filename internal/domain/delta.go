package domain

import "fmt"

// Indicator glyphs shown next to a delta label.
const (
	IndicatorUp   = "🟢"
	IndicatorDown = "🔴"
)

// NotAvailable is shown in place of a delta when no base value exists.
const NotAvailable = "n/a"

// Delta is the signed difference between a head and a base percentage.
type Delta struct {
	Value     float64
	Indicator string
	Label     string
}

// CompareCoverage computes head - base. A zero or positive difference gets the
// up indicator. Callers without a base value must use NotAvailable instead.
func CompareCoverage(headPercent, basePercent float64) Delta {
	diff := headPercent - basePercent
	indicator := IndicatorDown
	if diff >= 0 {
		indicator = IndicatorUp
	}
	return Delta{
		Value:     diff,
		Indicator: indicator,
		Label:     fmt.Sprintf("%+.2f%%", diff),
	}
}

// CoverageLabel renders "85.00% (🟢 +1.23%)", or "85.00% (n/a)" when base is nil.
func CoverageLabel(head LineCounts, base *LineCounts) string {
	headPercent := head.Percent()
	if base == nil {
		return fmt.Sprintf("%s (%s)", FormatPercent(headPercent), NotAvailable)
	}
	delta := CompareCoverage(headPercent, base.Percent())
	return fmt.Sprintf("%s (%s %s)", FormatPercent(headPercent), delta.Indicator, delta.Label)
}
