package reports

// Priority labels
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// PriorityLabel classifies a request priority score. Scores outside
// 0..100 use the same thresholds; NaN is Low.
func PriorityLabel(score float64) string {
	switch {
	case score >= 75:
		return PriorityCritical
	case score >= 50:
		return PriorityHigh
	case score >= 25:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
