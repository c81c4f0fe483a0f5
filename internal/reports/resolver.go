package reports

import "math"

// Strategy tags how a cell value becomes display text
type Strategy string

const (
	StrategyRawString     Strategy = "rawString"
	StrategyDate          Strategy = "date"
	StrategyUserRef       Strategy = "userRef"
	StrategyAssetRef      Strategy = "assetRef"
	StrategyCategoryRef   Strategy = "categoryRef"
	StrategyDepartmentRef Strategy = "departmentRef"
	StrategyLocationRef   Strategy = "locationRef"
	StrategyVendorRef     Strategy = "vendorRef"
	StrategyTitleRef      Strategy = "titleRef"
	StrategyPriority      Strategy = "priority"
)

var fieldStrategies = map[string]Strategy{
	"reportedBy":     StrategyUserRef,
	"user":           StrategyUserRef,
	"reportedAsset":  StrategyAssetRef,
	"category":       StrategyCategoryRef,
	"department":     StrategyDepartmentRef,
	"location":       StrategyLocationRef,
	"vendor":         StrategyVendorRef,
	"title":          StrategyTitleRef,
	"priority_score": StrategyPriority,
	"priorityScore":  StrategyPriority,
}

// kindStrategies override fieldStrategies for a single kind
var kindStrategies = map[ReportKind]map[string]Strategy{
	// schedule titles are free text, not title ids
	KindSchedules: {"title": StrategyRawString},
}

var strategyRefs = map[Strategy]RefKind{
	StrategyUserRef:       RefUsers,
	StrategyAssetRef:      RefAssets,
	StrategyCategoryRef:   RefCategories,
	StrategyDepartmentRef: RefDepartments,
	StrategyLocationRef:   RefLocations,
	StrategyVendorRef:     RefVendors,
	StrategyTitleRef:      RefTitles,
}

// timeFields lists every catalog time field
var timeFields = func() map[string]bool {
	fields := make(map[string]bool)
	for _, spec := range catalog {
		if spec.TimeField != "" {
			fields[spec.TimeField] = true
		}
	}
	return fields
}()

// StrategyFor returns the resolution strategy for a field of a kind
func StrategyFor(kind ReportKind, key string) Strategy {
	if overrides, ok := kindStrategies[kind]; ok {
		if s, ok := overrides[key]; ok {
			return s
		}
	}
	if s, ok := fieldStrategies[key]; ok {
		return s
	}
	if timeFields[key] {
		return StrategyDate
	}
	return StrategyRawString
}

// Resolver turns sanitized cell values into document text for one kind
type Resolver struct {
	kind   ReportKind
	refs   *ReferenceMaps
	format DisplayFormat
}

// NewResolver creates a resolver. A nil refs resolves every reference to its fallback.
func NewResolver(kind ReportKind, refs *ReferenceMaps, format DisplayFormat) *Resolver {
	return &Resolver{kind: kind, refs: refs, format: format}
}

// Resolve renders a single field value
func (r *Resolver) Resolve(key string, value any) string {
	if isFalsy(value) {
		return ""
	}

	strategy := StrategyFor(r.kind, key)
	if ref, ok := strategyRefs[strategy]; ok {
		return r.refs.Lookup(ref, stringify(value))
	}

	switch strategy {
	case StrategyPriority:
		score, ok := toFloat(value)
		if !ok {
			score = math.NaN()
		}
		return PriorityLabel(score)
	default:
		if t, ok := value.(TimeInstant); ok {
			return r.format.FormatDate(t)
		}
		return stringify(value)
	}
}
