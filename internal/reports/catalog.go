package reports

import (
	"fmt"
	"strings"
)

// assetsCollection is the collection counted by aggregated kinds
const assetsCollection = "assets"

var catalog = map[ReportKind]KindSpec{
	KindAssets: {
		Kind:       KindAssets,
		Collection: "assets",
		Mode:       FetchModeRange,
		TimeField:  "dateCreated",
		Schema: []Column{
			{Key: "name", Label: "Asset Name"},
			{Key: "category", Label: "Category"},
			{Key: "department", Label: "Department"},
			{Key: "location", Label: "Location"},
			{Key: "vendor", Label: "Vendor"},
			{Key: "status", Label: "Status"},
			{Key: "cost", Label: "Cost"},
			{Key: "dateCreated", Label: "Date Created"},
		},
	},
	KindSchedules: {
		Kind:       KindSchedules,
		Collection: "schedules",
		Mode:       FetchModeRange,
		TimeField:  "scheduledDate",
		Schema: []Column{
			{Key: "title", Label: "Title"},
			{Key: "reportedAsset", Label: "Asset"},
			{Key: "user", Label: "Assigned To"},
			{Key: "status", Label: "Status"},
			{Key: "scheduledDate", Label: "Scheduled Date"},
		},
	},
	KindRequests: {
		Kind:       KindRequests,
		Collection: "requests",
		Mode:       FetchModeRange,
		TimeField:  "dateCreated",
		Schema: []Column{
			{Key: "description", Label: "Description"},
			{Key: "priorityScore", Label: "Priority"},
			{Key: "reportedAsset", Label: "Asset"},
			{Key: "reportedBy", Label: "Reported By"},
			{Key: "status", Label: "Status"},
			{Key: "dateCreated", Label: "Date Created"},
		},
	},
	KindActivityLog: {
		Kind:       KindActivityLog,
		Collection: "activity_logs",
		Mode:       FetchModeRange,
		TimeField:  "timestamp",
		Schema: []Column{
			{Key: "user", Label: "User"},
			{Key: "action", Label: "Action"},
			{Key: "description", Label: "Details"},
			{Key: "timestamp", Label: "Date"},
		},
	},
	KindUsers: {
		Kind:        KindUsers,
		Collection:  "users",
		Mode:        FetchModeRole,
		FilterField: "role",
		Schema: []Column{
			{Key: "firstName", Label: "First Name"},
			{Key: "lastName", Label: "Last Name"},
			{Key: "email", Label: "Email"},
			{Key: "role", Label: "Role"},
			{Key: "title", Label: "Title"},
			{Key: "department", Label: "Department"},
		},
	},
	KindAssetCategory: {
		Kind:       KindAssetCategory,
		Collection: "categories",
		Mode:       FetchModeAggregated,
		CountField: "category",
		Schema: []Column{
			{Key: "name", Label: "Category"},
			{Key: "description", Label: "Description"},
			{Key: "assetCount", Label: "Asset Count"},
		},
	},
	KindDepartments: {
		Kind:       KindDepartments,
		Collection: "departments",
		Mode:       FetchModeAggregated,
		CountField: "department",
		Schema: []Column{
			{Key: "name", Label: "Department"},
			{Key: "description", Label: "Description"},
			{Key: "assetCount", Label: "Asset Count"},
		},
	},
	KindLocations: {
		Kind:       KindLocations,
		Collection: "locations",
		Mode:       FetchModeAggregated,
		CountField: "location",
		Schema: []Column{
			{Key: "name", Label: "Location"},
			{Key: "address", Label: "Address"},
			{Key: "assetCount", Label: "Asset Count"},
		},
	},
	KindVendors: {
		Kind:       KindVendors,
		Collection: "vendors",
		Mode:       FetchModeAggregated,
		CountField: "vendor",
		Schema: []Column{
			{Key: "name", Label: "Vendor"},
			{Key: "contactPerson", Label: "Contact Person"},
			{Key: "email", Label: "Email"},
			{Key: "phone", Label: "Phone"},
			{Key: "assetCount", Label: "Asset Count"},
		},
	},
}

// kindOrder is the order kinds are listed to clients
var kindOrder = []ReportKind{
	KindAssets,
	KindSchedules,
	KindRequests,
	KindLocations,
	KindVendors,
	KindDepartments,
	KindActivityLog,
	KindUsers,
	KindAssetCategory,
}

// Lookup returns the catalog entry for a kind
func Lookup(kind ReportKind) (KindSpec, bool) {
	spec, ok := catalog[kind]
	return spec, ok
}

// MustLookup returns the catalog entry for a kind that has already been validated
func MustLookup(kind ReportKind) KindSpec {
	spec, ok := catalog[kind]
	if !ok {
		panic(fmt.Sprintf("reports: unknown report kind %q", kind))
	}
	return spec
}

// Kinds returns every supported kind in display order
func Kinds() []ReportKind {
	kinds := make([]ReportKind, len(kindOrder))
	copy(kinds, kindOrder)
	return kinds
}

// ParseReportKind validates an externally supplied kind
func ParseReportKind(s string) (ReportKind, error) {
	kind := ReportKind(strings.TrimSpace(s))
	if kind == "" {
		return "", requiredError("kind", "report kind is required")
	}
	if _, ok := catalog[kind]; !ok {
		return "", invalidError("kind", fmt.Sprintf("unknown report kind: %s", s))
	}
	return kind, nil
}

// TimeField returns the range filter field for a kind, or "" when it has none
func TimeField(kind ReportKind) string {
	return MustLookup(kind).TimeField
}

// ColumnSchema returns the document column schema for a kind
func ColumnSchema(kind ReportKind) []Column {
	schema := MustLookup(kind).Schema
	out := make([]Column, len(schema))
	copy(out, schema)
	return out
}

// HumanizeKind turns "activity_log" into "Activity Log"
func HumanizeKind(kind ReportKind) string {
	tokens := strings.Split(string(kind), "_")
	for i, t := range tokens {
		if t == "" {
			continue
		}
		tokens[i] = strings.ToUpper(t[:1]) + t[1:]
	}
	return strings.Join(tokens, " ")
}

// Catalog describes every kind for client discovery
func Catalog() []CatalogEntry {
	kinds := Kinds()
	entries := make([]CatalogEntry, 0, len(kinds))
	for _, kind := range kinds {
		spec := catalog[kind]
		entries = append(entries, CatalogEntry{
			Kind:    kind,
			Title:   HumanizeKind(kind) + " Report",
			Mode:    spec.Mode,
			Columns: ColumnSchema(kind),
		})
	}
	return entries
}
