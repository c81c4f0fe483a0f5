package reports

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// RefKind names a reference collection joined into report cells
type RefKind string

const (
	RefUsers       RefKind = "users"
	RefAssets      RefKind = "assets"
	RefCategories  RefKind = "categories"
	RefDepartments RefKind = "departments"
	RefLocations   RefKind = "locations"
	RefVendors     RefKind = "vendors"
	RefTitles      RefKind = "titles"
)

type referenceSource struct {
	kind       RefKind
	collection string
	fallback   string
}

var referenceSources = []referenceSource{
	{kind: RefUsers, collection: "users", fallback: "Unknown User"},
	{kind: RefAssets, collection: "assets", fallback: "Unknown Asset"},
	{kind: RefCategories, collection: "categories", fallback: "Unknown Category"},
	{kind: RefDepartments, collection: "departments", fallback: "Unknown Department"},
	{kind: RefLocations, collection: "locations", fallback: "Unknown Location"},
	{kind: RefVendors, collection: "vendors", fallback: "Unknown Vendor"},
	{kind: RefTitles, collection: "titles", fallback: "Unknown Title"},
}

// ReferenceFallback returns the label used when an id is not found
func ReferenceFallback(kind RefKind) string {
	for _, src := range referenceSources {
		if src.kind == kind {
			return src.fallback
		}
	}
	return "Unknown"
}

// ReferenceMaps holds one id to label map per reference collection
type ReferenceMaps struct {
	maps map[RefKind]map[string]string
}

// NewReferenceMaps builds maps from already loaded labels. Missing kinds are empty.
func NewReferenceMaps(maps map[RefKind]map[string]string) *ReferenceMaps {
	rm := &ReferenceMaps{maps: make(map[RefKind]map[string]string, len(referenceSources))}
	for _, src := range referenceSources {
		m := maps[src.kind]
		if m == nil {
			m = map[string]string{}
		}
		rm.maps[src.kind] = m
	}
	return rm
}

// Lookup resolves an id, falling back to the kind's "Unknown" label
func (rm *ReferenceMaps) Lookup(kind RefKind, id string) string {
	if rm != nil {
		if label, ok := rm.maps[kind][id]; ok {
			return label
		}
	}
	return ReferenceFallback(kind)
}

// Len returns the number of labels loaded for a kind
func (rm *ReferenceMaps) Len(kind RefKind) int {
	if rm == nil {
		return 0
	}
	return len(rm.maps[kind])
}

// ReferenceLoader bulk-loads reference collections from the store
type ReferenceLoader struct {
	store Store
}

// NewReferenceLoader creates a loader over a store
func NewReferenceLoader(store Store) *ReferenceLoader {
	return &ReferenceLoader{store: store}
}

// Load fetches all seven reference collections concurrently and waits for
// every one before returning
func (l *ReferenceLoader) Load(ctx context.Context) (*ReferenceMaps, error) {
	results := make([]map[string]string, len(referenceSources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range referenceSources {
		i, src := i, src
		g.Go(func() error {
			rows, err := l.store.FetchAll(gctx, src.collection)
			if err != nil {
				return fmt.Errorf("failed to load %s references: %w", src.kind, err)
			}
			results[i] = buildLabelMap(src, rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	maps := make(map[RefKind]map[string]string, len(referenceSources))
	for i, src := range referenceSources {
		maps[src.kind] = results[i]
	}
	return NewReferenceMaps(maps), nil
}

func buildLabelMap(src referenceSource, rows []Record) map[string]string {
	labels := make(map[string]string, len(rows))
	for _, row := range rows {
		id := row.ID()
		if id == "" {
			continue
		}
		labels[id] = referenceLabel(src, row)
	}
	return labels
}

func referenceLabel(src referenceSource, row Record) string {
	if src.kind == RefUsers {
		first, _ := row.Get("firstName")
		last, _ := row.Get("lastName")
		name := strings.TrimSpace(stringify(first) + " " + stringify(last))
		if name == "" {
			return src.fallback
		}
		return name
	}

	if name, ok := row.Get("name"); ok && !isFalsy(name) {
		return stringify(name)
	}
	return src.fallback
}

// referenceOnce loads reference maps at most once per result set.
// A failed load is retried on the next call.
type referenceOnce struct {
	mu   sync.Mutex
	maps *ReferenceMaps
}

func (o *referenceOnce) get(ctx context.Context, loader *ReferenceLoader) (*ReferenceMaps, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.maps != nil {
		return o.maps, nil
	}
	maps, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	o.maps = maps
	return maps, nil
}

// References returns the result set's reference maps, loading them on first use
func (rs *ResultSet) References(ctx context.Context, loader *ReferenceLoader) (*ReferenceMaps, error) {
	if rs.refs == nil {
		// not built with NewResultSet; nothing to share the load with
		return loader.Load(ctx)
	}
	return rs.refs.get(ctx, loader)
}
