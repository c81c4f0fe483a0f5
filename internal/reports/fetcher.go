package reports

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves raw rows for a report kind using the kind's fetch mode
type Fetcher struct {
	store    Store
	location *time.Location
}

// NewFetcher creates a fetcher. Date filters are interpreted in loc.
func NewFetcher(store Store, loc *time.Location) *Fetcher {
	if loc == nil {
		loc = time.Local
	}
	return &Fetcher{store: store, location: loc}
}

// In returns a fetcher over the same store that interprets date filters in loc.
// A nil loc returns f unchanged.
func (f *Fetcher) In(loc *time.Location) *Fetcher {
	if loc == nil {
		return f
	}
	return &Fetcher{store: f.store, location: loc}
}

// ValidateFilter checks that filter carries the inputs kind's fetch mode needs
func ValidateFilter(kind ReportKind, filter Filter, loc *time.Location) error {
	spec, ok := Lookup(kind)
	if !ok {
		return invalidError("kind", "unknown report kind: "+string(kind))
	}
	switch spec.Mode {
	case FetchModeRole:
		if strings.TrimSpace(filter.Role) == "" {
			return requiredError("role", "role is required")
		}
	case FetchModeRange:
		if _, err := BuildRange(filter.StartDate, filter.EndDate, loc); err != nil {
			return err
		}
	}
	return nil
}

// Fetch returns rows in store order. Missing filter input yields a
// *ValidationError without touching the store; store failures are *FetchError.
// An empty slice is a valid result.
func (f *Fetcher) Fetch(ctx context.Context, kind ReportKind, filter Filter) ([]Record, error) {
	if err := ValidateFilter(kind, filter, f.location); err != nil {
		return nil, err
	}
	spec := MustLookup(kind)

	var (
		rows []Record
		err  error
	)
	switch spec.Mode {
	case FetchModeRole:
		rows, err = f.store.FetchByField(ctx, spec.Collection, spec.FilterField, strings.TrimSpace(filter.Role))
	case FetchModeAggregated:
		rows, err = f.fetchAggregated(ctx, spec)
	default:
		// validated above
		r, _ := BuildRange(filter.StartDate, filter.EndDate, f.location)
		rows, err = f.store.FetchByTimeRange(ctx, spec.Collection, spec.TimeField, r.From, r.To)
	}
	if err != nil {
		return nil, &FetchError{Kind: kind, Err: err}
	}
	if rows == nil {
		rows = []Record{}
	}
	return rows, nil
}

func (f *Fetcher) fetchAggregated(ctx context.Context, spec KindSpec) ([]Record, error) {
	var rows, assets []Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = f.store.FetchAll(gctx, spec.Collection)
		return err
	})
	g.Go(func() error {
		var err error
		assets, err = f.store.FetchAll(gctx, assetsCollection)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return CountAssets(rows, assets, spec.CountField), nil
}

// CountAssets returns copies of rows each carrying assetCount, the number of
// assets whose countField equals the row's id
func CountAssets(rows, assets []Record, countField string) []Record {
	counts := make(map[string]int, len(rows))
	for _, asset := range assets {
		v, ok := asset.Get(countField)
		if !ok || isFalsy(v) {
			continue
		}
		counts[stringify(v)]++
	}

	out := make([]Record, len(rows))
	for i, row := range rows {
		c := row.clone()
		c.Set("assetCount", counts[row.ID()])
		out[i] = c
	}
	return out
}
