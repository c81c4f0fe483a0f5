package reports

import (
	"math"
	"time"
)

// TimeInstant is a timestamp stored as fractional seconds since the Unix epoch
type TimeInstant struct {
	Seconds float64 `json:"seconds"`
}

// NewTimeInstant converts a time.Time into a TimeInstant
func NewTimeInstant(t time.Time) TimeInstant {
	return TimeInstant{Seconds: float64(t.UnixNano()) / 1e9}
}

// Time returns the instant as a time.Time in the given location
func (t TimeInstant) Time(loc *time.Location) time.Time {
	whole, frac := math.Modf(t.Seconds)
	ts := time.Unix(int64(whole), int64(math.Round(frac*1e9)))
	if loc != nil {
		ts = ts.In(loc)
	}
	return ts
}

// Record is an ordered field map as returned by the document store.
// Keys keeps first-insertion order so spreadsheet columns follow the record layout.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord builds a record from alternating key/value pairs
func NewRecord(pairs ...any) Record {
	r := Record{values: make(map[string]any, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		r.Set(key, pairs[i+1])
	}
	return r
}

// Keys returns field keys in record order
func (r Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Get returns the value stored at key
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Set stores a value, appending the key if it is new
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Len returns the number of fields
func (r Record) Len() int {
	return len(r.keys)
}

// ID returns the record's id field as a string
func (r Record) ID() string {
	v, ok := r.values["id"]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

// Map returns a shallow copy of the record's values
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// clone returns a copy that can be mutated without affecting r
func (r Record) clone() Record {
	c := Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]any, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}
