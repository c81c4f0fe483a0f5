package reports

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Sanitize keeps primitive and TimeInstant fields and drops every other
// object or array. Objects carrying a numeric "seconds" key (and optional
// "nanoseconds") are normalized to TimeInstant.
func Sanitize(raw Record) Record {
	out := Record{values: make(map[string]any, raw.Len())}
	for _, key := range raw.keys {
		if v, ok := sanitizeValue(raw.values[key]); ok {
			out.Set(key, v)
		}
	}
	return out
}

// SanitizeAll sanitizes a batch of raw records
func SanitizeAll(raw []Record) []Record {
	out := make([]Record, len(raw))
	for i, r := range raw {
		out[i] = Sanitize(r)
	}
	return out
}

func sanitizeValue(v any) (any, bool) {
	switch val := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val, true
	case TimeInstant:
		return val, true
	case *TimeInstant:
		if val == nil {
			return nil, true
		}
		return *val, true
	case time.Time:
		return NewTimeInstant(val), true
	case map[string]any:
		return timeInstantFromMap(val)
	case Record:
		return timeInstantFromMap(val.values)
	default:
		return nil, false
	}
}

func timeInstantFromMap(m map[string]any) (any, bool) {
	raw, ok := m["seconds"]
	if !ok {
		return nil, false
	}
	seconds, ok := toFloat(raw)
	if !ok {
		return nil, false
	}
	if ns, ok := m["nanoseconds"]; ok {
		if n, ok := toFloat(ns); ok {
			seconds += n / 1e9
		}
	}
	return TimeInstant{Seconds: seconds}, true
}

// ToDisplay returns a copy of a sanitized record with every TimeInstant
// replaced by its locale date-time string
func ToDisplay(rec Record, format DisplayFormat) Record {
	out := rec.clone()
	for _, key := range out.keys {
		if t, ok := out.values[key].(TimeInstant); ok {
			out.values[key] = format.FormatDateTime(t)
		}
	}
	return out
}

// ToDisplayAll converts a batch of sanitized records for spreadsheet export
func ToDisplayAll(records []Record, format DisplayFormat) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = ToDisplay(r, format)
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// isFalsy reports nil, "", false, numeric zero and NaN
func isFalsy(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case TimeInstant, time.Time:
		return false
	}
	if f, ok := toFloat(v); ok {
		return f == 0 || math.IsNaN(f)
	}
	return false
}

// stringify renders a primitive the way it reads in a table cell
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case TimeInstant:
		return strconv.FormatFloat(val.Seconds, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
