package reports

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_KeepsPrimitivesAndTimestamps(t *testing.T) {
	raw := NewRecord(
		"id", "a1",
		"name", "Forklift",
		"tags", []any{"heavy", "yard"},
		"specs", map[string]any{"weight": 4200},
		"createdAt", map[string]any{"seconds": int64(1700000000), "nanoseconds": int64(500000000)},
		"updatedAt", time.Unix(1700000100, 0),
		"cost", 1250.5,
		"units", 3,
		"active", true,
		"notes", nil,
	)

	got := Sanitize(raw)

	assert.Equal(t, []string{"id", "name", "createdAt", "updatedAt", "cost", "units", "active", "notes"}, got.Keys())

	createdAt, _ := got.Get("createdAt")
	assert.Equal(t, TimeInstant{Seconds: 1700000000.5}, createdAt)
	updatedAt, _ := got.Get("updatedAt")
	assert.Equal(t, TimeInstant{Seconds: 1700000100}, updatedAt)

	_, hasTags := got.Get("tags")
	assert.False(t, hasTags)
	_, hasSpecs := got.Get("specs")
	assert.False(t, hasSpecs)

	notes, ok := got.Get("notes")
	assert.True(t, ok)
	assert.Nil(t, notes)
}

func TestSanitize_Idempotent(t *testing.T) {
	raw := NewRecord(
		"id", "r1",
		"scheduledDate", map[string]any{"seconds": 1700000000.25},
		"nested", NewRecord("x", 1),
		"status", "open",
	)

	once := Sanitize(raw)
	twice := Sanitize(once)

	assert.Equal(t, once, twice)
}

func TestSanitize_DoesNotMutateInput(t *testing.T) {
	raw := NewRecord("id", "r1", "tags", []any{"a"})

	_ = Sanitize(raw)

	assert.Equal(t, []string{"id", "tags"}, raw.Keys())
}

func TestToDisplay(t *testing.T) {
	format := NewDisplayFormat("en-US", time.UTC)
	instant := NewTimeInstant(time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC))
	rec := NewRecord("id", "u1", "timestamp", instant, "reportedBy", "u2")

	display := ToDisplay(rec, format)

	ts, _ := display.Get("timestamp")
	assert.Equal(t, "3/5/2024, 2:07:09 PM", ts)
	reportedBy, _ := display.Get("reportedBy")
	assert.Equal(t, "u2", reportedBy)

	original, _ := rec.Get("timestamp")
	assert.Equal(t, instant, original)
}

func TestIsFalsy(t *testing.T) {
	falsy := []any{nil, "", false, 0, 0.0, int64(0), math.NaN()}
	for _, v := range falsy {
		assert.True(t, isFalsy(v), "%#v", v)
	}

	truthy := []any{"0", "x", true, 1, -1, 0.5, TimeInstant{}}
	for _, v := range truthy {
		assert.False(t, isFalsy(v), "%#v", v)
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "42", stringify(42))
	assert.Equal(t, "42", stringify(int64(42)))
	assert.Equal(t, "12.5", stringify(12.5))
	assert.Equal(t, "3", stringify(3.0))
	assert.Equal(t, "true", stringify(true))
	assert.Equal(t, "abc", stringify("abc"))
}
