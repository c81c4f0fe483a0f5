package reports

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted for range filters
const DateLayout = "2006-01-02"

// Range is a closed time interval used against a kind's time field
type Range struct {
	From time.Time
	To   time.Time
}

// BuildRange returns [start 00:00:00.000, end 23:59:59.999] in loc.
// Start after end is not rejected; it matches nothing.
func BuildRange(start, end string, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}

	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" {
		return Range{}, requiredError("start_date", "start date is required")
	}
	if end == "" {
		return Range{}, requiredError("end_date", "end date is required")
	}

	from, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return Range{}, invalidError("start_date", fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", start))
	}
	to, err := time.ParseInLocation(DateLayout, end, loc)
	if err != nil {
		return Range{}, invalidError("end_date", fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", end))
	}

	return Range{
		From: from,
		To:   endOfDay(to),
	}, nil
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), day.Location())
}

// Contains reports whether t falls inside the closed interval
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}
