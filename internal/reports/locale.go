package reports

import (
	"time"

	"golang.org/x/text/language"
)

// DisplayFormat renders TimeInstant values for a locale and time zone
type DisplayFormat struct {
	Locale         string
	Location       *time.Location
	DateTimeLayout string
	DateLayout     string
}

type localeLayouts struct {
	dateTime string
	date     string
}

// supportedLocales is ordered so index 0 is the matcher's fallback
var supportedLocales = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.German,
	language.French,
	language.Japanese,
}

var layoutsByLocale = []localeLayouts{
	{dateTime: "1/2/2006, 3:04:05 PM", date: "1/2/2006"},
	{dateTime: "02/01/2006, 15:04:05", date: "02/01/2006"},
	{dateTime: "2.1.2006, 15:04:05", date: "2.1.2006"},
	{dateTime: "02/01/2006 15:04:05", date: "02/01/2006"},
	{dateTime: "2006/1/2 15:04:05", date: "2006/1/2"},
}

var localeMatcher = language.NewMatcher(supportedLocales)

// NewDisplayFormat picks date layouts for the closest supported locale.
// An empty or unknown locale falls back to en-US; a nil location means local time.
func NewDisplayFormat(locale string, loc *time.Location) DisplayFormat {
	if loc == nil {
		loc = time.Local
	}
	_, idx := language.MatchStrings(localeMatcher, locale)
	if idx < 0 || idx >= len(layoutsByLocale) {
		idx = 0
	}
	layouts := layoutsByLocale[idx]
	return DisplayFormat{
		Locale:         supportedLocales[idx].String(),
		Location:       loc,
		DateTimeLayout: layouts.dateTime,
		DateLayout:     layouts.date,
	}
}

// DefaultDisplayFormat is en-US in local time
func DefaultDisplayFormat() DisplayFormat {
	return NewDisplayFormat("en-US", time.Local)
}

// FormatDateTime renders an instant as a locale date-time string
func (f DisplayFormat) FormatDateTime(t TimeInstant) string {
	return t.Time(f.location()).Format(f.DateTimeLayout)
}

// FormatDate renders an instant as a locale date without time
func (f DisplayFormat) FormatDate(t TimeInstant) string {
	return t.Time(f.location()).Format(f.DateLayout)
}

func (f DisplayFormat) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}
