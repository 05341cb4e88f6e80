package newsletter

import (
	"strconv"
	"strings"
	"time"
)

var monthAbbrev = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mar": time.March,
	"Apr": time.April,
	"May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Oct": time.October,
	"Nov": time.November,
	"Dec": time.December,
}

// dateTokens is the token count of "Mon, 13 May 2024 13:33:47 +0000".
const dateTokens = 6

// ParseSentAt parses a Date header of the form
// "<weekday>, <day> <Mon> <year> <HH:MM:SS> <offset>". The weekday and the
// offset are discarded, so the result is the sender's wall clock time
// expressed in UTC without conversion.
func ParseSentAt(raw string) (time.Time, error) {
	fields := strings.Fields(raw)
	if len(fields) != dateTokens {
		return time.Time{}, &FormatError{
			Field:  "Date",
			Value:  raw,
			Reason: "expected " + strconv.Itoa(dateTokens) + " space-separated tokens",
		}
	}

	day, err := strconv.Atoi(fields[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, &FormatError{Field: "Date", Value: raw, Reason: "invalid day"}
	}

	month, ok := monthAbbrev[fields[2]]
	if !ok {
		return time.Time{}, &FormatError{Field: "Date", Value: raw, Reason: "unknown month " + strconv.Quote(fields[2])}
	}

	year, err := strconv.Atoi(fields[3])
	if err != nil {
		return time.Time{}, &FormatError{Field: "Date", Value: raw, Reason: "invalid year"}
	}

	clock, err := time.Parse("15:04:05", fields[4])
	if err != nil {
		return time.Time{}, &FormatError{Field: "Date", Value: raw, Reason: "invalid time of day"}
	}

	t := time.Date(
		year, month, day,
		clock.Hour(), clock.Minute(), clock.Second(), 0,
		time.UTC,
	)
	// time.Date normalizes overflow, e.g. 31 Feb becomes 2 Mar.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, &FormatError{Field: "Date", Value: raw, Reason: "invalid date"}
	}
	return t, nil
}
