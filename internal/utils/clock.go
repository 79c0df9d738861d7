package utils

import (
	"time"
)

// DefaultTimezone is the zone the publisher works in
const DefaultTimezone = "America/Guayaquil"

// RunTimestampLayout formats run identifiers such as 20250103_101500
const RunTimestampLayout = "20060102_150405"

// ISOLayout is ISO-8601 with microseconds and a numeric offset
const ISOLayout = "2006-01-02T15:04:05.000000-07:00"

// guayaquilFallback is used when the tz database is unavailable; the zone has no DST
var guayaquilFallback = time.FixedZone("-05", -5*60*60)

// LoadLocation resolves a zone name. An empty name means DefaultTimezone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name == DefaultTimezone {
			return guayaquilFallback, nil
		}
		return nil, err
	}
	return loc, nil
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

// RunTimestamp formats t in loc as a run identifier
func RunTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(RunTimestampLayout)
}

// ISOTimestamp formats t in loc as ISO-8601 with offset
func ISOTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(ISOLayout)
}

// ParseISOTimestamp accepts timestamps with or without a zone offset.
// Values without an offset are read in loc.
func ParseISOTimestamp(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", value, loc)
}
