// Package timeutil validates and formats the fixed-width ISO-8601 timestamp
// format the wire protocol uses, mirroring original_source's
// mcl_time_util_validate_timestamp: exact length, exact separator
// positions, and per-field numeric ranges, rather than a general-purpose
// RFC3339 parser that would accept more than the protocol allows.
package timeutil

import (
	"strconv"
	"time"

	"github.com/wisbric/mindconnect-agent/internal/mclerror"
)

// Layout is the fixed 24-character form: yyyy-MM-ddTHH:mm:ss.SSSZ.
const Layout = "2006-01-02T15:04:05.000Z"

// timestampLength is the expected length of a valid timestamp (excluding
// any NUL terminator the original C buffer reserved).
const timestampLength = 24

var (
	charactersToCheck     = [7]byte{'-', '-', 'T', ':', ':', '.', 'Z'}
	maximumValues         = [7]int{2999, 12, 31, 23, 59, 59, 999}
	characterIndexesToCheck = [7]int{4, 7, 10, 13, 16, 19, 23}
	// fieldStart/fieldEnd bound each numeric field preceding its separator.
	fieldStart = [7]int{0, 5, 8, 11, 14, 17, 20}
	fieldEnd   = [7]int{4, 7, 10, 13, 16, 19, 23}
)

// Format renders t as the fixed ISO-8601 form, always in UTC.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Validate checks timestamp against the exact length, exact separator
// positions, and per-field numeric ranges the wire protocol requires.
// Date fields (year, month, day) must be >= 1; time fields may be 0.
func Validate(timestamp string) error {
	if len(timestamp) != timestampLength {
		return mclerror.Newf(mclerror.InvalidParameter, "timestamp length = %d, want %d", len(timestamp), timestampLength)
	}

	for i, idx := range characterIndexesToCheck {
		if timestamp[idx] != charactersToCheck[i] {
			return mclerror.Newf(mclerror.InvalidParameter, "timestamp has %q at position %d, want %q", timestamp[idx], idx, charactersToCheck[i])
		}
	}

	for i := 0; i < 7; i++ {
		field := timestamp[fieldStart[i]:fieldEnd[i]]
		value, err := strconv.Atoi(field)
		if err != nil {
			return mclerror.Newf(mclerror.InvalidParameter, "timestamp field %q is not numeric", field)
		}
		if value > maximumValues[i] {
			return mclerror.Newf(mclerror.InvalidParameter, "timestamp field %q exceeds maximum %d", field, maximumValues[i])
		}
		isDateField := i <= 2
		if isDateField && value < 1 {
			return mclerror.Newf(mclerror.InvalidParameter, "timestamp date field %q must be >= 1", field)
		}
		if !isDateField && value < 0 {
			return mclerror.Newf(mclerror.InvalidParameter, "timestamp field %q must be >= 0", field)
		}
	}

	return nil
}

// Parse validates and parses timestamp, returning the UTC time.Time.
func Parse(timestamp string) (time.Time, error) {
	if err := Validate(timestamp); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(Layout, timestamp)
	if err != nil {
		return time.Time{}, mclerror.Wrap(mclerror.InvalidParameter, "parsing timestamp", err)
	}
	return t, nil
}
