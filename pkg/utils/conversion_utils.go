package utils

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the YYYY-MM-DD format accepted by query parameters.
const DateLayout = "2006-01-02"

// Int64ToStr converts an int64 to its string representation.
func Int64ToStr(num int64) string {
	return strconv.FormatInt(num, 10)
}

// StrToInt64 converts a string to an int64.
func StrToInt64(s string) (int64, error) {
	num, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse '%s' as int64: %w", s, err)
	}
	return num, nil
}

// ParseDate parses a YYYY-MM-DD date in UTC. Empty input returns nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date '%s', expected YYYY-MM-DD", s)
	}
	return &t, nil
}
