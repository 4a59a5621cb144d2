package timeutils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// Largest epoch second that still renders as a four digit year (9999-12-31T23:59:59Z).
	maxEpochSeconds = 253402300799
	day             = 24 * time.Hour
	maxDays         = int64(math.MaxInt64 / day)
)

// ParseSince resolves a --since value to an absolute time. Accepted forms are
// seconds since the epoch, a duration back from now ("90m", "1h", "2d"), or
// an RFC3339 timestamp. A bare number is always epoch seconds.
func ParseSince(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("since must not be empty")
	}

	if sec, err := strconv.ParseFloat(value, 64); err == nil {
		if math.IsNaN(sec) || math.IsInf(sec, 0) || math.Abs(sec) > maxEpochSeconds {
			return time.Time{}, fmt.Errorf("invalid since: %s (epoch seconds out of range)", value)
		}
		whole := int64(sec)
		return time.Unix(whole, int64((sec-float64(whole))*1e9)), nil
	}

	d, err := parseDuration(value)
	if errors.Is(err, errDurationRange) {
		return time.Time{}, fmt.Errorf("invalid since: %s (%w)", value, err)
	}
	if err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("invalid since: %s (duration must not be negative)", value)
		}
		return now.Add(-d), nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid since: %s (expected duration like 1h, RFC3339 timestamp, or epoch seconds)", value)
}

var errDurationRange = errors.New("duration out of range")

// parseDuration extends time.ParseDuration with a whole-day unit ("2d").
func parseDuration(value string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, err
		}
		if n > maxDays || n < -maxDays {
			return 0, errDurationRange
		}
		return time.Duration(n) * day, nil
	}
	return time.ParseDuration(value)
}

// LoadLocation resolves the zone start times are printed in. An empty name
// or "Local" means the system zone.
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone: %s: %w", name, err)
	}
	return loc, nil
}
