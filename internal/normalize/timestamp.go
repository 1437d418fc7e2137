package normalize

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05Z"

var isoLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05-07",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04",
	"2006-01-02T15-07:00",
	"2006-01-02T15",
	"2006-01-02",
	"20060102",
}

var (
	minTimestamp = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC)
)

// ParseTimestamp converts a creation-time value into a UTC instant. It
// accepts time.Time, epoch seconds as any numeric type, and ISO-8601 strings
// with a Z suffix, a numeric offset or no zone (read as UTC). Anything else,
// including out-of-range instants, reports false.
func ParseTimestamp(value any) (time.Time, bool) {
	switch typed := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return inRange(typed.UTC())
	case *time.Time:
		if typed == nil {
			return time.Time{}, false
		}
		return inRange(typed.UTC())
	case json.Number:
		if seconds, err := typed.Int64(); err == nil {
			return fromEpoch(float64(seconds), seconds, 0)
		}
		seconds, err := typed.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromFloatEpoch(seconds)
	case string:
		return parseISO(typed)
	}

	number := reflect.ValueOf(value)
	switch number.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		seconds := number.Int()
		return fromEpoch(float64(seconds), seconds, 0)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		unsigned := number.Uint()
		if unsigned > math.MaxInt64 {
			return time.Time{}, false
		}
		return fromEpoch(float64(unsigned), int64(unsigned), 0)
	case reflect.Float32, reflect.Float64:
		return fromFloatEpoch(number.Float())
	case reflect.String:
		return parseISO(number.String())
	default:
		return time.Time{}, false
	}
}

// FormatTimestamp renders t in UTC with whole-second precision and a Z suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timestampLayout)
}

func fromFloatEpoch(seconds float64) (time.Time, bool) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}, false
	}
	whole, frac := math.Modf(seconds)
	nanos := int64(math.Round(frac * 1e9))
	return fromEpoch(seconds, int64(whole), nanos)
}

func fromEpoch(approx float64, seconds, nanos int64) (time.Time, bool) {
	// keeps the int64 arithmetic in time.Unix away from overflow
	if approx < float64(minTimestamp.Unix())-1 || approx > float64(maxTimestamp.Unix())+1 {
		return time.Time{}, false
	}
	return inRange(time.Unix(seconds, nanos).UTC())
}

func inRange(t time.Time) (time.Time, bool) {
	if t.Before(minTimestamp) || t.After(maxTimestamp) {
		return time.Time{}, false
	}
	return t, true
}

func parseISO(value string) (time.Time, bool) {
	value = strings.ReplaceAll(value, "Z", "+00:00")
	if len(value) > 10 && value[10] == ' ' {
		value = value[:10] + "T" + value[11:]
	}
	for _, layout := range isoLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return inRange(parsed.UTC())
		}
	}
	return time.Time{}, false
}
