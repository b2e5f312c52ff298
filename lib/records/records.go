package records

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"kebasync/lib/kebatime"
)

// ErrFormat wraps every coercion failure in this package. A malformed
// export indicates a systemic problem with the console, not a single
// bad row, so callers abort the resource instead of skipping rows.
var ErrFormat = errors.New("malformed field")

func formatErr(field, value string, cause error) error {
	return fmt.Errorf("%w: %s=%q: %s", ErrFormat, field, value, cause)
}

func intField(field, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, formatErr(field, value, err)
	}
	return n, nil
}

func roundedIntField(field, value string) (int, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, formatErr(field, value, err)
	}
	return int(math.Round(f)), nil
}

func floatField(field, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, formatErr(field, value, err)
	}
	return f, nil
}

func dateField(field, value string) (time.Time, error) {
	ts, err := kebatime.ParseReportDate(value)
	if err != nil {
		return time.Time{}, formatErr(field, value, err)
	}
	return ts, nil
}

// json object values arrive as string/float64/bool depending on the
// console firmware; shape them without trusting any one encoding

func rawString(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b)
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func rawInt(raw map[string]any, key string) (int, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case string:
		return intField(key, n)
	}
	return 0, formatErr(key, fmt.Sprint(v), errors.New("not a number"))
}

func rawBool(raw map[string]any, key string) bool {
	v, ok := raw[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func rawMillis(raw map[string]any, key string) (*time.Time, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	var ms int64
	switch n := v.(type) {
	case float64:
		ms = int64(n)
	case int64:
		ms = n
	case string:
		if n == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return nil, formatErr(key, n, err)
		}
		ms = parsed
	default:
		return nil, formatErr(key, fmt.Sprint(v), errors.New("not a unix millisecond timestamp"))
	}
	ts := kebatime.FromUnixMilli(ms)
	return &ts, nil
}
