package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DefaultTimezone = "Europe/Berlin"
	DefaultLocale   = "de_DE"
)

// ErrInvalidDate is returned when a raw value cannot be turned into a time.
var ErrInvalidDate = errors.New("invalid date value")

// niceFormats is a medium date followed by a short time, per locale.
var niceFormats = map[string]string{
	"de_DE": "02.01.2006, 15:04",
	"en_US": "Jan 2, 2006, 3:04 PM",
	"en_GB": "2 Jan 2006, 15:04",
}

const fallbackNiceFormat = "2006-01-02 15:04"

// Layouts accepted for raw string input, tried in order. Layouts without a
// zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// DateFilter pins date values to one timezone and renders them in a locale's
// "nice" format.
type DateFilter struct {
	location *time.Location
	locale   string
}

// NewDateFilter loads the named zone. An empty timezone or locale selects the default.
func NewDateFilter(timezone, locale string) (*DateFilter, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	if locale == "" {
		locale = DefaultLocale
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &DateFilter{location: loc, locale: locale}, nil
}

// Location returns the zone every value is converted into.
func (f *DateFilter) Location() *time.Location {
	return f.location
}

// Save returns the value as a time.Time in the filter's zone. nil passes through.
func (f *DateFilter) Save(field string, value any, entity any) (any, error) {
	if value == nil {
		return nil, nil
	}
	t, err := toTime(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if t == nil {
		return nil, nil
	}
	return t.In(f.location), nil
}

// Display renders the value in the filter's zone using the locale format.
func (f *DateFilter) Display(field string, value any, entity any) (string, error) {
	if value == nil {
		return "", nil
	}
	t, err := toTime(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	if t == nil {
		return "", nil
	}
	return f.Nice(*t), nil
}

// Nice formats t in the filter's zone and locale.
func (f *DateFilter) Nice(t time.Time) string {
	layout, ok := niceFormats[f.locale]
	if !ok {
		layout = fallbackNiceFormat
	}
	return t.In(f.location).Format(layout)
}

// toTime coerces structured and raw values. A nil pointer yields (nil, nil).
func toTime(value any) (*time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return &v, nil
	case *time.Time:
		return v, nil
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	case int:
		return unix(float64(v)), nil
	case int64:
		return unix(float64(v)), nil
	case float64:
		return unix(v), nil
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, v.String())
		}
		return unix(n), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, value)
	}
}

func parseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func unix(seconds float64) *time.Time {
	sec, frac := math.Modf(seconds)
	t := time.Unix(int64(sec), int64(frac*1e9)).UTC()
	return &t
}
