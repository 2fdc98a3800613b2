package validation

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Violations maps a field name to a translatable error code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Merge copies violations from o that are not already set on v.
func (v Violations) Merge(o Violations) {
	for k, c := range o {
		if _, ok := v[k]; !ok {
			v[k] = c
		}
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MinLength(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		v[field] = "too_short"
	}
}

// Email accepts an empty value; combine with Required when mandatory.
func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v[field] = "invalid_email"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_be_non_negative"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_choice"
}

// Date checks an optional calendar date in YYYY-MM-DD form.
func Date(field, value string, v Violations) {
	if value == "" {
		return
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		v[field] = "invalid_date"
	}
}

// NotBefore flags end when both instants are set and end precedes start.
func NotBefore(field string, start, end time.Time, v Violations) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if end.Before(start) {
		v[field] = "before_start"
	}
}
