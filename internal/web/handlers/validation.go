package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Form date/time layouts matching the HTML date and datetime-local inputs.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// formString returns a trimmed form value as a pointer, or nil when the field
// was absent from the submission.
func formString(r *http.Request, field string) *string {
	if _, ok := r.Form[field]; !ok {
		return nil
	}
	v := strings.TrimSpace(r.FormValue(field))
	return &v
}

// formInt64 parses an optional numeric form field. Empty and absent both
// yield nil.
func formInt64(r *http.Request, field string) *int64 {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// formInt parses an optional int form field.
func formInt(r *http.Request, field string) *int {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// formFloat parses an optional float form field.
func formFloat(r *http.Request, field string) *float64 {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// formDate parses an optional date form field (yyyy-mm-dd).
func formDate(r *http.Request, field string) *time.Time {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// formDateTime parses an optional datetime-local form field.
func formDateTime(r *http.Request, field string) *time.Time {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateTimeLayout, v, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// formCents parses a decimal money field ("12.50") into integer cents.
func formCents(r *http.Request, field string) *int64 {
	f := formFloat(r, field)
	if f == nil {
		return nil
	}
	cents := int64(*f*100 + 0.5)
	return &cents
}
