package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FieldError is a per-row validation failure for a single cell.
type FieldError struct {
	Field  string
	Raw    string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Reason
}

var (
	dayFirstDash  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	dayFirstSlash = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoLoose      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	clockTime     = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

// fallbackDateLayouts are tried after the explicit day-first and ISO forms.
var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
}

// NormalizeDate converts the accepted date spellings to YYYY-MM-DD.
// DD-MM-YYYY and DD/MM/YYYY are read day first; numeric forms must name a real
// calendar date.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if m := dayFirstDash.FindStringSubmatch(s); m != nil {
		return calendarDate(m[3], m[2], m[1])
	}
	if m := dayFirstSlash.FindStringSubmatch(s); m != nil {
		return calendarDate(m[3], m[2], m[1])
	}
	if m := isoLoose.FindStringSubmatch(s); m != nil {
		return calendarDate(m[1], m[2], m[3])
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func calendarDate(year, month, day string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// NormalizeTime converts HH:MM or HH:MM:SS to HH:MM:SS.
func NormalizeTime(raw string) (string, bool) {
	m := clockTime.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	h, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	if h > 23 || minute > 59 || sec > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, minute, sec), true
}

// SplitList splits a ';' separated cell into trimmed, non-empty elements.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Normalize converts a resolved raw value to its typed form. A nil or blank
// value yields (nil, nil); required-ness is checked by the caller.
func Normalize(field Field, raw *string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}

	switch field.Kind {
	case KindInt:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, &FieldError{Field: field.Name, Raw: *raw, Reason: fmt.Sprintf("Invalid %s '%s'. Expected a whole number", field.label(), s)}
		}
		return n, nil
	case KindDate:
		d, ok := NormalizeDate(s)
		if !ok {
			return nil, &FieldError{Field: field.Name, Raw: *raw, Reason: fmt.Sprintf("Invalid %s format '%s'. Use DD-MM-YYYY, DD/MM/YYYY, or YYYY-MM-DD", field.label(), *raw)}
		}
		return d, nil
	case KindTime:
		t, ok := NormalizeTime(s)
		if !ok {
			return nil, &FieldError{Field: field.Name, Raw: *raw, Reason: fmt.Sprintf("Invalid %s format '%s'. Use HH:MM or HH:MM:SS", field.label(), s)}
		}
		return t, nil
	case KindBool:
		switch strings.ToLower(s) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, &FieldError{Field: field.Name, Raw: *raw, Reason: fmt.Sprintf("Invalid %s '%s'. Use true or false", field.label(), s)}
	case KindList:
		return SplitList(s), nil
	default:
		if len(field.Enum) > 0 {
			lowered := strings.ToLower(s)
			for _, allowed := range field.Enum {
				if lowered == allowed {
					return lowered, nil
				}
			}
			return nil, &FieldError{Field: field.Name, Raw: *raw, Reason: fmt.Sprintf("Invalid %s '%s'. Allowed values: %s", field.label(), s, strings.Join(field.Enum, ", "))}
		}
		return s, nil
	}
}
