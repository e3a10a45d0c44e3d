package schema

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// CanonicalDateLayout is the single textual form all date values are
// normalized to before they reach the form filler.
const CanonicalDateLayout = "2006-01-02"

// dateLayouts are the input formats accepted from provider output, tried in
// order. The first match wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
}

// CanonicalDate parses a date expressed in any accepted format and returns it
// as YYYY-MM-DD. ISO timestamps are truncated to their date part.
func CanonicalDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		s = s[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(CanonicalDateLayout), true
		}
	}
	return "", false
}

var truthyValues = map[string]bool{
	"true": true, "yes": true, "y": true, "1": true, "on": true, "checked": true, "x": true,
}

var falsyValues = map[string]bool{
	"false": true, "no": true, "n": true, "0": true, "off": true, "unchecked": true,
}

// Coerce validates and converts a raw provider value against the field's
// declared type. Values that cannot be coerced are reported as not ok and
// treated as null by the caller rather than raised as errors.
func (f Field) Coerce(raw any) (any, bool) {
	if raw == nil {
		return nil, false
	}
	switch f.Type {
	case TypeString:
		return coerceString(raw)
	case TypeBool:
		return coerceBool(raw)
	case TypeDate:
		s, ok := coerceString(raw)
		if !ok {
			return nil, false
		}
		str, _ := s.(string)
		return canonicalizeDate(str)
	default:
		return nil, false
	}
}

func coerceString(raw any) (any, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	default:
		return nil, false
	}
}

func coerceBool(raw any) (any, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if truthyValues[s] {
			return true, true
		}
		if falsyValues[s] {
			return false, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func canonicalizeDate(raw string) (any, bool) {
	d, ok := CanonicalDate(raw)
	if !ok {
		return nil, false
	}
	return d, true
}
