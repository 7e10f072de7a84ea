// Package value provides coercion primitives shared by the mapping
// normalizer, the filter pipeline and the converter.
//
// Source data arrives as untyped nested structures (decoded JSON or YAML),
// so most of the engine works on `any` and needs a consistent way to get a
// string, a list of strings, or a number out of whatever is there.
package value

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Text extracts a string from various representations.
// Handles: string, []byte, fmt.Stringer, json.Number, numeric types, nil.
func Text(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Texts normalizes a value to a slice of non-empty strings.
// A scalar becomes a one-element slice, nil becomes nil.
func Texts(v any) []string {
	if v == nil {
		return nil
	}
	var out []string
	switch val := v.(type) {
	case []string:
		for _, s := range val {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range val {
			if s := Text(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := Text(v); s != "" {
			out = []string{s}
		}
	}
	return out
}

// Int extracts an integer, returning 0 for anything unparseable.
func Int(v any) int {
	if v == nil {
		return 0
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case json.Number:
		i, _ := val.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(val))
		return i
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Bool extracts a boolean. Strings accept true/1/yes/on, case-insensitive.
func Bool(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case float64:
		return val != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s == "true" || s == "1" || s == "yes" || s == "on"
	default:
		return false
	}
}

// IsNumeric reports whether s has a numeric lexical form, integral or
// decimal, with an optional leading sign.
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripTags removes markup tags and unescapes HTML entities.
func StripTags(s string) string {
	s = htmlTagRegex.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

// IsURL reports whether s looks like an absolute URL or URN. Used to decide
// whether an untyped output value is a link rather than a literal.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "urn:")
}
