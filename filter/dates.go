package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// filterDate reformats a parseable date through a PHP-style format string.
// Unparseable input passes through unchanged.
func filterDate(ctx *Context, v Value, args *Args) Value {
	format := args.At(0)
	if format == "" {
		format = "Y-m-d"
	}
	layout := phpDateLayout(format)
	return v.Map(func(s string) string {
		t, ok := parseAnyDate(s)
		if !ok {
			return s
		}
		return t.Format(layout)
	})
}

var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"20060102",
	"2006-01",
	"2006",
}

func parseAnyDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// phpDateLayout converts the common PHP date() tokens to a Go layout.
func phpDateLayout(format string) string {
	replacer := strings.NewReplacer(
		"Y", "2006",
		"y", "06",
		"m", "01",
		"n", "1",
		"d", "02",
		"j", "2",
		"H", "15",
		"G", "15",
		"i", "04",
		"s", "05",
	)
	return replacer.Replace(format)
}

var digitsRegex = regexp.MustCompile(`^\d+$`)

// filterDateIso converts a Unimarc packed date (area 100$a style) to
// ISO-8601. Strings containing the uncertainty marker "u" pass through
// unchanged. The leading character selects the era: "-" and "d" mean BCE,
// "+", "c" and space mean CE; bare digits are CE.
func filterDateIso(ctx *Context, v Value, args *Args) Value {
	return v.Map(func(s string) string {
		if s == "" || strings.ContainsAny(s, "uU") {
			return s
		}
		body := s
		prefix := ""
		switch s[0] {
		case '-', 'd':
			prefix = "-"
			body = s[1:]
		case '+', 'c', ' ':
			body = s[1:]
		}
		if !digitsRegex.MatchString(body) || len(body) < 4 {
			return s
		}
		out := body[:4]
		if len(body) >= 6 {
			out += "-" + body[4:6]
		}
		if len(body) >= 8 {
			out += "-" + body[6:8]
		}
		return prefix + out
	})
}

var dateRevertRegex = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2,4})$`)

// filterDateRevert converts a locale day/month/year spreadsheet date to
// ISO-8601. Two-digit years are assumed to be 20xx.
func filterDateRevert(ctx *Context, v Value, args *Args) Value {
	return v.Map(func(s string) string {
		m := dateRevertRegex.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			return s
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) <= 2 {
			year += 2000
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return s
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	})
}

// filterDateSQL converts a Unimarc timestamp (YYYYMMDDHHMMSS, optionally
// with a trailing fraction) to a SQL datetime.
func filterDateSQL(ctx *Context, v Value, args *Args) Value {
	return v.Map(func(s string) string {
		body := strings.TrimSpace(s)
		if i := strings.IndexByte(body, '.'); i >= 0 {
			body = body[:i]
		}
		if len(body) < 14 || !digitsRegex.MatchString(body) {
			return s
		}
		return fmt.Sprintf("%s-%s-%s %s:%s:%s",
			body[0:4], body[4:6], body[6:8], body[8:10], body[10:12], body[12:14])
	})
}
