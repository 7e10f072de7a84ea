package filter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// The isbd* filters format positional bibliographic subfields with the
// fixed ISBD punctuation templates. The running value supplies the
// subfields as a list (usually produced by split); missing positions are
// simply skipped.

// filterIsbdName formats a personal name from the positional subfields
// [name, numeration, qualifier, roman numerals, dates]:
// "Name, Numeration, Roman (Qualifier) (Dates)".
func filterIsbdName(ctx *Context, v Value, args *Args) Value {
	parts := v.Items()
	name := at(parts, 0)
	if name == "" {
		return String("")
	}
	var b strings.Builder
	b.WriteString(name)
	if s := at(parts, 1); s != "" {
		b.WriteString(", ")
		b.WriteString(s)
	}
	if s := at(parts, 3); s != "" {
		b.WriteString(", ")
		b.WriteString(s)
	}
	if s := at(parts, 2); s != "" {
		b.WriteString(" (")
		b.WriteString(s)
		b.WriteString(")")
	}
	if s := at(parts, 4); s != "" {
		b.WriteString(" (")
		b.WriteString(s)
		b.WriteString(")")
	}
	return String(b.String())
}

// filterIsbdNameColl formats a collectivity name from the positional
// subfields [name, subdivision, subdivision, number, place, dates]:
// "Name. Subdivision. Subdivision (Number ; Place ; Dates)".
func filterIsbdNameColl(ctx *Context, v Value, args *Args) Value {
	parts := v.Items()
	name := at(parts, 0)
	if name == "" {
		return String("")
	}
	var b strings.Builder
	b.WriteString(name)
	for _, i := range []int{1, 2} {
		if s := at(parts, i); s != "" {
			b.WriteString(". ")
			b.WriteString(s)
		}
	}
	var qualifiers []string
	for _, i := range []int{3, 4, 5} {
		if s := at(parts, i); s != "" {
			qualifiers = append(qualifiers, s)
		}
	}
	if len(qualifiers) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(qualifiers, " ; "))
		b.WriteString(")")
	}
	return String(b.String())
}

// filterIsbdMark formats a trademark from the positional subfields
// [mark, qualifier, dates]: "Mark (Qualifier), Dates".
func filterIsbdMark(ctx *Context, v Value, args *Args) Value {
	parts := v.Items()
	mark := at(parts, 0)
	if mark == "" {
		return String("")
	}
	var b strings.Builder
	b.WriteString(mark)
	if s := at(parts, 1); s != "" {
		b.WriteString(" (")
		b.WriteString(s)
		b.WriteString(")")
	}
	if s := at(parts, 2); s != "" {
		b.WriteString(", ")
		b.WriteString(s)
	}
	return String(b.String())
}

// filterUnimarcIndex drops the leading non-filing characters of a title
// (the count is the first argument) and capitalizes the remainder for
// index display.
func filterUnimarcIndex(ctx *Context, v Value, args *Args) Value {
	n, _ := strconv.Atoi(strings.TrimSpace(args.At(0)))
	return v.Map(func(s string) string {
		runes := []rune(s)
		if n > 0 && n < len(runes) {
			runes = runes[n:]
		}
		trimmed := strings.TrimLeftFunc(string(runes), unicode.IsSpace)
		if trimmed == "" {
			return trimmed
		}
		out := []rune(trimmed)
		out[0] = unicode.ToUpper(out[0])
		return string(out)
	})
}

// filterUnimarcCoordinates converts a packed Unimarc coordinate
// (hemisphere + DDDMMSS, e.g. "W0794700") to degree notation.
func filterUnimarcCoordinates(ctx *Context, v Value, args *Args) Value {
	return v.Map(func(s string) string {
		body := strings.TrimSpace(s)
		if len(body) != 8 {
			return s
		}
		hemisphere := strings.ToUpper(body[:1])
		if !strings.Contains("NSEW", hemisphere) {
			return s
		}
		formatted, ok := formatSexagesimal(body[1:])
		if !ok {
			return s
		}
		return hemisphere + " " + formatted
	})
}

// filterUnimarcCoordinatesHexa converts a packed DDDMMSS coordinate without
// a hemisphere letter to degree notation.
func filterUnimarcCoordinatesHexa(ctx *Context, v Value, args *Args) Value {
	return v.Map(func(s string) string {
		formatted, ok := formatSexagesimal(strings.TrimSpace(s))
		if !ok {
			return s
		}
		return formatted
	})
}

func formatSexagesimal(body string) (string, bool) {
	if len(body) != 7 || !digitsRegex.MatchString(body) {
		return "", false
	}
	deg, _ := strconv.Atoi(body[:3])
	return fmt.Sprintf("%d°%s′%s″", deg, body[3:5], body[5:7]), true
}

// filterUnimarcTimeHexa converts a packed HHMMSS time to hour notation,
// dropping trailing zero components ("142236" -> "14h22m36s",
// "140000" -> "14h").
func filterUnimarcTimeHexa(ctx *Context, v Value, args *Args) Value {
	return v.Map(func(s string) string {
		body := strings.TrimSpace(s)
		if len(body) < 2 || len(body) > 6 || len(body)%2 != 0 || !digitsRegex.MatchString(body) {
			return s
		}
		hour := body[:2]
		minute, second := "00", "00"
		if len(body) >= 4 {
			minute = body[2:4]
		}
		if len(body) == 6 {
			second = body[4:6]
		}
		out := hour + "h"
		if minute != "00" || second != "00" {
			out += minute + "m"
		}
		if second != "00" {
			out += second + "s"
		}
		return out
	})
}

func at(parts []string, i int) string {
	if i < 0 || i >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[i])
}
