package filter

import (
	"strings"
)

// Args is the parsed argument list of one filter call. Parsing is lazy:
// most filters take no arguments at all.
type Args struct {
	raw  string
	vars map[string]string
}

func newArgs(raw string, vars map[string]string) *Args {
	return &Args{raw: raw, vars: vars}
}

// Raw returns the unparsed argument text inside the parentheses.
func (a *Args) Raw() string {
	return a.raw
}

// Len returns the number of positional arguments.
func (a *Args) Len() int {
	return len(a.List())
}

// At returns positional argument i, or "" when absent.
func (a *Args) At(i int) string {
	list := a.List()
	if i < 0 || i >= len(list) {
		return ""
	}
	return list[i]
}

// List tokenizes the arguments positionally: quoted strings lose their
// quotes, bare numbers and words stay as written, and {{ name }} references
// resolve against the variables, falling back to the raw token when the
// variable is unknown.
func (a *Args) List() []string {
	if strings.TrimSpace(a.raw) == "" {
		return nil
	}
	tokens := splitTop(a.raw, ',')
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, a.resolveToken(tok))
	}
	return out
}

// Assoc tokenizes the arguments as an associative literal: {k: v, ...}.
// Keys and values follow the same quoting and variable rules as List.
func (a *Args) Assoc() map[string]string {
	s := strings.TrimSpace(a.raw)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range splitTop(s, ',') {
		k, v, found := cutTop(pair, ':')
		if !found {
			continue
		}
		out[a.resolveToken(k)] = a.resolveToken(v)
	}
	return out
}

// AssocFrom parses an inline associative literal outside of the call's own
// arguments, e.g. the inline table of table({'a': 'b'}).
func (a *Args) AssocFrom(literal string) map[string]string {
	inner := &Args{raw: literal, vars: a.vars}
	return inner.Assoc()
}

func (a *Args) resolveToken(tok string) string {
	s := strings.TrimSpace(tok)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') ||
			(s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	if strings.HasPrefix(s, "{{") && strings.HasSuffix(s, "}}") {
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "{{"), "}}"))
		if val, ok := a.vars[name]; ok {
			return val
		}
		return s
	}
	return s
}

// splitTop splits on sep at the top nesting level, honoring quotes and
// brace, bracket and parenthesis nesting.
func splitTop(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(' || c == '{' || c == '[':
			depth++
		case c == ')' || c == '}' || c == ']':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// cutTop cuts at the first top-level occurrence of sep.
func cutTop(s string, sep byte) (string, string, bool) {
	var (
		depth int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(' || c == '{' || c == '[':
			depth++
		case c == ')' || c == '}' || c == ']':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}
