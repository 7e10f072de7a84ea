// Package pattern scans mapping patterns for placeholders.
//
// A pattern mixes literal text with two placeholder forms: plain
// substitutions like {dcterms:title} and filter expressions like
// {{ value|trim|upper }}. The parser classifies every placeholder once and
// the result is carried as data through normalization and conversion, so the
// converter never re-derives the classification.
package pattern

import (
	"regexp"
	"strings"
)

// Result is the outcome of scanning one pattern string. It is ephemeral:
// recomputed whenever a pattern is analyzed, never stored across documents.
type Result struct {
	// Pattern is the original pattern text.
	Pattern string

	// Replace lists plain placeholders, braces included, in order of first
	// appearance. Nested placeholders inside filter expressions appear here
	// too: they must be substituted before the filter chain runs.
	Replace []string

	// Filters lists filter expressions, braces included.
	Filters []string

	// FiltersHasReplace flags, per filter expression, whether its interior
	// contains a nested plain placeholder.
	FiltersHasReplace []bool
}

// IsSimple reports whether the pattern contains no filter expressions.
func (r *Result) IsSimple() bool {
	return len(r.Filters) == 0
}

// HasFilters reports whether the pattern contains filter expressions.
func (r *Result) HasFilters() bool {
	return len(r.Filters) > 0
}

// HasPlaceholders reports whether any placeholder of either kind was found.
func (r *Result) HasPlaceholders() bool {
	return len(r.Replace) > 0 || len(r.Filters) > 0
}

var (
	// Double-brace expressions, non-greedy so adjacent expressions do not
	// merge.
	doubleBraceRegex = regexp.MustCompile(`\{\{.+?\}\}`)

	// Identifier-shaped single-brace placeholders. The interior must start
	// with a letter or underscore and may continue with unicode letters,
	// digits and _:./- so that prefixed terms (dcterms:title), dotted paths
	// (record.title) and slashed paths (fields/0) all qualify. Interiors
	// with spaces ({ value }) or JSON-literal shapes ({'k': 'v'}) never
	// match, which keeps inline table literals in filter arguments intact.
	singleBraceRegex = regexp.MustCompile(`\{[\p{L}_][\p{L}\p{N}_:./-]*\}`)
)

// Parse scans a pattern and classifies every placeholder.
func Parse(p string) *Result {
	r := &Result{Pattern: p}
	if p == "" {
		return r
	}

	// Double-brace expressions first. An expression is a filter chain when
	// it contains a pipe or a nested plain placeholder; otherwise it is a
	// plain replacement written with double braces.
	masked := []byte(p)
	seenReplace := make(map[string]bool)
	seenFilter := make(map[string]bool)
	for _, loc := range doubleBraceRegex.FindAllStringIndex(p, -1) {
		expr := p[loc[0]:loc[1]]
		interior := strings.TrimSuffix(strings.TrimPrefix(expr, "{{"), "}}")
		if strings.Contains(interior, "|") || singleBraceRegex.MatchString(interior) {
			if !seenFilter[expr] {
				seenFilter[expr] = true
				r.Filters = append(r.Filters, expr)
				r.FiltersHasReplace = append(r.FiltersHasReplace, singleBraceRegex.MatchString(interior))
			}
			continue
		}
		if !seenReplace[expr] {
			seenReplace[expr] = true
			r.Replace = append(r.Replace, expr)
		}
		// Blank the span so {{x}} does not also match as the plain
		// placeholder {x} below. Filter spans stay visible: their nested
		// placeholders must be collected.
		for i := loc[0]; i < loc[1]; i++ {
			masked[i] = ' '
		}
	}

	for _, ph := range singleBraceRegex.FindAllString(string(masked), -1) {
		if !seenReplace[ph] {
			seenReplace[ph] = true
			r.Replace = append(r.Replace, ph)
		}
	}

	return r
}

// IsLiteral reports whether the pattern contains no placeholders at all.
func IsLiteral(p string) bool {
	return !Parse(p).HasPlaceholders()
}

// IsSingleReplacement reports whether the pattern is exactly one plain
// placeholder with nothing around it.
func IsSingleReplacement(p string) bool {
	r := Parse(p)
	return len(r.Filters) == 0 && len(r.Replace) == 1 && r.Replace[0] == p
}

// ExtractPath returns the bare path of a placeholder of either form,
// stripping braces and any filter suffix.
func ExtractPath(placeholder string) string {
	s := strings.TrimSpace(placeholder)
	if strings.HasPrefix(s, "{{") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "{{"), "}}")
	} else {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	}
	s = strings.TrimSpace(s)
	segments := SplitChain(s)
	if len(segments) == 0 {
		return ""
	}
	return strings.TrimSpace(segments[0])
}

// ExtractFilters returns the ordered filter names of a filter expression,
// ignoring arguments. The first chain segment is the source path, not a
// filter.
func ExtractFilters(expr string) []string {
	s := strings.TrimSpace(expr)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "{{"), "}}")
	segments := SplitChain(strings.TrimSpace(s))
	if len(segments) < 2 {
		return nil
	}
	names := make([]string, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		name := strings.TrimSpace(seg)
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = strings.TrimSpace(name[:i])
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// BuildPattern concatenates prepend, main and append, skipping empty parts.
func BuildPattern(prepend, main, append_ string) string {
	var b strings.Builder
	for _, part := range []string{prepend, main, append_} {
		b.WriteString(part)
	}
	return b.String()
}

// SplitChain splits a filter chain on pipes, honoring quotes and brace or
// parenthesis nesting so that arguments like join('|') or table({'a':'b'})
// survive intact.
func SplitChain(s string) []string {
	var (
		segments []string
		depth    int
		quote    rune
		start    int
	)
	for i, c := range s {
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
		case c == '|' && depth == 0:
			segments = append(segments, s[start:i])
			start = i + 1
		}
	}
	segments = append(segments, s[start:])
	return segments
}
