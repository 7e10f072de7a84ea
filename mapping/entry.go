// Package mapping parses mapping documents — INI dialect, XML dialect or
// structured YAML/JSON — into one canonical in-memory representation: an
// ordered list of source-to-destination rules plus info, params and code
// tables.
package mapping

import (
	"strconv"
	"strings"

	"github.com/heritage-libraries/mapflow/pattern"
)

// Querier is the extraction dialect used to pull values out of source data.
type Querier string

// The closed set of queriers. The zero value is not valid; entries without
// a source use QuerierNone explicitly.
const (
	QuerierXPath    Querier = "xpath"
	QuerierJSDot    Querier = "jsdot"
	QuerierJSONPath Querier = "jsonpath"
	QuerierJMESPath Querier = "jmespath"
	QuerierIndex    Querier = "index"
	QuerierNone     Querier = "none"
)

// ParseQuerier validates a querier identifier.
func ParseQuerier(s string) (Querier, bool) {
	switch q := Querier(strings.ToLower(strings.TrimSpace(s))); q {
	case QuerierXPath, QuerierJSDot, QuerierJSONPath, QuerierJMESPath, QuerierIndex, QuerierNone:
		return q, true
	}
	return QuerierNone, false
}

// From locates the source value(s) of one rule.
type From struct {
	// Type selects the extraction dialect. QuerierNone means no source
	// extraction at all: the entry is a default or fixed-value rule.
	Type Querier

	// Path is the dialect-specific location.
	Path string

	// Index is set when the path is a plain integer position.
	Index *int
}

// IsNone reports whether the rule extracts nothing from the source.
func (f From) IsNone() bool {
	return f.Type == QuerierNone || f.Type == "" || (f.Path == "" && f.Index == nil)
}

// To qualifies the destination field of one rule.
type To struct {
	// Field is the destination property term, e.g. "dcterms:title".
	// An empty field makes the whole entry inert.
	Field string

	// PropertyID is the numeric id of Field when the lookup service
	// recognizes it.
	PropertyID *int

	// Datatypes is the ordered datatype list; empty means infer from the
	// value shape.
	Datatypes []string

	// Language is an optional language tag.
	Language string

	// IsPublic is a tri-state visibility: nil inherits, otherwise explicit.
	IsPublic *bool
}

// FieldSpec re-serializes the destination in the INI field-spec grammar.
func (t To) FieldSpec() string {
	var b strings.Builder
	b.WriteString(t.Field)
	for _, dt := range t.Datatypes {
		b.WriteString(" ^^")
		if strings.ContainsAny(dt, " \t") {
			// Quoted datatype labels survive re-parsing.
			prefix, label, found := strings.Cut(dt, ":")
			if found {
				b.WriteString(prefix + ":\"" + label + "\"")
			} else {
				b.WriteString("\"" + dt + "\"")
			}
		} else {
			b.WriteString(dt)
		}
	}
	if t.Language != "" {
		b.WriteString(" @" + t.Language)
	}
	if t.IsPublic != nil {
		if *t.IsPublic {
			b.WriteString(" §public")
		} else {
			b.WriteString(" §private")
		}
	}
	return b.String()
}

// ModType tells how a rule produces its value.
type ModType string

const (
	// ModNone emits the extracted value unchanged.
	ModNone ModType = "none"

	// ModRaw emits a fixed string, skipping extraction entirely.
	ModRaw ModType = "raw"

	// ModPattern renders a pattern against the extracted value.
	ModPattern ModType = "pattern"
)

// Mod transforms the extracted value into the emitted value.
type Mod struct {
	// Raw is a fixed value. It always wins over Pattern.
	Raw string

	// Pattern is the substitution pattern.
	Pattern string

	// Prepend and Append wrap the rendered pattern, applied only when the
	// pattern produced a genuine substitution.
	Prepend string
	Append  string

	// Parsed is the pattern's parse result, computed once at
	// normalization.
	Parsed *pattern.Result
}

// Type derives the modifier kind. Raw always wins over Pattern.
func (m Mod) Type() ModType {
	if m.Raw != "" {
		return ModRaw
	}
	if m.Pattern != "" {
		return ModPattern
	}
	return ModNone
}

// Entry is one canonical source-to-destination rule.
type Entry struct {
	From From
	To   To
	Mod  Mod
}

// IsInert reports whether the converter should skip the entry entirely.
func (e Entry) IsInert() bool {
	return e.To.Field == ""
}

// parseIndex recognizes plain integer paths for positional lookup.
func parseIndex(path string) *int {
	if i, err := strconv.Atoi(strings.TrimSpace(path)); err == nil {
		return &i
	}
	return nil
}
