package mapping

import (
	"github.com/heritage-libraries/mapflow/pattern"
)

// Param is one [params] entry. A param whose pattern only references static
// variables is evaluated once at parse time; the others stay as patterns
// for per-record evaluation.
type Param struct {
	// Name is the variable name the param binds.
	Name string

	// Pattern is the raw right-hand side as written.
	Pattern string

	// Parsed is the pattern's parse result.
	Parsed *pattern.Result

	// Value is the evaluated result when Static is true.
	Value string

	// Static marks params resolved at parse time.
	Static bool
}

// Document is a named, parsed mapping: info, params, ordered map entries
// and code tables. A document never mutates after parsing; callers needing
// a variant parse under a new name.
type Document struct {
	// Name keys the document in the parse cache.
	Name string

	// Info holds the flat [info] section: label, querier, mapper (base
	// mapping reference), example and anything else the author wrote.
	Info map[string]string

	// Params holds the [params] entries in declaration order.
	Params []Param

	// Maps holds the canonical rules in declaration order.
	Maps []Entry

	// Tables maps table-name to code-to-label pairs.
	Tables map[string]map[string]string

	// HasError flags a document that failed to parse. Such documents are
	// empty and convert to nothing; the failure was logged at parse time.
	HasError bool
}

func newDocument(name string) *Document {
	return &Document{
		Name:   name,
		Info:   make(map[string]string),
		Tables: make(map[string]map[string]string),
	}
}

func errorDocument(name string) *Document {
	d := newDocument(name)
	d.HasError = true
	return d
}

// Label returns the display label, falling back to the document name.
func (d *Document) Label() string {
	if l := d.Info["label"]; l != "" {
		return l
	}
	return d.Name
}

// Querier returns the document-level extraction dialect declared in
// info.querier, defaulting to index lookup.
func (d *Document) Querier() Querier {
	if q, ok := ParseQuerier(d.Info["querier"]); ok {
		return q
	}
	return QuerierIndex
}

// Param returns a param by name.
func (d *Document) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// StaticVars returns the parse-time values of all static params.
func (d *Document) StaticVars() map[string]string {
	vars := make(map[string]string)
	for _, p := range d.Params {
		if p.Static {
			vars[p.Name] = p.Value
		}
	}
	return vars
}

// DynamicParams returns the params left for per-record evaluation, in
// declaration order.
func (d *Document) DynamicParams() []Param {
	var out []Param
	for _, p := range d.Params {
		if !p.Static {
			out = append(out, p)
		}
	}
	return out
}
