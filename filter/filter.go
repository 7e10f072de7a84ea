// Package filter evaluates the {{ ... }} filter expressions of mapping
// patterns: a source path or variable threaded through a pipe-chained
// sequence of named transforms.
//
// Filters are registered by name in a Registry; the full vocabulary is
// enumerable and individually testable. An unknown name is treated as a
// variable lookup, never an error: conversion degrades, it does not fail.
package filter

import (
	"strings"
	"sync"

	"github.com/heritage-libraries/mapflow/lookup"
	"github.com/heritage-libraries/mapflow/pattern"
)

// Value is the running value threaded through a filter chain. It is either
// a string or a list of strings: split produces a list that persists through
// subsequent steps until a joining filter or the final reduction collapses
// it.
type Value struct {
	str    string
	list   []string
	isList bool
}

// String wraps a scalar value.
func String(s string) Value {
	return Value{str: s}
}

// List wraps a list value.
func List(items []string) Value {
	return Value{list: items, isList: true}
}

// IsList reports whether the running value is currently a list.
func (v Value) IsList() bool {
	return v.isList
}

// Text reduces the value to a string: a list collapses to its first element.
func (v Value) Text() string {
	if v.isList {
		if len(v.list) == 0 {
			return ""
		}
		return v.list[0]
	}
	return v.str
}

// Items returns the value as a list; a scalar becomes a one-element list.
func (v Value) Items() []string {
	if v.isList {
		return v.list
	}
	if v.str == "" {
		return nil
	}
	return []string{v.str}
}

// Map applies fn to every item of a list value, or to the scalar.
func (v Value) Map(fn func(string) string) Value {
	if v.isList {
		out := make([]string, len(v.list))
		for i, s := range v.list {
			out[i] = fn(s)
		}
		return List(out)
	}
	return String(fn(v.str))
}

// Context carries the evaluation environment a filter may consult.
type Context struct {
	// Vars holds the variables visible to the expression: static params,
	// the current source value under "value", and resolved source paths.
	Vars map[string]string

	// Tables resolves a named code table from the mapping document.
	Tables func(name string) (map[string]string, bool)

	// Translator localizes strings for the translate filter; may be nil.
	Translator lookup.Translator
}

// Func is one filter: a pure transform of the running value.
type Func func(ctx *Context, v Value, args *Args) Value

// Registry manages named filters.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]Func
}

// NewRegistry creates a registry with the built-in vocabulary registered.
func NewRegistry() *Registry {
	r := &Registry{filters: make(map[string]Func)}
	r.registerDefaults()
	return r
}

// Register adds a filter to the registry.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = fn
}

// Get retrieves a filter by name. Names are case-sensitive.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.filters[name]
	return fn, ok
}

// Names returns all registered filter names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	return names
}

func (r *Registry) registerDefaults() {
	r.Register("abs", filterAbs)
	r.Register("basename", filterBasename)
	r.Register("capitalize", filterCapitalize)
	r.Register("date", filterDate)
	r.Register("e", filterEscape)
	r.Register("escape", filterEscape)
	r.Register("first", filterFirst)
	r.Register("format", filterFormat)
	r.Register("implode", filterImplode)
	r.Register("join", filterImplode)
	r.Register("implodev", filterImplodeV)
	r.Register("last", filterLast)
	r.Register("length", filterLength)
	r.Register("lower", filterLower)
	r.Register("replace", filterReplace)
	r.Register("slice", filterSlice)
	r.Register("split", filterSplit)
	r.Register("striptags", filterStripTags)
	r.Register("table", filterTable)
	r.Register("title", filterTitle)
	r.Register("translate", filterTranslate)
	r.Register("trim", filterTrim)
	r.Register("upper", filterUpper)
	r.Register("url_encode", filterURLEncode)
	r.Register("dateIso", filterDateIso)
	r.Register("dateRevert", filterDateRevert)
	r.Register("dateSql", filterDateSQL)
	r.Register("isbdName", filterIsbdName)
	r.Register("isbdNameColl", filterIsbdNameColl)
	r.Register("isbdMark", filterIsbdMark)
	r.Register("unimarcIndex", filterUnimarcIndex)
	r.Register("unimarcCoordinates", filterUnimarcCoordinates)
	r.Register("unimarcCoordinatesHexa", filterUnimarcCoordinatesHexa)
	r.Register("unimarcTimeHexa", filterUnimarcTimeHexa)
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the shared registry with the built-in vocabulary.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Evaluator renders patterns: it substitutes plain placeholders and runs
// filter expressions against an environment of variables and named tables.
type Evaluator struct {
	registry   *Registry
	tables     map[string]map[string]string
	translator lookup.Translator
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRegistry sets a custom filter registry.
func WithRegistry(r *Registry) Option {
	return func(e *Evaluator) { e.registry = r }
}

// WithTables provides the mapping document's named code tables.
func WithTables(tables map[string]map[string]string) Option {
	return func(e *Evaluator) { e.tables = tables }
}

// WithTranslator provides a localization collaborator.
func WithTranslator(t lookup.Translator) Option {
	return func(e *Evaluator) { e.translator = t }
}

// NewEvaluator creates an evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{registry: defaultRegistry}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render parses nothing: it takes an already-parsed pattern and an
// environment and produces the rendered string. Every placeholder path in
// the parse result is resolved against vars; missing variables substitute
// as empty strings.
func (e *Evaluator) Render(pr *pattern.Result, vars map[string]string) string {
	replacements := make(map[string]string, len(pr.Replace))
	for _, ph := range pr.Replace {
		replacements[ph] = vars[pattern.ExtractPath(ph)]
	}
	return e.Apply(pr.Pattern, vars, pr.Filters, pr.FiltersHasReplace, replacements)
}

// Apply evaluates every filter expression against vars, then substitutes
// both kinds of placeholders into the pattern.
//
// Filter results are spliced in by literal substitution, never re-parsed: a
// result that happens to look like a placeholder (e.g. "{unresolved}" coming
// out of a table) stays inert. Sentinels keep the plain-replacement pass
// from touching filter output.
func (e *Evaluator) Apply(p string, vars map[string]string, exprs []string, hasReplace []bool, replacements map[string]string) string {
	ctx := &Context{
		Vars:       vars,
		Tables:     e.namedTable,
		Translator: e.translator,
	}

	out := p
	results := make([]string, len(exprs))
	for i, expr := range exprs {
		nested := i < len(hasReplace) && hasReplace[i]
		results[i] = e.evalExpression(ctx, expr, nested, replacements)
		out = strings.ReplaceAll(out, expr, sentinel(i))
	}

	for ph, val := range replacements {
		out = strings.ReplaceAll(out, ph, val)
	}

	for i, res := range results {
		out = strings.ReplaceAll(out, sentinel(i), res)
	}
	return out
}

// evalExpression runs one {{ ... }} expression and returns its final string.
func (e *Evaluator) evalExpression(ctx *Context, expr string, nested bool, replacements map[string]string) string {
	interior := strings.TrimSpace(expr)
	interior = strings.TrimSuffix(strings.TrimPrefix(interior, "{{"), "}}")
	interior = strings.TrimSpace(interior)

	// Nested plain placeholders resolve before the chain runs.
	if nested {
		for ph, val := range replacements {
			interior = strings.ReplaceAll(interior, ph, val)
		}
	}

	v := String("")
	for _, segment := range pattern.SplitChain(interior) {
		name, raw := splitCall(strings.TrimSpace(segment))
		if name == "" {
			continue
		}
		if fn, ok := e.registry.Get(name); ok {
			v = fn(ctx, v, newArgs(raw, ctx.Vars))
			continue
		}
		// Unknown names resolve as variables; anything else leaves the
		// running value untouched.
		if val, ok := ctx.Vars[name]; ok {
			v = String(val)
		}
	}
	return v.Text()
}

// splitCall separates "name(args)" into name and raw argument text.
func splitCall(segment string) (string, string) {
	i := strings.IndexByte(segment, '(')
	if i < 0 {
		return segment, ""
	}
	name := strings.TrimSpace(segment[:i])
	raw := segment[i+1:]
	raw = strings.TrimSuffix(strings.TrimSpace(raw), ")")
	return name, raw
}

func (e *Evaluator) namedTable(name string) (map[string]string, bool) {
	if e.tables != nil {
		if t, ok := e.tables[name]; ok {
			return t, true
		}
	}
	return builtinTable(name)
}

func sentinel(i int) string {
	return "\x00f" + string(rune('0'+i%10)) + string(rune('A'+i/10)) + "\x00"
}
