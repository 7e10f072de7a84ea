package convert

import (
	"log/slog"
	"strings"

	"github.com/heritage-libraries/mapflow/filter"
	"github.com/heritage-libraries/mapflow/lookup"
	"github.com/heritage-libraries/mapflow/mapping"
	"github.com/heritage-libraries/mapflow/pattern"
	"github.com/heritage-libraries/mapflow/value"
)

// Converter runs one mapping document against source records. It borrows
// the document for the duration of each call and owns the records it
// builds; the document itself is never mutated.
type Converter struct {
	doc  *mapping.Document
	eval *filter.Evaluator
}

// Option configures a Converter.
type Option func(*options)

type options struct {
	registry   *filter.Registry
	translator lookup.Translator
}

// WithRegistry sets a custom filter registry.
func WithRegistry(r *filter.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithTranslator provides the localization collaborator for the translate
// filter.
func WithTranslator(t lookup.Translator) Option {
	return func(o *options) { o.translator = t }
}

// New creates a converter over a parsed mapping document.
func New(doc *mapping.Document, opts ...Option) *Converter {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	evalOpts := []filter.Option{filter.WithTables(doc.Tables)}
	if o.registry != nil {
		evalOpts = append(evalOpts, filter.WithRegistry(o.registry))
	}
	if o.translator != nil {
		evalOpts = append(evalOpts, filter.WithTranslator(o.translator))
	}
	return &Converter{doc: doc, eval: filter.NewEvaluator(evalOpts...)}
}

// Convert runs every map entry, in declaration order, against one source
// record. Extraction misses and transformation no-ops produce no value;
// they are never errors. Entries targeting the same field append.
func (c *Converter) Convert(src Source) *Record {
	rec := NewRecord()
	if c.doc == nil || c.doc.HasError {
		return rec
	}
	static := c.doc.StaticVars()

	for _, e := range c.doc.Maps {
		if e.IsInert() {
			continue
		}

		// A fixed value wins over everything, extraction included.
		if e.Mod.Raw != "" {
			c.emit(rec, e, e.Mod.Raw)
			continue
		}

		if e.From.IsNone() {
			if e.Mod.Type() == mapping.ModPattern {
				if out, ok := c.render(e, "", src, static, false); ok {
					c.emit(rec, e, out)
				}
			}
			continue
		}

		for _, raw := range src.Values(e.From) {
			if e.Mod.Type() != mapping.ModPattern {
				if raw != "" {
					c.emit(rec, e, raw)
				}
				continue
			}
			if out, ok := c.render(e, raw, src, static, true); ok {
				c.emit(rec, e, out)
			}
		}
	}
	return rec
}

// ConvertStruct converts a decoded nested structure.
func (c *Converter) ConvertStruct(data map[string]any) *Record {
	return c.Convert(NewStructSource(data))
}

// ConvertXML converts an XML document. Malformed XML yields an empty
// record; the failure is logged, not returned.
func (c *Converter) ConvertXML(content string) *Record {
	src, err := NewXMLSource(content)
	if err != nil {
		slog.Error("unconvertible XML source", "mapping", c.doc.Name, "error", err)
		return NewRecord()
	}
	return c.Convert(src)
}

// render evaluates an entry's pattern against one extracted value and
// decides whether the result counts as a genuine transformation. Prepend
// and append apply only on genuine substitution.
func (c *Converter) render(e mapping.Entry, raw string, src Source, static map[string]string, hasSource bool) (string, bool) {
	pr := e.Mod.Parsed
	if pr == nil {
		pr = pattern.Parse(e.Mod.Pattern)
	}

	vars := c.buildVars(pr, raw, src, static)
	rendered := c.eval.Render(pr, vars)
	if !hasReplacement(pr, raw, rendered, hasSource) {
		return "", false
	}

	out := strings.TrimSpace(pattern.BuildPattern(e.Mod.Prepend, rendered, e.Mod.Append))
	if out == "" {
		return "", false
	}
	return out, true
}

// buildVars assembles the evaluation environment for one value: static
// params, the current value, source-resolved placeholder paths, then the
// dynamic params rendered against all of the above.
func (c *Converter) buildVars(pr *pattern.Result, raw string, src Source, static map[string]string) map[string]string {
	vars := make(map[string]string, len(static)+4)
	for k, v := range static {
		vars[k] = v
	}
	vars["value"] = raw

	dynamic := c.doc.DynamicParams()
	for _, p := range dynamic {
		c.resolvePaths(p.Parsed, src, vars)
	}
	for _, p := range dynamic {
		vars[p.Name] = c.eval.Render(p.Parsed, vars)
	}

	c.resolvePaths(pr, src, vars)
	return vars
}

// resolvePaths pulls every placeholder path of a pattern out of the source,
// unless a param or earlier resolution already bound it.
func (c *Converter) resolvePaths(pr *pattern.Result, src Source, vars map[string]string) {
	if pr == nil || src == nil {
		return
	}
	for _, ph := range pr.Replace {
		path := pattern.ExtractPath(ph)
		if _, ok := vars[path]; ok {
			continue
		}
		if v, ok := src.Value(path); ok {
			vars[path] = v
		}
	}
	for _, expr := range pr.Filters {
		path := pattern.ExtractPath(expr)
		if path == "" {
			continue
		}
		if _, ok := vars[path]; ok {
			continue
		}
		if v, ok := src.Value(path); ok {
			vars[path] = v
		}
	}
}

// hasReplacement is the no-op policy: a rendered pattern counts only when a
// real substitution happened. Stripping every placeholder from the pattern
// gives the residue; a rendered result equal to the residue means nothing
// resolved. A pattern that is nothing but placeholders accepts any
// non-empty result.
func hasReplacement(pr *pattern.Result, raw, rendered string, hasSource bool) bool {
	if strings.TrimSpace(rendered) == "" {
		return false
	}
	residue := pr.Pattern
	for _, ph := range pr.Replace {
		residue = strings.ReplaceAll(residue, ph, "")
	}
	for _, expr := range pr.Filters {
		residue = strings.ReplaceAll(residue, expr, "")
	}
	if strings.TrimSpace(residue) == "" {
		return true
	}
	if hasSource && raw == "" {
		return false
	}
	return strings.TrimSpace(rendered) != strings.TrimSpace(residue)
}

// emit types one produced string and appends it to the record. The first
// declared datatype wins; with none declared, URL-shaped values become
// uri identifiers and everything else a literal.
func (c *Converter) emit(rec *Record, e mapping.Entry, out string) {
	v := Value{Language: e.To.Language, IsPublic: e.To.IsPublic}
	var dt string
	if len(e.To.Datatypes) > 0 {
		dt = e.To.Datatypes[0]
	}
	switch {
	case dt == "uri" || strings.HasPrefix(dt, "valuesuggest"):
		v.Type = dt
		v.ID = out
	case dt != "":
		v.Type = dt
		v.Value = out
	case value.IsURL(out):
		v.Type = "uri"
		v.ID = out
	default:
		v.Type = "literal"
		v.Value = out
	}
	rec.Add(e.To.Field, v)
}
