// Package automap resolves free-form column headings into destination
// field specs, so spreadsheet-style sources can be mapped without a
// hand-written mapping document.
package automap

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/heritage-libraries/mapflow/lookup"
	"github.com/heritage-libraries/mapflow/mapping"
)

// Options tunes a resolution run.
type Options struct {
	// Overrides maps caller aliases to canonical terms. Its values also act
	// as keys for themselves, and translated variants of the keys match when
	// a translator is configured.
	Overrides map[string]string

	// CheckNamesAlone additionally matches bare local names without their
	// vocabulary prefix ("title" for "dcterms:title"). Off by default since
	// local names collide across vocabularies.
	CheckNamesAlone bool

	// SkipValidation parses specs structurally without checking that the
	// field exists. No spec resolves to nil in this mode.
	SkipValidation bool
}

// Resolver matches heading text against the lookup service's vocabulary.
type Resolver struct {
	lookup     lookup.Service
	translator lookup.Translator
	normalizer *mapping.Normalizer

	once        sync.Once
	terms       map[string]string
	displayCS   map[string]string
	displayCI   map[string]string
	localNames  map[string]string
	localLabels map[string]string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTranslator adds translated override variants.
func WithTranslator(t lookup.Translator) ResolverOption {
	return func(r *Resolver) { r.translator = t }
}

// NewResolver creates a resolver over a lookup service.
func NewResolver(svc lookup.Service, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lookup:     svc,
		normalizer: mapping.NewNormalizer(svc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Automap resolves every spec, keyed by position. A spec may name several
// targets separated by unescaped "|" (unless it carries a "~" pattern, in
// which case pipes belong to the pattern); each target resolves
// independently, unresolvable ones to nil.
func (r *Resolver) Automap(specs []string, opts *Options) map[int][]*mapping.To {
	if opts == nil {
		opts = &Options{}
	}
	out := make(map[int][]*mapping.To, len(specs))
	for i, spec := range specs {
		for _, target := range splitTargets(spec) {
			out[i] = append(out[i], r.resolve(target, opts))
		}
	}
	return out
}

// Resolve resolves one heading to a destination spec, nil when unknown.
func (r *Resolver) Resolve(spec string, opts *Options) *mapping.To {
	if opts == nil {
		opts = &Options{}
	}
	return r.resolve(spec, opts)
}

func (r *Resolver) resolve(spec string, opts *Options) *mapping.To {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}
	warnLegacySyntax(spec)

	field, qualifiers := splitQualifiers(spec)
	if opts.SkipValidation {
		t := r.normalizer.ParseFieldSpec(spec)
		return &t
	}

	term, ok := r.match(field, opts)
	if !ok {
		return nil
	}
	t := r.normalizer.ParseFieldSpec(strings.TrimSpace(term + " " + qualifiers))
	return &t
}

// match finds the canonical term for a heading, trying in priority order:
// overrides, canonical terms, "Vocabulary:Label" display names (exact then
// case-insensitive), bare local names when enabled, bare labels.
func (r *Resolver) match(field string, opts *Options) (string, bool) {
	if term, ok := r.matchOverride(field, opts.Overrides); ok {
		return term, true
	}

	r.index()

	if term, ok := r.terms[field]; ok {
		return term, true
	}
	if term, ok := r.displayCS[field]; ok {
		return term, true
	}
	if term, ok := r.displayCI[strings.ToLower(field)]; ok {
		return term, true
	}
	if opts.CheckNamesAlone {
		if term, ok := r.localNames[strings.ToLower(field)]; ok {
			return term, true
		}
	}
	if term, ok := r.localLabels[strings.ToLower(field)]; ok {
		return term, true
	}
	return "", false
}

func (r *Resolver) matchOverride(field string, overrides map[string]string) (string, bool) {
	if len(overrides) == 0 {
		return "", false
	}
	if term, ok := overrides[field]; ok {
		return term, true
	}
	for key, term := range overrides {
		// Values double as keys for themselves.
		if field == term {
			return term, true
		}
		if r.translator != nil && field == r.translator.Translate(key) {
			return term, true
		}
	}
	return "", false
}

// index lazily builds the match tables from the lookup service's property
// enumeration.
func (r *Resolver) index() {
	r.once.Do(func() {
		r.terms = make(map[string]string)
		r.displayCS = make(map[string]string)
		r.displayCI = make(map[string]string)
		r.localNames = make(map[string]string)
		r.localLabels = make(map[string]string)
		if r.lookup == nil {
			return
		}
		for _, p := range r.lookup.Properties() {
			r.terms[p.Term] = p.Term
			if p.VocabularyLabel != "" && p.Label != "" {
				display := p.VocabularyLabel + ":" + p.Label
				r.displayCS[display] = p.Term
				r.displayCI[strings.ToLower(display)] = p.Term
			}
			if p.LocalName != "" {
				keepFirst(r.localNames, strings.ToLower(p.LocalName), p.Term)
			}
			if p.Label != "" {
				keepFirst(r.localLabels, strings.ToLower(p.Label), p.Term)
			}
		}
	})
}

// keepFirst preserves the first term claiming an ambiguous key, so
// enumeration order decides collisions deterministically.
func keepFirst(m map[string]string, key, term string) {
	if _, ok := m[key]; !ok {
		m[key] = term
	}
}

// splitTargets splits a multi-target spec on unescaped pipes. A spec with a
// "~" pattern is always a single target: its pipes are filter chains.
func splitTargets(spec string) []string {
	if strings.ContainsRune(spec, '~') || !strings.ContainsRune(spec, '|') {
		return []string{spec}
	}
	var (
		targets []string
		current strings.Builder
		escaped bool
	)
	for _, c := range spec {
		switch {
		case escaped:
			current.WriteRune(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '|':
			targets = append(targets, current.String())
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}
	targets = append(targets, current.String())
	return targets
}

// splitQualifiers separates the field portion from its ^^/@/§ qualifiers.
// The field portion may contain spaces (display labels do), so the split
// point is the first qualifier token.
func splitQualifiers(spec string) (string, string) {
	for _, marker := range []string{" ^^", " @", " §", " ~"} {
		if i := strings.Index(spec, marker); i >= 0 {
			return strings.TrimSpace(spec[:i]), strings.TrimSpace(spec[i:])
		}
	}
	return strings.TrimSpace(spec), ""
}

// warnLegacySyntax flags deprecated qualifier spellings without rejecting
// them: a space between the marker and its value, semicolon-joined
// datatypes, unquoted custom-vocab labels.
func warnLegacySyntax(spec string) {
	for _, marker := range []string{"^^ ", "@ ", "§ "} {
		if strings.Contains(spec, marker) {
			slog.Warn("legacy qualifier syntax: space after marker", "spec", spec)
			return
		}
	}
	if i := strings.Index(spec, "^^"); i >= 0 && strings.ContainsRune(spec[i:], ';') {
		slog.Warn("legacy qualifier syntax: semicolon-joined datatypes", "spec", spec)
		return
	}
	if i := strings.Index(spec, "customvocab:"); i >= 0 {
		rest := spec[i+len("customvocab:"):]
		if rest != "" && rest[0] != '"' && rest[0] != '\'' && strings.ContainsRune(rest, ' ') {
			slog.Warn("legacy qualifier syntax: unquoted custom-vocab label", "spec", spec)
		}
	}
}
