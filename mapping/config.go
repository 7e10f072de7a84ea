package mapping

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/heritage-libraries/mapflow/filter"
	"github.com/heritage-libraries/mapflow/lookup"
	"github.com/heritage-libraries/mapflow/pattern"
)

// defaultCacheSize bounds the parsed-document cache.
const defaultCacheSize = 128

// Config parses and caches mapping documents by name.
//
// Parsing is idempotent per name: a second request for the same name
// returns the cached document. Documents are immutable once published to
// the cache, so concurrent readers are safe; a duplicate concurrent parse
// is wasted work, not a hazard.
type Config struct {
	mu         sync.Mutex
	cache      *lru.Cache[string, *Document]
	normalizer *Normalizer
	resolver   *Resolver
	staticVars map[string]string
}

// ConfigOption configures a Config.
type ConfigOption func(*Config)

// WithResolver sets the reference resolver.
func WithResolver(r *Resolver) ConfigOption {
	return func(c *Config) { c.resolver = r }
}

// WithStaticVars seeds the variables available to parse-time param
// evaluation, e.g. the source URL.
func WithStaticVars(vars map[string]string) ConfigOption {
	return func(c *Config) { c.staticVars = vars }
}

// NewConfig creates a mapping config backed by the given lookup service.
func NewConfig(svc lookup.Service, opts ...ConfigOption) *Config {
	cache, _ := lru.New[string, *Document](defaultCacheSize)
	c := &Config{
		cache:      cache,
		normalizer: NewNormalizer(svc),
		resolver:   NewResolver(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Normalizer returns the config's entry normalizer.
func (c *Config) Normalizer() *Normalizer {
	return c.normalizer
}

// Resolver returns the config's reference resolver.
func (c *Config) Resolver() *Resolver {
	return c.resolver
}

// Document loads a mapping by reference: a cached name, a stored mapping,
// a bundled or user file, or inline content. It never fails; an unresolved
// or unparseable reference yields an empty document with HasError set.
func (c *Config) Document(ref string) *Document {
	if doc, ok := c.cache.Get(ref); ok {
		return doc
	}
	if looksLikeContent(ref) {
		return c.Parse("", ref)
	}
	content, err := c.resolver.Resolve(ref, "")
	if err != nil {
		slog.Error("unresolved mapping reference", "reference", ref, "error", err)
		doc := errorDocument(ref)
		c.cache.Add(ref, doc)
		return doc
	}
	return c.parseNamed(ref, content, c.resolver.ContextDir(ref))
}

// Parse parses mapping content under a name. An empty name derives an
// implicit one from a content hash, so identical anonymous content parses
// once. The second call with the same name returns the cached document
// regardless of content: named documents never mutate.
func (c *Config) Parse(name, content string) *Document {
	if name == "" {
		sum := sha256.Sum256([]byte(content))
		name = "sha256:" + hex.EncodeToString(sum[:8])
	}
	return c.parseNamed(name, content, "")
}

// ParseStructured parses an already-decoded associative mapping.
func (c *Config) ParseStructured(name string, data map[string]any) *Document {
	if name == "" {
		name = "structured"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if doc, ok := c.cache.Get(name); ok {
		return doc
	}
	doc := parseStructuredDocument(name, data, c.normalizer)
	c.finish(doc, "")
	c.cache.Add(name, doc)
	return doc
}

func (c *Config) parseNamed(name, content, contextDir string) *Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	if doc, ok := c.cache.Get(name); ok {
		return doc
	}
	doc := c.parseContent(name, content)
	c.finish(doc, contextDir)
	c.cache.Add(name, doc)
	return doc
}

// parseContent dispatches on the content format: XML when the first
// non-blank character is "<", structured when it is "{", INI otherwise.
func (c *Config) parseContent(name, content string) *Document {
	trimmed := strings.TrimSpace(content)
	switch {
	case trimmed == "":
		slog.Error("empty mapping content", "mapping", name)
		return errorDocument(name)
	case strings.HasPrefix(trimmed, "<"):
		return parseXMLDocument(name, content, c.normalizer)
	case strings.HasPrefix(trimmed, "{"):
		return parseStructuredText(name, content, c.normalizer)
	default:
		return parseINIDocument(name, content, c.normalizer)
	}
}

// finish applies base-mapping inheritance and parse-time param work before
// a document is published.
func (c *Config) finish(doc *Document, contextDir string) {
	c.mergeBase(doc, contextDir, map[string]bool{doc.Name: true})
	c.verifyParamOrder(doc)
	c.evaluateStaticParams(doc, c.staticVars)
}

// mergeBase merges a base mapping referenced by info.mapper: the base's
// params, maps and tables come before the child's own. A reference back
// into the inheritance chain, itself included, is a no-op, not a
// recursion.
func (c *Config) mergeBase(doc *Document, contextDir string, visited map[string]bool) {
	ref := strings.TrimSpace(doc.Info["mapper"])
	if ref == "" {
		return
	}
	if visited[ref] {
		slog.Warn("base mapping inheritance cycle", "mapping", doc.Name, "reference", ref)
		return
	}
	visited[ref] = true
	content, err := c.resolver.Resolve(ref, contextDir)
	if err != nil {
		slog.Error("unresolved base mapping", "mapping", doc.Name, "reference", ref, "error", err)
		return
	}
	base := c.parseContent(ref, content)
	if base.HasError {
		slog.Error("base mapping failed to parse", "mapping", doc.Name, "reference", ref)
		return
	}
	c.mergeBase(base, c.resolver.ContextDir(ref), visited)

	params := make([]Param, 0, len(base.Params)+len(doc.Params))
	seen := make(map[string]int)
	for _, p := range base.Params {
		seen[p.Name] = len(params)
		params = append(params, p)
	}
	for _, p := range doc.Params {
		if i, ok := seen[p.Name]; ok {
			params[i] = p
			continue
		}
		params = append(params, p)
	}
	doc.Params = params

	doc.Maps = append(append([]Entry{}, base.Maps...), doc.Maps...)

	for name, table := range base.Tables {
		if _, ok := doc.Tables[name]; !ok {
			doc.Tables[name] = table
			continue
		}
		for code, label := range table {
			if _, ok := doc.Tables[name][code]; !ok {
				doc.Tables[name][code] = label
			}
		}
	}
}

// verifyParamOrder flags params that reference another param declared
// later. The mapping still parses; forward references simply stay dynamic.
func (c *Config) verifyParamOrder(doc *Document) {
	defined := make(map[string]bool, len(doc.Params))
	names := make(map[string]bool, len(doc.Params))
	for _, p := range doc.Params {
		names[p.Name] = true
	}
	for _, p := range doc.Params {
		for _, path := range referencedPaths(p.Parsed) {
			if names[path] && !defined[path] && path != p.Name {
				slog.Warn("param references a later-declared param",
					"mapping", doc.Name, "param", p.Name, "reference", path)
			}
		}
		defined[p.Name] = true
	}
}

// evaluateStaticParams resolves, in declaration order, every param whose
// pattern only references seed variables or already-resolved params.
// Params referencing per-record variables stay dynamic.
func (c *Config) evaluateStaticParams(doc *Document, seed map[string]string) {
	eval := filter.NewEvaluator(filter.WithTables(doc.Tables))
	vars := make(map[string]string, len(seed))
	for k, v := range seed {
		vars[k] = v
	}
	for i := range doc.Params {
		p := &doc.Params[i]
		if !p.Parsed.HasPlaceholders() {
			p.Value = p.Pattern
			p.Static = true
			vars[p.Name] = p.Value
			continue
		}
		static := true
		for _, path := range referencedPaths(p.Parsed) {
			if _, ok := vars[path]; !ok {
				static = false
				break
			}
		}
		if !static {
			continue
		}
		p.Value = eval.Render(p.Parsed, vars)
		p.Static = true
		vars[p.Name] = p.Value
	}
}

// referencedPaths lists every variable path a pattern references, from
// both plain placeholders and filter-expression sources.
func referencedPaths(pr *pattern.Result) []string {
	if pr == nil {
		return nil
	}
	var out []string
	for _, ph := range pr.Replace {
		out = append(out, pattern.ExtractPath(ph))
	}
	for _, expr := range pr.Filters {
		if p := pattern.ExtractPath(expr); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// looksLikeContent distinguishes inline mapping content from a reference:
// references are single-line and carry no mapping syntax.
func looksLikeContent(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.ContainsAny(trimmed, "\n=<{") || strings.HasPrefix(trimmed, "[")
}
