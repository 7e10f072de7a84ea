package mapping

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"

	"github.com/heritage-libraries/mapflow/lookup"
	"github.com/heritage-libraries/mapflow/pattern"
	"github.com/heritage-libraries/mapflow/value"
)

// Input is the tagged union of raw map-entry shapes the normalizer accepts:
// a text line (INI line, XML fragment or bare field spec), a structured
// entry, or an XML element.
type Input struct {
	text       string
	structured map[string]any
	node       *xmlquery.Node
	kind       inputKind
}

type inputKind int

const (
	inputText inputKind = iota
	inputStructured
	inputXML
)

// InputText wraps a raw text entry.
func InputText(s string) Input {
	return Input{text: s, kind: inputText}
}

// InputStructured wraps a decoded associative entry.
func InputStructured(m map[string]any) Input {
	return Input{structured: m, kind: inputStructured}
}

// InputXML wraps a parsed <map> element.
func InputXML(n *xmlquery.Node) Input {
	return Input{node: n, kind: inputXML}
}

// Options tunes normalization.
type Options struct {
	// DefaultQuerier is the dialect of paths that do not carry their own,
	// normally the document-level info.querier.
	DefaultQuerier Querier
}

func (o *Options) querier() Querier {
	if o == nil || o.DefaultQuerier == "" {
		return QuerierIndex
	}
	return o.DefaultQuerier
}

// Normalizer converts raw map entries into canonical Entry triples,
// resolving field terms, datatypes and custom-vocabulary labels through the
// lookup service.
type Normalizer struct {
	lookup lookup.Service

	vocabOnce sync.Once
	vocabs    map[string]int
}

// NewNormalizer creates a normalizer. The lookup service may be nil, in
// which case every resolution degrades to "keep the identifier unresolved".
func NewNormalizer(svc lookup.Service) *Normalizer {
	return &Normalizer{lookup: svc}
}

// Normalize converts one raw entry. Normalization never fails: unparseable
// entries come back inert (empty destination field) and are skipped by the
// converter.
func (n *Normalizer) Normalize(in Input, opts *Options) Entry {
	switch in.kind {
	case inputStructured:
		return n.normalizeStructured(in.structured, opts)
	case inputXML:
		return n.normalizeXML(in.node, opts)
	default:
		return n.normalizeText(in.text, opts)
	}
}

// NormalizeAll converts a list of raw entries, keeping declaration order.
func (n *Normalizer) NormalizeAll(ins []Input, opts *Options) []Entry {
	out := make([]Entry, 0, len(ins))
	for _, in := range ins {
		out = append(out, n.Normalize(in, opts))
	}
	return out
}

func (n *Normalizer) normalizeText(s string, opts *Options) Entry {
	s = strings.TrimSpace(s)
	if s == "" {
		return Entry{}
	}
	if strings.HasPrefix(s, "<") {
		doc, err := xmlquery.Parse(strings.NewReader(s))
		if err != nil {
			slog.Debug("unparseable XML map fragment", "fragment", s, "error", err)
			return Entry{}
		}
		if el := xmlquery.FindOne(doc, "//map"); el != nil {
			return n.normalizeXML(el, opts)
		}
		return Entry{}
	}
	if strings.ContainsAny(s, "=~") {
		return n.normalizeLine(s, opts)
	}
	// A bare field spec: fixed destination, no source.
	return Entry{
		From: From{Type: QuerierNone},
		To:   n.ParseFieldSpec(s),
	}
}

// normalizeLine parses one INI-dialect line:
//
//	source = destination [^^datatype]* [@language] [§visibility] [~ pattern]
//
// The modifier separator is the first "~"; the assignment is the "=" before
// it when a "~" exists, else the last "=" of the line. A quoted destination
// is the raw-value shorthand: the line reads right-to-left, the left side
// being the destination field spec and the quoted text the fixed value.
func (n *Normalizer) normalizeLine(line string, opts *Options) Entry {
	// A lone "~" on the source side means "no source". Strip it so the
	// modifier scan below does not mistake it for the pattern separator.
	if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "~"); ok {
		if after, found := strings.CutPrefix(strings.TrimSpace(rest), "="); found {
			line = "=" + after
		}
	}

	tilde := strings.IndexByte(line, '~')
	var eq int
	if tilde >= 0 {
		eq = strings.LastIndexByte(line[:tilde], '=')
	} else {
		eq = strings.LastIndexByte(line, '=')
	}

	var fromPart, toPart, patternPart string
	switch {
	case eq < 0 && tilde < 0:
		toPart = line
	case eq < 0:
		toPart = strings.TrimSpace(line[:tilde])
		patternPart = strings.TrimSpace(line[tilde+1:])
	default:
		fromPart = strings.TrimSpace(line[:eq])
		rest := line[eq+1:]
		if tilde >= 0 {
			rel := strings.IndexByte(rest, '~')
			toPart = strings.TrimSpace(rest[:rel])
			patternPart = strings.TrimSpace(rest[rel+1:])
		} else {
			toPart = strings.TrimSpace(rest)
		}
	}

	var e Entry

	if quoted, ok := unquote(toPart); ok {
		// field = "fixed value" — the from slot holds the field spec.
		e.To = n.ParseFieldSpec(fromPart)
		e.From = From{Type: QuerierNone}
		e.Mod.Raw = quoted
		return e
	}

	e.To = n.ParseFieldSpec(toPart)

	if fromPart == "" || fromPart == "~" {
		e.From = From{Type: QuerierNone}
	} else {
		e.From = From{Type: opts.querier(), Path: fromPart}
		if e.From.Type == QuerierIndex {
			e.From.Index = parseIndex(fromPart)
		}
	}

	if patternPart != "" {
		if raw, ok := unquote(patternPart); ok && pattern.IsLiteral(raw) {
			e.Mod.Raw = raw
		} else {
			if unquoted, ok := unquote(patternPart); ok {
				patternPart = unquoted
			}
			e.Mod.Pattern = patternPart
			e.Mod.Parsed = pattern.Parse(patternPart)
		}
	}
	return e
}

// ParseFieldSpec parses a destination field spec:
//
//	dcterms:title ^^literal @fra §private
//
// Tokens are whitespace-separated outside quotes. "^^" appends a datatype,
// "@" sets the language, "§" sets visibility (false only for "private",
// case-insensitive), the first unprefixed token is the field.
func (n *Normalizer) ParseFieldSpec(spec string) To {
	var t To
	for _, tok := range splitQuoted(spec) {
		switch {
		case strings.HasPrefix(tok, "^^"):
			if dt := n.resolveDatatype(tok[2:]); dt != "" {
				t.Datatypes = append(t.Datatypes, dt)
			}
		case strings.HasPrefix(tok, "@"):
			t.Language = tok[1:]
		case strings.HasPrefix(tok, "§"):
			public := !strings.EqualFold(tok[len("§"):], "private")
			t.IsPublic = &public
		default:
			if t.Field == "" {
				t.Field = tok
			}
		}
	}
	if t.Field != "" && n.lookup != nil {
		if id, ok := n.lookup.PropertyID(t.Field); ok {
			t.PropertyID = &id
		}
	}
	return t
}

// resolveDatatype normalizes a datatype token. Custom-vocabulary labels
// (customvocab:"My List") resolve to customvocab:<id> through a lazily
// built label table; unresolved labels pass through unchanged so the
// mapping author sees the original text downstream.
func (n *Normalizer) resolveDatatype(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(raw, "customvocab:"); ok {
		label := rest
		if unquoted, ok := unquote(rest); ok {
			label = unquoted
		} else if value.IsNumeric(rest) {
			return raw
		}
		if id, ok := n.customVocabID(label); ok {
			return "customvocab:" + value.Text(id)
		}
		return raw
	}
	if n.lookup != nil {
		if name, ok := n.lookup.DataTypeName(raw); ok {
			return name
		}
	}
	return raw
}

func (n *Normalizer) customVocabID(label string) (int, bool) {
	if n.lookup == nil {
		return 0, false
	}
	n.vocabOnce.Do(func() {
		n.vocabs = n.lookup.CustomVocabs()
	})
	id, ok := n.vocabs[label]
	return id, ok
}

func (n *Normalizer) normalizeStructured(m map[string]any, opts *Options) Entry {
	var e Entry

	switch from := m["from"].(type) {
	case string:
		if from == "" || from == "~" {
			e.From = From{Type: QuerierNone}
		} else {
			e.From = From{Type: opts.querier(), Path: from}
		}
	case map[string]any:
		e.From = From{Type: QuerierNone}
		if t, ok := ParseQuerier(value.Text(from["type"])); ok && from["type"] != nil {
			e.From = From{Type: t, Path: value.Text(from["path"])}
		}
		for _, q := range []Querier{QuerierXPath, QuerierJSDot, QuerierJSONPath, QuerierJMESPath, QuerierIndex} {
			if p, ok := from[string(q)]; ok {
				e.From = From{Type: q, Path: value.Text(p)}
				break
			}
		}
	default:
		e.From = From{Type: QuerierNone}
	}
	if e.From.Type == QuerierIndex {
		e.From.Index = parseIndex(e.From.Path)
	}

	switch to := m["to"].(type) {
	case string:
		e.To = n.ParseFieldSpec(to)
	case map[string]any:
		e.To.Field = value.Text(to["field"])
		for _, dt := range value.Texts(to["datatype"]) {
			if resolved := n.resolveDatatype(dt); resolved != "" {
				e.To.Datatypes = append(e.To.Datatypes, resolved)
			}
		}
		e.To.Language = value.Text(to["language"])
		if vis, ok := to["visibility"]; ok {
			public := !strings.EqualFold(value.Text(vis), "private")
			e.To.IsPublic = &public
		} else if pub, ok := to["is_public"]; ok {
			public := value.Bool(pub)
			e.To.IsPublic = &public
		}
		if e.To.Field != "" && n.lookup != nil {
			if id, ok := n.lookup.PropertyID(e.To.Field); ok {
				e.To.PropertyID = &id
			}
		}
	}

	switch mod := m["mod"].(type) {
	case string:
		e.Mod.Pattern = mod
		e.Mod.Parsed = pattern.Parse(mod)
	case map[string]any:
		e.Mod.Raw = value.Text(mod["raw"])
		if e.Mod.Raw == "" {
			e.Mod.Raw = value.Text(mod["val"])
		}
		e.Mod.Prepend = value.Text(mod["prepend"])
		e.Mod.Append = value.Text(mod["append"])
		if p := value.Text(mod["pattern"]); p != "" {
			e.Mod.Pattern = p
			e.Mod.Parsed = pattern.Parse(p)
		}
	}

	return e
}

// normalizeXML converts a <map> element of the XML dialect:
//
//	<map>
//	  <from xpath="/record/title"/>
//	  <to field="dcterms:title" datatype="literal" language="fra"/>
//	  <mod prepend="Title: " pattern="{{ value|trim }}"/>
//	</map>
func (n *Normalizer) normalizeXML(el *xmlquery.Node, opts *Options) Entry {
	var e Entry
	e.From = From{Type: QuerierNone}

	if from := el.SelectElement("from"); from != nil {
		for _, q := range []Querier{QuerierXPath, QuerierJSDot, QuerierJSONPath, QuerierJMESPath, QuerierIndex} {
			if p := from.SelectAttr(string(q)); p != "" {
				e.From = From{Type: q, Path: p}
				break
			}
		}
		if e.From.Type == QuerierIndex {
			e.From.Index = parseIndex(e.From.Path)
		}
	}

	if to := el.SelectElement("to"); to != nil {
		e.To.Field = to.SelectAttr("field")
		for _, dt := range strings.Fields(to.SelectAttr("datatype")) {
			if resolved := n.resolveDatatype(dt); resolved != "" {
				e.To.Datatypes = append(e.To.Datatypes, resolved)
			}
		}
		e.To.Language = to.SelectAttr("language")
		if vis := to.SelectAttr("visibility"); vis != "" {
			public := !strings.EqualFold(vis, "private")
			e.To.IsPublic = &public
		}
		if e.To.Field != "" && n.lookup != nil {
			if id, ok := n.lookup.PropertyID(e.To.Field); ok {
				e.To.PropertyID = &id
			}
		}
	}

	if mod := el.SelectElement("mod"); mod != nil {
		e.Mod.Raw = mod.SelectAttr("raw")
		if e.Mod.Raw == "" {
			e.Mod.Raw = mod.SelectAttr("val")
		}
		e.Mod.Prepend = mod.SelectAttr("prepend")
		e.Mod.Append = mod.SelectAttr("append")
		if p := mod.SelectAttr("pattern"); p != "" {
			e.Mod.Pattern = p
			e.Mod.Parsed = pattern.Parse(p)
		}
	}

	return e
}

// unquote strips one level of matching single or double quotes.
func unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1], true
		}
	}
	return s, false
}

// splitQuoted splits on whitespace outside quotes, so quoted
// custom-vocabulary labels stay whole tokens.
func splitQuoted(s string) []string {
	var (
		tokens []string
		quote  rune
		start  = -1
	)
	for i, c := range s {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			if start < 0 {
				start = i
			}
		case c == ' ' || c == '\t':
			if start >= 0 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
		default:
			if start < 0 {
				start = i
			}
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}
