package mapping

import (
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/heritage-libraries/mapflow/pattern"
	"github.com/heritage-libraries/mapflow/value"
)

// parseStructuredText parses the structured dialect from YAML or JSON text.
// YAML is a superset of JSON, so one decoder covers both.
func parseStructuredText(name, content string, n *Normalizer) *Document {
	var data map[string]any
	if err := yaml.Unmarshal([]byte(content), &data); err != nil {
		slog.Error("unparseable structured mapping", "mapping", name, "error", err)
		return errorDocument(name)
	}
	return parseStructuredDocument(name, data, n)
}

// parseStructuredDocument parses the plain associative mapping shape:
//
//	info:   {label: ..., querier: jsdot}
//	params: {base: "https://example.org"}
//	maps:   [{from: ..., to: ..., mod: ...}, "title = dcterms:title", ...]
//	tables: {genres: {fic: Fiction}}
func parseStructuredDocument(name string, data map[string]any, n *Normalizer) *Document {
	doc := newDocument(name)

	if info, ok := data["info"].(map[string]any); ok {
		for k, v := range info {
			doc.Info[k] = value.Text(v)
		}
	}

	if params, ok := data["params"].(map[string]any); ok {
		// YAML maps are unordered; sort for a stable param order.
		for _, k := range sortedKeys(params) {
			addParam(doc, k, value.Text(params[k]))
		}
	}

	if tables, ok := data["tables"].(map[string]any); ok {
		for tname, t := range tables {
			entries, ok := t.(map[string]any)
			if !ok {
				continue
			}
			table := make(map[string]string, len(entries))
			for code, label := range entries {
				table[code] = value.Text(label)
			}
			doc.Tables[tname] = table
		}
	}

	opts := &Options{DefaultQuerier: doc.Querier()}
	if maps, ok := data["maps"].([]any); ok {
		for _, raw := range maps {
			switch entry := raw.(type) {
			case string:
				doc.Maps = append(doc.Maps, n.Normalize(InputText(entry), opts))
			case map[string]any:
				doc.Maps = append(doc.Maps, n.Normalize(InputStructured(entry), opts))
			}
		}
	}

	return doc
}

func addParam(doc *Document, name, raw string) {
	if unquoted, ok := unquote(raw); ok {
		raw = unquoted
	}
	doc.Params = append(doc.Params, Param{
		Name:    name,
		Pattern: raw,
		Parsed:  pattern.Parse(raw),
	})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
