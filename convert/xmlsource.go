package convert

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/heritage-libraries/mapflow/mapping"
	"github.com/heritage-libraries/mapflow/value"
)

// commonNamespaces are pre-registered for every XML source, so mappings can
// use the usual metadata prefixes without the source declaring them.
var commonNamespaces = map[string]string{
	"dc":      "http://purl.org/dc/elements/1.1/",
	"dcterms": "http://purl.org/dc/terms/",
	"oai":     "http://www.openarchives.org/OAI/2.0/",
	"oai_dc":  "http://www.openarchives.org/OAI/2.0/oai_dc/",
	"mets":    "http://www.loc.gov/METS/",
	"mods":    "http://www.loc.gov/mods/v3",
	"marc":    "http://www.loc.gov/MARC21/slim",
	"rdf":     "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"skos":    "http://www.w3.org/2004/02/skos/core#",
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"xsi":     "http://www.w3.org/2001/XMLSchema-instance",
	"xlink":   "http://www.w3.org/1999/xlink",
}

// XMLSource adapts an XML document for xpath extraction. Namespace prefixes
// come from the common table plus every declaration found in the document
// itself, so source-declared prefixes resolve without configuration.
type XMLSource struct {
	doc        *xmlquery.Node
	namespaces map[string]string
}

// NewXMLSource parses an XML document.
func NewXMLSource(content string) (*XMLSource, error) {
	doc, err := xmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing XML source: %w", err)
	}
	return NewXMLNodeSource(doc), nil
}

// NewXMLNodeSource wraps an already-parsed document or subtree.
func NewXMLNodeSource(doc *xmlquery.Node) *XMLSource {
	ns := make(map[string]string, len(commonNamespaces))
	for prefix, uri := range commonNamespaces {
		ns[prefix] = uri
	}
	collectNamespaces(doc, ns)
	return &XMLSource{doc: doc, namespaces: ns}
}

// collectNamespaces walks the tree for xmlns:prefix declarations. Document
// declarations win over the common table, so a source redefining a common
// prefix is honored.
func collectNamespaces(n *xmlquery.Node, ns map[string]string) {
	for node := n; node != nil; node = node.NextSibling {
		for _, attr := range node.Attr {
			if attr.Name.Space == "xmlns" && attr.Name.Local != "" {
				ns[attr.Name.Local] = attr.Value
			}
		}
		if node.FirstChild != nil {
			collectNamespaces(node.FirstChild, ns)
		}
	}
}

// Values evaluates the entry's xpath. Evaluation goes through the compiled
// expression so scalar-returning XPath functions work, not just node sets.
func (s *XMLSource) Values(from mapping.From) []string {
	if from.Type != mapping.QuerierXPath {
		return nil
	}
	return s.evaluate(from.Path)
}

// Value resolves a placeholder path as an xpath scalar.
func (s *XMLSource) Value(path string) (string, bool) {
	vals := s.evaluate(path)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (s *XMLSource) evaluate(path string) []string {
	expr, err := xpath.CompileWithNS(path, s.namespaces)
	if err != nil {
		slog.Debug("uncompilable xpath", "path", path, "error", err)
		return nil
	}
	switch res := expr.Evaluate(xmlquery.CreateXPathNavigator(s.doc)).(type) {
	case *xpath.NodeIterator:
		var out []string
		for res.MoveNext() {
			if v := strings.TrimSpace(res.Current().Value()); v != "" {
				out = append(out, v)
			}
		}
		return out
	case string:
		return nonEmpty(strings.TrimSpace(res))
	case float64:
		return nonEmpty(value.Text(res))
	case bool:
		return nonEmpty(value.Text(res))
	default:
		return nil
	}
}
