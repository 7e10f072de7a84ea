package mapping

import (
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"
)

// parseXMLDocument parses the XML dialect:
//
//	<mapping>
//	  <info><label>...</label><querier>xpath</querier></info>
//	  <params><base>https://example.org</base></params>
//	  <map><from xpath="..."/><to field="..."/><mod pattern="..."/></map>
//	  <table code="genres"><list><term code="fic">Fiction</term></list></table>
//	</mapping>
//
// A <map> without a querier attribute on its <from> goes to the legacy
// default bucket, prepended to the explicit maps.
func parseXMLDocument(name, content string, n *Normalizer) *Document {
	doc := newDocument(name)

	root, err := xmlquery.Parse(strings.NewReader(content))
	if err != nil {
		slog.Error("unparseable XML mapping", "mapping", name, "error", err)
		return errorDocument(name)
	}

	if info := xmlquery.FindOne(root, "//mapping/info"); info != nil {
		for child := info.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode {
				doc.Info[child.Data] = strings.TrimSpace(child.InnerText())
			}
		}
	}

	if params := xmlquery.FindOne(root, "//mapping/params"); params != nil {
		for child := params.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode {
				addParam(doc, child.Data, strings.TrimSpace(child.InnerText()))
			}
		}
	}

	for _, table := range xmlquery.Find(root, "//mapping/table") {
		code := table.SelectAttr("code")
		if code == "" {
			continue
		}
		entries := make(map[string]string)
		for _, term := range xmlquery.Find(table, "list/term") {
			if key := term.SelectAttr("code"); key != "" {
				entries[key] = strings.TrimSpace(term.InnerText())
			}
		}
		doc.Tables[code] = entries
	}

	opts := &Options{DefaultQuerier: doc.Querier()}
	var defaults, maps []Entry
	for _, el := range xmlquery.Find(root, "//mapping/map") {
		entry := n.normalizeXML(el, opts)
		if entry.From.IsNone() {
			defaults = append(defaults, entry)
		} else {
			maps = append(maps, entry)
		}
	}
	doc.Maps = append(defaults, maps...)

	return doc
}
