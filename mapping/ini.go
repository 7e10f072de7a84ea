package mapping

import (
	"log/slog"
	"strings"
)

// iniSections are the recognized section names. Lines under an unrecognized
// section header are dropped; lines before any header default into maps.
var iniSections = map[string]bool{
	"info":    true,
	"params":  true,
	"maps":    true,
	"default": true,
	"tables":  true,
}

// parseINIDocument parses the INI dialect into a document.
//
// Sections are collected first and parsed afterwards, so [info] can declare
// the querier anywhere in the file and still govern the [maps] lines.
func parseINIDocument(name, content string, n *Normalizer) *Document {
	doc := newDocument(name)

	sections := map[string][]string{}
	current := "maps"
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section := strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			if iniSections[section] {
				current = section
			} else {
				slog.Debug("dropping unrecognized mapping section", "mapping", name, "section", section)
				current = ""
			}
			continue
		}
		if current == "" {
			continue
		}
		sections[current] = append(sections[current], line)
	}

	for _, line := range sections["info"] {
		if k, v, found := strings.Cut(line, "="); found {
			doc.Info[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	for _, line := range sections["params"] {
		if k, v, found := strings.Cut(line, "="); found {
			addParam(doc, strings.TrimSpace(k), strings.TrimSpace(v))
		}
	}

	for _, line := range sections["tables"] {
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		table, code, found := strings.Cut(strings.TrimSpace(k), ".")
		if !found {
			continue
		}
		label := strings.TrimSpace(v)
		if unquoted, ok := unquote(label); ok {
			label = unquoted
		}
		if doc.Tables[table] == nil {
			doc.Tables[table] = make(map[string]string)
		}
		doc.Tables[table][strings.TrimSpace(code)] = label
	}

	opts := &Options{DefaultQuerier: doc.Querier()}
	// [default] is the deprecated spelling of source-less entries; they are
	// prepended so explicit maps win field order.
	for _, line := range sections["default"] {
		entry := n.Normalize(InputText(line), opts)
		entry.From = From{Type: QuerierNone}
		doc.Maps = append(doc.Maps, entry)
	}
	for _, line := range sections["maps"] {
		doc.Maps = append(doc.Maps, n.Normalize(InputText(line), opts))
	}

	return doc
}
