package lookup

import "strings"

// Memory is an in-memory Service. It backs the CLI and tests; a hosting
// application would implement Service against its own property store.
type Memory struct {
	properties []Property
	byTerm     map[string]int
	datatypes  map[string]string
	vocabs     map[string]int
}

// NewMemory creates a Memory service seeded with the given properties.
func NewMemory(properties []Property) *Memory {
	m := &Memory{
		properties: properties,
		byTerm:     make(map[string]int, len(properties)),
		datatypes:  defaultDataTypes(),
		vocabs:     make(map[string]int),
	}
	for _, p := range properties {
		m.byTerm[p.Term] = p.ID
	}
	return m
}

// NewMemoryDefaults creates a Memory service seeded with the Dublin Core
// terms the bundled mappings rely on.
func NewMemoryDefaults() *Memory {
	return NewMemory(defaultProperties())
}

// SetCustomVocab registers a custom vocabulary label with its id.
func (m *Memory) SetCustomVocab(label string, id int) {
	m.vocabs[label] = id
}

// SetDataType registers or overrides a datatype alias.
func (m *Memory) SetDataType(raw, canonical string) {
	m.datatypes[strings.ToLower(raw)] = canonical
}

// PropertyID implements Service.
func (m *Memory) PropertyID(term string) (int, bool) {
	id, ok := m.byTerm[term]
	return id, ok
}

// DataTypeName implements Service.
func (m *Memory) DataTypeName(raw string) (string, bool) {
	name, ok := m.datatypes[strings.ToLower(strings.TrimSpace(raw))]
	return name, ok
}

// Properties implements Service.
func (m *Memory) Properties() []Property {
	return m.properties
}

// CustomVocabs implements Service.
func (m *Memory) CustomVocabs() map[string]int {
	out := make(map[string]int, len(m.vocabs))
	for k, v := range m.vocabs {
		out[k] = v
	}
	return out
}

func defaultDataTypes() map[string]string {
	return map[string]string{
		"literal":      "literal",
		"uri":          "uri",
		"resource":     "resource",
		"xsd:date":     "xsd:date",
		"xsd:int":      "xsd:integer",
		"xsd:integer":  "xsd:integer",
		"xsd:datetime": "xsd:dateTime",
		"html":         "html",
	}
}

func defaultProperties() []Property {
	terms := []struct {
		id    int
		term  string
		label string
	}{
		{1, "dcterms:title", "Title"},
		{2, "dcterms:creator", "Creator"},
		{3, "dcterms:subject", "Subject"},
		{4, "dcterms:description", "Description"},
		{5, "dcterms:publisher", "Publisher"},
		{6, "dcterms:contributor", "Contributor"},
		{7, "dcterms:date", "Date"},
		{8, "dcterms:type", "Type"},
		{9, "dcterms:format", "Format"},
		{10, "dcterms:identifier", "Identifier"},
		{11, "dcterms:source", "Source"},
		{12, "dcterms:language", "Language"},
		{13, "dcterms:relation", "Relation"},
		{14, "dcterms:coverage", "Coverage"},
		{15, "dcterms:rights", "Rights"},
		{16, "dcterms:issued", "Date Issued"},
		{17, "dcterms:created", "Date Created"},
		{18, "dcterms:abstract", "Abstract"},
		{19, "dcterms:extent", "Extent"},
		{20, "dcterms:spatial", "Spatial Coverage"},
		{21, "dcterms:temporal", "Temporal Coverage"},
		{22, "dcterms:isPartOf", "Is Part Of"},
		{23, "dcterms:hasPart", "Has Part"},
		{24, "dcterms:alternative", "Alternative Title"},
		{25, "dcterms:provenance", "Provenance"},
		{26, "bibo:doi", "DOI"},
		{27, "bibo:isbn", "ISBN"},
		{28, "foaf:name", "Name"},
	}
	props := make([]Property, 0, len(terms))
	for _, tt := range terms {
		prefix, local, _ := strings.Cut(tt.term, ":")
		vocab := "Dublin Core"
		switch prefix {
		case "bibo":
			vocab = "Bibliographic Ontology"
		case "foaf":
			vocab = "Friend of a Friend"
		}
		props = append(props, Property{
			ID:              tt.id,
			Term:            tt.term,
			LocalName:       local,
			Label:           tt.label,
			VocabularyLabel: vocab,
		})
	}
	return props
}
