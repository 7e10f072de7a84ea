// Package lookup defines the vocabulary and property lookup boundary.
//
// The engine never owns vocabulary data; the hosting application supplies a
// Service. An in-memory implementation backs tests and the CLI.
package lookup

// Property describes one known destination property.
type Property struct {
	ID              int
	Term            string // canonical term, e.g. "dcterms:title"
	LocalName       string // term without prefix, e.g. "title"
	Label           string // display label, e.g. "Title"
	VocabularyLabel string // owning vocabulary label, e.g. "Dublin Core"
}

// Service resolves terms, datatypes and custom vocabularies.
//
// Every method is a best-effort lookup: a miss is reported through the bool
// return, never an error. The engine degrades on misses instead of failing.
type Service interface {
	// PropertyID resolves a property term to its numeric id.
	PropertyID(term string) (int, bool)

	// DataTypeName normalizes a raw datatype name to its canonical form.
	DataTypeName(raw string) (string, bool)

	// Properties enumerates all known properties, used to build label and
	// local-name indexes for interactive field resolution.
	Properties() []Property

	// CustomVocabs enumerates custom vocabularies as label -> numeric id.
	CustomVocabs() map[string]int
}

// Translator localizes display strings. A nil Translator means no
// translation is available and original strings are used as-is.
type Translator interface {
	Translate(s string) string
}
