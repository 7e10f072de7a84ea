package convert

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/heritage-libraries/mapflow/lookup"
	"github.com/heritage-libraries/mapflow/mapping"
)

func parseDoc(t *testing.T, content string) *mapping.Document {
	t.Helper()
	doc := mapping.NewConfig(lookup.NewMemoryDefaults()).Parse(t.Name(), content)
	if doc.HasError {
		t.Fatal("mapping failed to parse")
	}
	return doc
}

func literals(rec *Record, field string) []string {
	var out []string
	for _, v := range rec.Values(field) {
		out = append(out, v.Value)
	}
	return out
}

func TestConvertSimpleIndex(t *testing.T) {
	doc := parseDoc(t, "title = dcterms:title")
	rec := New(doc).ConvertStruct(map[string]any{"title": "Hello"})

	vals := rec.Values("dcterms:title")
	if len(vals) != 1 || vals[0].Value != "Hello" || vals[0].Type != "literal" {
		t.Fatalf("Values = %+v, want one literal Hello", vals)
	}
}

func TestConvertFilterChain(t *testing.T) {
	doc := parseDoc(t, "[info]\nquerier = jsdot\n[maps]\ntitle = dcterms:title ~ {{ value|trim|upper }}")
	rec := New(doc).ConvertStruct(map[string]any{"title": "  hi  "})

	if got := literals(rec, "dcterms:title"); !reflect.DeepEqual(got, []string{"HI"}) {
		t.Errorf("got %v, want [HI]", got)
	}
}

func TestConvertCombinedSourceValues(t *testing.T) {
	content := "[info]\nquerier = jsdot\n[maps]\nfirstName = foaf:name ~ {firstName} {lastName}"
	doc := parseDoc(t, content)

	rec := New(doc).ConvertStruct(map[string]any{"firstName": "John"})
	if got := literals(rec, "foaf:name"); !reflect.DeepEqual(got, []string{"John"}) {
		t.Errorf("got %v, want trimmed [John]", got)
	}

	rec = New(doc).ConvertStruct(map[string]any{})
	if rec.Len() != 0 {
		t.Errorf("record = %v, want nothing emitted for an empty source", rec.Map())
	}
}

func TestConvertNoOpSuppression(t *testing.T) {
	doc := parseDoc(t, "[info]\nquerier = jsdot\n[maps]\ntitle = dcterms:title ~ prefix-{{ value }}")

	rec := New(doc).ConvertStruct(map[string]any{"other": "x"})
	if rec.Len() != 0 {
		t.Errorf("record = %v, want decorative-only pattern suppressed", rec.Map())
	}

	rec = New(doc).ConvertStruct(map[string]any{"title": "real"})
	if got := literals(rec, "dcterms:title"); !reflect.DeepEqual(got, []string{"prefix-real"}) {
		t.Errorf("got %v, want [prefix-real]", got)
	}
}

func TestConvertRawWinsOverPattern(t *testing.T) {
	doc := &mapping.Document{
		Name: "raw",
		Maps: []mapping.Entry{{
			From: mapping.From{Type: mapping.QuerierJSDot, Path: "title"},
			To:   mapping.To{Field: "dcterms:rights"},
			Mod:  mapping.Mod{Raw: "Public domain", Pattern: "{{ value|upper }}"},
		}},
	}
	rec := New(doc).ConvertStruct(map[string]any{"title": "ignored"})
	if got := literals(rec, "dcterms:rights"); !reflect.DeepEqual(got, []string{"Public domain"}) {
		t.Errorf("got %v, want the raw value, pattern never evaluated", got)
	}
}

func TestConvertMultiValueAppends(t *testing.T) {
	content := `[info]
querier = jsdot
[maps]
a = dcterms:subject
b = dcterms:subject
`
	doc := parseDoc(t, content)
	rec := New(doc).ConvertStruct(map[string]any{"a": "A", "b": "A"})

	// Duplicates are preserved, never collapsed.
	if got := literals(rec, "dcterms:subject"); !reflect.DeepEqual(got, []string{"A", "A"}) {
		t.Errorf("got %v, want both values appended", got)
	}
}

func TestConvertMultiValuedField(t *testing.T) {
	doc := parseDoc(t, "[info]\nquerier = jsdot\n[maps]\nsubjects = dcterms:subject")
	rec := New(doc).ConvertStruct(map[string]any{"subjects": []any{"art", "history"}})

	if got := literals(rec, "dcterms:subject"); !reflect.DeepEqual(got, []string{"art", "history"}) {
		t.Errorf("got %v, want each value mapped independently", got)
	}
}

func TestConvertDefaultEntryWithParam(t *testing.T) {
	content := `[params]
rights = CC0
[default]
dcterms:rights ~ {rights}
`
	doc := parseDoc(t, content)
	rec := New(doc).ConvertStruct(map[string]any{})

	if got := literals(rec, "dcterms:rights"); !reflect.DeepEqual(got, []string{"CC0"}) {
		t.Errorf("got %v, want the param-backed default", got)
	}
}

func TestConvertURLHeuristic(t *testing.T) {
	content := `[info]
querier = jsdot
[maps]
link = dcterms:relation
id = dcterms:identifier ^^uri
`
	doc := parseDoc(t, content)
	rec := New(doc).ConvertStruct(map[string]any{
		"link": "https://example.org/item/1",
		"id":   "ark:12345",
	})

	link := rec.Values("dcterms:relation")
	if len(link) != 1 || link[0].Type != "uri" || link[0].ID != "https://example.org/item/1" {
		t.Errorf("link = %+v, want auto-detected uri with @id", link)
	}
	id := rec.Values("dcterms:identifier")
	if len(id) != 1 || id[0].Type != "uri" || id[0].ID != "ark:12345" {
		t.Errorf("id = %+v, want declared uri datatype with @id", id)
	}
}

func TestConvertLanguageAndVisibility(t *testing.T) {
	doc := parseDoc(t, "[info]\nquerier = jsdot\n[maps]\ntitle = dcterms:title @fra §private")
	rec := New(doc).ConvertStruct(map[string]any{"title": "Bonjour"})

	vals := rec.Values("dcterms:title")
	if len(vals) != 1 || vals[0].Language != "fra" {
		t.Fatalf("vals = %+v, want language fra", vals)
	}
	if vals[0].IsPublic == nil || *vals[0].IsPublic {
		t.Errorf("IsPublic = %v, want explicit false", vals[0].IsPublic)
	}
}

func TestConvertJSDotRepeatedFields(t *testing.T) {
	doc := parseDoc(t, "[info]\nquerier = jsdot\n[maps]\nfields[].value = dcterms:subject")
	rec := New(doc).ConvertStruct(map[string]any{
		"fields": []any{
			map[string]any{"key": "subject", "value": "X"},
			map[string]any{"key": "subject", "value": "Y"},
		},
	})
	if got := literals(rec, "dcterms:subject"); !reflect.DeepEqual(got, []string{"X", "Y"}) {
		t.Errorf("got %v, want the repeated-field block expanded", got)
	}
}

func TestConvertJMESPath(t *testing.T) {
	doc := parseDoc(t, "[info]\nquerier = jmespath\n[maps]\nrecords[].title = dcterms:title")
	rec := New(doc).ConvertStruct(map[string]any{
		"records": []any{
			map[string]any{"title": "One"},
			map[string]any{"title": "Two"},
		},
	})
	if got := literals(rec, "dcterms:title"); !reflect.DeepEqual(got, []string{"One", "Two"}) {
		t.Errorf("got %v, want both titles", got)
	}
}

func TestConvertJSONPath(t *testing.T) {
	doc := parseDoc(t, "[info]\nquerier = jsonpath\n[maps]\nitem.title = dcterms:title")
	rec := New(doc).ConvertStruct(map[string]any{
		"item": map[string]any{"title": "Hello"},
	})
	if got := literals(rec, "dcterms:title"); !reflect.DeepEqual(got, []string{"Hello"}) {
		t.Errorf("got %v, want [Hello]", got)
	}
}

func TestConvertRowSource(t *testing.T) {
	doc := parseDoc(t, "[maps]\n0 = dcterms:title\n2 = dcterms:creator")
	rec := New(doc).Convert(NewRowSource([]string{"Hello", "skip", "Doe, Jane"}))

	if got := literals(rec, "dcterms:title"); !reflect.DeepEqual(got, []string{"Hello"}) {
		t.Errorf("title = %v", got)
	}
	if got := literals(rec, "dcterms:creator"); !reflect.DeepEqual(got, []string{"Doe, Jane"}) {
		t.Errorf("creator = %v", got)
	}
}

func TestConvertPrependAppend(t *testing.T) {
	content := `<mapping>
	  <info><querier>jsdot</querier></info>
	  <map>
	    <from jsdot="title"/>
	    <to field="dcterms:title"/>
	    <mod prepend="Title: " pattern="{{ value|trim }}" append="."/>
	  </map>
	</mapping>`
	doc := parseDoc(t, content)

	rec := New(doc).ConvertStruct(map[string]any{"title": " Hello "})
	if got := literals(rec, "dcterms:title"); !reflect.DeepEqual(got, []string{"Title: Hello."}) {
		t.Errorf("got %v, want prepend and append applied", got)
	}

	// No substitution, no decoration.
	rec = New(doc).ConvertStruct(map[string]any{})
	if rec.Len() != 0 {
		t.Errorf("record = %v, want nothing", rec.Map())
	}
}

func TestConvertXMLNamespaces(t *testing.T) {
	content := `[info]
querier = xpath
[maps]
//dc:title = dcterms:title
//z:note = dcterms:description
`
	doc := parseDoc(t, content)
	source := `<record xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:z="http://example.org/zeta">
	  <dc:title>Hello</dc:title>
	  <z:note>Only declared in the source</z:note>
	</record>`

	rec := New(doc).ConvertXML(source)
	if got := literals(rec, "dcterms:title"); !reflect.DeepEqual(got, []string{"Hello"}) {
		t.Errorf("title = %v", got)
	}
	if got := literals(rec, "dcterms:description"); !reflect.DeepEqual(got, []string{"Only declared in the source"}) {
		t.Errorf("note = %v, want the source-declared prefix resolved", got)
	}
}

func TestConvertXMLScalarFunction(t *testing.T) {
	doc := parseDoc(t, "[info]\nquerier = xpath\n[maps]\ncount(//item) = dcterms:extent")
	rec := New(doc).ConvertXML("<list><item/><item/><item/></list>")

	if got := literals(rec, "dcterms:extent"); !reflect.DeepEqual(got, []string{"3"}) {
		t.Errorf("got %v, want the scalar xpath result", got)
	}
}

func TestConvertMalformedXML(t *testing.T) {
	doc := parseDoc(t, "[info]\nquerier = xpath\n[maps]\n//title = dcterms:title")
	rec := New(doc).ConvertXML("<record><unclosed>")
	if rec.Len() != 0 {
		t.Errorf("record = %v, want empty for malformed source", rec.Map())
	}
}

func TestConvertErrorDocument(t *testing.T) {
	doc := mapping.NewConfig(lookup.NewMemoryDefaults()).Parse("bad", "   ")
	if !doc.HasError {
		t.Fatal("expected an error document")
	}
	rec := New(doc).ConvertStruct(map[string]any{"title": "Hello"})
	if rec.Len() != 0 {
		t.Errorf("record = %v, want empty", rec.Map())
	}
}

func TestRecordJSON(t *testing.T) {
	rec := NewRecord()
	rec.Add("dcterms:title", Value{Type: "literal", Value: "Hello", Language: "eng"})
	rec.Add("dcterms:relation", Value{Type: "uri", ID: "https://example.org"})

	raw, err := rec.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string][]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("JSON() produced invalid JSON: %v", err)
	}
	title := decoded["dcterms:title"]
	if len(title) != 1 || title[0]["@value"] != "Hello" || title[0]["@language"] != "eng" {
		t.Errorf("dcterms:title = %v", title)
	}
	relation := decoded["dcterms:relation"]
	if len(relation) != 1 || relation[0]["@id"] != "https://example.org" {
		t.Errorf("dcterms:relation = %v", relation)
	}
}
