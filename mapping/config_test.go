package mapping

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/heritage-libraries/mapflow/lookup"
)

func TestParseINIDocument(t *testing.T) {
	content := `; A spreadsheet mapping.
[info]
label = Test mapping
querier = jsdot

[params]
base = https://example.org
item_url = {base}/items/{id}

[default]
dcterms:rights ~ {rights_statement}

[maps]
Title = dcterms:title
Date = dcterms:date ~ {{ value|dateIso }}

[tables]
genres.fic = Fiction
genres.nf = "Non-fiction"

[bogus]
dropped = line
`
	c := NewConfig(lookup.NewMemoryDefaults())
	doc := c.Parse("test", content)

	if doc.HasError {
		t.Fatal("HasError = true, want clean parse")
	}
	if got := doc.Label(); got != "Test mapping" {
		t.Errorf("Label() = %q, want %q", got, "Test mapping")
	}
	if got := doc.Querier(); got != QuerierJSDot {
		t.Errorf("Querier() = %q, want jsdot", got)
	}

	if len(doc.Params) != 2 || doc.Params[0].Name != "base" || doc.Params[1].Name != "item_url" {
		t.Fatalf("Params = %+v, want base then item_url", doc.Params)
	}

	// Default entries come before the explicit maps; the dropped section
	// contributes nothing.
	if len(doc.Maps) != 3 {
		t.Fatalf("len(Maps) = %d, want 3", len(doc.Maps))
	}
	if !doc.Maps[0].From.IsNone() || doc.Maps[0].To.Field != "dcterms:rights" {
		t.Errorf("Maps[0] = %+v, want source-less dcterms:rights", doc.Maps[0])
	}
	if doc.Maps[1].From.Path != "Title" || doc.Maps[2].Mod.Pattern != "{{ value|dateIso }}" {
		t.Errorf("Maps[1:] = %+v", doc.Maps[1:])
	}

	if got := doc.Tables["genres"]["nf"]; got != "Non-fiction" {
		t.Errorf("Tables[genres][nf] = %q, want unquoted label", got)
	}
}

func TestParseXMLDialect(t *testing.T) {
	content := `<mapping>
	  <info><label>XML test</label><querier>xpath</querier></info>
	  <params><base>https://example.org</base></params>
	  <map>
	    <from xpath="/record/title"/>
	    <to field="dcterms:title"/>
	  </map>
	  <map>
	    <to field="dcterms:rights"/>
	    <mod raw="Public domain"/>
	  </map>
	  <table code="genres"><list><term code="fic">Fiction</term></list></table>
	</mapping>`

	c := NewConfig(lookup.NewMemoryDefaults())
	doc := c.Parse("xmltest", content)

	if doc.HasError {
		t.Fatal("HasError = true, want clean parse")
	}
	if doc.Querier() != QuerierXPath {
		t.Errorf("Querier() = %q, want xpath", doc.Querier())
	}
	if len(doc.Maps) != 2 {
		t.Fatalf("len(Maps) = %d, want 2", len(doc.Maps))
	}
	// The source-less map is prepended.
	if doc.Maps[0].Mod.Raw != "Public domain" {
		t.Errorf("Maps[0].Mod.Raw = %q, want the fixed value first", doc.Maps[0].Mod.Raw)
	}
	if doc.Maps[1].From.Path != "/record/title" {
		t.Errorf("Maps[1].From = %+v", doc.Maps[1].From)
	}
	if doc.Tables["genres"]["fic"] != "Fiction" {
		t.Errorf("Tables = %+v", doc.Tables)
	}
	if p, ok := doc.Param("base"); !ok || p.Pattern != "https://example.org" {
		t.Errorf("Param(base) = %+v, %v", p, ok)
	}
}

func TestParseStructuredDialect(t *testing.T) {
	content := `{
	  "info": {"label": "JSON test", "querier": "jsonpath"},
	  "params": {"base": "https://example.org"},
	  "maps": [
	    {"from": "title", "to": "dcterms:title"},
	    "creator = dcterms:creator"
	  ],
	  "tables": {"genres": {"fic": "Fiction"}}
	}`

	c := NewConfig(lookup.NewMemoryDefaults())
	doc := c.Parse("jsontest", content)

	if doc.HasError {
		t.Fatal("HasError = true, want clean parse")
	}
	if doc.Querier() != QuerierJSONPath {
		t.Errorf("Querier() = %q, want jsonpath", doc.Querier())
	}
	if len(doc.Maps) != 2 {
		t.Fatalf("len(Maps) = %d, want 2", len(doc.Maps))
	}
	if doc.Maps[0].From.Type != QuerierJSONPath {
		t.Errorf("Maps[0].From.Type = %q, want document querier", doc.Maps[0].From.Type)
	}
	if doc.Maps[1].To.Field != "dcterms:creator" {
		t.Errorf("Maps[1].To = %+v", doc.Maps[1].To)
	}
}

func TestParseErrorDocument(t *testing.T) {
	c := NewConfig(lookup.NewMemoryDefaults())
	doc := c.Parse("broken", "<mapping><unclosed>")
	if len(doc.Maps) != 0 {
		t.Errorf("Maps = %+v, want empty document", doc.Maps)
	}
	doc = c.Parse("empty", "   \n  ")
	if !doc.HasError {
		t.Error("HasError = false for empty content")
	}
}

func TestConfigCache(t *testing.T) {
	c := NewConfig(lookup.NewMemoryDefaults())

	first := c.Parse("cached", "Title = dcterms:title")
	second := c.Parse("cached", "Other = dcterms:creator")
	if first != second {
		t.Error("second parse under the same name did not hit the cache")
	}
	if second.Maps[0].From.Path != "Title" {
		t.Error("cached document was replaced")
	}

	// Anonymous content is keyed by hash: same content, same document.
	a := c.Parse("", "Title = dcterms:title")
	b := c.Parse("", "Title = dcterms:title")
	if a != b {
		t.Error("identical anonymous content parsed twice")
	}
}

func TestDocumentInlineContent(t *testing.T) {
	c := NewConfig(lookup.NewMemoryDefaults())
	doc := c.Document("[info]\nlabel = Inline\n[maps]\nTitle = dcterms:title")
	if doc.HasError || doc.Label() != "Inline" {
		t.Fatalf("doc = %+v, want inline parse", doc)
	}
}

func TestBundledMappings(t *testing.T) {
	c := NewConfig(lookup.NewMemoryDefaults())

	doc := c.Document("dublin_core.ini")
	if doc.HasError {
		t.Fatal("bundled dublin_core.ini failed to parse")
	}
	if doc.Querier() != QuerierXPath {
		t.Errorf("Querier() = %q, want xpath", doc.Querier())
	}
	// The inherited default from common/base.ini comes first.
	if len(doc.Maps) == 0 || !doc.Maps[0].From.IsNone() || doc.Maps[0].To.Field != "dcterms:rights" {
		t.Errorf("Maps[0] = %+v, want inherited rights default", doc.Maps[0])
	}
	if _, ok := doc.Param("rights_statement"); !ok {
		t.Error("inherited param rights_statement missing")
	}

	list := c.Resolver().List()
	if len(list) < 3 {
		t.Errorf("List() = %v, want the bundled files", list)
	}
}

func TestInheritanceOverride(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("common/base.ini", `[params]
rights = default rights
[maps]
Title = dcterms:title
[tables]
genres.fic = Fiction
`)
	write("child.ini", `[info]
mapper = base.ini
[params]
rights = child rights
[maps]
Creator = dcterms:creator
[tables]
genres.nf = Non-fiction
`)

	c := NewConfig(lookup.NewMemoryDefaults(),
		WithResolver(NewResolver(WithModuleDir(dir))))
	doc := c.Document("child.ini")

	if doc.HasError {
		t.Fatal("child failed to parse")
	}
	// Base maps first, then the child's own.
	if len(doc.Maps) != 2 || doc.Maps[0].From.Path != "Title" || doc.Maps[1].From.Path != "Creator" {
		t.Fatalf("Maps = %+v, want base Title then child Creator", doc.Maps)
	}
	// The child's param wins over the base's, keeping the base position.
	if p, ok := doc.Param("rights"); !ok || p.Pattern != "child rights" {
		t.Errorf("Param(rights) = %+v, want the child value", p)
	}
	// Tables merge per code.
	if doc.Tables["genres"]["fic"] != "Fiction" || doc.Tables["genres"]["nf"] != "Non-fiction" {
		t.Errorf("Tables = %+v, want merged genres", doc.Tables)
	}
}

func TestMutuallyReferencingBases(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		if err := os.WriteFile(filepath.Join(dir, rel), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.ini", `[info]
mapper = b.ini
[maps]
Title = dcterms:title
`)
	write("b.ini", `[info]
mapper = a.ini
[maps]
Creator = dcterms:creator
`)

	c := NewConfig(lookup.NewMemoryDefaults(),
		WithResolver(NewResolver(WithModuleDir(dir))))

	done := make(chan *Document, 1)
	go func() { done <- c.Document("a.ini") }()
	select {
	case doc := <-done:
		if doc.HasError {
			t.Fatal("a.ini failed to parse")
		}
		// b's maps merge in once; the cycle back to a is dropped.
		if len(doc.Maps) != 2 || doc.Maps[0].From.Path != "Creator" || doc.Maps[1].From.Path != "Title" {
			t.Fatalf("Maps = %+v, want base Creator then own Title", doc.Maps)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Document(a.ini) did not return, inheritance cycle not broken")
	}
}

func TestSelfReferencingBase(t *testing.T) {
	c := NewConfig(lookup.NewMemoryDefaults())
	doc := c.Parse("loop", "[info]\nmapper = loop\n[maps]\nTitle = dcterms:title")
	if doc.HasError || len(doc.Maps) != 1 {
		t.Fatalf("doc = %+v, want the self-reference ignored", doc)
	}
}

func TestStaticParamEvaluation(t *testing.T) {
	content := `[params]
base = https://example.org
item_url = {base}/items
upper_base = {{ base|upper }}
per_record = {base}/items/{id}
`
	c := NewConfig(lookup.NewMemoryDefaults())
	doc := c.Parse("params", content)

	tests := []struct {
		name   string
		static bool
		value  string
	}{
		{"base", true, "https://example.org"},
		{"item_url", true, "https://example.org/items"},
		{"upper_base", true, "HTTPS://EXAMPLE.ORG"},
		{"per_record", false, ""},
	}
	for _, tt := range tests {
		p, ok := doc.Param(tt.name)
		if !ok {
			t.Fatalf("param %q missing", tt.name)
		}
		if p.Static != tt.static || p.Value != tt.value {
			t.Errorf("param %q = {static:%v value:%q}, want {static:%v value:%q}",
				tt.name, p.Static, p.Value, tt.static, tt.value)
		}
	}

	vars := doc.StaticVars()
	if vars["item_url"] != "https://example.org/items" {
		t.Errorf("StaticVars() = %v", vars)
	}
	dynamic := doc.DynamicParams()
	if len(dynamic) != 1 || dynamic[0].Name != "per_record" {
		t.Errorf("DynamicParams() = %+v, want per_record only", dynamic)
	}
}

func TestStaticParamsSeed(t *testing.T) {
	c := NewConfig(lookup.NewMemoryDefaults(),
		WithStaticVars(map[string]string{"source_url": "https://host/feed"}))
	doc := c.Parse("seeded", "[params]\nfeed = {source_url}/items")
	p, _ := doc.Param("feed")
	if !p.Static || p.Value != "https://host/feed/items" {
		t.Errorf("param feed = %+v, want seeded static value", p)
	}
}
