package convert

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jmespath/go-jmespath"
	"github.com/tidwall/gjson"

	"github.com/heritage-libraries/mapflow/mapping"
	"github.com/heritage-libraries/mapflow/value"
)

// Source gives the converter uniform access to one input record, whatever
// its shape. Values extracts per a map entry's source locator; Value
// resolves a bare placeholder path. A miss is an empty result, never an
// error.
type Source interface {
	Values(from mapping.From) []string
	Value(path string) (string, bool)
}

// StructSource adapts a nested key/value structure. Index lookups hit the
// top level directly, jsdot lookups go through the flattened view, and
// jsonpath/jmespath delegate to their query engines over the same data.
type StructSource struct {
	data map[string]any
	row  []string

	flatOnce sync.Once
	flat     map[string][]string

	jsonOnce sync.Once
	json     []byte
}

// NewStructSource wraps a decoded structure.
func NewStructSource(data map[string]any) *StructSource {
	return &StructSource{data: data}
}

// NewRowSource wraps a positional row, e.g. one spreadsheet line. Index
// entries address cells by position.
func NewRowSource(row []string) *StructSource {
	data := make(map[string]any, len(row))
	for i, cell := range row {
		data[value.Text(i)] = cell
	}
	return &StructSource{data: data, row: row}
}

// Values extracts every value the locator addresses, in document order.
func (s *StructSource) Values(from mapping.From) []string {
	switch from.Type {
	case mapping.QuerierIndex:
		if from.Index != nil && s.row != nil {
			if i := *from.Index; i >= 0 && i < len(s.row) {
				return nonEmpty(s.row[i])
			}
			return nil
		}
		if v, ok := s.data[from.Path]; ok {
			return value.Texts(v)
		}
		return nil
	case mapping.QuerierJSDot:
		return s.flatten()[from.Path]
	case mapping.QuerierJSONPath:
		return s.jsonPath(from.Path)
	case mapping.QuerierJMESPath:
		return s.jmesPath(from.Path)
	default:
		return nil
	}
}

// Value resolves a placeholder path: top-level key first, then the
// flattened view.
func (s *StructSource) Value(path string) (string, bool) {
	if v, ok := s.data[path]; ok {
		if texts := value.Texts(v); len(texts) > 0 {
			return texts[0], true
		}
		return "", false
	}
	if vals := s.flatten()[path]; len(vals) > 0 {
		return vals[0], true
	}
	return "", false
}

func (s *StructSource) flatten() map[string][]string {
	s.flatOnce.Do(func() {
		s.flat = Flatten(s.data)
	})
	return s.flat
}

func (s *StructSource) jsonPath(path string) []string {
	raw := s.marshal()
	if raw == nil {
		return nil
	}
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return nil
	}
	if res.IsArray() {
		var out []string
		for _, item := range res.Array() {
			if str := item.String(); str != "" {
				out = append(out, str)
			}
		}
		return out
	}
	return nonEmpty(res.String())
}

func (s *StructSource) jmesPath(path string) []string {
	res, err := jmespath.Search(path, s.data)
	if err != nil {
		slog.Debug("jmespath query failed", "path", path, "error", err)
		return nil
	}
	var out []string
	for _, item := range value.Texts(res) {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// marshal serializes the structure once for the json-path engine. A
// structure that cannot serialize simply yields no values.
func (s *StructSource) marshal() []byte {
	s.jsonOnce.Do(func() {
		raw, err := json.Marshal(s.data)
		if err != nil {
			slog.Debug("source not serializable for jsonpath", "error", err)
			return
		}
		s.json = raw
	})
	return s.json
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}
