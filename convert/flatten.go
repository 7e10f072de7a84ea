package convert

import (
	"strings"

	"github.com/heritage-libraries/mapflow/value"
)

// Flatten collapses a nested structure into dot-joined keys mapped to their
// leaf values. Lists of scalars collect under the parent key; lists of
// structures additionally expand under "parent[].child" so spreadsheet-style
// repeated-field blocks stay addressable.
//
// Literal "." and "\" in original key names are escaped only when a join
// happens, so flattening an already-flat structure returns it unchanged.
func Flatten(data map[string]any) map[string][]string {
	out := make(map[string][]string, len(data))
	for k, v := range data {
		flattenInto(out, k, v)
	}
	return out
}

func flattenInto(out map[string][]string, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flattenInto(out, prefix+"."+escapeKey(k), child)
		}
	case []any:
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				for k, child := range m {
					flattenInto(out, prefix+"[]."+escapeKey(k), child)
				}
				continue
			}
			flattenInto(out, prefix, item)
		}
	case nil:
		// Absent leaves produce nothing.
	default:
		out[prefix] = append(out[prefix], value.Text(val))
	}
}

func escapeKey(k string) string {
	if !strings.ContainsAny(k, `.\`) {
		return k
	}
	k = strings.ReplaceAll(k, `\`, `\\`)
	return strings.ReplaceAll(k, ".", `\.`)
}
