package filter

import (
	"reflect"
	"testing"
)

func TestArgsList(t *testing.T) {
	vars := map[string]string{"sep": ";"}
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"quoted strings", "'a', \"b\"", []string{"a", "b"}},
		{"bare number", "42, 'x'", []string{"42", "x"}},
		{"variable reference", "{{ sep }}, 2", []string{";", "2"}},
		{"unresolved variable keeps raw token", "{{ missing }}", []string{"{{ missing }}"}},
		{"comma inside quotes", "'a,b', 'c'", []string{"a,b", "c"}},
		{"nested braces survive", "{'a': 'b'}, strict", []string{"{'a': 'b'}", "strict"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newArgs(tt.raw, vars).List()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("List(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestArgsAssoc(t *testing.T) {
	got := newArgs("{'a': '1', 'b, c': 'x:y'}", nil).Assoc()
	want := map[string]string{"a": "1", "b, c": "x:y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assoc = %v, want %v", got, want)
	}
}

func TestArgsAt(t *testing.T) {
	a := newArgs("'x', 'y'", nil)
	if a.At(0) != "x" || a.At(1) != "y" || a.At(2) != "" {
		t.Errorf("At = %q %q %q", a.At(0), a.At(1), a.At(2))
	}
}
