package filter

import (
	"testing"

	"github.com/heritage-libraries/mapflow/pattern"
)

func renderOne(t *testing.T, p, val string) string {
	t.Helper()
	e := NewEvaluator()
	return e.Render(pattern.Parse(p), map[string]string{"value": val})
}

func TestDateFilter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		expr  string
		want  string
	}{
		{"reformat iso to year", "2021-05-04", "{{ value|date('Y') }}", "2021"},
		{"reformat slashes", "2021/05/04", "{{ value|date('d/m/Y') }}", "04/05/2021"},
		{"unparseable passes through", "not a date", "{{ value|date('Y') }}", "not a date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderOne(t, tt.expr, tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDateIso(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"full date", "19850412", "1985-04-12"},
		{"year month", "198504", "1985-04"},
		{"year only", "1985", "1985"},
		{"uncertain passes through", "19uu", "19uu"},
		{"bce sign", "-0044", "-0044"},
		{"bce d marker", "d0044", "-0044"},
		{"ce plus sign", "+1985", "1985"},
		{"ce space", " 19850412", "1985-04-12"},
		{"garbage passes through", "19-85", "19-85"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderOne(t, "{{ value|dateIso }}", tt.input); got != tt.want {
				t.Errorf("dateIso(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateRevert(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"31/12/2021", "2021-12-31"},
		{"31.12.21", "2021-12-31"},
		{"4/5/1999", "1999-05-04"},
		{"2021-12-31", "2021-12-31"}, // already ISO-shaped: no d/m/y match... passes through
		{"foo", "foo"},
	}
	for _, tt := range tests {
		got := renderOne(t, "{{ value|dateRevert }}", tt.input)
		if got != tt.want {
			t.Errorf("dateRevert(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDateSQL(t *testing.T) {
	got := renderOne(t, "{{ value|dateSql }}", "20210504142236.0")
	if got != "2021-05-04 14:22:36" {
		t.Errorf("dateSql = %q", got)
	}
	if got := renderOne(t, "{{ value|dateSql }}", "202105"); got != "202105" {
		t.Errorf("short input should pass through, got %q", got)
	}
}
