package filter

import "testing"

func TestIsbdName(t *testing.T) {
	tests := []struct {
		name string
		expr string
		val  string
		want string
	}{
		{
			name: "full name",
			expr: "{{ value|split(';')|isbdName }}",
			val:  "Louis;IX;roi de France;Saint;1214-1270",
			want: "Louis, IX, Saint (roi de France) (1214-1270)",
		},
		{
			name: "name and dates only",
			expr: "{{ value|split(';')|isbdName }}",
			val:  "Hugo, Victor;;;;1802-1885",
			want: "Hugo, Victor (1802-1885)",
		},
		{
			name: "empty name yields empty",
			expr: "{{ value|isbdName }}",
			val:  "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderOne(t, tt.expr, tt.val); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsbdNameColl(t *testing.T) {
	got := renderOne(t, "{{ value|split(';')|isbdNameColl }}",
		"France;Ministère de la culture;Direction du livre;;Paris;1981-1986")
	want := "France. Ministère de la culture. Direction du livre (Paris ; 1981-1986)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIsbdMark(t *testing.T) {
	got := renderOne(t, "{{ value|split(';')|isbdMark }}", "Gallimard;éditeur;1911-")
	want := "Gallimard (éditeur), 1911-"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUnimarcIndex(t *testing.T) {
	got := renderOne(t, "{{ value|unimarcIndex(4) }}", "Les misérables")
	if got != "Misérables" {
		t.Errorf("got %q", got)
	}
	got = renderOne(t, "{{ value|unimarcIndex }}", "misérables")
	if got != "Misérables" {
		t.Errorf("got %q", got)
	}
}

func TestUnimarcCoordinates(t *testing.T) {
	tests := []struct {
		expr string
		val  string
		want string
	}{
		{"{{ value|unimarcCoordinates }}", "W0794700", "W 79°47′00″"},
		{"{{ value|unimarcCoordinates }}", "E0023000", "E 2°30′00″"},
		{"{{ value|unimarcCoordinates }}", "Q0794700", "Q0794700"},
		{"{{ value|unimarcCoordinates }}", "W07947", "W07947"},
		{"{{ value|unimarcCoordinatesHexa }}", "0794700", "79°47′00″"},
		{"{{ value|unimarcCoordinatesHexa }}", "079", "079"},
	}
	for _, tt := range tests {
		if got := renderOne(t, tt.expr, tt.val); got != tt.want {
			t.Errorf("%s(%q) = %q, want %q", tt.expr, tt.val, got, tt.want)
		}
	}
}

func TestUnimarcTimeHexa(t *testing.T) {
	tests := []struct {
		val  string
		want string
	}{
		{"142236", "14h22m36s"},
		{"1422", "14h22m"},
		{"140000", "14h"},
		{"14", "14h"},
		{"1a2236", "1a2236"},
	}
	for _, tt := range tests {
		if got := renderOne(t, "{{ value|unimarcTimeHexa }}", tt.val); got != tt.want {
			t.Errorf("unimarcTimeHexa(%q) = %q, want %q", tt.val, got, tt.want)
		}
	}
}
