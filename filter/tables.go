package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// filterTable maps codes through a table: an inline literal ({'a': 'b'}),
// a named table from the mapping document, or one of the built-in ISO code
// tables. Unresolved keys pass the input through unchanged.
//
// The optional second argument selects the direction: "label" (default)
// maps code to label, "code" maps label back to code. The optional third
// argument enables strict matching; the default match is case- and
// diacritic-insensitive.
func filterTable(ctx *Context, v Value, args *Args) Value {
	list := args.List()
	if len(list) == 0 {
		return v
	}

	var table map[string]string
	first := strings.TrimSpace(list[0])
	if strings.HasPrefix(first, "{") {
		table = args.AssocFrom(first)
	} else if ctx.Tables != nil {
		table, _ = ctx.Tables(first)
	}
	if len(table) == 0 {
		return v
	}

	direction := "label"
	strict := false
	for _, arg := range list[1:] {
		switch strings.ToLower(strings.TrimSpace(arg)) {
		case "label", "code":
			direction = strings.ToLower(strings.TrimSpace(arg))
		case "strict", "true", "1":
			strict = true
		}
	}

	if direction == "code" {
		reversed := make(map[string]string, len(table))
		for k, val := range table {
			reversed[val] = k
		}
		table = reversed
	}

	return v.Map(func(s string) string {
		if out, ok := table[s]; ok {
			return out
		}
		if strict {
			return s
		}
		want := Fold(s)
		for k, out := range table {
			if Fold(k) == want {
				return out
			}
		}
		return s
	})
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and strips diacritics for non-strict table matching.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// builtinTable returns one of the bundled ISO code tables.
func builtinTable(name string) (map[string]string, bool) {
	switch Fold(name) {
	case "iso639", "iso639-1", "languages":
		return iso639Table, true
	case "iso3166", "iso3166-1", "countries":
		return iso3166Table, true
	}
	return nil, false
}

// iso639Table maps ISO 639 language codes (both alpha-2 and bibliographic
// alpha-3) to English names.
var iso639Table = map[string]string{
	"ar":  "Arabic",
	"ara": "Arabic",
	"cs":  "Czech",
	"cze": "Czech",
	"da":  "Danish",
	"dan": "Danish",
	"de":  "German",
	"ger": "German",
	"el":  "Greek",
	"gre": "Greek",
	"en":  "English",
	"eng": "English",
	"es":  "Spanish",
	"spa": "Spanish",
	"fi":  "Finnish",
	"fin": "Finnish",
	"fr":  "French",
	"fre": "French",
	"he":  "Hebrew",
	"heb": "Hebrew",
	"hu":  "Hungarian",
	"hun": "Hungarian",
	"it":  "Italian",
	"ita": "Italian",
	"ja":  "Japanese",
	"jpn": "Japanese",
	"ko":  "Korean",
	"kor": "Korean",
	"la":  "Latin",
	"lat": "Latin",
	"nl":  "Dutch",
	"dut": "Dutch",
	"no":  "Norwegian",
	"nor": "Norwegian",
	"pl":  "Polish",
	"pol": "Polish",
	"pt":  "Portuguese",
	"por": "Portuguese",
	"ro":  "Romanian",
	"rum": "Romanian",
	"ru":  "Russian",
	"rus": "Russian",
	"sv":  "Swedish",
	"swe": "Swedish",
	"tr":  "Turkish",
	"tur": "Turkish",
	"zh":  "Chinese",
	"chi": "Chinese",
}

// iso3166Table maps ISO 3166-1 alpha-2 country codes to English names.
var iso3166Table = map[string]string{
	"AR": "Argentina",
	"AT": "Austria",
	"AU": "Australia",
	"BE": "Belgium",
	"BR": "Brazil",
	"CA": "Canada",
	"CH": "Switzerland",
	"CN": "China",
	"CZ": "Czechia",
	"DE": "Germany",
	"DK": "Denmark",
	"EG": "Egypt",
	"ES": "Spain",
	"FI": "Finland",
	"FR": "France",
	"GB": "United Kingdom",
	"GR": "Greece",
	"HU": "Hungary",
	"IE": "Ireland",
	"IL": "Israel",
	"IN": "India",
	"IT": "Italy",
	"JP": "Japan",
	"KR": "South Korea",
	"MA": "Morocco",
	"MX": "Mexico",
	"NL": "Netherlands",
	"NO": "Norway",
	"NZ": "New Zealand",
	"PL": "Poland",
	"PT": "Portugal",
	"RO": "Romania",
	"RU": "Russia",
	"SE": "Sweden",
	"TR": "Turkey",
	"US": "United States",
	"ZA": "South Africa",
}
