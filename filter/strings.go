package filter

import (
	"fmt"
	"html"
	"math"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/heritage-libraries/mapflow/value"
)

// filterAbs returns the absolute numeric value when the input has a numeric
// lexical form, and the input unchanged otherwise.
func filterAbs(ctx *Context, v Value, args *Args) Value {
	return v.Map(func(s string) string {
		if !value.IsNumeric(s) {
			return s
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return s
		}
		f = math.Abs(f)
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	})
}

func filterBasename(ctx *Context, v Value, args *Args) Value {
	return v.Map(func(s string) string {
		if s == "" {
			return s
		}
		base := path.Base(strings.TrimRight(s, "/"))
		if base == "." || base == "/" {
			return ""
		}
		return base
	})
}

func filterCapitalize(ctx *Context, v Value, args *Args) Value {
	return v.Map(func(s string) string {
		if s == "" {
			return s
		}
		runes := []rune(strings.ToLower(s))
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	})
}

func filterEscape(ctx *Context, v Value, args *Args) Value {
	return v.Map(html.EscapeString)
}

func filterFirst(ctx *Context, v Value, args *Args) Value {
	if v.IsList() {
		items := v.Items()
		if len(items) == 0 {
			return String("")
		}
		return String(items[0])
	}
	runes := []rune(v.Text())
	if len(runes) == 0 {
		return String("")
	}
	return String(string(runes[0]))
}

func filterLast(ctx *Context, v Value, args *Args) Value {
	if v.IsList() {
		items := v.Items()
		if len(items) == 0 {
			return String("")
		}
		return String(items[len(items)-1])
	}
	runes := []rune(v.Text())
	if len(runes) == 0 {
		return String("")
	}
	return String(string(runes[len(runes)-1]))
}

func filterLength(ctx *Context, v Value, args *Args) Value {
	if v.IsList() {
		return String(strconv.Itoa(len(v.Items())))
	}
	return String(strconv.Itoa(len([]rune(v.Text()))))
}

var formatVerbRegex = regexp.MustCompile(`%[-+ #0-9.]*[a-zA-Z]`)

// filterFormat formats the running value through a printf-style template.
// The template is the first argument; every verb consumes the value.
func filterFormat(ctx *Context, v Value, args *Args) Value {
	tpl := args.At(0)
	if tpl == "" {
		return v
	}
	verbs := formatVerbRegex.FindAllString(tpl, -1)
	if len(verbs) == 0 {
		return String(tpl)
	}
	s := v.Text()
	fargs := make([]any, 0, len(verbs))
	for _, verb := range verbs {
		switch verb[len(verb)-1] {
		case 'd', 'b', 'o', 'x', 'X':
			fargs = append(fargs, value.Int(s))
		case 'f', 'e', 'g':
			f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
			fargs = append(fargs, f)
		default:
			fargs = append(fargs, s)
		}
	}
	return String(fmt.Sprintf(tpl, fargs...))
}

// filterImplode joins a list with a delimiter; extra arguments append as
// additional items before joining.
func filterImplode(ctx *Context, v Value, args *Args) Value {
	list := args.List()
	delim := ""
	if len(list) > 0 {
		delim = list[0]
	}
	items := append([]string{}, v.Items()...)
	if len(list) > 1 {
		items = append(items, list[1:]...)
	}
	return String(strings.Join(items, delim))
}

// filterImplodeV is implode with empty items dropped before joining.
func filterImplodeV(ctx *Context, v Value, args *Args) Value {
	list := args.List()
	delim := ""
	if len(list) > 0 {
		delim = list[0]
	}
	items := append([]string{}, v.Items()...)
	if len(list) > 1 {
		items = append(items, list[1:]...)
	}
	kept := items[:0]
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	return String(strings.Join(kept, delim))
}

func filterLower(ctx *Context, v Value, args *Args) Value {
	return v.Map(strings.ToLower)
}

func filterUpper(ctx *Context, v Value, args *Args) Value {
	return v.Map(strings.ToUpper)
}

// filterReplace substitutes every key of an associative argument with its
// value. Longer keys substitute first so overlapping keys resolve
// deterministically.
func filterReplace(ctx *Context, v Value, args *Args) Value {
	pairs := args.Assoc()
	if len(pairs) == 0 {
		return v
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return v.Map(func(s string) string {
		for _, k := range keys {
			s = strings.ReplaceAll(s, k, pairs[k])
		}
		return s
	})
}

// filterSlice extracts a sub-list or substring with PHP-style negative
// offsets. A third preserve-keys argument is accepted and ignored.
func filterSlice(ctx *Context, v Value, args *Args) Value {
	start := value.Int(args.At(0))
	var length *int
	if args.Len() > 1 {
		n := value.Int(args.At(1))
		length = &n
	}
	if v.IsList() {
		items := v.Items()
		lo, hi := sliceBounds(len(items), start, length)
		return List(append([]string{}, items[lo:hi]...))
	}
	runes := []rune(v.Text())
	lo, hi := sliceBounds(len(runes), start, length)
	return String(string(runes[lo:hi]))
}

func sliceBounds(n, start int, length *int) (int, int) {
	lo := start
	if lo < 0 {
		lo = n + lo
	}
	if lo < 0 {
		lo = 0
	}
	if lo > n {
		lo = n
	}
	hi := n
	if length != nil {
		if *length < 0 {
			hi = n + *length
		} else {
			hi = lo + *length
		}
	}
	if hi > n {
		hi = n
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// filterSplit turns the value into a list. The result stays a list through
// the rest of the chain until joined or reduced.
func filterSplit(ctx *Context, v Value, args *Args) Value {
	delim := args.At(0)
	if delim == "" {
		return v
	}
	limit := -1
	if args.Len() > 1 {
		if n := value.Int(args.At(1)); n > 0 {
			limit = n
		}
	}
	return List(strings.SplitN(v.Text(), delim, limit))
}

func filterStripTags(ctx *Context, v Value, args *Args) Value {
	return v.Map(value.StripTags)
}

var titleCaser = cases.Title(language.Und)

func filterTitle(ctx *Context, v Value, args *Args) Value {
	return v.Map(titleCaser.String)
}

// filterTranslate localizes through the translator collaborator; without
// one the value passes through unchanged.
func filterTranslate(ctx *Context, v Value, args *Args) Value {
	if ctx.Translator == nil {
		return v
	}
	return v.Map(ctx.Translator.Translate)
}

// phpTrimDefault is the default character mask of PHP's trim.
const phpTrimDefault = " \t\n\r\x00\x0B"

func filterTrim(ctx *Context, v Value, args *Args) Value {
	mask := args.At(0)
	if mask == "" {
		mask = phpTrimDefault
	}
	side := args.At(1)
	return v.Map(func(s string) string {
		switch side {
		case "left":
			return strings.TrimLeft(s, mask)
		case "right":
			return strings.TrimRight(s, mask)
		default:
			return strings.Trim(s, mask)
		}
	})
}

func filterURLEncode(ctx *Context, v Value, args *Args) Value {
	return v.Map(url.QueryEscape)
}
