package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heritage-libraries/mapflow/filter"
	"github.com/heritage-libraries/mapflow/lookup"
	"github.com/heritage-libraries/mapflow/mapping"
	"github.com/heritage-libraries/mapflow/pattern"
)

var checkUserDir string

var checkCmd = &cobra.Command{
	Use:   "check <mapping>...",
	Short: "Check mapping documents for problems",
	Long: `Check parses each mapping reference and reports problems a conversion
run would only log: parse failures, unknown destination terms, unknown
filter names.

Exits non-zero when any mapping has a problem.

Examples:
  mapflow check dublin_core.ini
  mapflow check user:my_mapping.ini user:other.ini`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkUserDir, "user-dir", "", "User mapping directory (default: $MAPFLOW_USER_DIR)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := mapping.NewConfig(lookup.NewMemoryDefaults(),
		mapping.WithResolver(mapping.NewResolver(mapping.WithUserDir(userDir(checkUserDir)))))

	problems := 0
	for _, ref := range args {
		doc := cfg.Document(ref)
		for _, p := range checkDocument(doc) {
			problems++
			fmt.Fprintf(os.Stderr, "%s: %s\n", ref, p)
		}
		fmt.Printf("%s: %d entries, %d params, %d tables\n",
			ref, len(doc.Maps), len(doc.Params), len(doc.Tables))
	}
	if problems > 0 {
		return fmt.Errorf("%d problems found", problems)
	}
	return nil
}

// checkDocument lists everything a reviewer would want fixed before using
// the mapping.
func checkDocument(doc *mapping.Document) []string {
	if doc.HasError {
		return []string{"failed to parse"}
	}

	var out []string
	registry := filter.DefaultRegistry()
	for i, e := range doc.Maps {
		if e.IsInert() {
			out = append(out, fmt.Sprintf("map %d: no destination field", i+1))
			continue
		}
		if e.To.PropertyID == nil {
			out = append(out, fmt.Sprintf("map %d: unknown term %q", i+1, e.To.Field))
		}
		out = append(out, checkPattern(registry, fmt.Sprintf("map %d", i+1), e.Mod.Parsed, paramNames(doc))...)
	}
	for _, p := range doc.Params {
		out = append(out, checkPattern(registry, "param "+p.Name, p.Parsed, paramNames(doc))...)
	}
	return out
}

// checkPattern flags filter names that are neither registered filters nor
// declared params. Unknown names silently degrade to variable lookups at
// conversion time, which is usually a typo.
func checkPattern(registry *filter.Registry, where string, pr *pattern.Result, params map[string]bool) []string {
	if pr == nil {
		return nil
	}
	var out []string
	for _, expr := range pr.Filters {
		for _, name := range pattern.ExtractFilters(expr) {
			if _, ok := registry.Get(name); ok {
				continue
			}
			if params[name] {
				continue
			}
			out = append(out, fmt.Sprintf("%s: unknown filter %q", where, name))
		}
	}
	return out
}

func paramNames(doc *mapping.Document) map[string]bool {
	names := make(map[string]bool, len(doc.Params))
	for _, p := range doc.Params {
		names[p.Name] = true
	}
	return names
}
