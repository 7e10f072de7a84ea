package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heritage-libraries/mapflow/lookup"
	"github.com/heritage-libraries/mapflow/mapping"
)

var mappingsUserDir string

var mappingsCmd = &cobra.Command{
	Use:   "mappings [reference]",
	Short: "List bundled mappings or show one",
	Long: `Without arguments, list the bundled mapping files. With a reference,
parse it and print its entries in canonical form.

Examples:
  mapflow mappings
  mapflow mappings dublin_core.ini`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMappings,
}

func init() {
	mappingsCmd.Flags().StringVar(&mappingsUserDir, "user-dir", "", "User mapping directory (default: $MAPFLOW_USER_DIR)")
}

func runMappings(cmd *cobra.Command, args []string) error {
	resolver := mapping.NewResolver(mapping.WithUserDir(userDir(mappingsUserDir)))

	if len(args) == 0 {
		for _, name := range resolver.List() {
			fmt.Println(name)
		}
		return nil
	}

	cfg := mapping.NewConfig(lookup.NewMemoryDefaults(), mapping.WithResolver(resolver))
	doc := cfg.Document(args[0])
	if doc.HasError {
		return fmt.Errorf("mapping %q failed to parse", args[0])
	}

	fmt.Printf("label:   %s\n", doc.Label())
	fmt.Printf("querier: %s\n", doc.Querier())
	for _, p := range doc.Params {
		if p.Static {
			fmt.Printf("param:   %s = %s\n", p.Name, p.Value)
		} else {
			fmt.Printf("param:   %s ~ %s\n", p.Name, p.Pattern)
		}
	}
	for _, e := range doc.Maps {
		source := e.From.Path
		if e.From.IsNone() {
			source = "~"
		}
		line := fmt.Sprintf("map:     %s = %s", source, e.To.FieldSpec())
		switch {
		case e.Mod.Raw != "":
			line += fmt.Sprintf(" ~ %q", e.Mod.Raw)
		case e.Mod.Pattern != "":
			line += " ~ " + e.Mod.Pattern
		}
		fmt.Println(line)
	}
	for name, table := range doc.Tables {
		fmt.Printf("table:   %s (%d terms)\n", name, len(table))
	}
	return nil
}
