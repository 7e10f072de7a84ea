package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heritage-libraries/mapflow/automap"
	"github.com/heritage-libraries/mapflow/lookup"
)

var (
	automapNamesAlone bool
	automapStructural bool
)

var automapCmd = &cobra.Command{
	Use:   "automap <heading>...",
	Short: "Resolve column headings to destination fields",
	Long: `Automap resolves free-form column headings against the known
vocabularies, the way a spreadsheet import would.

Each heading prints its resolved field spec, or "-" when nothing matches.

Examples:
  mapflow automap "Title" "Date Issued ^^xsd:date" "dcterms:creator"
  mapflow automap --names-alone isPartOf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAutomap,
}

func init() {
	automapCmd.Flags().BoolVar(&automapNamesAlone, "names-alone", false, "Also match bare local names without a vocabulary prefix")
	automapCmd.Flags().BoolVar(&automapStructural, "structural", false, "Parse specs without checking that fields exist")
}

func runAutomap(cmd *cobra.Command, args []string) error {
	resolver := automap.NewResolver(lookup.NewMemoryDefaults())
	opts := &automap.Options{
		CheckNamesAlone: automapNamesAlone,
		SkipValidation:  automapStructural,
	}

	resolved := resolver.Automap(args, opts)
	for i, heading := range args {
		for _, target := range resolved[i] {
			if target == nil {
				fmt.Printf("%s\t-\n", heading)
				continue
			}
			fmt.Printf("%s\t%s\n", heading, target.FieldSpec())
		}
	}
	return nil
}
