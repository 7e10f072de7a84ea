package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/heritage-libraries/mapflow/convert"
	"github.com/heritage-libraries/mapflow/lookup"
	"github.com/heritage-libraries/mapflow/mapping"
)

var (
	mappingRef   string
	inputFile    string
	outputFile   string
	inputFormat  string
	staticParams map[string]string
	userMapDir   string
	noHeader     bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert source records through a mapping",
	Long: `Convert source records into normalized field-value records.

The mapping is a reference (bundled file, user: or mapping: prefixed) or a
path. Input defaults to stdin, output defaults to stdout; one JSON record
per input record is written.

Examples:
  # Convert an XML record (stdin to stdout)
  cat record.xml | mapflow convert -m dublin_core.ini

  # Convert a JSON export, one record per array element
  mapflow convert -m spreadsheet.ini -i export.json

  # Convert a CSV with a header row
  mapflow convert -m spreadsheet.ini -i rows.csv -f csv

  # Seed static params
  mapflow convert -m harvest.ini -i feed.xml --param source_url=https://example.org/oai`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&mappingRef, "mapping", "m", "", "Mapping reference or file (required)")
	convertCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file (default: stdin)")
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	convertCmd.Flags().StringVarP(&inputFormat, "format", "f", "", "Input format: json, yaml, xml or csv (default: sniff)")
	convertCmd.Flags().StringToStringVar(&staticParams, "param", nil, "Static params as key=value, repeatable")
	convertCmd.Flags().StringVar(&userMapDir, "user-dir", "", "User mapping directory (default: $MAPFLOW_USER_DIR)")
	convertCmd.Flags().BoolVar(&noHeader, "no-header", false, "CSV input has no header row; cells address by position")
	_ = convertCmd.MarkFlagRequired("mapping")
}

func runConvert(cmd *cobra.Command, args []string) (err error) {
	var input io.Reader
	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			return fmt.Errorf("opening input file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing input file: %w", cerr)
			}
		}()
		input = f
	} else {
		input = os.Stdin
	}

	var output io.Writer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing output file: %w", cerr)
			}
		}()
		output = f
	} else {
		output = os.Stdout
	}

	cfg := mapping.NewConfig(lookup.NewMemoryDefaults(),
		mapping.WithResolver(mapping.NewResolver(mapping.WithUserDir(userDir(userMapDir)))),
		mapping.WithStaticVars(staticParams))

	doc := cfg.Document(mappingRef)
	if doc.HasError {
		return fmt.Errorf("mapping %q failed to parse", mappingRef)
	}

	conv := convert.New(doc)

	records, err := readRecords(input, inputFormat, conv)
	if err != nil {
		return err
	}
	for _, rec := range records {
		raw, err := rec.JSON()
		if err != nil {
			return fmt.Errorf("serializing record: %w", err)
		}
		if _, err := fmt.Fprintln(output, string(raw)); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	fmt.Fprintf(os.Stderr, "Converted %d records\n", len(records))
	return nil
}

// readRecords parses the input per format and converts each source record.
func readRecords(input io.Reader, format string, conv *convert.Converter) ([]*convert.Record, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	switch sniffFormat(format, data) {
	case "xml":
		return []*convert.Record{conv.ConvertXML(string(data))}, nil
	case "csv":
		return convertCSV(data, conv)
	default:
		return convertStructured(data, conv)
	}
}

// sniffFormat falls back to content sniffing when no format flag is given.
func sniffFormat(format string, data []byte) string {
	if format != "" {
		return strings.ToLower(format)
	}
	trimmed := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(trimmed, "<"):
		return "xml"
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		return "json"
	default:
		return "csv"
	}
}

// convertStructured decodes JSON or YAML. A top-level list converts element
// by element; anything else is one record.
func convertStructured(data []byte, conv *convert.Converter) ([]*convert.Record, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		if yerr := yaml.Unmarshal(data, &decoded); yerr != nil {
			return nil, fmt.Errorf("decoding input: %w", err)
		}
	}

	switch v := decoded.(type) {
	case []any:
		records := make([]*convert.Record, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				records = append(records, conv.ConvertStruct(m))
			}
		}
		return records, nil
	case map[string]any:
		return []*convert.Record{conv.ConvertStruct(v)}, nil
	default:
		return nil, fmt.Errorf("unsupported input shape %T", decoded)
	}
}

// convertCSV converts one record per row. With a header row, cells are
// addressable by column name; without one, by position.
func convertCSV(data []byte, conv *convert.Converter) ([]*convert.Record, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV input: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if noHeader {
		records := make([]*convert.Record, 0, len(rows))
		for _, row := range rows {
			records = append(records, conv.Convert(convert.NewRowSource(row)))
		}
		return records, nil
	}

	header := rows[0]
	records := make([]*convert.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		data := make(map[string]any, len(header))
		for i, cell := range row {
			if i < len(header) {
				data[header[i]] = cell
			}
		}
		records = append(records, conv.ConvertStruct(data))
	}
	return records, nil
}
