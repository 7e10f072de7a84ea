// Package cmd provides CLI commands for mapflow.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func setupLogger() {
	logLevel := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "INFO"
	}

	var level slog.Level
	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	logger := slog.New(handler)

	slog.SetDefault(logger)
}

var rootCmd = &cobra.Command{
	Use:   "mapflow",
	Short: "Map source metadata records into normalized field values",
	Long: `Mapflow converts source records into normalized field-value records
driven by declarative mapping documents.

Mappings are written in an INI dialect, XML or YAML/JSON, and pull values
out of nested structures, spreadsheet rows or XML trees.

Examples:
  mapflow convert -m dublin_core.ini -i record.xml
  cat export.json | mapflow convert -m spreadsheet.ini
  mapflow check user:my_mapping.ini
  mapflow mappings
  mapflow automap "Title" "Date Issued ^^xsd:date"`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// userDir returns the user mapping directory: flag first, then environment.
func userDir(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("MAPFLOW_USER_DIR")
}

func init() {
	// Development setups keep LOG_LEVEL and MAPFLOW_USER_DIR in a .env file.
	_ = godotenv.Load()
	setupLogger()
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(mappingsCmd)
	rootCmd.AddCommand(automapCmd)
}
