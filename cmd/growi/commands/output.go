package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/growi/internal/constants"
)

// Output formats.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
)

const notAvailable = "-"

func outputFormat() (string, error) {
	format := strings.ToLower(strings.TrimSpace(viper.GetString(keyOutput)))

	switch format {
	case "", OutputFormatTable:
		return OutputFormatTable, nil
	case OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidOutput, format)
	}
}

// render writes value as JSON or YAML, or hands a table to fill for the
// table format.
func render(cmd *cobra.Command, value interface{}, fill func(table *tablewriter.Table)) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(value)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(out)

		err = encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}

		return encoder.Close()
	default:
		table := tablewriter.NewWriter(out)
		fill(table)

		err = table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

func formatValue(value string) string {
	if value == "" {
		return notAvailable
	}

	return value
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return notAvailable
	}

	return value.Format(time.RFC3339)
}
