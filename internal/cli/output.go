package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/launchbynttdata/build-info/internal/version"
)

type outputFormat string

const (
	outputText  outputFormat = "text"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
	outputTable outputFormat = "table"
)

const absentCell = "-"

func parseOutputFormat(value string) (outputFormat, error) {
	switch format := outputFormat(strings.ToLower(strings.TrimSpace(value))); format {
	case "":
		return outputText, nil
	case outputText, outputJSON, outputYAML, outputTable:
		return format, nil
	default:
		return "", fmt.Errorf("invalid %s %q (want text, json, yaml or table)", flagOutput, value)
	}
}

func renderVersion(w io.Writer, v version.Version, format outputFormat) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v.Info()); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v.Info()); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return nil
	case outputTable:
		renderTable(w, v)
		return nil
	default:
		if _, err := fmt.Fprintln(w, v.Long()); err != nil {
			return fmt.Errorf("writing version info: %w", err)
		}
		return nil
	}
}

func renderTable(w io.Writer, v version.Version) {
	info := v.Info()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Version", info.Short},
		{"Channel", cell(v.HostCompiler())},
		{"Commit", cell(v.CommitDescribe())},
		{"Commit date", cell(v.CommitDate())},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func cell(value string, ok bool) string {
	if !ok {
		return absentCell
	}
	return strings.TrimSpace(value)
}
