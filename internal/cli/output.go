package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/MimoJanra/PortPulse/internal/models"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	successStyle = cellStyle.Foreground(lipgloss.Color("2"))
	failedStyle  = cellStyle.Foreground(lipgloss.Color("1"))
)

func validFormat(format string) bool {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return true
	}
	return false
}

// render writes a single result as an object and several as a list.
func render(w io.Writer, format string, results []models.ProbeResult) error {
	var payload any = results
	if len(results) == 1 {
		payload = results[0]
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, renderTable(results))
		return err
	}
}

func renderTable(results []models.ProbeResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Target,
			string(r.HostReachable),
			strconv.Itoa(r.Port),
			string(r.ConnectionStatus),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TARGET", "HOST REACHABLE", "PORT", "CONNECTION STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row >= 0 && row < len(results) {
				if results[row].Succeeded() {
					return successStyle
				}
				return failedStyle
			}
			return cellStyle
		})

	return t.String()
}
