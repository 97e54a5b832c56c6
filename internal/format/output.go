package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Formats accepted by Write.
const (
	JSON = "json"
	EDN  = "edn"
	Text = "text"
)

// Tabular values can be written as a plain text table.
type Tabular interface {
	Header() []string
	Rows() [][]string
}

// Write encodes v as json (the default), edn or text. Text requires v to be
// Tabular, a fmt.Stringer or a string.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(format) {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	case Text:
		return WriteText(w, v)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func WriteText(w io.Writer, v any) error {
	switch t := v.(type) {
	case Tabular:
		_, err := fmt.Fprintln(w, renderTable(t))
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(w, t.String())
		return err
	case string:
		_, err := fmt.Fprintln(w, t)
		return err
	default:
		return fmt.Errorf("text output not supported for %T", v)
	}
}

func renderTable(t Tabular) string {
	header := lipgloss.NewStyle().Bold(true).PaddingRight(2)
	cell := lipgloss.NewStyle().PaddingRight(2)
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(t.Header()...).
		Rows(t.Rows()...).
		Render()
}
