package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows under a header. Column widths fit the widest cell.
type Table struct {
	Headers []string
	Rows    [][]string
	SelIdx  int // highlighted row, -1 for none
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers, SelIdx: -1}
}

// AddRow appends a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) widths() []int {
	w := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		w[i] = lipgloss.Width(h)
	}
	for _, r := range t.Rows {
		for i := range w {
			if i < len(r) {
				w[i] = max(w[i], lipgloss.Width(r[i]))
			}
		}
	}
	return w
}

// Render returns the table as a string.
func (t *Table) Render() string {
	widths := t.widths()
	header := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)

	pad := func(s string, width int) string {
		if gap := width - lipgloss.Width(s); gap > 0 {
			return s + strings.Repeat(" ", gap)
		}
		return s
	}
	line := func(cells []string, style func(...string) string) string {
		parts := make([]string, len(widths))
		for i, w := range widths {
			var v string
			if i < len(cells) {
				v = cells[i]
			}
			parts[i] = style(pad(v, w))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	var sb strings.Builder
	sb.WriteString(line(t.Headers, header.Render) + "\n")
	divider := make([]string, len(widths))
	for i, w := range widths {
		divider[i] = strings.Repeat("─", w)
	}
	sb.WriteString(line(divider, StyleMeta.Render) + "\n")
	for i, r := range t.Rows {
		style := func(s ...string) string { return strings.Join(s, " ") }
		if i == t.SelIdx {
			style = StyleSelected.Render
		}
		sb.WriteString(line(r, style) + "\n")
	}
	return sb.String()
}

// KeyValueBlock renders key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-18s", p[0]+":"))
		sb.WriteString("  " + key + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(strings.TrimRight(sb.String(), "\n"))
}
