package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column.
type Column struct {
	Title string
	Width int
	// Right aligns the column, for amounts.
	Right bool
}

// Row is a slice of cell values. Cells may already be styled.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // selected row index (-1 = none)
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// Render returns the full table as a string.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	dimStyle := lipgloss.NewStyle().Foreground(ColorMeta)

	var headers []string
	for _, col := range t.Columns {
		headers = append(headers, headerStyle.Render(fit(col.Title, col.Width, col.Right)))
	}
	sb.WriteString(strings.Join(headers, " "))
	sb.WriteString("\n")

	var divParts []string
	for _, col := range t.Columns {
		divParts = append(divParts, dimStyle.Render(strings.Repeat("-", col.Width)))
	}
	sb.WriteString(strings.Join(divParts, " "))
	sb.WriteString("\n")

	for i, row := range t.Rows {
		var cells []string
		for j, col := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			cell := fit(val, col.Width, col.Right)
			if i == t.SelIdx {
				cells = append(cells, StyleSelected.Render(cell))
			} else {
				cells = append(cells, cellStyle.Render(cell))
			}
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// fit pads s to exactly width visible cells. Widths are measured with
// lipgloss so styled cells line up; over-long plain cells are cut with "…".
func fit(s string, width int, right bool) string {
	w := lipgloss.Width(s)
	if w > width {
		r := []rune(s)
		if width <= 1 || len(r) != w {
			// Styled content is left alone rather than cut mid-sequence.
			return s
		}
		return string(r[:width-1]) + "…"
	}
	gap := strings.Repeat(" ", width-w)
	if right {
		return gap + s
	}
	return s + gap
}

// KeyValueBlock renders a set of key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-16s", p[0]+":"))
		sb.WriteString("  " + key + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(sb.String())
}
