package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValueBlockContainsTitleAndPairs(t *testing.T) {
	result := KeyValueBlock("Campaign", [][2]string{
		{"Owner", "0xf39F…2266"},
		{"Balance", "0.0008 ETH"},
	})
	assert.Contains(t, result, "Campaign")
	assert.Contains(t, result, "Owner")
	assert.Contains(t, result, "0.0008 ETH")
	assert.Contains(t, result, "╭")
	assert.Contains(t, result, "╰")
}

func TestKeyValueBlockPreservesOrder(t *testing.T) {
	result := KeyValueBlock("", [][2]string{{"First", "A"}, {"Second", "B"}, {"Third", "C"}})
	i1, i2, i3 := strings.Index(result, "First"), strings.Index(result, "Second"), strings.Index(result, "Third")
	require.Greater(t, i1, -1)
	assert.Less(t, i1, i2)
	assert.Less(t, i2, i3)
}

func TestNewTableCreatesEmptyTable(t *testing.T) {
	tbl := NewTable([]Column{{Title: "Contributor", Width: 42}, {Title: "Amount", Width: 12}})
	assert.Len(t, tbl.Columns, 2)
	assert.Empty(t, tbl.Rows)
	assert.Equal(t, -1, tbl.SelIdx)
}

func TestTableRender(t *testing.T) {
	tbl := NewTable([]Column{
		{Title: "Seq", Width: 4, Right: true},
		{Title: "Kind", Width: 20},
		{Title: "Amount", Width: 10, Right: true},
	})
	tbl.AddRow(Row{"1", "Funded", "0.0004"})
	tbl.AddRow(Row{"2", "RefundedByFunder", "0.0004"})

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Kind")
	assert.Contains(t, lines[1], "----")
	assert.Contains(t, lines[2], "Funded")
	assert.Contains(t, lines[3], "RefundedByFunder")
}

func TestTableRowShorterThanColumns(t *testing.T) {
	tbl := NewTable([]Column{{Title: "A", Width: 5}, {Title: "B", Width: 5}})
	tbl.AddRow(Row{"only"})
	assert.Contains(t, tbl.Render(), "only")
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab   ", fit("ab", 5, false))
	assert.Equal(t, "   ab", fit("ab", 5, true))
	assert.Equal(t, "abcd…", fit("abcdefgh", 5, false))
	assert.Equal(t, "abcde", fit("abcde", 5, false))
}

func TestFitMeasuresStyledCells(t *testing.T) {
	styled := StyleSuccess.Render("ok")
	out := fit(styled, 6, false)
	assert.Equal(t, 6, lipgloss.Width(out))
}
