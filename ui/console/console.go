// Package console prints a loaded graph as plain terminal text.
package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"graphlens/internal/output"

	"github.com/fatih/color"
)

var (
	brand  = color.New(color.FgCyan, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
)

// Print renders the overview of p to the writer in a highly compact format.
func Print(w io.Writer, p *output.PipelinePayload) {
	name := strings.Join(p.Scope.Names, ", ")
	fmt.Fprintf(w, "%s %s\n", brand.Sprint("■ GRAPHLENS REPORT"), name)

	if p.Graph.Empty() {
		fmt.Fprintf(w, "%s\n\n", warn.Sprint(p.Scope.EmptyMessage()))
		return
	}

	for _, sec := range p.Overview.Sections {
		if len(sec.Items) == 0 {
			continue
		}
		// Section Header
		fmt.Fprintf(w, "%s\n", brand.Sprint("─ "+sec.Title))

		for _, it := range sec.Items {
			// Compact Label (max 20 chars)
			label := it.Label
			if len([]rune(label)) > 20 {
				label = string([]rune(label)[:17]) + "..."
			}

			// Dots leader
			dots := strings.Repeat("·", 22-len([]rune(label)))

			// Format: "  Label............... Count ●"
			fmt.Fprintf(w, "  %s%s %6d %s\n", label, subtle.Sprint(dots), it.Count, swatch(it.Color))
		}
	}

	// Single-line Summary
	dropped := ""
	if n := p.Report.DanglingRelationships; n > 0 {
		dropped = warn.Sprintf(" | %d dropped", n)
	}
	fmt.Fprintf(w, "%s: %d nodes | %d relationships%s\n\n",
		brand.Sprint("─ Summary"), p.Overview.Nodes, p.Overview.Relationships, dropped)
}

// PrintTable prints t as aligned columns, cells cut to maxWidth.
func PrintTable(w io.Writer, t output.Table, maxWidth int) {
	fmt.Fprintf(w, "%s (%d)\n", brand.Sprint(t.Title), len(t.Rows))
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, subtle.Sprint("  no rows"))
		return
	}

	// Calculate column widths
	widths := make([]int, len(t.Columns))
	for i, h := range t.Columns {
		widths[i] = len([]rune(h))
	}
	cells := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		cells[r] = make([]string, len(row.Cells))
		for i, c := range row.Cells {
			c = cut(strings.ReplaceAll(c, "\n", " "), maxWidth)
			cells[r][i] = c
			if i < len(widths) && len([]rune(c)) > widths[i] {
				widths[i] = len([]rune(c))
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range t.Columns {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	fmt.Fprintln(w, subtle.Sprint(headerLine))
	fmt.Fprintln(w, subtle.Sprint(sepLine))

	for _, row := range cells {
		line := "  "
		for i, c := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], c)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintln(w)
}

// swatch is a dot in the scheme color hex.
func swatch(hex string) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return subtle.Sprint("●")
	}
	return color.RGB(r, g, b).Sprint("●")
}

func parseHex(hex string) (int, int, int, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF), true
}

func cut(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
