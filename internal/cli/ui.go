package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/blastradius/pkg/report"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleDanger  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleNum    = styleCell.Align(lipgloss.Right)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+styleDim.Render(iconArrow)+" "+styleValue.Render(path))
}

// =============================================================================
// Summary Table
// =============================================================================

// headerRow is the row index lipgloss/table passes for the header.
const headerRow = -1

var summaryHeaders = []string{"source", "dependents", "declared", "impacted at release", "impacted now", "exact pins", "errors", "discovered via"}

// printSummary renders one row per analyzed source.
func printSummary(w io.Writer, summaries []report.Summary) {
	if len(summaries) == 0 {
		printInfo(w, "No dependents analyzed")
		return
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.SourcePackage + "@" + s.SourceVersion,
			strconv.Itoa(s.Dependents),
			strconv.Itoa(s.Declared),
			strconv.Itoa(s.ImpactedAtRelease),
			strconv.Itoa(s.ImpactedNow),
			strconv.Itoa(s.ExactPins),
			strconv.Itoa(s.Errors),
			sourceBreakdown(s),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleDim).
		Headers(summaryHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return styleHeader
			case col == 0 || col == len(summaryHeaders)-1:
				return styleCell
			case (col == 3 || col == 4) && rows[row][col] != "0":
				return styleNum.Inherit(styleDanger)
			case col == 6 && rows[row][col] != "0":
				return styleNum.Inherit(styleWarning)
			default:
				return styleNum
			}
		})

	fmt.Fprintln(w, styleTitle.Render("Blast radius"))
	fmt.Fprintln(w, t.Render())
}

func sourceBreakdown(s report.Summary) string {
	out := ""
	for i, k := range s.SourceKeys() {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s %d", k, s.BySource[k])
	}
	if out == "" {
		return "-"
	}
	return out
}
