package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/codemap/pkg/graph"
)

// stdout receives command output; log lines go to the logger instead.
var stdout io.Writer = os.Stdout

// =============================================================================
// Palette
// =============================================================================

var (
	colorTeal  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorAmber = lipgloss.Color("220")
	colorRed   = lipgloss.Color("167")
	colorBlue  = lipgloss.Color("75")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue for node ids, paths and other data.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleWarning for warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorAmber)
)

var (
	styleOK      = lipgloss.NewStyle().Foreground(colorGreen)
	styleFail    = lipgloss.NewStyle().Foreground(colorRed)
	styleNote    = lipgloss.NewStyle().Foreground(colorGray)
	styleSpinner = lipgloss.NewStyle().Foreground(colorTeal)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(10)
)

// Map styles, shared by the summary line and the terminal viewer.
var (
	styleContainer = lipgloss.NewStyle().Foreground(colorTeal)
	styleFile      = lipgloss.NewStyle().Foreground(colorWhite)
	styleExternal  = lipgloss.NewStyle().Foreground(colorGray)
	styleChanged   = lipgloss.NewStyle().Foreground(colorAmber).Bold(true)
	styleConnector = lipgloss.NewStyle().Foreground(colorDim)
	styleStatus    = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status lines
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, styleOK.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stdout, styleFail.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stdout, StyleWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(stdout, styleNote.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Map output
// =============================================================================

// printSummary prints node counts by kind, the edge count and whether the
// layout came from the cache, on one line.
func printSummary(g *graph.Graph, cached bool) {
	counts := map[graph.Kind]int{}
	for _, n := range g.Nodes {
		counts[n.Kind]++
	}
	var parts []string
	add := func(n int, one, many string, style lipgloss.Style) {
		switch {
		case n == 1:
			parts = append(parts, style.Render("1 "+one))
		case n > 1:
			parts = append(parts, style.Render(fmt.Sprintf("%d %s", n, many)))
		}
	}
	add(counts[graph.KindComponent], "component", "components", styleContainer)
	add(counts[graph.KindDirectory], "directory", "directories", styleContainer)
	add(counts[graph.KindFile], "file", "files", styleFile)
	add(counts[graph.KindExternal], "external", "externals", styleExternal)
	add(len(g.Edges), "edge", "edges", StyleDim)
	if cached {
		parts = append(parts, styleOK.Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render("computed"))
	}
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// printPath prints a node path joined by arrows, followed by its hop count.
func printPath(path []string) {
	ids := make([]string, len(path))
	for i, id := range path {
		ids[i] = StyleValue.Render(id)
	}
	fmt.Fprintln(stdout, strings.Join(ids, " "+StyleDim.Render(iconArrow)+" "))
	if hops := len(path) - 1; hops == 1 {
		printDetail("1 hop")
	} else {
		printDetail("%d hops", hops)
	}
}
