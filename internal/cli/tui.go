package cli

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/codemap/pkg/config"
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/route"
	"github.com/matzehuels/codemap/pkg/viewport"
)

// One terminal cell stands for this many screen pixels.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
	panCells   = 4
	zoomStep   = 1.25
)

// cell classes, drawn with the styles above
const (
	classNone byte = iota
	classEdge
	classContainer
	classLeaf
	classExternal
	classChanged
)

// =============================================================================
// Key bindings
// =============================================================================

type mapKeys struct {
	Up, Down, Left, Right key.Binding
	ZoomIn, ZoomOut       key.Binding
	Fit, Copy, Quit       key.Binding
}

func defaultMapKeys() mapKeys {
	return mapKeys{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Fit:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
		Copy:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy path")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k mapKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Fit, k.Copy, k.Quit}
}

func (k mapKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// =============================================================================
// MapModel - Interactive map viewer
// =============================================================================

// MapModel is the bubbletea model for the terminal map viewer. The map is
// drawn with box characters at one cell per cellWidth×cellHeight pixels.
type MapModel struct {
	g     *graph.Graph
	view  *viewport.Controller
	conns []route.Connector
	route route.Options

	cols, rows int
	keys       mapKeys
	help       help.Model
	status     string
	fitted     bool

	// copy writes the clipboard; replaced in tests.
	copy func(string) error
}

// NewMapModel creates a viewer for a laid-out graph.
func NewMapModel(g *graph.Graph, cfg *config.Config) *MapModel {
	m := &MapModel{
		g:     g,
		route: cfg.Routing,
		cols:  80,
		rows:  24,
		keys:  defaultMapKeys(),
		help:  help.New(),
		copy:  clipboard.WriteAll,
	}
	w, h := m.screenSize()
	m.view = viewport.New(w, h, cfg.Viewport)
	m.view.Track(g.Nodes, graph.KindDirectory, graph.KindComponent)
	m.fit()
	return m
}

// screenSize is the pixel size of the map area, excluding the two status lines.
func (m *MapModel) screenSize() (float64, float64) {
	rows := max(m.rows-2, 1)
	return float64(m.cols) * cellWidth, float64(rows) * cellHeight
}

func (m *MapModel) fit() {
	m.view.SetTransform(m.view.Fit(m.g.Nodes))
	m.refresh()
}

// refresh reapplies the detail level and reroutes after the view changed.
func (m *MapModel) refresh() {
	m.view.Apply(m.g)
	m.conns = route.RouteAll(m.g, m.route)
	m.view.Refresh()
}

func (m *MapModel) Init() tea.Cmd {
	return nil
}

func (m *MapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		m.view.SetSize(m.screenSize())
		if !m.fitted {
			m.fitted = true
			m.fit()
		}
		m.help.Width = msg.Width
	case tea.KeyMsg:
		w, h := m.screenSize()
		step := panCells * cellWidth
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.view.Pan(0, panCells*cellHeight)
		case key.Matches(msg, m.keys.Down):
			m.view.Pan(0, -panCells*cellHeight)
		case key.Matches(msg, m.keys.Left):
			m.view.Pan(step, 0)
		case key.Matches(msg, m.keys.Right):
			m.view.Pan(-step, 0)
		case key.Matches(msg, m.keys.ZoomIn):
			m.view.ZoomTo(m.view.Transform().K*zoomStep, w/2, h/2)
			m.refresh()
		case key.Matches(msg, m.keys.ZoomOut):
			m.view.ZoomTo(m.view.Transform().K/zoomStep, w/2, h/2)
			m.refresh()
		case key.Matches(msg, m.keys.Fit):
			m.fit()
		case key.Matches(msg, m.keys.Copy):
			m.status = m.copyCentered()
		}
	}
	return m, nil
}

// copyCentered copies the path of the centred directory or component.
func (m *MapModel) copyCentered() string {
	n, ok := m.view.Centered(m.g.Nodes, graph.KindDirectory, graph.KindComponent)
	if !ok {
		return "nothing centred"
	}
	p := n.Payload.Path
	if p == "" {
		p = n.ID
	}
	if err := m.copy(p); err != nil {
		return "copy failed: " + err.Error()
	}
	return "copied " + p
}

func (m *MapModel) View() string {
	c := m.draw()
	var b strings.Builder
	for _, line := range c.lines() {
		b.WriteString(line)
		b.WriteString("\n")
	}

	t := m.view.Transform()
	status := fmt.Sprintf("%d nodes · zoom %.2f · %s", m.g.Len(), t.K, m.view.Detail())
	if n, ok := m.view.Centered(m.g.Nodes, graph.KindDirectory, graph.KindComponent); ok {
		status += " · " + n.Label()
	}
	if m.status != "" {
		status += " · " + m.status
	}
	b.WriteString(styleStatus.Render(runewidth.Truncate(status, m.cols, "…")))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// =============================================================================
// Canvas
// =============================================================================

type canvas struct {
	cols, rows int
	cells      [][]rune
	class      [][]byte
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: cols, rows: rows, cells: make([][]rune, rows), class: make([][]byte, rows)}
	for y := range c.cells {
		c.cells[y] = []rune(strings.Repeat(" ", cols))
		c.class[y] = make([]byte, cols)
	}
	return c
}

func (c *canvas) set(x, y int, r rune, class byte) {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return
	}
	c.cells[y][x] = r
	c.class[y][x] = class
}

func (c *canvas) text(x, y, width int, s string, class byte) {
	s = runewidth.Truncate(s, width, "…")
	for _, r := range s {
		c.set(x, y, r, class)
		x += runewidth.RuneWidth(r)
	}
}

// lines renders each row, styling runs of equal class.
func (c *canvas) lines() []string {
	out := make([]string, c.rows)
	for y := 0; y < c.rows; y++ {
		var b strings.Builder
		for x := 0; x < c.cols; {
			end := x
			for end < c.cols && c.class[y][end] == c.class[y][x] {
				end++
			}
			b.WriteString(classStyle(c.class[y][x]).Render(string(c.cells[y][x:end])))
			x = end
		}
		out[y] = b.String()
	}
	return out
}

func classStyle(class byte) lipgloss.Style {
	switch class {
	case classEdge:
		return styleConnector
	case classContainer:
		return styleContainer
	case classLeaf:
		return styleFile
	case classExternal:
		return styleExternal
	case classChanged:
		return styleChanged
	}
	return lipgloss.NewStyle()
}

// cellRect converts a node to its cell rectangle.
func (m *MapModel) cellRect(n *graph.Node) (x0, y0, x1, y1 int) {
	r := n.Rect()
	px0, py0 := m.view.GraphToScreen(r.Left, r.Top)
	px1, py1 := m.view.GraphToScreen(r.Right, r.Bottom)
	return int(math.Floor(px0 / cellWidth)), int(math.Floor(py0 / cellHeight)),
		int(math.Ceil(px1/cellWidth)) - 1, int(math.Ceil(py1/cellHeight)) - 1
}

func (m *MapModel) draw() *canvas {
	rows := max(m.rows-2, 1)
	c := newCanvas(m.cols, rows)

	for _, conn := range m.conns {
		pts := conn.Path.Points
		for i := 1; i < len(pts); i++ {
			m.line(c, pts[i-1], pts[i])
		}
	}

	nodes := make([]*graph.Node, 0, len(m.g.Nodes))
	for _, n := range m.g.Nodes {
		if n.View.Visible {
			nodes = append(nodes, n)
		}
	}
	// Containers first, outer before inner, so leaves draw on top.
	sort.SliceStable(nodes, func(i, j int) bool {
		ci, cj := nodes[i].Kind.IsContainer(), nodes[j].Kind.IsContainer()
		if ci != cj {
			return ci
		}
		return nodes[i].Depth < nodes[j].Depth
	})
	for _, n := range nodes {
		m.box(c, n)
	}
	return c
}

func (m *MapModel) line(c *canvas, a, b graph.Point) {
	ax, ay := m.view.GraphToScreen(a.X, a.Y)
	bx, by := m.view.GraphToScreen(b.X, b.Y)
	steps := int(math.Max(math.Abs(bx-ax)/cellWidth, math.Abs(by-ay)/cellHeight)) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int((ax + (bx-ax)*t) / cellWidth)
		y := int((ay + (by-ay)*t) / cellHeight)
		c.set(x, y, '·', classEdge)
	}
}

func (m *MapModel) box(c *canvas, n *graph.Node) {
	x0, y0, x1, y1 := m.cellRect(n)
	class := classLeaf
	switch {
	case n.Changed:
		class = classChanged
	case n.Kind.IsContainer():
		class = classContainer
	case n.Kind == graph.KindExternal:
		class = classExternal
	}

	if x1 <= x0 || y1 <= y0 {
		c.set(x0, y0, '▪', class)
		return
	}
	if n.View.Filled {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				c.set(x, y, ' ', class)
			}
		}
	}
	for x := x0 + 1; x < x1; x++ {
		c.set(x, y0, '─', class)
		c.set(x, y1, '─', class)
	}
	for y := y0 + 1; y < y1; y++ {
		c.set(x0, y, '│', class)
		c.set(x1, y, '│', class)
	}
	c.set(x0, y0, '┌', class)
	c.set(x1, y0, '┐', class)
	c.set(x0, y1, '└', class)
	c.set(x1, y1, '┘', class)

	width := x1 - x0 - 1
	switch {
	case n.View.HeaderVisible:
		c.text(x0+1, y0, width, n.Label(), class)
	case n.View.Filled && len(n.View.LabelLines) > 0:
		top := (y0+y1)/2 - len(n.View.LabelLines)/2
		for i, l := range n.View.LabelLines {
			c.text(x0+1+max(0, (width-runewidth.StringWidth(l))/2), top+i, width, l, class)
		}
	case y1-y0 >= 2:
		c.text(x0+1, (y0+y1)/2, width, n.Label(), class)
	}
}
