package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/codemap/pkg/engine"
	"github.com/matzehuels/codemap/pkg/graph"
)

// viewCommand creates the view command, an interactive terminal map.
func (c *CLI) viewCommand() *cobra.Command {
	var index string

	cmd := &cobra.Command{
		Use:   "view [layout.json]",
		Short: "Browse a map in the terminal",
		Long: `Browse a map in the terminal.

Arrow keys pan, +/- zoom, f fits the map to the window and c copies the path
of the directory under the centre of the screen to the clipboard. Zooming
out past the detail threshold collapses directories into labelled boxes.

Graphs without positions (or read with --index) are packed first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			u, err := c.readGraph(cmd.Context(), file, index)
			if err != nil {
				return err
			}
			g, _ := u.Build()
			if g.Len() == 0 {
				printWarning("%s", engine.EmptyMessage)
				return nil
			}
			if !placed(g) {
				p := engine.Packer{Options: cfg.Packing}
				if _, _, err := p.Pack(cmd.Context(), g); err != nil {
					return fmt.Errorf("compute layout: %w", err)
				}
			}

			prog := tea.NewProgram(NewMapModel(g, cfg), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = prog.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&index, "index", "", "read the graph from an indexer database")
	return cmd
}

// placed reports whether any node carries a position.
func placed(g *graph.Graph) bool {
	for _, n := range g.Nodes {
		if n.Placed() {
			return true
		}
	}
	return false
}
