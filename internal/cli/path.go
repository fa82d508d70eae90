package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
)

// pathCommand creates the path command for dependency path queries.
func (c *CLI) pathCommand() *cobra.Command {
	var index string

	cmd := &cobra.Command{
		Use:   "path [graph.json] <from> <to>",
		Short: "Print the shortest dependency path between two nodes",
		Long: `Print the shortest directed path between two nodes, following edges from
source to target. Containment edges count like any other relation.

With --index the graph is read from the indexer database and only the two
node ids are given.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if index != "" {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if index == "" {
				file, args = args[0], args[1:]
			}
			u, err := c.readGraph(cmd.Context(), file, index)
			if err != nil {
				return err
			}
			g, _ := u.Build()
			from, to := args[0], args[1]
			for _, id := range []string{from, to} {
				if _, ok := g.Node(id); !ok {
					return errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
				}
			}

			path := graph.ShortestPath(g, from, to)
			if len(path) == 0 {
				printWarning("No path from %s to %s", from, to)
				return nil
			}
			printPath(path)
			return nil
		},
	}

	cmd.Flags().StringVar(&index, "index", "", "read the graph from an indexer database")
	return cmd
}
