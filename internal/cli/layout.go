package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/codemap/pkg/engine"
	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/sim"
)

// settleChunk is how many ticks run between progress updates.
const settleChunk = 50

type layoutOpts struct {
	output   string
	index    string
	mode     string
	maxTicks int
	noCache  bool
}

// layoutCommand creates the layout command for positioning a graph.
func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute box positions for a codebase graph",
		Long: `Compute box positions for a codebase graph.

The input is a graph:update snapshot (graph.json) or, with --index, the
indexer's SQLite database. The output is the same snapshot with every node
positioned, ready for 'render' or 'view'.

Packed layouts are cached locally; force layouts settle the simulation for
at most --max-ticks ticks.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runLayout(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&opts.index, "index", "", "read the graph from an indexer database")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "layout mode: packed (default), force")
	cmd.Flags().IntVar(&opts.maxTicks, "max-ticks", 0, "tick limit for force layouts (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts layoutOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.mode == "" {
		opts.mode = cfg.Layout.Mode
	}
	mode, ok := engine.ParseMode(opts.mode)
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid mode: %s (must be 'packed' or 'force')", opts.mode)
	}
	if opts.maxTicks <= 0 {
		opts.maxTicks = cfg.Layout.MaxTicks
	}

	prog := newProgress(c.Logger)
	u, err := c.readGraph(ctx, input, opts.index)
	if err != nil {
		return err
	}
	prog.stage("read graph", "nodes", len(u.Nodes), "edges", len(u.Edges))
	g, stats := u.Build()
	if stats.Total() > 0 {
		c.Logger.Warn("dropped invalid input", "invalid", stats.InvalidNodes,
			"duplicate", stats.DuplicateNodes, "dangling", stats.DanglingEdges)
	}

	store, err := newCache(cfg, opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", mode))
	spinner.Start()

	cacheHit := false
	switch mode {
	case engine.ModeForce:
		s := engine.NewSimulation(g, cfg.Simulation, sim.WithTickSource(&sim.ManualSource{}), sim.WithLogger(c.Logger))
		ticks := 0
		for ticks < opts.maxTicks && ctx.Err() == nil {
			n := s.Run(min(settleChunk, opts.maxTicks-ticks))
			if n == 0 {
				break
			}
			ticks += n
			spinner.SetMessage(fmt.Sprintf("Settling force layout... alpha %.3f", s.Alpha()))
		}
		s.Stop()
		spinner.Stop()
		st := s.Stats()
		prog.done("Settled force layout", "nodes", g.Len(), "ticks", ticks, "alpha", s.Alpha())
		if st.Degenerate > 0 {
			c.Logger.Debug("absorbed degenerate values", "count", st.Degenerate)
		}
	default:
		p := engine.Packer{Options: cfg.Packing, Cache: store, TTL: cfg.Cache.TTL()}
		res, hit, err := p.Pack(ctx, g)
		if err != nil {
			spinner.StopWithError("Layout failed")
			return fmt.Errorf("compute layout: %w", err)
		}
		spinner.Stop()
		cacheHit = hit
		prog.done("Packed layout", "boxes", len(res.Placements), "overflow", res.Stats.Overflow, "cached", hit)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := opts.output
	if outputPath == "" {
		base := input
		if base == "" {
			base = opts.index
		}
		outputPath = strings.TrimSuffix(base, filepath.Ext(base)) + ".layout.json"
	}
	if err := graph.WriteUpdateFile(graph.Update{Nodes: g.Nodes, Edges: g.Edges}, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printSummary(g, cacheHit)
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)
	return nil
}
