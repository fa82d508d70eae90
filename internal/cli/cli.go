// Package cli implements the codemap command-line interface.
package cli

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/codemap/pkg/buildinfo"
	"github.com/matzehuels/codemap/pkg/cache"
	"github.com/matzehuels/codemap/pkg/config"
	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "codemap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	envFile    string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "codemap draws a codebase as an interactive map",
		Long: `codemap positions the files, components and external dependencies of a
codebase as nested boxes connected by their relationships, either packed on a
grid or settled by a force simulation, and serves the map to browser and
editor panels with live change highlighting.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.Path()+")")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file with CODEMAP_* overrides")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log layout stages and server events")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if c.verbose {
			c.SetLogLevel(LogDebug)
		}
	}

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.pathCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// ExitCode maps a command error to a process exit status: 0 on success,
// 130 after an interrupt, 2 for rejected input and 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, context.Canceled):
		return 130
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidGraph,
		errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat:
		return 2
	}
	return 1
}

// =============================================================================
// Shared Helpers
// =============================================================================

// loadConfig reads the config file, applies .env and CODEMAP_* overrides and
// validates the result.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnv(c.envFile); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newCache(cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled || cfg.Cache.Dir == "" {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(cfg.Cache.Dir)
}

// readGraph loads a graph snapshot file, or builds the graph from an indexer
// database when index is set.
func (c *CLI) readGraph(ctx context.Context, file, index string) (graph.Update, error) {
	if index == "" {
		if file == "" {
			return graph.Update{}, errors.New(errors.ErrCodeInvalidInput, "need a graph file or --index")
		}
		u, err := graph.ReadUpdateFile(file)
		if err != nil {
			return graph.Update{}, errors.Wrap(errors.ErrCodeInvalidGraph, err, "load graph %s", file)
		}
		return u, nil
	}
	src, err := source.OpenSQLite(index, true)
	if err != nil {
		return graph.Update{}, err
	}
	defer src.Close()
	nodes, edges, err := source.Load(ctx, src, c.Logger)
	if err != nil {
		return graph.Update{}, err
	}
	return graph.Update{Nodes: nodes, Edges: edges}, nil
}
