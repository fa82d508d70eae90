package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/codemap/pkg/cache"
	"github.com/matzehuels/codemap/pkg/engine"
	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/observability"
	"github.com/matzehuels/codemap/pkg/positions"
	"github.com/matzehuels/codemap/pkg/server"
	"github.com/matzehuels/codemap/pkg/source"
	"github.com/matzehuels/codemap/pkg/watch"
)

type serveOpts struct {
	addr     string
	index    string
	store    string
	mode     string
	watch    bool
	readOnly bool
}

// serveCommand creates the serve command that hosts one map panel.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [graph.json]",
		Short: "Serve an interactive map over HTTP and websockets",
		Long: `Serve an interactive map over HTTP and websockets.

The map is loaded from a graph:update snapshot or, with --index, built from
the indexer database, which also enables the change overlay. With --watch
the source is reloaded whenever it changes on disk.

Pinned component positions persist in the configured store (file, Redis or
MongoDB; see --store).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return c.runServe(cmd.Context(), file, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.index, "index", "", "indexer database")
	cmd.Flags().StringVar(&opts.store, "store", "", "position store URL: file://, redis://, mongodb://, none")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "layout mode: packed (default), force")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload when the graph source changes")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "open the index read-only (disables change sessions)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, file string, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.store != "" {
		cfg.Store.URL = opts.store
	}
	if opts.index != "" {
		cfg.Index.Path = opts.index
	}
	if opts.mode == "" {
		opts.mode = cfg.Layout.Mode
	}
	mode, ok := engine.ParseMode(opts.mode)
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid mode: %s (must be 'packed' or 'force')", opts.mode)
	}
	if file == "" && cfg.Index.Path == "" {
		return errors.New(errors.ErrCodeInvalidInput, "need a graph file or --index")
	}
	if c.Logger.GetLevel() <= LogDebug {
		observability.NewLogHooks(c.Logger).Register()
		defer observability.Reset()
	}

	store, err := positions.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open position store: %w", err)
	}
	layouts, err := cache.NewMemoryCache(cfg.Cache.Entries)
	if err != nil {
		store.Close()
		return err
	}
	defer layouts.Close()

	root := cfg.Index.Path
	if root == "" {
		root = file
	}

	hub := server.NewHub(c.Logger)
	eng := engine.New(engine.Options{
		Config:    cfg,
		Logger:    c.Logger,
		Store:     store,
		Publisher: hub,
		Cache:     layouts,
		Keyer:     cache.NewScopedKeyer(nil, "repo:"+cache.Hash([]byte(root))[:12]+":"),
	})
	defer eng.Close()

	sopts := server.Options{Engine: eng, Hub: hub, Mode: mode, Logger: c.Logger}
	if cfg.Index.Path != "" {
		src, err := source.OpenSQLite(cfg.Index.Path, opts.readOnly)
		if err != nil {
			return err
		}
		defer src.Close()
		sopts.Indexer = src
		if !opts.readOnly {
			sopts.Tracker = src
		}
	}
	srv := server.New(sopts)

	load := func(ctx context.Context) error {
		if sopts.Indexer != nil {
			return srv.Reload(ctx, mode)
		}
		u, err := graph.ReadUpdateFile(file)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGraph, err, "load graph %s", file)
		}
		return eng.Update(ctx, u.Nodes, u.Edges, mode)
	}
	prog := newProgress(c.Logger)
	if err := load(ctx); err != nil {
		return err
	}
	prog.done("Loaded map", "mode", mode, "panel", eng.ID())

	if opts.watch || cfg.Index.PollSeconds > 0 {
		target := file
		if sopts.Indexer != nil {
			target = cfg.Index.Path
		}
		wopts := []watch.Option{
			watch.WithDebounce(time.Duration(cfg.Server.DebounceMS) * time.Millisecond),
			watch.WithLogger(c.Logger),
		}
		if cfg.Index.PollSeconds > 0 {
			wopts = append(wopts, watch.WithPollInterval(time.Duration(cfg.Index.PollSeconds)*time.Second))
		}
		w, err := watch.New([]string{target}, func(path string) {
			c.Logger.Info("source changed, reloading", "path", path)
			if err := load(ctx); err != nil {
				c.Logger.Error("reload failed", "err", err)
			}
		}, wopts...)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				c.Logger.Error("watcher stopped", "err", err)
			}
		}()
	}

	printSuccess("Serving map")
	printKeyValue("Address", StyleLink.Render("http://"+cfg.Server.Addr))
	printKeyValue("Panel", eng.ID())
	printKeyValue("Store", cfg.Store.URL)
	printNewline()

	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
