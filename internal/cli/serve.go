package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/latmesh/pkg/cache"
	"github.com/matzehuels/latmesh/pkg/config"
	"github.com/matzehuels/latmesh/pkg/engine"
	apperrors "github.com/matzehuels/latmesh/pkg/errors"
	"github.com/matzehuels/latmesh/pkg/graph"
	"github.com/matzehuels/latmesh/pkg/server"
	"github.com/matzehuels/latmesh/pkg/source"
	mongosource "github.com/matzehuels/latmesh/pkg/source/mongo"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		undirected bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve latency queries over HTTP",
		Long: `Serve latency queries over HTTP.

The serve command loads the mesh from the configured source (a JSON file
or a MongoDB collection), builds the query engine, and exposes it under
/v1. Route tables are cached per the configured backend so restarts
against an unchanged mesh start warm.

Configuration is read from a TOML file; every section has defaults, so
an empty file serves a file-sourced mesh on :8080.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), configPath, addr, undirected)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "TOML config file (default: built-in defaults)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&undirected, "undirected", false, "treat every edge as bidirectional")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, configPath, addr string, undirected bool) error {
	logger := loggerFromContext(ctx)

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	loader, err := newLoader(ctx, cfg.Source)
	if err != nil {
		return err
	}
	defer loader.Close(context.Background())

	p := newProgress(logger)
	mesh, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	var buildOpts []graph.Option
	if undirected {
		buildOpts = append(buildOpts, graph.Undirected())
	}
	g, err := graph.Build(mesh.Nodes, mesh.Edges, buildOpts...)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Loaded mesh: %d nodes, %d edges", g.NodeCount(), g.EdgeCount()))

	store, err := newConfiguredCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer store.Close()

	eng := engine.New(g, engine.Options{
		AllPairsMaxNodes: cfg.Engine.AllPairsMaxNodes,
		PromoteAfter:     cfg.Engine.PromoteAfter,
		ForceAllPairs:    cfg.Engine.ForceAllPairs,
		MaxLatency:       cfg.Engine.MaxLatency,
		Cache:            store,
		CacheTTL:         cfg.Cache.TTLDuration(),
		Logger:           logger,
	})

	srv := server.New(eng, logger, server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("serving latency queries", "addr", cfg.Server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLoader builds the mesh source from configuration.
func newLoader(ctx context.Context, cfg config.SourceConfig) (source.Loader, error) {
	switch cfg.Kind {
	case "", "file":
		return source.NewFileLoader(cfg.Path), nil
	case "mongo":
		return mongosource.NewLoader(ctx, mongosource.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
			Nodes:      cfg.Mongo.Nodes,
		})
	default:
		return nil, apperrors.New(apperrors.ErrCodeUnsupported, "unknown source kind %q (want file or mongo)", cfg.Kind)
	}
}

// newConfiguredCache builds the route-table cache backend from configuration.
func newConfiguredCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return nil, apperrors.New(apperrors.ErrCodeUnsupported, "unknown cache backend %q (want file, redis, or none)", cfg.Backend)
	}
}
