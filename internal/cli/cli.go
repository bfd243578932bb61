// Package cli implements the latmesh command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/latmesh/pkg/buildinfo"
	"github.com/matzehuels/latmesh/pkg/cache"
	"github.com/matzehuels/latmesh/pkg/engine"
	"github.com/matzehuels/latmesh/pkg/graph"
	meshio "github.com/matzehuels/latmesh/pkg/io"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "latmesh"

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
		Use:          "latmesh",
		Short:        "Latmesh answers shortest-latency queries over a service mesh",
		Long:         `Latmesh is a CLI tool and server for querying minimum end-to-end latency between services in a directed latency mesh, with automatic switching between single-source and all-pairs strategies.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Every command sees the shared logger through its context, so code
	// that only receives a context can still log.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	// Register all subcommands
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.routeCommand())
	root.AddCommand(c.distancesCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Engine Factory
// =============================================================================

// meshOptions collects the flags shared by the query-style commands.
type meshOptions struct {
	undirected bool
	noCache    bool
	allPairs   bool
	maxLatency int64
}

// registerMeshFlags wires the shared mesh flags onto cmd.
func registerMeshFlags(cmd *cobra.Command, o *meshOptions) {
	cmd.Flags().BoolVar(&o.undirected, "undirected", false, "treat every edge as bidirectional")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable route table caching")
	cmd.Flags().BoolVar(&o.allPairs, "all-pairs", false, "force the all-pairs strategy")
	cmd.Flags().Int64Var(&o.maxLatency, "max-latency", 0, "treat nodes beyond this latency as unreachable (0 = unbounded)")
}

// loadGraph reads and validates the JSON mesh at path.
func loadGraph(path string, o meshOptions) (*graph.Graph, error) {
	var opts []graph.Option
	if o.undirected {
		opts = append(opts, graph.Undirected())
	}
	return meshio.ImportJSON(path, opts...)
}

// newEngine builds a query engine over the mesh at path. One-shot
// commands run ephemeral when caching is off, so a single query never
// pays for a full route table.
func (c *CLI) newEngine(path string, o meshOptions) (*engine.Engine, error) {
	g, err := loadGraph(path, o)
	if err != nil {
		return nil, err
	}

	store, err := newCache(o.noCache)
	if err != nil {
		return nil, err
	}

	return engine.New(g, engine.Options{
		ForceAllPairs: o.allPairs,
		Ephemeral:     o.noCache && !o.allPairs,
		MaxLatency:    o.maxLatency,
		Cache:         store,
		Logger:        c.Logger,
	}), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/latmesh/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
