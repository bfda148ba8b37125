package cmd

import (
	"context"

	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/aryanpingle/thecodingtrain.com/internal/ingest"
	"github.com/aryanpingle/thecodingtrain.com/internal/mcpserver"
	"github.com/aryanpingle/thecodingtrain.com/internal/site"
	"github.com/aryanpingle/thecodingtrain.com/internal/watch"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveDB       string
	serveInMemory bool
	serveWatch    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve graph queries as MCP tools over stdio",
	Long: `Serve builds the graph from the content sources (or opens a snapshot
with --db) and answers MCP tool calls on stdin/stdout. With --watch the
graph is rebuilt whenever the content directory changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if serveDB != "" && serveInMemory {
			store := graph.NewMemoryStore()
			n, err := ingest.LoadSnapshot(ctx, serveDB, store)
			if err != nil {
				return err
			}
			logger.Info("snapshot loaded into memory", zap.String("database", serveDB), zap.Int("nodes", n))
			return mcpserver.Serve(store, logger)
		}
		if serveDB != "" {
			g, err := graph.OpenSQLiteGraph(serveDB)
			if err != nil {
				return err
			}
			defer func() { _ = g.Close() }()
			logger.Info("serving snapshot", zap.String("database", serveDB))
			return mcpserver.Serve(g, logger)
		}

		rebuild := func(ctx context.Context) (graph.Graph, error) {
			res, err := site.Build(ctx, cfg, osfs.New(cfg.ContentRoot), logger)
			if err != nil {
				return nil, err
			}
			return res.Graph, nil
		}
		initial, err := rebuild(ctx)
		if err != nil {
			return err
		}
		hot := graph.NewHotSwapGraph(initial)

		if serveWatch {
			w := watch.New(cfg.ContentRoot, rebuild, hot, logger)
			go func() {
				if err := w.Run(ctx); err != nil {
					logger.Error("watcher stopped", zap.Error(err))
				}
			}()
		}
		return mcpserver.Serve(hot, logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveDB, "db", "", "Serve a built snapshot instead of building")
	serveCmd.Flags().BoolVar(&serveInMemory, "memory", false, "Load the --db snapshot into memory instead of querying it in place")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Rebuild when content changes")
	rootCmd.AddCommand(serveCmd)
}
