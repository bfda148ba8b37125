package cmd

import (
	"fmt"
	"time"

	"github.com/aryanpingle/thecodingtrain.com/internal/site"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	buildContent  string
	buildDB       string
	buildManifest string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Load the content sources and write the graph snapshot and page manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if buildContent != "" {
			cfg.ContentRoot = buildContent
		}
		if buildDB != "" {
			cfg.Output.Database = buildDB
		}
		if buildManifest != "" {
			cfg.Output.Manifest = buildManifest
		}

		start := time.Now()
		res, err := site.Build(cmd.Context(), cfg, osfs.New(cfg.ContentRoot), logger)
		if err != nil {
			return err
		}
		if err := site.Persist(cmd.Context(), cfg.Output, res); err != nil {
			return err
		}
		logger.Info("artifacts written",
			zap.String("database", cfg.Output.Database),
			zap.String("manifest", cfg.Output.Manifest))
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Built %d pages from %s in %v.\n",
			len(res.Pages), cfg.ContentRoot, time.Since(start).Round(time.Millisecond))
		return err
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildContent, "content", "", "Content root (overrides config)")
	buildCmd.Flags().StringVar(&buildDB, "db", "", "Output database (overrides config)")
	buildCmd.Flags().StringVar(&buildManifest, "manifest", "", "Output page manifest (overrides config)")
	rootCmd.AddCommand(buildCmd)
}
