package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/aryanpingle/thecodingtrain.com/internal/resolve"
	"github.com/spf13/cobra"
)

var (
	queryDB   string
	qLanguage string
	qTopic    string
	qSkip     int
	qLimit    int
	qField    string
	qFormat   string
)

var numericColumns = map[string]bool{"order": true}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run resolvers against a built graph snapshot",
}

// withGraph opens the snapshot named by --db (or the configured output)
// for the duration of fn. columns name the fields shown by --format table.
func withGraph(columns []string, fn func(cmd *cobra.Command, args []string, g *graph.SQLiteGraph) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if qFormat != "json" && qFormat != "table" {
			return fmt.Errorf("unknown format %q", qFormat)
		}
		path := queryDB
		if path == "" {
			path = cfg.Output.Database
		}
		g, err := graph.OpenSQLiteGraph(path)
		if err != nil {
			return err
		}
		defer func() { _ = g.Close() }()

		out, err := fn(cmd, args, g)
		if err != nil {
			return err
		}
		if qFormat == "table" {
			rows, err := tableRows(out, columns)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderTable(columns, rows, numericColumns))
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}

func listFlags(c *cobra.Command) {
	c.Flags().StringVar(&qLanguage, "language", "", "Filter by language")
	c.Flags().StringVar(&qTopic, "topic", "", "Filter by topic")
	c.Flags().IntVar(&qSkip, "skip", 0, "Entries to skip")
	c.Flags().IntVar(&qLimit, "limit", 0, "Maximum entries (0 for all)")
}

var queryTracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List tracks in display order",
	Args:  cobra.NoArgs,
	RunE: withGraph([]string{"slug", "title", "type", "order"}, func(cmd *cobra.Command, _ []string, g *graph.SQLiteGraph) (any, error) {
		nodes, err := resolve.Tracks(cmd.Context(), g,
			resolve.Filters{Language: qLanguage, Topic: qTopic}, resolve.Page{Skip: qSkip, Limit: qLimit})
		if err != nil {
			return nil, err
		}
		return graph.Records(nodes), nil
	}),
}

var queryChallengesCmd = &cobra.Command{
	Use:   "challenges",
	Short: "List challenges, newest first",
	Args:  cobra.NoArgs,
	RunE: withGraph([]string{"slug", "title", "date", "languages"}, func(cmd *cobra.Command, _ []string, g *graph.SQLiteGraph) (any, error) {
		nodes, err := resolve.Challenges(cmd.Context(), g,
			resolve.Filters{Language: qLanguage, Topic: qTopic}, resolve.Page{Skip: qSkip, Limit: qLimit})
		if err != nil {
			return nil, err
		}
		return graph.Records(nodes), nil
	}),
}

var queryTagsCmd = &cobra.Command{
	Use:   "tags <track-slug>",
	Short: "Languages or topics used by a track's videos",
	Args:  cobra.ExactArgs(1),
	RunE: withGraph([]string{"tag"}, func(cmd *cobra.Command, args []string, g *graph.SQLiteGraph) (any, error) {
		if qField != "languages" && qField != "topics" {
			return nil, fmt.Errorf("unknown tag field %q", qField)
		}
		track, err := resolve.BySlug(cmd.Context(), g, api.TypeTrack, args[0])
		if err != nil {
			return nil, err
		}
		return resolve.Tags(cmd.Context(), g, track, qField)
	}),
}

var queryShowcaseCmd = &cobra.Command{
	Use:   "showcase <video-id>",
	Short: "Community contributions for a video",
	Args:  cobra.ExactArgs(1),
	RunE: withGraph([]string{"name", "title", "url"}, func(cmd *cobra.Command, args []string, g *graph.SQLiteGraph) (any, error) {
		nodes, err := resolve.Showcase(cmd.Context(), g, args[0])
		if err != nil {
			return nil, err
		}
		return graph.Records(nodes), nil
	}),
}

var queryPagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Page directives stored with the snapshot",
	Args:  cobra.NoArgs,
	RunE: withGraph([]string{"path", "kind"}, func(cmd *cobra.Command, _ []string, g *graph.SQLiteGraph) (any, error) {
		return g.Pages(cmd.Context())
	}),
}

func init() {
	queryCmd.PersistentFlags().StringVarP(&qFormat, "format", "o", "json", `Output format: "json" or "table"`)
	queryCmd.PersistentFlags().StringVar(&queryDB, "db", "", "Graph database (defaults to the configured output)")
	listFlags(queryTracksCmd)
	listFlags(queryChallengesCmd)
	queryTagsCmd.Flags().StringVar(&qField, "field", "languages", `"languages" or "topics"`)

	queryCmd.AddCommand(queryTracksCmd, queryChallengesCmd, queryTagsCmd, queryShowcaseCmd, queryPagesCmd)
	rootCmd.AddCommand(queryCmd)
}
