package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/blogscore/analyzer"
	"github.com/seo-optimizer/blogscore/api"
	"github.com/seo-optimizer/blogscore/config"
)

var urlKeyword string

var urlCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Fetch and score a published page",
	Long: `Fetch a published page, map it onto a blog record and score it.
Internal links are detected against the page's own hostname.

Examples:
  blogscore url https://blog.example.com/posts/goroutines
  blogscore url https://blog.example.com/posts/goroutines --keyword goroutines`,
	Args: cobra.ExactArgs(1),
	RunE: runURL,
}

func init() {
	urlCmd.Flags().StringVarP(&urlKeyword, "keyword", "k", "", "focus keyword")
	rootCmd.AddCommand(urlCmd)
}

func runURL(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// a one-off run only keeps statistics when DATA_DIR asks for it
	dataDir := cfg.DataDir
	if os.Getenv("DATA_DIR") == "" {
		if dataDir, err = os.MkdirTemp("", "blogscore-"); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		defer os.RemoveAll(dataDir)
	}

	a, err := analyzer.New(analyzer.Options{
		DataDir:      dataDir,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer a.Shutdown()

	page, err := a.ScoreURL(cmd.Context(), args[0], urlKeyword)
	if err != nil {
		return fmt.Errorf("failed to score %s: %w", args[0], err)
	}
	return render(cmd.OutOrStdout(), outputFmt, api.NewScoreResponse(page.URL, page.Report))
}
