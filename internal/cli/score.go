package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/blogscore/api"
	"github.com/seo-optimizer/blogscore/config"
	"github.com/seo-optimizer/blogscore/scorer"
)

var scoreHostname string

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score a blog record",
	Long: `Score a blog record stored as JSON. The record is read from the given
file, or from stdin when no file is given.

Examples:
  blogscore score post.json
  cat post.json | blogscore score --output json
  blogscore score post.json --hostname blog.example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreHostname, "hostname", "",
		"site hostname for internal link detection (default: $SITE_HOSTNAME)")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open record: %w", err)
		}
		defer f.Close()
		in = f
	}

	var blog scorer.BlogRecord
	if err := json.NewDecoder(in).Decode(&blog); err != nil {
		return fmt.Errorf("failed to decode blog record: %w", err)
	}

	hostname := scoreHostname
	if hostname == "" {
		config.LoadEnvFiles()
		hostname = os.Getenv("SITE_HOSTNAME")
	}

	report := scorer.Analyze(&blog, scorer.WithHostname(hostname))
	return render(cmd.OutOrStdout(), outputFmt, api.NewScoreResponse("", report))
}
