package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seo-optimizer/blogscore/logging"
)

var (
	// Version info set from main
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global flags
	outputFmt string
	verbose   bool
)

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, c, b string) {
	version = v
	commit = c
	buildTime = b
}

var rootCmd = &cobra.Command{
	Use:   "blogscore",
	Short: "Score blog posts for on-page SEO",
	Long: `blogscore rates a blog post from 0 to 100 for on-page SEO quality.

It scores:
  - CMS records exported as JSON (title, content, excerpt, seo fields)
  - Published pages fetched over HTTP`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"log analyzer activity to stderr")

	rootCmd.AddCommand(versionCmd)
}

func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return logging.NewLogger("debug", true)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "blogscore %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", buildTime)
	},
}
