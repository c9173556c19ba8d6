package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/seo-optimizer/blogscore/api"
)

// render writes resp in the requested format
func render(w io.Writer, format string, resp api.ScoreResponse) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	case "table", "":
		return scoreTable(w, resp)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func scoreTable(w io.Writer, resp api.ScoreResponse) error {
	if resp.URL != "" {
		fmt.Fprintf(w, "URL:      %s\n", resp.URL)
	}
	fmt.Fprintf(w, "Score:    %d/100 (%s)\n", resp.Score, resp.Rating)
	fmt.Fprintf(w, "Base:     %d/75\n", resp.BaseScore)
	fmt.Fprintf(w, "Keyword:  %d/25\n", resp.KeywordScore)
	fmt.Fprintf(w, "Words:    %d\n\n", resp.Signals.WordCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tPOINTS\tDETAIL")
	fmt.Fprintln(tw, "----\t------\t------")
	for _, r := range resp.Rules {
		fmt.Fprintf(tw, "%s\t%+d\t%s\n", r.Rule, r.Points, r.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(resp.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range resp.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
	return nil
}
