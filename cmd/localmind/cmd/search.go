package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

var (
	searchCutoff float64
	searchMore   int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Long: `Search the knowledge base semantically.

Without --cutoff the adaptive threshold picks a cutoff that yields a handful of
results. --more lowers the cutoff step by step over the same candidates.

Examples:
  localmind search "rust ownership"
  localmind search "rust ownership" --cutoff 0.5
  localmind search "rust ownership" --more 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Float64Var(&searchCutoff, "cutoff", -1, "Explicit score cutoff in [0,1] (default adaptive)")
	searchCmd.Flags().IntVar(&searchMore, "more", 0, "Number of load-more steps to apply")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.Join(args, " ")

	a, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts domain.SearchOptions
	if cmd.Flags().Changed("cutoff") {
		opts.Cutoff = &searchCutoff
	}

	result, err := a.engine.Search(ctx, query, opts)
	if err != nil {
		return err
	}
	for i := 0; i < searchMore && result.HasMore; i++ {
		result, err = a.engine.LoadMore(ctx, query, result.Cutoff)
		if err != nil {
			return err
		}
	}

	return printSearchResult(cmd.OutOrStdout(), result)
}

func printSearchResult(out io.Writer, result *domain.SearchResult) error {
	if jsonOutput {
		return writeJSON(out, result)
	}

	mode := "explicit"
	if result.Adaptive {
		mode = "adaptive"
	}
	fmt.Fprintf(out, "%d of %d candidates at cutoff %.2f (%s, %s)\n\n",
		len(result.Hits), result.Candidates, result.Cutoff, mode, result.Took)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tID\tTITLE\tURL")
	for _, hit := range result.Hits {
		fmt.Fprintf(w, "%.3f\t%d\t%s\t%s\n", hit.Score, hit.DocumentID, truncate(hit.Title, 60), hit.URL)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if result.HasMore {
		fmt.Fprintln(out, "\nmore results below the cutoff, use --more")
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	return domain.Snippet(s, n)
}
