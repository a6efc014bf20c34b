package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "Work with the browser bookmark tree",
}

var bookmarksSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch and ingest bookmarked pages",
	Long: `Fetch every bookmarked page that is not excluded and not already in the
knowledge base, and ingest it. Each fetch is bounded by PAGE_TIMEOUT_SEC.
Pages that fail to load are reported and skipped.

Examples:
  localmind bookmarks sync
  BOOKMARKS_PATH=~/Bookmarks localmind bookmarks sync --json`,
	RunE: runBookmarksSync,
}

func init() {
	rootCmd.AddCommand(bookmarksCmd)
	bookmarksCmd.AddCommand(bookmarksSyncCmd)
}

func runBookmarksSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.IngestBookmarks(ctx)
	if err != nil && result == nil {
		return err
	}

	if perr := printSyncResult(cmd.OutOrStdout(), result); perr != nil {
		return perr
	}
	return err
}

func printSyncResult(out io.Writer, result *domain.BookmarkSyncResult) error {
	if jsonOutput {
		return writeJSON(out, result)
	}
	_, err := fmt.Fprintf(out, "ingested %d, already stored %d, excluded %d, dead %d, failed %d\n",
		result.Ingested, result.Existing, result.Excluded, result.Dead, result.Failed)
	return err
}
