package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

var (
	ingestTitle  string
	ingestURL    string
	ingestSource string
	recentLimit  int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Add a document from a file or stdin",
	Long: `Add a document to the knowledge base. Content is read from the given file,
or from stdin when the file is omitted or "-".

Examples:
  localmind ingest notes/compilers.md --title "Compiler notes"
  pbpaste | localmind ingest --title "Clipboard" --source note`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently added documents",
	RunE:  runRecent,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-chunk and re-embed every document",
	Long: `Re-chunk and re-embed every active document with the current chunking
settings and embedding model. Run after changing CHUNK_SIZE, CHUNK_OVERLAP or
the embedding model.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(ingestCmd, recentCmd, reindexCmd)

	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "Document title (defaults to the start of the content)")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "Source URL")
	ingestCmd.Flags().StringVar(&ingestSource, "source", domain.SourceNote, "Document source")

	recentCmd.Flags().IntVarP(&recentLimit, "limit", "l", 20, "Maximum number of documents")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	content, err := readInput(path)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}

	a, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.engine.Ingest(ctx, domain.IngestRequest{
		Title:   ingestTitle,
		Content: content,
		URL:     ingestURL,
		Source:  ingestSource,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]int64{"id": id})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added document %d\n", id)
	return nil
}

func runRecent(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.engine.Recent(ctx, recentLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, docs)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSOURCE\tTITLE")
	for _, d := range docs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.ID, d.CreatedAt.Format("2006-01-02 15:04"), d.Source, truncate(d.Title, 60))
	}
	return w.Flush()
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.engine.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("reindex stopped after %d documents: %w", n, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d documents\n", n)
	return nil
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
