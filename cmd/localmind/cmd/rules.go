package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

var (
	ruleDomains []string
	ruleFolders []string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show or change exclusion rules",
	RunE:  runRulesShow,
}

var rulesSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the exclusion rules and sweep matching documents",
	Long: `Replace the exclusion rules. Every pattern is validated before any is
accepted. Documents that now match are removed from the store and the index.

Examples:
  localmind rules set --domain "*.example.com" --domain "localhost:*"
  localmind rules set --folder 12 --folder 40
  localmind rules set   # clears all rules`,
	RunE: runRulesSet,
}

var rulesFoldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List bookmark folders that can be excluded",
	RunE:  runRulesFolders,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesSetCmd, rulesFoldersCmd)

	rulesSetCmd.Flags().StringArrayVar(&ruleDomains, "domain", nil, "Domain pattern to exclude (repeatable)")
	rulesSetCmd.Flags().StringArrayVar(&ruleFolders, "folder", nil, "Bookmark folder id to exclude (repeatable)")
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rules, err := a.engine.GetRules(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, rules)
	}
	fmt.Fprintf(out, "excluded domains: %s\n", listOrNone(rules.Domains))
	fmt.Fprintf(out, "excluded folders: %s\n", listOrNone(rules.Folders))
	return nil
}

func runRulesSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.SaveRules(ctx, domain.ExclusionRules{Domains: ruleDomains, Folders: ruleFolders})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, result)
	}
	fmt.Fprintf(out, "removed %d documents, %d bookmarks no longer excluded\n", result.Removed, result.Reeligible)
	return nil
}

func runRulesFolders(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	folders, err := a.engine.Folders(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, folders)
	}
	for _, f := range folders {
		printFolder(out, f, 0)
	}
	return nil
}

func printFolder(out io.Writer, f *domain.BookmarkFolder, depth int) {
	fmt.Fprintf(out, "%s%s  [id %s, %d bookmarks]\n", strings.Repeat("  ", depth), f.Name, f.ID, f.Count)
	for _, child := range f.Children {
		printFolder(out, child, depth+1)
	}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
