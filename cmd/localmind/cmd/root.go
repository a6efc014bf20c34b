// Package cmd implements the localmind command line.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "dev"

var (
	// envFile is the dotenv file read before the environment
	envFile string
	// jsonOutput prints command results as JSON
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "localmind",
	Short: "Personal knowledge retrieval engine",
	Long: `Localmind stores captured pages, bookmarks and notes, embeds them with a
local embedding process and answers semantic search queries.

Examples:
  # Run the HTTP server used by the browser capture extension
  localmind serve

  # Search from the terminal
  localmind search "rust ownership rules"

  # Exclude a domain and sweep matching documents
  localmind rules set --domain "*.example.com"`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file (ignored when missing)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}
