// Command docusort runs the document assistant server and a one-shot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docusort/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "docusort",
	Short:         "Retrieval-augmented document assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// A parent .env is shared with the web client; the local one wins on conflicts.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
