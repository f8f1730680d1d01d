// Package cmd holds the striptease command tree.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "striptease",
	Short: "striptease - declarative binary protocol toolkit",
	Long: `striptease is a declarative codec for binary structures, bundled with
an example storage protocol: a TCP server backed by a key-value store
and client verbs to talk to it.`,
	SilenceUsage: true,
}

// Execute runs the command tree. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("addr", "a", "127.0.0.1:9420", "Server address for client verbs")
}
