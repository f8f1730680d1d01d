package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Prakti/striptease/pkg/server"
)

// putCmd stores a value on a running server.
var putCmd = &cobra.Command{
	Use:   "put <name> <value>",
	Short: "Store a value under a name",
	Long: `Store a value under a name on a running striptease server.

Example:
  striptease put greeting hello`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		client, err := server.Dial(addr)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Put(args[0], []byte(args[1])); err != nil {
			return err
		}
		cmd.Printf("stored %q\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}
