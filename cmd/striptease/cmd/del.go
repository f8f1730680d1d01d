package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Prakti/striptease/pkg/server"
)

// delCmd removes a value from a running server.
var delCmd = &cobra.Command{
	Use:   "del <name>",
	Short: "Delete the value stored under a name",
	Long: `Delete the value stored under a name on a running striptease server.

Example:
  striptease del greeting`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		client, err := server.Dial(addr)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Del(args[0]); err != nil {
			return err
		}
		cmd.Printf("deleted %q\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(delCmd)
}
