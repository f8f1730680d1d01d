package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Prakti/striptease/pkg/server"
)

// getCmd fetches a value from a running server.
var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Fetch the value stored under a name",
	Long: `Fetch the value stored under a name on a running striptease server.

Example:
  striptease get greeting`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		client, err := server.Dial(addr)
		if err != nil {
			return err
		}
		defer client.Close()

		data, err := client.Get(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("%s\n", data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
