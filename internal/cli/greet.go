package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var greetCmd = &cobra.Command{
	Use:   "greet NAME",
	Short: "Ask the daemon for a greeting",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		msg, err := client.Greet(strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("greet: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(greetCmd)
}
