package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/jlsvc/internal/panel"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Open the interactive control panel",
	Long:  "Open a terminal control panel to greet, start and stop the Julia worker and watch its status.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ConnectClient()
		if err != nil {
			return err
		}
		defer client.Close()
		return panel.Run(client)
	},
}

func init() {
	rootCmd.AddCommand(panelCmd)
}
