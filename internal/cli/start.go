package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/jlsvc/internal/daemon"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Julia worker",
	Long:  "Invoke start_service: launch the Julia worker unless one is already running.",
	Args:  cobra.NoArgs,
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	client := MustConnect()
	defer client.Close()

	if err := client.StartService(); err != nil {
		return fmt.Errorf("start_service: %s", daemon.ErrorText(err))
	}

	fmt.Println("🧪 Julia worker started")
	return nil
}

func init() {
	rootCmd.AddCommand(startCmd)
}
