package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/jlsvc/internal/daemon"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Julia worker",
	Long:  "Invoke stop_service: kill the running Julia worker.",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	client := MustConnect()
	defer client.Close()

	if err := client.StopService(); err != nil {
		return fmt.Errorf("stop_service: %s", daemon.ErrorText(err))
	}

	fmt.Println("🧪 Julia worker stopped")
	return nil
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
