package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hexar-io/hexarctl/internal/lifecycle"
)

var stopCmd = &cobra.Command{
	Use:   "stop [timeoutSeconds]",
	Short: "Stop the running radar controller",
	Long: `Sends the controller a polite termination signal and waits for it to
shut down, so it can park the antenna and release serial handles. If it is
still alive after the timeout it is killed forcefully.

Stopping when nothing is running is not an error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout := settings.StopTimeout
		if len(args) == 1 {
			parsed, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid timeout %q: must be a non-negative number of seconds", args[0])
			}
			timeout = uint(parsed)
		}

		coord := lifecycle.NewCoordinator(pidStore, log)
		return coord.Stop(timeout)
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
