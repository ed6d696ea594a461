package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hexar-io/hexarctl/internal/logging"
	"github.com/hexar-io/hexarctl/internal/logtail"
)

var monitorFollow bool

var monitorCmd = &cobra.Command{
	Use:   "monitor [level]",
	Short: "Show the radar controller's log output",
	Long: `Prints the tail of the radar log, optionally filtered to a minimum level
(debug, info, warn, error).

With --follow the log is streamed as the controller writes it, until
interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out io.Writer = os.Stdout
		if len(args) == 1 {
			level, known := logging.ParseLevel(args[0])
			if !known {
				return fmt.Errorf("unknown log level %q: want debug, info, warn or error", args[0])
			}
			out = logtail.NewLevelFilter(out, level)
		}

		logPath := settings.RadarLogPath()
		if monitorFollow {
			log.Info("following %s, interrupt to stop", logPath)
			err := logtail.Follow(cmd.Context(), out, logPath)
			if errors.Is(err, logtail.ErrNoLog) {
				return fmt.Errorf("no radar log at %s: has the controller ever run?", logPath)
			}
			return err
		}

		err := logtail.Tail(out, logPath, logtail.DefaultTailLines)
		if errors.Is(err, logtail.ErrNoLog) {
			// Soft failure: nothing has been logged yet.
			log.Warn("no radar log at %s", logPath)
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().BoolVar(&monitorFollow, "follow", false, "stream new log lines until interrupted")
}
