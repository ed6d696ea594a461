package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hexar-io/hexarctl/internal/builder"
	"github.com/hexar-io/hexarctl/internal/launcher"
	"github.com/hexar-io/hexarctl/internal/probe"
)

var (
	startDaemon bool
	startUnsafe bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Build and start the radar controller",
	Long: `Builds the radar controller and starts it, in the foreground by default.

With --daemon the controller is detached from this session, its output goes
to the radar log, and its PID is recorded for later stop/status commands.

--unsafe disables the controller's operator safety checks. Use only on a
bench setup with the antenna feed disconnected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// A live instance short-circuits the whole start: no build, no
		// second launch.
		if pid, err := pidStore.Read(); err == nil {
			if probe.Alive(pid) {
				log.Warn("radar controller already running (pid %d)", pid)
				return nil
			}
			log.Warn("clearing stale marker for pid %d", pid)
			if err := pidStore.Clear(); err != nil {
				return err
			}
		}

		b := builder.New(settings.BuildCommand, settings.BuildLogPath())
		l := launcher.New(settings, pidStore, b, log)

		outcome, err := l.Start(cmd.Context(), launcher.Options{
			Daemon: startDaemon,
			Unsafe: startUnsafe,
		})
		if errors.Is(err, launcher.ErrAlreadyRunning) {
			log.Warn("%v", err)
			return nil
		}
		if err != nil {
			return err
		}

		if !outcome.Daemon {
			// Foreground: the controller's exit code becomes ours.
			childExit = outcome.ExitCode
			if outcome.ExitCode != 0 {
				log.Warn("radar controller exited with code %d", outcome.ExitCode)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().BoolVar(&startDaemon, "daemon", false, "run the controller detached in the background")
	startCmd.Flags().BoolVar(&startUnsafe, "unsafe", false, "disable operator safety checks (dangerous)")
}
