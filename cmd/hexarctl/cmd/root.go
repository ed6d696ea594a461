package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hexar-io/hexarctl/internal/config"
	"github.com/hexar-io/hexarctl/internal/logging"
	"github.com/hexar-io/hexarctl/internal/marker"
)

var (
	cfgFile   string
	logLevel  string
	settings  *config.Settings
	log       *logging.Logger
	pidStore  marker.Store
	childExit int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hexarctl",
	Short: "Lifecycle supervisor for the hexar radar controller",
	Long: `hexarctl builds, starts, stops and inspects the hexar radar controller.

It manages exactly one controller instance, tracked through a PID marker
file. The controller itself (signal processing, antenna I/O, configuration
parsing) is opaque to hexarctl.`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Argument validation has passed by now; later failures are
		// operational, not usage mistakes.
		cmd.SilenceUsage = true

		var err error
		settings, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			settings.LogLevel = logLevel
		}
		if err := settings.EnsureDirs(); err != nil {
			return err
		}

		level, _ := logging.ParseLevel(settings.LogLevel)
		log = logging.New(level)
		pidStore = marker.NewFileStore(settings.MarkerPath())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "hexarctl config file (default is ./hexarctl.yaml or $HOME/.hexarctl/hexarctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "console log level: debug, info, warn, error")
}

// Execute runs the command tree and maps the result to a process exit code:
// 0 success, 1 failure, 130 operator interrupt.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "hexarctl: interrupted")
		return 130
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return childExit
}
