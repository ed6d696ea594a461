package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config <show|validate|reset|set> [key] [value]",
	Short: "Relay configuration commands to the controller",
	Long: `Forwards a configuration action to the radar controller, which owns the
config schema and does all parsing and validation.

  show              print the effective configuration
  validate          check the configuration file
  reset             restore built-in defaults
  set <key> <value> change a single setting, e.g. radar.scan_rate_hz 10`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("missing config action: want show, validate, reset or set")
		}
		switch args[0] {
		case "show", "validate", "reset":
			if len(args) > 1 {
				return fmt.Errorf("config %s takes no further arguments", args[0])
			}
		case "set":
			if len(args) != 3 {
				return fmt.Errorf("config set requires a key and a value")
			}
		default:
			return fmt.Errorf("unknown config action %q: want show, validate, reset or set", args[0])
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControllerAction(cmd.Context(), "config", args...)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
