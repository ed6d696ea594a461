package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// diagnoseComponents are the controller subsystems that can be checked
// individually. No argument runs the full suite.
var diagnoseComponents = map[string]bool{
	"antennas":  true,
	"power":     true,
	"cooling":   true,
	"emergency": true,
	"scanner":   true,
	"tracker":   true,
	"parser":    true,
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [component]",
	Short: "Run the controller's hardware diagnostics",
	Long: `Builds the controller and runs its self-diagnostics in the foreground.

With a component argument only that subsystem is checked:
` + "  " + componentList(),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var extra []string
		if len(args) == 1 {
			if !diagnoseComponents[args[0]] {
				return fmt.Errorf("unknown component %q: want one of %s", args[0], componentList())
			}
			extra = append(extra, args[0])
		}
		return runControllerAction(cmd.Context(), "diagnose", extra...)
	},
}

func componentList() string {
	names := make([]string, 0, len(diagnoseComponents))
	for name := range diagnoseComponents {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
}
