package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hexar-io/hexarctl/internal/builder"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the radar controller without starting it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := builder.New(settings.BuildCommand, settings.BuildLogPath())
		if err := b.Build(cmd.Context()); err != nil {
			return err
		}
		log.Info("build succeeded, output in %s", b.LogPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
