package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/hexar-io/hexarctl/internal/builder"
)

// runControllerAction builds the controller and runs it in the foreground
// with the given action forwarded, for commands the controller handles
// itself (diagnose, config). The radar config path is appended when the
// file exists; its contents stay opaque to hexarctl.
func runControllerAction(ctx context.Context, action string, extra ...string) error {
	b := builder.New(settings.BuildCommand, settings.BuildLogPath())
	if err := b.Build(ctx); err != nil {
		return err
	}

	args := append([]string{action}, extra...)
	if _, err := os.Stat(settings.RadarConfigPath); err == nil {
		args = append(args, "--config", settings.RadarConfigPath)
	}

	cmd := exec.CommandContext(ctx, settings.BinaryPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			childExit = exitErr.ExitCode()
			return nil
		}
		return fmt.Errorf("failed to run radar controller: %w", err)
	}
	return nil
}
