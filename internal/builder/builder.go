package builder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrBuildFailed indicates the build command exited non-zero. The managed
// process must never be launched on top of a failed build.
var ErrBuildFailed = errors.New("build failed")

// Builder produces the radar controller executable. The build tool itself is
// opaque; pass/fail is the only contract.
type Builder interface {
	Build(ctx context.Context) error
}

// CommandBuilder runs a configured build command and captures its combined
// output in a rotating build log.
type CommandBuilder struct {
	command []string
	logSink *lumberjack.Logger
}

// New creates a builder that logs build output to logPath.
func New(command []string, logPath string) *CommandBuilder {
	return &CommandBuilder{
		command: command,
		logSink: &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
		},
	}
}

// LogPath returns the build log location, surfaced to the operator on failure.
func (b *CommandBuilder) LogPath() string {
	return b.logSink.Filename
}

// Build runs the build command, streaming output to the build log.
func (b *CommandBuilder) Build(ctx context.Context) error {
	if len(b.command) == 0 {
		return fmt.Errorf("no build command configured")
	}

	cmd := exec.CommandContext(ctx, b.command[0], b.command[1:]...)
	cmd.Stdout = b.logSink
	cmd.Stderr = b.logSink

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: exit code %d (see %s)", ErrBuildFailed, exitErr.ExitCode(), b.LogPath())
		}
		return fmt.Errorf("%w: %v (see %s)", ErrBuildFailed, err, b.LogPath())
	}
	return nil
}
