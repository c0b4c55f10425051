// Package runner is the boundary between the CLI and external processes:
// package manager installs and the shell commands integrations queue.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/nirtamir-cli/cli/internal/logger"
)

// ErrExternalCommandFailed marks a process that could not be started or
// exited non-zero.
var ErrExternalCommandFailed = errors.New("external command failed")

// Runner starts a process in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// Exec runs processes with os/exec.
type Exec struct{}

// Run implements Runner.
func (Exec) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%w: %s: %v\nOutput: %s", ErrExternalCommandFailed, strings.Join(cmd.Args, " "), err, output)
	}
	return output, nil
}

// Shell runs line through sh -c, so queued commands may use pipes,
// redirects and &&.
func Shell(ctx context.Context, r Runner, dir, line string) ([]byte, error) {
	return r.Run(ctx, dir, "sh", "-c", line)
}

// AsCommandFailure makes sure err matches ErrExternalCommandFailed.
func AsCommandFailure(err error) error {
	if err == nil || errors.Is(err, ErrExternalCommandFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrExternalCommandFailed, err)
}
