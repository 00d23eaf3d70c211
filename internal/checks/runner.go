package checks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
)

// CommandRunner abstracts command execution for testability. Every external
// tool invocation goes through it. Failures are reported as exit codes only.
type CommandRunner interface {
	// Run streams the command's output live and also returns a copy of
	// stdout and stderr combined, in arrival order.
	Run(ctx context.Context, dir string, command string) (output string, exitCode int)
	// Capture runs the command with stdout and stderr captured, nothing streamed.
	Capture(ctx context.Context, dir string, command string) (stdout string, stderr string, exitCode int)
}

// Exit codes used when a process never produced one of its own.
const (
	ExitLaunchFailure = 1
	ExitNotFound      = 127
)

// ExecRunner implements CommandRunner by shelling out through sh -c.
type ExecRunner struct {
	Stdout io.Writer // live output target; os.Stdout when nil
	Stderr io.Writer // live error target; os.Stderr when nil
	Log    zerolog.Logger
}

func (e *ExecRunner) Run(ctx context.Context, dir string, command string) (string, int) {
	captured := &lockedBuffer{}
	cmd := e.command(ctx, dir, command)
	cmd.Stdout = io.MultiWriter(e.stdout(), captured)
	cmd.Stderr = io.MultiWriter(e.stderr(), captured)
	cmd.Stdin = os.Stdin

	e.Log.Debug().Str("dir", dir).Str("command", command).Msg("running")
	code := e.exitCode(command, cmd.Run())
	return captured.String(), code
}

func (e *ExecRunner) Capture(ctx context.Context, dir string, command string) (string, string, int) {
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd := e.command(ctx, dir, command)
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	e.Log.Debug().Str("dir", dir).Str("command", command).Msg("capturing")
	code := e.exitCode(command, cmd.Run())
	return stdoutBuf.String(), stderrBuf.String(), code
}

func (e *ExecRunner) command(ctx context.Context, dir string, command string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	return cmd
}

// exitCode maps the result of cmd.Run to an integer status. A process that
// could not be launched is logged and reported as a failure, never returned
// as an error.
func (e *ExecRunner) exitCode(command string, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		// Killed by a signal.
		return ExitLaunchFailure
	}
	e.Log.Error().Err(err).Str("command", command).Msg("error executing command")
	var execErr *exec.Error
	if errors.As(err, &execErr) || errors.Is(err, os.ErrNotExist) {
		return ExitNotFound
	}
	return ExitLaunchFailure
}

func (e *ExecRunner) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *ExecRunner) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}

// lockedBuffer is written by the stdout and stderr copy goroutines at once.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
