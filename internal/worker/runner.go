// Package worker runs the external backup command in the background.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"backup-reminder/internal/logger"
)

const component = "Worker"

// ErrAlreadyWaited is reported when Wait is called more than once on a handle.
var ErrAlreadyWaited = errors.New("backup process already waited on")

// Outcome is the result of one backup run.
type Outcome struct {
	ExitCode int
	Duration time.Duration
	Err      error
}

// Success reports whether the backup command exited cleanly with status zero.
func (o Outcome) Success() bool {
	return o.Err == nil && o.ExitCode == 0
}

// Failed builds the outcome used when the command never ran.
func Failed(err error) Outcome {
	return Outcome{ExitCode: -1, Err: err}
}

// Runner starts the configured backup command.
type Runner struct {
	Command string
	Args    []string
	// Env is appended to the current process environment.
	Env []string

	logger logger.Logger
}

func NewRunner(command string, args []string, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Runner{
		Command: command,
		Args:    append([]string(nil), args...),
		logger:  log,
	}
}

// Start launches the command. Stdout is discarded; stderr is forwarded to the
// log at debug level. Cancelling ctx asks the process to terminate.
func (r *Runner) Start(ctx context.Context) (*Handle, error) {
	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderrLogger{logger: r.logger}
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", r.Command, err)
	}

	r.logger.Info(component, "backup process started", map[string]interface{}{
		"command": r.Command,
		"args":    r.Args,
		"pid":     cmd.Process.Pid,
	})

	return &Handle{cmd: cmd, started: started, logger: r.logger}, nil
}

// Handle is a running backup process.
type Handle struct {
	cmd     *exec.Cmd
	started time.Time
	logger  logger.Logger

	mu     sync.Mutex
	waited bool
}

// Wait blocks until the process exits.
func (h *Handle) Wait() Outcome {
	h.mu.Lock()
	if h.waited {
		h.mu.Unlock()
		return Failed(ErrAlreadyWaited)
	}
	h.waited = true
	h.mu.Unlock()

	err := h.cmd.Wait()
	outcome := Outcome{Duration: time.Since(h.started)}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		outcome.ExitCode = 0
	case errors.As(err, &exitErr):
		// -1 when the process was killed by a signal
		outcome.ExitCode = exitErr.ExitCode()
	default:
		outcome.ExitCode = -1
		outcome.Err = err
	}

	h.logger.Info(component, "backup process exited", map[string]interface{}{
		"pid":       h.cmd.Process.Pid,
		"exit_code": outcome.ExitCode,
		"duration":  outcome.Duration.Round(time.Second).String(),
	})
	return outcome
}

// Terminate asks the process to stop. It does not wait and ignores errors.
func (h *Handle) Terminate() {
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		h.logger.Debug(component, "terminate signal not delivered", map[string]interface{}{
			"pid":   h.cmd.Process.Pid,
			"error": err.Error(),
		})
		return
	}
	h.logger.Info(component, "termination requested", map[string]interface{}{
		"pid": h.cmd.Process.Pid,
	})
}

type stderrLogger struct {
	logger logger.Logger
}

func (s *stderrLogger) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		s.logger.Debug(component, string(line), nil)
	}
	return len(p), nil
}
