// Package desktop talks to the screen locker and to power management.
//
// Every call here is best effort: failures are logged at debug level and
// otherwise ignored so that a missing tool never blocks a backup.
package desktop

import (
	"context"
	"os/exec"
	"time"

	"backup-reminder/internal/config"
	"backup-reminder/internal/logger"
)

const component = "Desktop"

// commandTimeout bounds how long a side tool may hold up the UI thread.
const commandTimeout = 10 * time.Second

// ScreenLocker suspends and resumes the idle lock for a window.
type ScreenLocker interface {
	Suspend(windowID string)
	Resume(windowID string)
}

// Power turns the machine off.
type Power interface {
	PowerOff()
}

// Exec runs a command to completion. Replaced in tests.
type Exec func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// CommandLocker drives xdg-screensaver style tools.
type CommandLocker struct {
	command string
	exec    Exec
	logger  logger.Logger
}

func NewCommandLocker(command string, log logger.Logger) *CommandLocker {
	return &CommandLocker{command: command, exec: runCommand, logger: log}
}

func (l *CommandLocker) Suspend(windowID string) {
	l.run("suspend", windowID)
}

func (l *CommandLocker) Resume(windowID string) {
	l.run("resume", windowID)
}

func (l *CommandLocker) run(action, windowID string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := l.exec(ctx, l.command, action, windowID); err != nil {
		l.logger.Debug(component, "screensaver command failed", map[string]interface{}{
			"action": action,
			"window": windowID,
			"error":  err.Error(),
		})
		return
	}
	l.logger.Debug(component, "screensaver "+action, map[string]interface{}{"window": windowID})
}

// CommandPower powers off through systemctl.
type CommandPower struct {
	command string
	exec    Exec
	logger  logger.Logger
}

func NewCommandPower(command string, log logger.Logger) *CommandPower {
	return &CommandPower{command: command, exec: runCommand, logger: log}
}

func (p *CommandPower) PowerOff() {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	p.logger.Info(component, "powering off", nil)
	if err := p.exec(ctx, p.command, "poweroff"); err != nil {
		p.logger.Debug(component, "poweroff command failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// NewScreenLocker builds the locker selected by cfg.
func NewScreenLocker(cfg config.ToolConfig, log logger.Logger) ScreenLocker {
	if cfg.Backend == config.BackendDBus {
		return NewDBusLocker(log)
	}
	return NewCommandLocker(cfg.Command, log)
}

// NewPower builds the power backend selected by cfg.
func NewPower(cfg config.ToolConfig, log logger.Logger) Power {
	if cfg.Backend == config.BackendDBus {
		return NewDBusPower(log)
	}
	return NewCommandPower(cfg.Command, log)
}
