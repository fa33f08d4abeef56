package app

import (
	"fmt"
	"io"
	"os"

	"backup-reminder/internal/logger"
	"backup-reminder/internal/session"
)

// Lifecycle releases what the application holds once the event loop stops.
type Lifecycle struct {
	session    *session.Session
	logCloser  io.Closer
	logger     logger.Logger
	isShutdown bool
}

func NewLifecycle(s *session.Session, logCloser io.Closer, log logger.Logger) *Lifecycle {
	return &Lifecycle{
		session:   s,
		logCloser: logCloser,
		logger:    log,
	}
}

func (l *Lifecycle) Shutdown() {
	if l.isShutdown {
		return
	}

	l.isShutdown = true
	l.logger.Info("Lifecycle", "shutdown sequence initiated", nil)

	// a backup still running at this point is stopped rather than orphaned
	if l.session != nil {
		l.session.Shutdown()
		l.logger.Debug("Lifecycle", "session shutdown completed", map[string]interface{}{
			"session": l.session.ID(),
		})
	}

	l.logger.Info("Lifecycle", "shutdown sequence completed", nil)

	if l.logCloser != nil {
		if err := l.logCloser.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "backup-reminder: close log file: %v\n", err)
		}
	}
}
