// Package session holds the state of one backup reminder: whether a backup
// is running, how it ended and whether the window may close.
//
// All methods must be called on the UI thread. The only thing that crosses
// threads is the completion of the worker, which is posted back through the
// Dispatcher.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"backup-reminder/internal/desktop"
	"backup-reminder/internal/logger"
	"backup-reminder/internal/worker"

	"github.com/google/uuid"
)

const component = "Session"

const (
	HeadingReminder = "Backup reminder"
	HeadingWarning  = "Warning"

	MessagePrompt  = "It's time to run a backup! Would you like to do this now?"
	MessageRunning = "Backup running..."
	MessageSuccess = "Backup finished successfully."
	MessageFailure = "Backup did not finish successfully."

	CancelQuestion = "Are you sure you want to cancel the backup?"

	// DefaultShutdownWait bounds how long Shutdown waits for a terminated backup.
	DefaultShutdownWait = 5 * time.Second
)

type State int

const (
	Idle State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Process is a started backup.
type Process interface {
	Wait() worker.Outcome
	Terminate()
}

// StartFunc launches the backup command.
type StartFunc func(ctx context.Context) (Process, error)

// View is what the session needs from the window.
type View interface {
	SetMessage(heading, body string)
	ShowRunning()
	ShowFinished()
	RequestAttention()
}

// Confirmer asks the user a yes/no question and reports the answer once.
type Confirmer interface {
	Confirm(question string, answer func(ok bool))
}

// Dispatcher runs fn on the UI thread.
type Dispatcher func(fn func())

type Deps struct {
	Start    StartFunc
	Locker   desktop.ScreenLocker
	Power    desktop.Power
	Dispatch Dispatcher
	Logger   logger.Logger

	ShutdownWait time.Duration
}

// Session is the single reminder instance owned by the window controller.
type Session struct {
	id       string
	windowID string
	deps     Deps
	view     View

	state             State
	shutdownRequested bool
	process           Process
	outcome           *worker.Outcome

	ctx    context.Context
	cancel context.CancelFunc

	// guarded by mu: read by Shutdown outside the UI thread
	mu         sync.Mutex
	lockedID   string
	locked     bool
	workerDone chan struct{}
}

func New(view View, windowID string, deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = logger.NoOpLogger{}
	}
	if deps.Dispatch == nil {
		deps.Dispatch = func(fn func()) { fn() }
	}
	if deps.ShutdownWait <= 0 {
		deps.ShutdownWait = DefaultShutdownWait
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       uuid.NewString(),
		windowID: windowID,
		deps:     deps,
		view:     view,
		state:    Idle,
		ctx:      ctx,
		cancel:   cancel,
	}

	view.SetMessage(HeadingReminder, MessagePrompt)
	return s
}

func (s *Session) ID() string              { return s.id }
func (s *Session) State() State            { return s.state }
func (s *Session) ShutdownRequested() bool { return s.shutdownRequested }

// SetWindowID records the on-screen window once the toolkit has created it.
func (s *Session) SetWindowID(id string) { s.windowID = id }

// HasWorker reports whether a backup process is attached to the session.
func (s *Session) HasWorker() bool { return s.process != nil }

// Outcome returns the result of the backup once the session has finished.
func (s *Session) Outcome() (worker.Outcome, bool) {
	if s.outcome == nil {
		return worker.Outcome{}, false
	}
	return *s.outcome, true
}

// Confirm starts the backup. It does nothing unless the session is idle.
func (s *Session) Confirm(shutdownAfter bool) {
	if s.state != Idle {
		s.deps.Logger.Debug(component, "confirm ignored", map[string]interface{}{
			"session": s.id,
			"state":   s.state.String(),
		})
		return
	}

	s.shutdownRequested = shutdownAfter
	s.suspendLocker()

	proc, err := s.deps.Start(s.ctx)
	if err != nil {
		s.deps.Logger.Error(component, err, map[string]interface{}{"session": s.id})
		s.finish(worker.Failed(err))
		return
	}

	s.process = proc
	s.state = Running
	s.view.ShowRunning()
	s.view.SetMessage(HeadingReminder, MessageRunning)

	s.deps.Logger.Info(component, "backup started", map[string]interface{}{
		"session":        s.id,
		"shutdown_after": shutdownAfter,
	})

	done := make(chan struct{})
	s.mu.Lock()
	s.workerDone = done
	s.mu.Unlock()

	go func() {
		outcome := proc.Wait()
		close(done)
		s.deps.Dispatch(func() {
			s.finish(outcome)
		})
	}()
}

func (s *Session) finish(outcome worker.Outcome) {
	if s.state == Finished {
		return
	}

	s.resumeLocker()
	s.process = nil
	s.state = Finished
	s.outcome = &outcome
	s.view.ShowFinished()

	if outcome.Success() {
		s.view.SetMessage(HeadingReminder, MessageSuccess)
		s.view.RequestAttention()
		s.deps.Logger.Info(component, "backup finished", map[string]interface{}{
			"session":  s.id,
			"duration": outcome.Duration.String(),
		})
		if s.shutdownRequested {
			s.deps.Power.PowerOff()
		}
	} else {
		s.view.SetMessage(HeadingWarning, MessageFailure)
		fields := map[string]interface{}{
			"session":   s.id,
			"exit_code": outcome.ExitCode,
		}
		if outcome.Err != nil {
			fields["error"] = outcome.Err.Error()
		}
		s.deps.Logger.Warning(component, "backup did not finish successfully", fields)
	}
}

// RequestClose decides whether the window may close. While a backup runs the
// user is asked first; agreeing terminates the backup. done is called at most
// once, with true when the window should close.
func (s *Session) RequestClose(confirm Confirmer, done func(closed bool)) {
	if s.state != Running {
		done(true)
		return
	}

	confirm.Confirm(CancelQuestion, func(ok bool) {
		if !ok {
			done(false)
			return
		}
		// the backup may have finished while the question was open
		if s.process != nil {
			s.deps.Logger.Info(component, "backup cancelled by user", map[string]interface{}{
				"session": s.id,
			})
			s.process.Terminate()
		}
		done(true)
	})
}

// Shutdown stops a running backup without asking and waits, up to
// ShutdownWait, for it to exit. The screen locker is resumed even when the
// completion never reaches the UI thread. Safe from any goroutine.
func (s *Session) Shutdown() {
	s.cancel()

	s.mu.Lock()
	done := s.workerDone
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-time.After(s.deps.ShutdownWait):
			s.deps.Logger.Warning(component, "backup still running at shutdown", map[string]interface{}{
				"session": s.id,
				"waited":  s.deps.ShutdownWait.String(),
			})
		}
	}

	s.resumeLocker()
}

func (s *Session) suspendLocker() {
	s.mu.Lock()
	s.locked = true
	s.lockedID = s.windowID
	s.mu.Unlock()

	s.deps.Locker.Suspend(s.windowID)
}

// resumeLocker undoes suspendLocker at most once.
func (s *Session) resumeLocker() {
	s.mu.Lock()
	if !s.locked {
		s.mu.Unlock()
		return
	}
	s.locked = false
	id := s.lockedID
	s.mu.Unlock()

	s.deps.Locker.Resume(id)
}
