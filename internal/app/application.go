package app

import (
	"context"
	"io"

	"backup-reminder/internal/config"
	"backup-reminder/internal/desktop"
	"backup-reminder/internal/gui"
	"backup-reminder/internal/logger"
	"backup-reminder/internal/session"
	"backup-reminder/internal/shutdown"
	"backup-reminder/internal/worker"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName    = "Backup reminder"
	AppID      = "org.purton.backupreminder"
	AppVersion = "1.0.0"
)

type Application struct {
	fyneApp    fyne.App
	window     fyne.Window
	view       *gui.View
	controller *gui.Controller
	session    *session.Session
	logger     logger.Logger
	lifecycle  *Lifecycle
	shutdown   *shutdown.Manager
}

// NewApplication builds the window, the session and the desktop
// collaborators described by cfg. logCloser is closed on shutdown.
func NewApplication(cfg *config.Config, log logger.Logger, logCloser io.Closer) (*Application, error) {
	fyneApp := app.NewWithID(AppID)
	return newApplication(fyneApp, cfg, log, logCloser)
}

func newApplication(fyneApp fyne.App, cfg *config.Config, log logger.Logger, logCloser io.Closer) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	window := fyneApp.NewWindow(AppName)
	window.SetFixedSize(true)
	window.CenterOnScreen()
	window.SetMaster()

	runner := worker.NewRunner(cfg.Backup.Command, cfg.Backup.Args, log)

	view := gui.NewView(window)
	controller := gui.NewController(view, log)
	sess := session.New(view, "", session.Deps{
		Start: func(ctx context.Context) (session.Process, error) {
			handle, err := runner.Start(ctx)
			if err != nil {
				return nil, err
			}
			return handle, nil
		},
		Locker:   desktop.NewScreenLocker(cfg.ScreenSaver, log),
		Power:    desktop.NewPower(cfg.Power, log),
		Dispatch: fyne.Do,
		Logger:   log,
	})
	controller.SetSession(sess)

	shutdownManager := shutdown.NewManager(log)
	lifecycle := NewLifecycle(sess, logCloser, log)
	shutdownManager.Register(lifecycle)

	log.Info("Application", "initialization complete", map[string]interface{}{
		"version":        AppVersion,
		"session":        sess.ID(),
		"backup_command": cfg.Backup.Command,
		"screensaver":    cfg.ScreenSaver.Backend,
		"power":          cfg.Power.Backend,
	})

	return &Application{
		fyneApp:    fyneApp,
		window:     window,
		view:       view,
		controller: controller,
		session:    sess,
		logger:     log,
		lifecycle:  lifecycle,
		shutdown:   shutdownManager,
	}, nil
}

// Run shows the reminder and blocks until the window is closed.
func (a *Application) Run() error {
	a.fyneApp.Lifecycle().SetOnStarted(func() {
		id := gui.WindowID(a.window)
		a.session.SetWindowID(id)
		a.logger.Debug("Application", "window ready", map[string]interface{}{
			"window_id": id,
		})
	})

	a.shutdown.Listen(func() {
		fyne.Do(a.fyneApp.Quit)
	})

	a.view.Show()
	a.logger.Info("Application", "GUI displayed", nil)
	a.fyneApp.Run()

	a.shutdown.Shutdown()
	return nil
}
