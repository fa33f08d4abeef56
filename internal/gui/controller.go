package gui

import (
	"strconv"

	"backup-reminder/internal/logger"
	"backup-reminder/internal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver"
)

// Controller connects the reminder window to its session.
type Controller struct {
	view      *View
	session   *session.Session
	confirmer session.Confirmer
	logger    logger.Logger

	// closing is set while the cancel question is on screen
	closing bool
	closed  bool
}

func NewController(view *View, log logger.Logger) *Controller {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	c := &Controller{
		view:      view,
		confirmer: &ConfirmDialog{parent: view.GetWindow()},
		logger:    log,
	}

	window := view.GetWindow()
	window.SetCloseIntercept(c.RequestClose)
	window.Canvas().SetOnTypedKey(c.onTypedKey)
	view.SetConfirmHandler(c.Confirm)
	view.SetCloseHandler(c.RequestClose)

	return c
}

// SetSession attaches the session driven by this window.
func (c *Controller) SetSession(s *session.Session) {
	c.session = s
}

// SetConfirmer replaces the cancel question dialog.
func (c *Controller) SetConfirmer(confirmer session.Confirmer) {
	c.confirmer = confirmer
}

func (c *Controller) Session() *session.Session {
	return c.session
}

func (c *Controller) Confirm() {
	if c.session == nil {
		return
	}
	c.session.Confirm(c.view.ShutdownChecked())
}

// RequestClose closes the window unless a running backup should be kept.
func (c *Controller) RequestClose() {
	if c.closing || c.closed {
		return
	}
	if c.session == nil {
		c.close()
		return
	}

	c.closing = true
	c.session.RequestClose(c.confirmer, func(ok bool) {
		c.closing = false
		if !ok {
			c.logger.Debug("Controller", "close rejected, backup keeps running", nil)
			return
		}
		c.close()
	})
}

func (c *Controller) Closed() bool {
	return c.closed
}

func (c *Controller) close() {
	c.closed = true
	c.logger.Info("Controller", "closing window", nil)
	c.view.GetWindow().Close()
}

func (c *Controller) onTypedKey(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyEscape {
		c.RequestClose()
	}
}

// ConfirmDialog asks the cancel question in a modal dialog over its parent.
type ConfirmDialog struct {
	parent fyne.Window
}

func (d *ConfirmDialog) Confirm(question string, answer func(ok bool)) {
	confirm := dialog.NewConfirm("Cancel backup?", question, answer, d.parent)
	confirm.SetDismissText("Cancel")
	confirm.SetConfirmText("OK")
	confirm.Show()
}

// WindowID returns the X11 id of window as a decimal string, or an empty
// string when the window is not backed by X11.
func WindowID(window fyne.Window) string {
	native, ok := window.(driver.NativeWindow)
	if !ok {
		return ""
	}

	var id string
	native.RunNative(func(ctx any) {
		if x11, ok := ctx.(driver.X11WindowContext); ok && x11.WindowHandle != 0 {
			id = strconv.FormatUint(uint64(x11.WindowHandle), 10)
		}
	})
	return id
}
