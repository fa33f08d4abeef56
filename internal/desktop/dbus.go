package desktop

import (
	"fmt"
	"sync"

	"backup-reminder/internal/logger"

	"github.com/godbus/dbus/v5"
)

const (
	screenSaverDest  = "org.freedesktop.ScreenSaver"
	screenSaverPath  = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	screenSaverIface = "org.freedesktop.ScreenSaver"

	login1Dest  = "org.freedesktop.login1"
	login1Path  = dbus.ObjectPath("/org/freedesktop/login1")
	login1Iface = "org.freedesktop.login1.Manager"

	appName       = "backup-reminder"
	inhibitReason = "Backup running"
)

// BusObject is the subset of dbus.BusObject used here.
type BusObject interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DBusLocker inhibits the idle lock through org.freedesktop.ScreenSaver.
// The window id is only used for logging; the inhibition is keyed by cookie.
type DBusLocker struct {
	connect func() (BusObject, error)
	logger  logger.Logger

	mu      sync.Mutex
	cookies map[string]uint32
}

func NewDBusLocker(log logger.Logger) *DBusLocker {
	return &DBusLocker{
		connect: func() (BusObject, error) {
			conn, err := dbus.SessionBus()
			if err != nil {
				return nil, fmt.Errorf("session bus: %w", err)
			}
			return conn.Object(screenSaverDest, screenSaverPath), nil
		},
		logger:  log,
		cookies: make(map[string]uint32),
	}
}

func (l *DBusLocker) Suspend(windowID string) {
	obj, err := l.connect()
	if err != nil {
		l.debug("inhibit", windowID, err)
		return
	}

	var cookie uint32
	if err := obj.Call(screenSaverIface+".Inhibit", 0, appName, inhibitReason).Store(&cookie); err != nil {
		l.debug("inhibit", windowID, err)
		return
	}

	l.mu.Lock()
	l.cookies[windowID] = cookie
	l.mu.Unlock()

	l.logger.Debug(component, "screensaver inhibited", map[string]interface{}{
		"window": windowID,
		"cookie": cookie,
	})
}

func (l *DBusLocker) Resume(windowID string) {
	l.mu.Lock()
	cookie, ok := l.cookies[windowID]
	delete(l.cookies, windowID)
	l.mu.Unlock()
	if !ok {
		return
	}

	obj, err := l.connect()
	if err != nil {
		l.debug("uninhibit", windowID, err)
		return
	}
	if call := obj.Call(screenSaverIface+".UnInhibit", 0, cookie); call.Err != nil {
		l.debug("uninhibit", windowID, call.Err)
	}
}

func (l *DBusLocker) debug(action, windowID string, err error) {
	l.logger.Debug(component, "screensaver dbus call failed", map[string]interface{}{
		"action": action,
		"window": windowID,
		"error":  err.Error(),
	})
}

// DBusPower asks logind to power off.
type DBusPower struct {
	connect func() (BusObject, error)
	logger  logger.Logger
}

func NewDBusPower(log logger.Logger) *DBusPower {
	return &DBusPower{
		connect: func() (BusObject, error) {
			conn, err := dbus.SystemBus()
			if err != nil {
				return nil, fmt.Errorf("system bus: %w", err)
			}
			return conn.Object(login1Dest, login1Path), nil
		},
		logger: log,
	}
}

func (p *DBusPower) PowerOff() {
	obj, err := p.connect()
	if err == nil {
		p.logger.Info(component, "powering off", nil)
		err = obj.Call(login1Iface+".PowerOff", 0, false).Err
	}
	if err != nil {
		p.logger.Debug(component, "logind poweroff failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
