package sni

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	WatcherInterface = "org.kde.StatusNotifierWatcher"
	WatcherPath      = "/StatusNotifierWatcher"
)

// RegisterItem registers the item exported on conn with the watcher. It
// fails if no watcher is running.
func RegisterItem(conn *dbus.Conn) error {
	call := conn.Object(WatcherInterface, WatcherPath).Call(
		WatcherInterface+".RegisterStatusNotifierItem",
		0,
		conn.Names()[0],
	)
	if call.Err != nil {
		return fmt.Errorf("register item: %w", call.Err)
	}

	return nil
}

// WatcherMonitor reports when a watcher acquires its well-known name,
// which happens on start and on restart of the tray.
type WatcherMonitor struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal

	mu        sync.Mutex
	listening bool
	closed    bool
	onStarted func()
}

// NewWatcherMonitor returns a new [WatcherMonitor].
func NewWatcherMonitor(conn *dbus.Conn) *WatcherMonitor {
	return &WatcherMonitor{
		conn:    conn,
		signals: make(chan *dbus.Signal, 16),
	}
}

// OnStarted sets callback that runs whenever a watcher appears on the bus.
func (w *WatcherMonitor) OnStarted(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.onStarted = callback
}

// Listen subscribes to owner changes of the watcher name.
func (w *WatcherMonitor) Listen() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("listen: watcher monitor is closed")
	}

	if w.listening {
		return nil
	}

	// Whenever the name changes owner, D-Bus sends NameOwnerChanged with the
	// new owner in the third argument.
	if err := w.conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, WatcherInterface),
	); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	w.conn.Signal(w.signals)
	w.listening = true

	go func() {
		for signal := range w.signals {
			if isWatcherStarted(signal) {
				w.started()
			}
		}
	}()

	return nil
}

// Close unsubscribes from signals. The monitor cannot be reused.
func (w *WatcherMonitor) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if !w.listening {
		return nil
	}

	if err := w.conn.RemoveMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, WatcherInterface),
	); err != nil {
		return err
	}

	w.conn.RemoveSignal(w.signals)
	close(w.signals)

	return nil
}

func (w *WatcherMonitor) started() {
	w.mu.Lock()
	callback := w.onStarted
	w.mu.Unlock()

	if callback != nil {
		callback()
	}
}

// isWatcherStarted reports whether signal is a NameOwnerChanged signal
// giving the watcher name a new owner.
func isWatcherStarted(signal *dbus.Signal) bool {
	if signal.Name != "org.freedesktop.DBus.NameOwnerChanged" {
		return false
	}

	if len(signal.Body) < 3 {
		return false
	}

	name, ok := signal.Body[0].(string)
	if !ok || name != WatcherInterface {
		return false
	}

	newOwner, ok := signal.Body[2].(string)

	return ok && newOwner != ""
}
