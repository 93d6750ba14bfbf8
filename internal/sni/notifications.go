package sni

import (
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	NotificationsInterface = "org.freedesktop.Notifications"
	NotificationsPath      = "/org/freedesktop/Notifications"

	// DefaultAction is the action invoked when the notification body is
	// clicked.
	DefaultAction = "default"
)

// Urgency is the urgency hint of a notification.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// CloseReason is the reason reported by NotificationClosed.
type CloseReason uint32

const (
	CloseReasonExpired   CloseReason = 1
	CloseReasonDismissed CloseReason = 2
	CloseReasonClosed    CloseReason = 3
	CloseReasonUndefined CloseReason = 4
)

// Notification is a request to show a desktop notification.
type Notification struct {
	AppName string

	// ID of a notification to replace, 0 for a new one.
	ReplacesID uint32

	// Freedesktop icon name or absolute path of an icon file.
	AppIcon string

	Summary string
	Body    string
	Urgency Urgency

	// SuppressSound asks the server not to play a sound.
	SuppressSound bool

	// Timeout after which the server closes the notification. Zero leaves
	// it to the server.
	Timeout time.Duration
}

// Notifier is a client of org.freedesktop.Notifications.
type Notifier struct {
	conn    *dbus.Conn
	object  dbus.BusObject
	signals chan *dbus.Signal

	mu       sync.Mutex
	closed   bool
	onAction func(id uint32, action string)
	onClosed func(id uint32, reason CloseReason)
}

// NewNotifier returns a new [Notifier] subscribed to the signals of the
// notification server.
func NewNotifier(conn *dbus.Conn) (*Notifier, error) {
	n := &Notifier{
		conn:    conn,
		object:  conn.Object(NotificationsInterface, NotificationsPath),
		signals: make(chan *dbus.Signal, 16),
	}

	if err := n.subscribe(); err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}

	return n, nil
}

// Notify shows a notification and returns its ID.
func (n *Notifier) Notify(notification Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(notification.Urgency)),
	}

	if notification.SuppressSound {
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}

	timeout := int32(-1)
	if notification.Timeout > 0 {
		timeout = int32(notification.Timeout / time.Millisecond)
	}

	call := n.object.Call(
		NotificationsInterface+".Notify",
		0,
		notification.AppName,
		notification.ReplacesID,
		notification.AppIcon,
		notification.Summary,
		notification.Body,
		[]string{DefaultAction, ""},
		hints,
		timeout,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}

	return id, nil
}

// CloseNotification closes the notification with the given ID.
func (n *Notifier) CloseNotification(id uint32) error {
	if err := n.object.Call(NotificationsInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("close notification: %w", err)
	}

	return nil
}

// OnActionInvoked sets callback that runs when the user invokes an action
// of a notification, such as clicking it.
func (n *Notifier) OnActionInvoked(callback func(id uint32, action string)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.onAction = callback
}

// OnClosed sets callback that runs when a notification is closed.
func (n *Notifier) OnClosed(callback func(id uint32, reason CloseReason)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.onClosed = callback
}

// Close unsubscribes from signals.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	for _, member := range []string{"ActionInvoked", "NotificationClosed"} {
		if err := n.conn.RemoveMatchSignal(
			dbus.WithMatchInterface(NotificationsInterface),
			dbus.WithMatchMember(member),
		); err != nil {
			return err
		}
	}

	n.conn.RemoveSignal(n.signals)
	close(n.signals)

	return nil
}

// subscribe subscribes to signals
//   - org.freedesktop.Notifications.ActionInvoked
//   - org.freedesktop.Notifications.NotificationClosed
func (n *Notifier) subscribe() error {
	for _, member := range []string{"ActionInvoked", "NotificationClosed"} {
		if err := n.conn.AddMatchSignal(
			dbus.WithMatchInterface(NotificationsInterface),
			dbus.WithMatchMember(member),
		); err != nil {
			return err
		}
	}

	n.conn.Signal(n.signals)

	go func() {
		for signal := range n.signals {
			switch signal.Name {
			case NotificationsInterface + ".ActionInvoked":
				n.handleActionInvoked(signal)
			case NotificationsInterface + ".NotificationClosed":
				n.handleClosed(signal)
			}
		}
	}()

	return nil
}

func (n *Notifier) handleActionInvoked(signal *dbus.Signal) {
	if len(signal.Body) != 2 {
		return
	}

	id, ok := signal.Body[0].(uint32)
	if !ok {
		return
	}

	action, ok := signal.Body[1].(string)
	if !ok {
		return
	}

	n.mu.Lock()
	callback := n.onAction
	n.mu.Unlock()

	if callback != nil {
		callback(id, action)
	}
}

func (n *Notifier) handleClosed(signal *dbus.Signal) {
	if len(signal.Body) != 2 {
		return
	}

	id, ok := signal.Body[0].(uint32)
	if !ok {
		return
	}

	reason, ok := signal.Body[1].(uint32)
	if !ok {
		return
	}

	n.mu.Lock()
	callback := n.onClosed
	n.mu.Unlock()

	if callback != nil {
		callback(id, CloseReason(reason))
	}
}
