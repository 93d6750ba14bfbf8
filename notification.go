package notifyicon

import (
	"fmt"
	"math"
	"time"
)

// NotificationIcon is the built-in icon of a notification balloon.
type NotificationIcon int

const (
	NotificationIconNone NotificationIcon = iota
	NotificationIconInfo
	NotificationIconWarning
	NotificationIconError
)

func (i NotificationIcon) String() string {
	switch i {
	case NotificationIconNone:
		return "None"
	case NotificationIconInfo:
		return "Info"
	case NotificationIconWarning:
		return "Warning"
	case NotificationIconError:
		return "Error"
	default:
		return fmt.Sprintf("NotificationIcon(%d)", int(i))
	}
}

// Notification is a balloon shown next to the icon.
type Notification struct {
	Title   string
	Message string

	// Icon is the built-in icon. It is ignored when CustomIcon is set.
	Icon NotificationIcon

	// CustomIcon is an icon handle displayed instead of a built-in icon.
	CustomIcon Handle

	LargeIcon        bool
	NoSound          bool
	RespectQuietTime bool

	// Realtime discards the notification if it cannot be shown
	// immediately.
	Realtime bool

	// Timeout closes the balloon after the given duration. Zero leaves it
	// to the shell.
	Timeout time.Duration
}

// infoFlags maps the notification to NIIF* flags.
func (n Notification) infoFlags() uint32 {
	var flags uint32

	if n.CustomIcon != 0 {
		flags = NIIFUser
	} else {
		switch n.Icon {
		case NotificationIconNone:
			flags = NIIFNone
		case NotificationIconInfo:
			flags = NIIFInfo
		case NotificationIconWarning:
			flags = NIIFWarning
		case NotificationIconError:
			flags = NIIFError
		default:
			panic(fmt.Sprintf("notifyicon: unknown notification icon %d", int(n.Icon)))
		}
	}

	if n.LargeIcon {
		flags |= NIIFLargeIcon
	}

	if n.NoSound {
		flags |= NIIFNoSound
	}

	if n.RespectQuietTime {
		flags |= NIIFRespectQuietTime
	}

	return flags
}

// ShowNotification shows a balloon for the icon. It returns false without
// calling the shell if the icon is not created.
func (t *TrayIcon) ShowNotification(n Notification) bool {
	if !t.IsCreated() {
		return false
	}

	data := t.baseData()
	data.Flags |= NIFInfo
	data.Info = n.Message
	data.InfoTitle = n.Title
	data.InfoFlags = n.infoFlags()
	data.BalloonIcon = n.CustomIcon
	data.Timeout = timeoutMillis(n.Timeout)

	if n.Realtime {
		data.Flags |= NIFRealtime
	}

	// A pending close belongs to the previous balloon.
	t.mu.Lock()
	t.stopBalloonTimerLocked()
	t.mu.Unlock()

	if !t.shell.NotifyIcon(NIMModify, data) {
		return false
	}

	if n.Timeout > 0 {
		t.armBalloonTimer(n.Timeout)
	}

	return true
}

// ClearNotifications hides the balloon of the icon, if any.
func (t *TrayIcon) ClearNotifications() bool {
	if !t.IsCreated() {
		return false
	}

	t.mu.Lock()
	t.stopBalloonTimerLocked()
	t.mu.Unlock()

	data := t.baseData()
	data.Flags |= NIFInfo

	return t.shell.NotifyIcon(NIMModify, data)
}

func (t *TrayIcon) armBalloonTimer(timeout time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopBalloonTimerLocked()

	seq := t.balloonSeq
	t.balloonTimer = time.AfterFunc(timeout, func() {
		t.window.Post(func() {
			t.mu.Lock()
			current := seq == t.balloonSeq
			t.mu.Unlock()

			if current {
				t.ClearNotifications()
			}
		})
	})
}

// stopBalloonTimerLocked cancels a pending balloon close. t.mu must be held.
func (t *TrayIcon) stopBalloonTimerLocked() {
	t.balloonSeq++

	if t.balloonTimer != nil {
		t.balloonTimer.Stop()
		t.balloonTimer = nil
	}
}

// timeoutMillis converts d to the millisecond field of the balloon request.
func timeoutMillis(d time.Duration) uint32 {
	switch ms := d.Milliseconds(); {
	case ms <= 0:
		return 0
	case ms > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(ms)
	}
}
