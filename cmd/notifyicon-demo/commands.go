package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shelepuginivan/notifyicon"
)

// trayIcon is the part of the icon driven by commands.
type trayIcon interface {
	ShowNotification(n notifyicon.Notification) bool
	ClearNotifications() bool
	SetFocus() bool
	Remove() bool
	Create() bool
}

// dispatcher runs commands read from stdin against the icon.
type dispatcher struct {
	icon       trayIcon
	customIcon notifyicon.Handle

	// invoke runs fn on the thread that owns the icon.
	invoke func(fn func()) bool
}

// dispatch executes one command line and returns its result. Unknown
// commands return false.
func (d *dispatcher) dispatch(line string) bool {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")

	var command func() bool

	switch name {
	case "message":
		command = d.notify("None", arg, notifyicon.NotificationIconNone)
	case "info":
		command = d.notify("Info", arg, notifyicon.NotificationIconInfo)
	case "warning":
		command = d.notify("Warning", arg, notifyicon.NotificationIconWarning)
	case "error":
		command = d.notify("Error", arg, notifyicon.NotificationIconError)
	case "custom":
		command = func() bool {
			return d.icon.ShowNotification(notifyicon.Notification{
				Title:      "Custom",
				Message:    arg,
				CustomIcon: d.customIcon,
			})
		}
	case "clear":
		command = d.icon.ClearNotifications
	case "set-focus":
		command = d.icon.SetFocus
	case "remove":
		command = d.icon.Remove
	case "create":
		command = d.icon.Create
	default:
		return false
	}

	var result bool
	if !d.invoke(func() { result = command() }) {
		return false
	}

	return result
}

func (d *dispatcher) notify(title, message string, icon notifyicon.NotificationIcon) func() bool {
	return func() bool {
		return d.icon.ShowNotification(notifyicon.Notification{
			Title:   title,
			Message: message,
			Icon:    icon,
		})
	}
}

// run dispatches every line of r and writes "<line>: <result>" to w.
func (d *dispatcher) run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()

		if _, err := fmt.Fprintf(w, "%s: %t\n", line, d.dispatch(line)); err != nil {
			return err
		}
	}

	return scanner.Err()
}
