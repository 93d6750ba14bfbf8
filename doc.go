// Package notifyicon places an application icon in the notification area
// (system tray) and reports what the user does with it.
//
// # Usage
//
// A tray icon consists of a [TrayIcon], the [MessageWindow] it owns and a
// [Shell], the operating system facing backend:
//   - [Shell] registers the icon with the notification area and delivers
//     native events as messages. [DefaultShell] returns the backend of the
//     current platform: the Win32 shell on Windows and the
//     [StatusNotifierItem] protocol on the Linux session bus.
//   - [MessageWindow] receives the messages of one icon and classifies them
//     into mouse, keyboard, tooltip, balloon, DPI and taskbar events.
//   - [TrayIcon] tracks registration state, updates icon, tooltip and
//     visibility, shows notification balloons and registers itself again
//     when the taskbar is recreated.
//   - [TrayIconWithContextMenu] runs the icon on a dedicated thread with its
//     own message loop and shows a [PopupMenu] on right click.
//
// Events are dispatched on the thread that created the message window, one
// message at a time. Use [MessageWindow.Post] or
// [TrayIconWithContextMenu.Invoke] to run code on that thread.
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/
package notifyicon
