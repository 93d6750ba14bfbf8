// Package sni publishes a tray icon on the session bus following the
// [StatusNotifierItem] specification.
//
// # Usage
//
// A tray icon consists of an [Item], an optional [Menu] and the
// [StatusNotifierWatcher] it is registered with:
//   - [Item] exports org.kde.StatusNotifierItem and reports activation
//     requests of the host through callbacks.
//   - [Menu] exports com.canonical.dbusmenu. The host renders the
//     [LayoutNode] tree set with [Menu.SetLayout] and reports clicks back.
//   - [WatcherMonitor] reports when a watcher appears on the bus, after
//     which items must be registered again.
//
// In addition, [Notifier] is a client of org.freedesktop.Notifications,
// used for notification balloons.
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/
// [StatusNotifierWatcher]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierWatcher/
package sni
