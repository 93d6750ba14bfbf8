package notifyicon

import (
	"time"

	"github.com/google/uuid"
)

// Handle is an opaque native handle, such as an icon handle (HICON).
type Handle uintptr

// Point is a position in screen coordinates.
type Point struct {
	X int32
	Y int32
}

// WindowProc receives every message delivered to a message window. It
// reports whether the message was handled; unhandled messages are passed to
// the default window procedure of the platform.
type WindowProc func(msg Message) (handled bool)

// IconData is the platform-neutral form of NOTIFYICONDATA.
type IconData struct {
	// Window that receives callback messages.
	Window Window

	// Identity of the icon.
	ID uuid.UUID

	// Combination of NIF* flags.
	Flags uint32

	CallbackMessage uint32
	Icon            Handle
	ToolTip         string

	// Combination of NIS* flags.
	State     uint32
	StateMask uint32

	// Balloon text. An empty Info with NIFInfo set hides the balloon.
	Info      string
	InfoTitle string

	// Combination of NIIF* flags.
	InfoFlags   uint32
	BalloonIcon Handle

	// Timeout in milliseconds, shares storage with Version on Windows.
	Timeout uint32
	Version uint32
}

// NativeMenuItem describes one entry of a native popup menu.
type NativeMenuItem struct {
	// Command identifier, 0 for separators and submenus.
	ID uint32

	// Combination of MF* flags.
	Flags uint32

	Text    string
	SubMenu *NativeMenu
}

// NativeMenu is a popup menu ready to be displayed by a [Window].
type NativeMenu struct {
	Items []NativeMenuItem
}

// Shell is the operating system facing side of the tray icon: window
// management, notification area registration and the per-thread message
// queue.
type Shell interface {
	// RegisterWindowClass registers the class used by message windows.
	// Callers guarantee it is invoked at most once per process.
	RegisterWindowClass() error

	// RegisterWindowMessage returns the system-wide id of a named message.
	RegisterWindowMessage(name string) (uint32, error)

	// CreateWindow creates a hidden message window owned by the calling
	// thread.
	CreateWindow(proc WindowProc) (Window, error)

	// NotifyIcon executes a notification area command.
	NotifyIcon(cmd NotifyCommand, data *IconData) bool

	CursorPos() Point
	DoubleClickTime() time.Duration
	SystemDPI() (x, y uint32)

	// CurrentThreadID returns the id of the calling OS thread.
	CurrentThreadID() uint32

	// RunMessageLoop retrieves and dispatches messages of the calling
	// thread until a quit message is posted to it.
	RunMessageLoop()

	// PostQuit posts a quit message to the queue of the given thread.
	PostQuit(threadID uint32) bool

	SetEfficiencyMode(enabled bool) error
}

// Window is a native message window.
type Window interface {
	Handle() Handle

	// PostMessage places a message in the queue of the thread that owns
	// the window and returns without waiting.
	PostMessage(id uint32, wParam, lParam uintptr) bool

	// SetForeground brings the window to the foreground. Popup menus
	// require it to be dismissed when the user clicks elsewhere.
	SetForeground() bool

	// TrackPopupMenu displays menu at the given screen position and blocks
	// until it is dismissed. It returns the id of the selected item or 0.
	TrackPopupMenu(menu *NativeMenu, x, y int32) uint32

	Destroy() error
}
