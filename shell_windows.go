//go:build windows

package notifyicon

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/windows"

	"github.com/shelepuginivan/notifyicon/internal/win32"
)

const windowClassName = "NotifyIconMessageWindow"

var (
	defaultShellOnce sync.Once
	defaultShell     *windowsShell
)

// DefaultShell returns the Win32 shell.
func DefaultShell() (Shell, error) {
	defaultShellOnce.Do(func() {
		defaultShell = &windowsShell{
			instance: win32.ModuleHandle(),
		}
		defaultShell.wndProc = windows.NewCallback(defaultShell.dispatch)
	})

	return defaultShell, nil
}

// LoadIconFile loads an .ico file into an icon handle.
func LoadIconFile(path string) (Handle, error) {
	h, err := win32.LoadIconFile(path)
	if err != nil {
		return 0, fmt.Errorf("load icon %s: %w", path, err)
	}

	return Handle(h), nil
}

type windowsShell struct {
	instance windows.Handle
	wndProc  uintptr

	// windows.Handle -> WindowProc
	procs sync.Map
}

func (s *windowsShell) RegisterWindowClass() error {
	className, err := windows.UTF16PtrFromString(windowClassName)
	if err != nil {
		return err
	}

	wc := win32.WindowClassEx{
		WndProc:   s.wndProc,
		Instance:  s.instance,
		ClassName: className,
	}

	return wc.Register()
}

func (s *windowsShell) RegisterWindowMessage(name string) (uint32, error) {
	return win32.RegisterWindowMessage(name)
}

func (s *windowsShell) CreateWindow(proc WindowProc) (Window, error) {
	className, err := windows.UTF16PtrFromString(windowClassName)
	if err != nil {
		return nil, err
	}

	hwnd, err := win32.CreateHiddenWindow(className, s.instance)
	if err != nil {
		return nil, err
	}

	// Messages sent during creation reach the default procedure.
	s.procs.Store(hwnd, proc)

	return &nativeWindow{shell: s, hwnd: hwnd}, nil
}

func (s *windowsShell) dispatch(hwnd windows.Handle, msg uint32, wParam, lParam uintptr) uintptr {
	if value, ok := s.procs.Load(hwnd); ok {
		proc := value.(WindowProc)
		if proc(Message{ID: msg, WParam: wParam, LParam: lParam}) {
			return 0
		}
	}

	return win32.DefWindowProc(hwnd, msg, wParam, lParam)
}

func (s *windowsShell) NotifyIcon(cmd NotifyCommand, data *IconData) bool {
	nid := win32.NotifyIconData{
		Flags:           data.Flags,
		CallbackMessage: data.CallbackMessage,
		Icon:            windows.Handle(data.Icon),
		State:           data.State,
		StateMask:       data.StateMask,
		InfoFlags:       data.InfoFlags,
		GuidItem:        guidFromUUID(data.ID),
		BalloonIcon:     windows.Handle(data.BalloonIcon),
	}

	if data.Window != nil {
		nid.Wnd = windows.Handle(data.Window.Handle())
	}

	win32.CopyString(nid.Tip[:], data.ToolTip)
	win32.CopyString(nid.Info[:], data.Info)
	win32.CopyString(nid.InfoTitle[:], data.InfoTitle)

	if cmd == NIMSetVersion {
		nid.TimeoutOrVersion = data.Version
	} else {
		nid.TimeoutOrVersion = data.Timeout
	}

	return win32.ShellNotifyIcon(uint32(cmd), &nid)
}

func (s *windowsShell) CursorPos() Point {
	p, _ := win32.GetCursorPos()
	return Point{X: p.X, Y: p.Y}
}

func (s *windowsShell) DoubleClickTime() time.Duration {
	ms := win32.GetDoubleClickTime()
	if ms == 0 {
		ms = 500
	}

	return time.Duration(ms) * time.Millisecond
}

func (s *windowsShell) SystemDPI() (x, y uint32) {
	dpi := win32.GetDpiForSystem()
	return dpi, dpi
}

func (s *windowsShell) CurrentThreadID() uint32 {
	return windows.GetCurrentThreadId()
}

func (s *windowsShell) RunMessageLoop() {
	_ = win32.RunMessageLoop()
}

func (s *windowsShell) PostQuit(threadID uint32) bool {
	return win32.PostThreadMessage(threadID, win32.WM_QUIT, 0, 0)
}

func (s *windowsShell) SetEfficiencyMode(enabled bool) error {
	if !win32.SupportsEfficiencyMode() {
		return fmt.Errorf("efficiency mode requires Windows 8 or later: %w", ErrUnsupportedPlatform)
	}

	return win32.SetEfficiencyMode(enabled)
}

type nativeWindow struct {
	shell *windowsShell
	hwnd  windows.Handle
}

func (w *nativeWindow) Handle() Handle {
	return Handle(w.hwnd)
}

func (w *nativeWindow) PostMessage(id uint32, wParam, lParam uintptr) bool {
	return win32.PostMessage(w.hwnd, id, wParam, lParam)
}

func (w *nativeWindow) SetForeground() bool {
	return win32.SetForegroundWindow(w.hwnd)
}

func (w *nativeWindow) TrackPopupMenu(menu *NativeMenu, x, y int32) uint32 {
	h, err := buildNativeMenu(menu)
	if err != nil {
		return 0
	}
	defer win32.DestroyMenu(h) //nolint:errcheck

	return win32.TrackPopupMenu(h, w.hwnd, x, y)
}

func (w *nativeWindow) Destroy() error {
	defer w.shell.procs.Delete(w.hwnd)

	return win32.DestroyWindow(w.hwnd)
}

func buildNativeMenu(menu *NativeMenu) (windows.Handle, error) {
	h, err := win32.CreatePopupMenu()
	if err != nil {
		return 0, fmt.Errorf("create popup menu: %w", err)
	}

	for _, item := range menu.Items {
		id := uintptr(item.ID)

		if item.SubMenu != nil {
			sub, err := buildNativeMenu(item.SubMenu)
			if err != nil {
				_ = win32.DestroyMenu(h)
				return 0, err
			}
			id = uintptr(sub)
		}

		if err := win32.AppendMenu(h, item.Flags, id, item.Text); err != nil {
			_ = win32.DestroyMenu(h)
			return 0, fmt.Errorf("append menu item %q: %w", item.Text, err)
		}
	}

	return h, nil
}

// guidFromUUID converts the RFC 4122 byte order of u into a GUID.
func guidFromUUID(u uuid.UUID) windows.GUID {
	var data4 [8]byte
	copy(data4[:], u[8:])

	return windows.GUID{
		Data1: binary.BigEndian.Uint32(u[0:4]),
		Data2: binary.BigEndian.Uint16(u[4:6]),
		Data3: binary.BigEndian.Uint16(u[6:8]),
		Data4: data4,
	}
}
