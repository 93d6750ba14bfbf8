//go:build windows

// Package win32 contains the bindings to user32, shell32 and kernel32 used
// by the Windows notification area backend.
package win32

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	k32 = windows.NewLazySystemDLL("Kernel32.dll")
	u32 = windows.NewLazySystemDLL("User32.dll")
	s32 = windows.NewLazySystemDLL("Shell32.dll")

	pAppendMenu            = u32.NewProc("AppendMenuW")
	pCreatePopupMenu       = u32.NewProc("CreatePopupMenu")
	pCreateWindowEx        = u32.NewProc("CreateWindowExW")
	pDefWindowProc         = u32.NewProc("DefWindowProcW")
	pDestroyMenu           = u32.NewProc("DestroyMenu")
	pDestroyWindow         = u32.NewProc("DestroyWindow")
	pDispatchMessage       = u32.NewProc("DispatchMessageW")
	pGetCursorPos          = u32.NewProc("GetCursorPos")
	pGetDoubleClickTime    = u32.NewProc("GetDoubleClickTime")
	pGetDpiForSystem       = u32.NewProc("GetDpiForSystem")
	pGetMessage            = u32.NewProc("GetMessageW")
	pGetModuleHandle       = k32.NewProc("GetModuleHandleW")
	pLoadImage             = u32.NewProc("LoadImageW")
	pPostMessage           = u32.NewProc("PostMessageW")
	pPostThreadMessage     = u32.NewProc("PostThreadMessageW")
	pRegisterClass         = u32.NewProc("RegisterClassExW")
	pRegisterWindowMessage = u32.NewProc("RegisterWindowMessageW")
	pSetForegroundWindow   = u32.NewProc("SetForegroundWindow")
	pSetProcessInformation = k32.NewProc("SetProcessInformation")
	pShellNotifyIcon       = s32.NewProc("Shell_NotifyIconW")
	pTrackPopupMenu        = u32.NewProc("TrackPopupMenu")
	pTranslateMessage      = u32.NewProc("TranslateMessage")
)

const (
	IMAGE_ICON      = 1
	LR_DEFAULTSIZE  = 0x00000040
	LR_LOADFROMFILE = 0x00000010
	TPM_RETURNCMD   = 0x0100
	TPM_RIGHTBUTTON = 0x0002
	WM_NULL         = 0x0000
	WM_QUIT         = 0x0012
)

// Point defines the x- and y- coordinates of a point.
type Point struct {
	X, Y int32
}

// Msg is the MSG structure filled by GetMessage.
type Msg struct {
	Wnd     windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      Point
	Private uint32
}

// WindowClassEx holds the window information used by RegisterClassEx.
type WindowClassEx struct {
	Size, Style                        uint32
	WndProc                            uintptr
	ClsExtra, WndExtra                 int32
	Instance, Icon, Cursor, Background windows.Handle
	MenuName, ClassName                *uint16
	IconSm                             windows.Handle
}

// Register registers the window class.
func (w *WindowClassEx) Register() error {
	w.Size = uint32(unsafe.Sizeof(*w))
	res, _, err := pRegisterClass.Call(uintptr(unsafe.Pointer(w)))
	if res == 0 {
		return err
	}
	return nil
}

// NotifyIconData is NOTIFYICONDATAW.
type NotifyIconData struct {
	Size                       uint32
	Wnd                        windows.Handle
	ID, Flags, CallbackMessage uint32
	Icon                       windows.Handle
	Tip                        [128]uint16
	State, StateMask           uint32
	Info                       [256]uint16

	// Timeout and Version share storage.
	TimeoutOrVersion uint32

	InfoTitle   [64]uint16
	InfoFlags   uint32
	GuidItem    windows.GUID
	BalloonIcon windows.Handle
}

// ShellNotifyIcon sends cmd with nid to the shell.
func ShellNotifyIcon(cmd uint32, nid *NotifyIconData) bool {
	nid.Size = uint32(unsafe.Sizeof(*nid))
	res, _, _ := pShellNotifyIcon.Call(uintptr(cmd), uintptr(unsafe.Pointer(nid)))
	return res != 0
}

// CopyString copies s into dst, truncating it to leave room for the
// terminating zero.
func CopyString(dst []uint16, s string) {
	src, err := windows.UTF16FromString(s)
	if err != nil {
		return
	}

	n := copy(dst[:len(dst)-1], src)
	dst[n] = 0
}

// ModuleHandle returns the handle of the executable.
func ModuleHandle() windows.Handle {
	h, _, _ := pGetModuleHandle.Call(0)
	return windows.Handle(h)
}

// CreateHiddenWindow creates an invisible top-level window of the given
// class. Message-only windows do not receive broadcasts such as
// TaskbarCreated, so the window has no parent.
func CreateHiddenWindow(className *uint16, instance windows.Handle) (windows.Handle, error) {
	h, _, err := pCreateWindowEx.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(className)),
		0,
		0, 0, 0, 0,
		0,
		0,
		uintptr(instance),
		0,
	)
	if h == 0 {
		return 0, err
	}
	return windows.Handle(h), nil
}

func DefWindowProc(hwnd windows.Handle, msg uint32, wParam, lParam uintptr) uintptr {
	res, _, _ := pDefWindowProc.Call(uintptr(hwnd), uintptr(msg), wParam, lParam)
	return res
}

func DestroyWindow(hwnd windows.Handle) error {
	res, _, err := pDestroyWindow.Call(uintptr(hwnd))
	if res == 0 {
		return err
	}
	return nil
}

func RegisterWindowMessage(name string) (uint32, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}

	res, _, err := pRegisterWindowMessage.Call(uintptr(unsafe.Pointer(p)))
	if res == 0 {
		return 0, err
	}
	return uint32(res), nil
}

func PostMessage(hwnd windows.Handle, msg uint32, wParam, lParam uintptr) bool {
	res, _, _ := pPostMessage.Call(uintptr(hwnd), uintptr(msg), wParam, lParam)
	return res != 0
}

func PostThreadMessage(threadID uint32, msg uint32, wParam, lParam uintptr) bool {
	res, _, _ := pPostThreadMessage.Call(uintptr(threadID), uintptr(msg), wParam, lParam)
	return res != 0
}

// RunMessageLoop pumps messages of the calling thread until WM_QUIT. It
// returns the error of a failed GetMessage call.
func RunMessageLoop() error {
	var m Msg
	for {
		ret, _, err := pGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)

		// -1 is an error, 0 is WM_QUIT.
		switch int32(ret) {
		case -1:
			return err
		case 0:
			return nil
		default:
			pTranslateMessage.Call(uintptr(unsafe.Pointer(&m))) //nolint:errcheck
			pDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))  //nolint:errcheck
		}
	}
}

func SetForegroundWindow(hwnd windows.Handle) bool {
	res, _, _ := pSetForegroundWindow.Call(uintptr(hwnd))
	return res != 0
}

func GetCursorPos() (Point, bool) {
	var p Point
	res, _, _ := pGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	return p, res != 0
}

// GetDoubleClickTime returns the double click time in milliseconds.
func GetDoubleClickTime() uint32 {
	res, _, _ := pGetDoubleClickTime.Call()
	return uint32(res)
}

// GetDpiForSystem returns the system DPI, or 0 before Windows 10 1607.
func GetDpiForSystem() uint32 {
	if pGetDpiForSystem.Find() != nil {
		return 0
	}

	res, _, _ := pGetDpiForSystem.Call()
	return uint32(res)
}

// LoadIconFile loads an .ico file at the default icon size.
func LoadIconFile(path string) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}

	h, _, err := pLoadImage.Call(
		0,
		uintptr(unsafe.Pointer(p)),
		IMAGE_ICON,
		0, 0,
		LR_DEFAULTSIZE|LR_LOADFROMFILE,
	)
	if h == 0 {
		return 0, err
	}
	return windows.Handle(h), nil
}
