//go:build windows

package win32

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const MF_POPUP = 0x0010

func CreatePopupMenu() (windows.Handle, error) {
	h, _, err := pCreatePopupMenu.Call()
	if h == 0 {
		return 0, err
	}
	return windows.Handle(h), nil
}

// AppendMenu appends an item to menu. For MF_POPUP items idOrSubMenu is the
// submenu handle.
func AppendMenu(menu windows.Handle, flags uint32, idOrSubMenu uintptr, text string) error {
	var p *uint16
	if text != "" {
		var err error
		if p, err = windows.UTF16PtrFromString(text); err != nil {
			return err
		}
	}

	res, _, err := pAppendMenu.Call(uintptr(menu), uintptr(flags), idOrSubMenu, uintptr(unsafe.Pointer(p)))
	if res == 0 {
		return err
	}
	return nil
}

// DestroyMenu destroys menu together with its submenus.
func DestroyMenu(menu windows.Handle) error {
	res, _, err := pDestroyMenu.Call(uintptr(menu))
	if res == 0 {
		return err
	}
	return nil
}

// TrackPopupMenu shows menu and blocks until it is dismissed. It returns the
// selected command id or 0.
func TrackPopupMenu(menu, owner windows.Handle, x, y int32) uint32 {
	res, _, _ := pTrackPopupMenu.Call(
		uintptr(menu),
		TPM_RETURNCMD|TPM_RIGHTBUTTON,
		uintptr(x),
		uintptr(y),
		0,
		uintptr(owner),
		0,
	)

	// Forces a task switch so the menu works the next time it is shown.
	PostMessage(owner, WM_NULL, 0, 0)

	return uint32(res)
}
