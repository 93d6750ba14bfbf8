package notifyicon

// Message is a raw message delivered to a message window.
//
// Every backend speaks the Win32 shell notification protocol: the Windows
// backend forwards real window messages, other backends translate their
// native events into the same encoding.
type Message struct {
	ID     uint32
	WParam uintptr
	LParam uintptr
}

// Window messages.
const (
	WMNull        = 0x0000
	WMQuit        = 0x0012
	WMContextMenu = 0x007B
	WMMouseMove   = 0x0200

	WMLButtonDown   = 0x0201
	WMLButtonUp     = 0x0202
	WMLButtonDblClk = 0x0203
	WMRButtonDown   = 0x0204
	WMRButtonUp     = 0x0205
	WMRButtonDblClk = 0x0206
	WMMButtonDown   = 0x0207
	WMMButtonUp     = 0x0208
	WMMButtonDblClk = 0x0209

	WMDPIChanged = 0x02E0
	WMUser       = 0x0400
	WMApp        = 0x8000
)

// Notification codes carried in LOWORD(lParam) of the callback message.
const (
	NINSelect           = WMUser + 0
	NINKeySelect        = NINSelect | 0x1
	NINBalloonShow      = WMUser + 2
	NINBalloonHide      = WMUser + 3
	NINBalloonTimeout   = WMUser + 4
	NINBalloonUserClick = WMUser + 5
	NINPopupOpen        = WMUser + 6
	NINPopupClose       = WMUser + 7
)

// Private messages of the message window.
const (
	// CallbackMessage is the message id the shell uses to report icon
	// activity to the message window.
	CallbackMessage = WMApp + 1

	wmInvoke = WMApp + 2
)

// NotifyCommand is a Shell_NotifyIcon command.
type NotifyCommand uint32

const (
	NIMAdd        NotifyCommand = 0x0
	NIMModify     NotifyCommand = 0x1
	NIMDelete     NotifyCommand = 0x2
	NIMSetFocus   NotifyCommand = 0x3
	NIMSetVersion NotifyCommand = 0x4
)

func (c NotifyCommand) String() string {
	switch c {
	case NIMAdd:
		return "NIM_ADD"
	case NIMModify:
		return "NIM_MODIFY"
	case NIMDelete:
		return "NIM_DELETE"
	case NIMSetFocus:
		return "NIM_SETFOCUS"
	case NIMSetVersion:
		return "NIM_SETVERSION"
	default:
		return "NIM_UNKNOWN"
	}
}

// Flags of [IconData] that select which members are valid.
const (
	NIFMessage  = 0x01
	NIFIcon     = 0x02
	NIFTip      = 0x04
	NIFState    = 0x08
	NIFInfo     = 0x10
	NIFGUID     = 0x20
	NIFRealtime = 0x40
	NIFShowTip  = 0x80
)

// NISHidden is the hidden icon state.
const NISHidden = 0x1

// Balloon icon flags.
const (
	NIIFNone             = 0x00
	NIIFInfo             = 0x01
	NIIFWarning          = 0x02
	NIIFError            = 0x03
	NIIFUser             = 0x04
	NIIFNoSound          = 0x10
	NIIFLargeIcon        = 0x20
	NIIFRespectQuietTime = 0x80
)

// NotifyIconVersion4 selects the Vista+ callback message layout.
const NotifyIconVersion4 = 4

// Native menu item flags.
const (
	MFString       = 0x0000
	MFGrayed       = 0x0001
	MFDisabled     = 0x0002
	MFChecked      = 0x0008
	MFPopup        = 0x0010
	MFMenuBarBreak = 0x0020
	MFMenuBreak    = 0x0040
	MFSeparator    = 0x0800
)

func loword(v uintptr) uint16 {
	return uint16(v & 0xFFFF)
}

func hiword(v uintptr) uint16 {
	return uint16((v >> 16) & 0xFFFF)
}

// MakeLong packs two 16-bit values the way MAKELPARAM does.
func MakeLong(lo, hi uint16) uintptr {
	return uintptr(uint32(lo) | uint32(hi)<<16)
}
