package notifyicon

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the registration state of a [TrayIcon].
type State int

const (
	StateNotCreated State = iota
	StateCreated
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateNotCreated:
		return "NotCreated"
	case StateCreated:
		return "Created"
	case StateRemoved:
		return "Removed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TrayIcon is an icon in the notification area.
//
// TrayIcon owns a [MessageWindow], which is created by the first call to
// [TrayIcon.Create] on the calling thread. Lifecycle methods must be called
// from that thread; callers serialize their own access. [TrayIcon.Close] may
// be called from any thread.
type TrayIcon struct {
	shell  Shell
	id     uuid.UUID
	window *MessageWindow
	logger atomic.Pointer[zerolog.Logger]

	mu                 sync.Mutex
	state              State
	closed             bool
	icon               Handle
	toolTip            string
	useStandardToolTip bool
	hidden             bool
	dpi                DPIScale
	noLeftClickDelay   bool
	clickTimer         *time.Timer
	clickSeq           uint64
	balloonTimer       *time.Timer
	balloonSeq         uint64

	mouse     observers[MouseEventArgs]
	keyboard  observers[KeyboardEventArgs]
	taskbar   observers[struct{}]
	dpiChange observers[DPIScale]
	toolTips  observers[bool]
	balloons  observers[bool]
	leftClick observers[Point]
	fault     observers[error]
}

// New returns a new [TrayIcon] with the given identity. The icon is not
// registered until [TrayIcon.Create] is called.
func New(shell Shell, id uuid.UUID) *TrayIcon {
	t := &TrayIcon{
		shell:  shell,
		id:     id,
		window: NewMessageWindow(shell),
		dpi:    DefaultDPIScale,
	}

	t.window.OnMouseEvent(t.handleMouseEvent)
	t.window.OnKeyboardEvent(t.keyboard.emit)
	t.window.OnTaskbarCreated(t.handleTaskbarCreated)
	t.window.OnDPIChanged(t.handleDPIChanged)
	t.window.OnToolTipChange(t.toolTips.emit)
	t.window.OnBalloonChange(t.balloons.emit)
	t.window.OnFault(t.fault.emit)

	return t
}

// NewWithName returns a new [TrayIcon] whose identity is derived from name,
// see [IDFromName].
func NewWithName(shell Shell, name string) *TrayIcon {
	return New(shell, IDFromName(name))
}

// SetLogger attaches a logger to the icon and its message window. A nil
// logger disables logging.
func (t *TrayIcon) SetLogger(logger *zerolog.Logger) {
	t.logger.Store(logger)
	t.window.SetLogger(logger)
}

// ID returns identity of the icon.
func (t *TrayIcon) ID() uuid.UUID {
	return t.id
}

// Window returns the message window of the icon.
func (t *TrayIcon) Window() *MessageWindow {
	return t.window
}

// State returns the registration state of the icon.
func (t *TrayIcon) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// IsCreated reports whether the icon is registered in the notification area.
func (t *TrayIcon) IsCreated() bool {
	return t.State() == StateCreated
}

// DPIScale returns the scale factors reported by the last DPI change.
func (t *TrayIcon) DPIScale() DPIScale {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.dpi
}

// Icon returns the icon handle.
func (t *TrayIcon) Icon() Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.icon
}

// ToolTip returns the tooltip text.
func (t *TrayIcon) ToolTip() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.toolTip
}

// SetIcon sets the icon handle. If the icon is created, it is updated in
// place and the result of the update is returned.
func (t *TrayIcon) SetIcon(icon Handle) bool {
	t.mu.Lock()
	t.icon = icon
	t.mu.Unlock()

	return t.updateIfCreated()
}

// SetToolTip sets the tooltip text. If the icon is created, it is updated
// in place and the result of the update is returned.
func (t *TrayIcon) SetToolTip(text string) bool {
	t.mu.Lock()
	t.toolTip = text
	t.mu.Unlock()

	return t.updateIfCreated()
}

// SetVisible shows or hides a created icon without removing it.
func (t *TrayIcon) SetVisible(visible bool) bool {
	t.mu.Lock()
	t.hidden = !visible
	t.mu.Unlock()

	return t.updateIfCreated()
}

// SetUseStandardToolTip selects the standard shell tooltip instead of the
// rich tooltip, which is reported through [TrayIcon.OnToolTipChange].
// It takes effect on the next registration or update.
func (t *TrayIcon) SetUseStandardToolTip(standard bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.useStandardToolTip = standard
}

// SetNoLeftClickDelay makes [TrayIcon.OnLeftClick] fire on button release
// instead of waiting for the double click time to elapse.
func (t *TrayIcon) SetNoLeftClickDelay(noDelay bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.noLeftClickDelay = noDelay
}

// Create registers the icon in the notification area and reports whether
// the shell accepted it. If the icon is already created, Create updates it
// instead.
func (t *TrayIcon) Create() bool {
	t.mu.Lock()
	closed, state := t.closed, t.state
	t.mu.Unlock()

	if closed {
		return false
	}

	if state == StateCreated {
		return t.Update()
	}

	if err := t.window.Create(); err != nil {
		t.logError(err, "failed to create message window")
		return false
	}

	data := t.registrationData()
	if !t.shell.NotifyIcon(NIMAdd, data) {
		t.logDebug("shell rejected icon registration")
		return false
	}

	data.Version = NotifyIconVersion4
	if !t.shell.NotifyIcon(NIMSetVersion, data) {
		if logger := t.logger.Load(); logger != nil {
			logger.Warn().Stringer("id", t.id).Msg("tray icon: failed to set notify icon version")
		}
	}

	t.mu.Lock()
	t.state = StateCreated
	t.mu.Unlock()

	return true
}

// ForceCreate creates the icon and optionally turns on efficiency mode,
// meaning the application runs in a hidden background state.
func (t *TrayIcon) ForceCreate(enableEfficiencyMode bool) bool {
	created := t.Create()

	if enableEfficiencyMode {
		if err := SetEfficiencyMode(t.shell, true); err != nil {
			t.logError(err, "failed to enable efficiency mode")
		}
	}

	return created
}

// CreateOnLoad is intended to be called from the host's "loaded" callback.
// It creates the icon without efficiency mode. Failures, including panics,
// never propagate: they are logged and reported through [TrayIcon.OnFault].
func (t *TrayIcon) CreateOnLoad() {
	defer func() {
		if r := recover(); r != nil {
			t.reportFault(fmt.Errorf("create on load: %w", &PanicError{Value: r}))
		}
	}()

	if t.ForceCreate(false) {
		return
	}

	if err := t.window.Create(); err != nil {
		t.reportFault(fmt.Errorf("create on load: %w", err))
		return
	}

	t.reportFault(fmt.Errorf("create on load: shell rejected icon %s", t.id))
}

// Update re-sends icon, tooltip and visibility of a created icon.
func (t *TrayIcon) Update() bool {
	if !t.IsCreated() {
		return false
	}

	return t.shell.NotifyIcon(NIMModify, t.registrationData())
}

// Remove unregisters the icon. It returns false if the icon is not created
// or the shell rejected the request.
func (t *TrayIcon) Remove() bool {
	if !t.IsCreated() {
		return false
	}

	if !t.shell.NotifyIcon(NIMDelete, t.baseData()) {
		return false
	}

	t.mu.Lock()
	t.state = StateRemoved
	t.stopBalloonTimerLocked()
	t.mu.Unlock()

	return true
}

// TryRemove is like [TrayIcon.Remove] but never panics and treats an
// already removed icon as success. It returns false for an icon that was
// never created.
func (t *TrayIcon) TryRemove() (removed bool) {
	defer func() {
		if r := recover(); r != nil {
			t.logError(&PanicError{Value: r}, "failed to remove icon")
			removed = false
		}
	}()

	switch t.State() {
	case StateNotCreated:
		return false
	case StateRemoved:
		return true
	}

	return t.Remove()
}

// SetFocus returns keyboard focus to the icon, e.g. after a context menu
// opened with the keyboard was closed.
func (t *TrayIcon) SetFocus() bool {
	if !t.IsCreated() {
		return false
	}

	return t.shell.NotifyIcon(NIMSetFocus, t.baseData())
}

// Close removes the icon, stops pending timers and destroys the message
// window. Close is idempotent and safe to call from any thread.
func (t *TrayIcon) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.stopClickTimerLocked()
	t.stopBalloonTimerLocked()
	t.mu.Unlock()

	_ = t.TryRemove()

	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	return t.window.Close()
}

func (t *TrayIcon) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

// OnMouseEvent registers callback that runs for every mouse event.
func (t *TrayIcon) OnMouseEvent(callback func(MouseEventArgs)) {
	t.mouse.add(callback)
}

// OnKeyboardEvent registers callback that runs for every keyboard event.
func (t *TrayIcon) OnKeyboardEvent(callback func(KeyboardEventArgs)) {
	t.keyboard.add(callback)
}

// OnTaskbarCreated registers callback that runs after the taskbar was
// recreated. A created icon is registered again before callback runs.
func (t *TrayIcon) OnTaskbarCreated(callback func()) {
	t.taskbar.add(func(struct{}) { callback() })
}

// OnDPIChanged registers callback that runs with the new scale factors.
func (t *TrayIcon) OnDPIChanged(callback func(DPIScale)) {
	t.dpiChange.add(callback)
}

// OnToolTipChange registers callback that runs when the rich tooltip should
// be shown or hidden.
func (t *TrayIcon) OnToolTipChange(callback func(visible bool)) {
	t.toolTips.add(callback)
}

// OnBalloonChange registers callback that runs when a balloon is shown or
// hidden.
func (t *TrayIcon) OnBalloonChange(callback func(visible bool)) {
	t.balloons.add(callback)
}

// OnFault registers callback that receives errors raised while handling
// events or in [TrayIcon.CreateOnLoad].
func (t *TrayIcon) OnFault(callback func(error)) {
	t.fault.add(callback)
}

// handleTaskbarCreated registers the icon again after the shell restarted.
func (t *TrayIcon) handleTaskbarCreated() {
	if t.IsCreated() {
		t.reregister()
	}

	t.taskbar.emit(struct{}{})
}

func (t *TrayIcon) reregister() {
	defer func() {
		if r := recover(); r != nil {
			t.logError(&PanicError{Value: r}, "failed to re-register icon")
		}
	}()

	// The old registration died with the shell, so the removal usually
	// fails. Either way the icon must be added again.
	_ = t.TryRemove()

	t.mu.Lock()
	t.state = StateRemoved
	t.mu.Unlock()

	if !t.Create() {
		t.logError(fmt.Errorf("shell rejected icon %s", t.id), "failed to re-register icon after taskbar was recreated")
	}
}

func (t *TrayIcon) handleDPIChanged(scale DPIScale) {
	t.mu.Lock()
	t.dpi = scale
	t.mu.Unlock()

	t.dpiChange.emit(scale)
}

func (t *TrayIcon) updateIfCreated() bool {
	if !t.IsCreated() {
		return true
	}

	return t.Update()
}

// baseData returns the identifying part of the icon data.
func (t *TrayIcon) baseData() *IconData {
	return &IconData{
		Window: t.window.Window(),
		ID:     t.id,
		Flags:  NIFGUID,
	}
}

// registrationData returns the icon data used to add or modify the icon.
func (t *TrayIcon) registrationData() *IconData {
	data := t.baseData()
	data.Flags |= NIFMessage | NIFIcon | NIFTip | NIFState
	data.CallbackMessage = CallbackMessage
	data.StateMask = NISHidden

	t.mu.Lock()
	defer t.mu.Unlock()

	data.Icon = t.icon
	data.ToolTip = t.toolTip

	// With NOTIFYICON_VERSION_4 the standard tooltip is shown only when
	// NIF_SHOWTIP is set; otherwise the application draws its own.
	if t.useStandardToolTip {
		data.Flags |= NIFShowTip
	}

	if t.hidden {
		data.State = NISHidden
	}

	return data
}

func (t *TrayIcon) reportFault(err error) {
	t.logError(err, "tray icon fault")
	t.fault.emit(err)
}

func (t *TrayIcon) logError(err error, msg string) {
	if logger := t.logger.Load(); logger != nil {
		logger.Error().Err(err).Stringer("id", t.id).Msg("tray icon: " + msg)
	}
}

func (t *TrayIcon) logDebug(msg string) {
	if logger := t.logger.Load(); logger != nil {
		logger.Debug().Stringer("id", t.id).Msg("tray icon: " + msg)
	}
}
