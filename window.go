package notifyicon

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// classRegistrations holds one registration per shell. Window classes are
// process-wide, so concurrent first use from several icons must register
// the class once.
var classRegistrations sync.Map

type classRegistration struct {
	once sync.Once
	err  error
}

func registerClass(shell Shell) error {
	value, _ := classRegistrations.LoadOrStore(shell, new(classRegistration))
	registration := value.(*classRegistration)

	registration.once.Do(func() {
		registration.err = shell.RegisterWindowClass()
	})

	return registration.err
}

const invokeQueueSize = 64

// MessageWindow owns a hidden native window and classifies the messages it
// receives into mouse, keyboard and system events.
//
// The native window is created by [MessageWindow.Create] on the calling
// thread. That thread owns the window: it must run a message loop, and all
// events are dispatched on it, one message at a time.
type MessageWindow struct {
	shell  Shell
	logger atomic.Pointer[zerolog.Logger]

	mu        sync.Mutex
	window    Window
	created   bool
	createErr error
	destroyed bool

	// Written before the native window exists, read on the owning thread.
	taskbarCreated uint32

	// Owning thread only.
	isDoubleClick bool

	calls chan func()

	mouse    observers[MouseEventArgs]
	keyboard observers[KeyboardEventArgs]
	taskbar  observers[struct{}]
	dpi      observers[DPIScale]
	toolTip  observers[bool]
	balloon  observers[bool]
	fault    observers[error]
}

// NewMessageWindow returns a new [MessageWindow]. The native window is not
// created until [MessageWindow.Create] is called.
func NewMessageWindow(shell Shell) *MessageWindow {
	return &MessageWindow{
		shell: shell,
		calls: make(chan func(), invokeQueueSize),
	}
}

// SetLogger attaches a logger. A nil logger disables logging.
func (w *MessageWindow) SetLogger(logger *zerolog.Logger) {
	w.logger.Store(logger)
}

// Create registers the window class and creates the native window.
//
// Create is idempotent. A failure is terminal: it is returned by every
// subsequent call and the window is never retried. After [MessageWindow.Close]
// Create returns [ErrWindowDestroyed].
func (w *MessageWindow) Create() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.destroyed {
		return ErrWindowDestroyed
	}

	if w.created {
		return w.createErr
	}

	w.created = true
	w.createErr = w.create()

	return w.createErr
}

func (w *MessageWindow) create() error {
	if err := registerClass(w.shell); err != nil {
		return fmt.Errorf("create window: failed to register window class: %w", err)
	}

	taskbarCreated, err := w.shell.RegisterWindowMessage("TaskbarCreated")
	if err != nil {
		return fmt.Errorf("create window: failed to register TaskbarCreated message: %w", err)
	}
	w.taskbarCreated = taskbarCreated

	window, err := w.shell.CreateWindow(w.proc)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	w.window = window

	return nil
}

// Window returns the native window, or nil if it was not created.
func (w *MessageWindow) Window() Window {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.destroyed {
		return nil
	}

	return w.window
}

// Post schedules fn to run on the thread that owns the window and returns
// without waiting. It reports false if the window does not exist, the queue
// is full, or the wake-up message could not be posted. In the last case fn
// stays queued and runs with the next posted call.
func (w *MessageWindow) Post(fn func()) bool {
	window := w.Window()
	if window == nil {
		return false
	}

	select {
	case w.calls <- fn:
	default:
		if logger := w.logger.Load(); logger != nil {
			logger.Warn().Msg("message window: invoke queue is full")
		}
		return false
	}

	return window.PostMessage(wmInvoke, 0, 0)
}

// OnMouseEvent registers callback that runs for every mouse event.
func (w *MessageWindow) OnMouseEvent(callback func(MouseEventArgs)) {
	w.mouse.add(callback)
}

// OnKeyboardEvent registers callback that runs for every keyboard event.
func (w *MessageWindow) OnKeyboardEvent(callback func(KeyboardEventArgs)) {
	w.keyboard.add(callback)
}

// OnTaskbarCreated registers callback that runs whenever the taskbar is
// (re)created, e.g. after the shell has restarted.
func (w *MessageWindow) OnTaskbarCreated(callback func()) {
	w.taskbar.add(func(struct{}) { callback() })
}

// OnDPIChanged registers callback that runs with the new scale factors.
func (w *MessageWindow) OnDPIChanged(callback func(DPIScale)) {
	w.dpi.add(callback)
}

// OnToolTipChange registers callback that runs when the rich tooltip of the
// icon should be shown (true) or hidden (false).
func (w *MessageWindow) OnToolTipChange(callback func(visible bool)) {
	w.toolTip.add(callback)
}

// OnBalloonChange registers callback that runs when a balloon is shown
// (true) or hidden (false).
func (w *MessageWindow) OnBalloonChange(callback func(visible bool)) {
	w.balloon.add(callback)
}

// OnFault registers callback that receives errors recovered while
// dispatching messages.
func (w *MessageWindow) OnFault(callback func(error)) {
	w.fault.add(callback)
}

// Close destroys the native window. Close is idempotent.
func (w *MessageWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.destroyed {
		return nil
	}
	w.destroyed = true

	if w.window == nil {
		return nil
	}

	if err := w.window.Destroy(); err != nil {
		return fmt.Errorf("close window: %w", err)
	}

	return nil
}

// proc is the window procedure.
func (w *MessageWindow) proc(msg Message) (handled bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if unsupported, ok := r.(*UnsupportedEventError); ok {
			panic(unsupported)
		}

		err := fmt.Errorf("dispatch message 0x%04X: %w", msg.ID, &PanicError{Value: r})
		if logger := w.logger.Load(); logger != nil {
			logger.Error().Err(err).Msg("message window: event handler failed")
		}
		w.fault.emit(err)
		handled = true
	}()

	if w.taskbarCreated != 0 && msg.ID == w.taskbarCreated {
		w.taskbar.emit(struct{}{})
		return true
	}

	switch msg.ID {
	case CallbackMessage:
		return w.handleCallback(msg)
	case WMDPIChanged:
		w.dpi.emit(DPIScale{
			X: float64(loword(msg.WParam)) / baseDPI,
			Y: float64(hiword(msg.WParam)) / baseDPI,
		})
		return true
	case wmInvoke:
		w.runCalls()
		return true
	}

	return false
}

// handleCallback decodes a callback message in the NOTIFYICON_VERSION_4
// layout: LOWORD(lParam) is the event, wParam is the anchor point.
func (w *MessageWindow) handleCallback(msg Message) bool {
	point := Point{
		X: int32(int16(loword(msg.WParam))),
		Y: int32(int16(hiword(msg.WParam))),
	}

	switch loword(msg.LParam) {
	case WMMouseMove:
		w.emitMouse(MouseMove, point)
	case WMLButtonDown:
		w.emitMouse(IconLeftMouseDown, point)
	case WMLButtonUp:
		// The button release that completes a double click is not a click.
		if !w.isDoubleClick {
			w.emitMouse(IconLeftMouseUp, point)
		}
		w.isDoubleClick = false
	case WMLButtonDblClk:
		w.isDoubleClick = true
		w.emitMouse(IconLeftDoubleClick, point)
		w.emitMouse(IconDoubleClick, point)
	case WMRButtonDown:
		w.emitMouse(IconRightMouseDown, point)
	case WMRButtonUp:
		w.emitMouse(IconRightMouseUp, point)
	case WMRButtonDblClk:
		w.emitMouse(IconRightDoubleClick, point)
	case WMMButtonDown:
		w.emitMouse(IconMiddleMouseDown, point)
	case WMMButtonUp:
		w.emitMouse(IconMiddleMouseUp, point)
	case WMMButtonDblClk:
		w.emitMouse(IconMiddleDoubleClick, point)
	case NINBalloonUserClick:
		w.emitMouse(BalloonToolTipClicked, point)
	case WMContextMenu:
		w.keyboard.emit(KeyboardEventArgs{Event: KeyboardContextMenu, Point: point})
	case NINKeySelect:
		w.keyboard.emit(KeyboardEventArgs{Event: KeyboardKeySelect, Point: point})
	case NINSelect:
		w.keyboard.emit(KeyboardEventArgs{Event: KeyboardSelect, Point: point})
	case NINPopupOpen:
		w.toolTip.emit(true)
	case NINPopupClose:
		w.toolTip.emit(false)
	case NINBalloonShow:
		w.balloon.emit(true)
	case NINBalloonHide, NINBalloonTimeout:
		w.balloon.emit(false)
	default:
		return false
	}

	return true
}

func (w *MessageWindow) emitMouse(event MouseEvent, point Point) {
	w.mouse.emit(MouseEventArgs{Event: event, Point: point})
}

// runCalls drains the invoke queue.
func (w *MessageWindow) runCalls() {
	for {
		select {
		case fn := <-w.calls:
			fn()
		default:
			return
		}
	}
}
