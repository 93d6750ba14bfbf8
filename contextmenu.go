package notifyicon

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// TrayIconWithContextMenu is a [TrayIcon] that shows ContextMenu when the
// icon is right-clicked.
//
// Popup menus block the thread that shows them until they are dismissed,
// so the icon and its message window live on a dedicated OS thread with
// its own message loop, started by the first call to Create.
type TrayIconWithContextMenu struct {
	*TrayIcon

	// ContextMenu is shown on right click. It is read on the dedicated
	// thread; change it before Create or through Invoke.
	ContextMenu *PopupMenu

	mu       sync.Mutex
	closed   bool
	threadID uint32
	done     chan struct{}
	closeErr error
}

// NewWithContextMenu returns a new [TrayIconWithContextMenu] with the given
// identity.
func NewWithContextMenu(shell Shell, id uuid.UUID) *TrayIconWithContextMenu {
	t := &TrayIconWithContextMenu{
		TrayIcon: New(shell, id),
	}

	t.TrayIcon.OnMouseEvent(t.handleMouseEvent)

	return t
}

// Create starts the dedicated thread on first use and creates the icon on
// it. Later calls create the icon again on the same thread. Create waits for
// the result. A closed icon is never created and starts no thread.
func (t *TrayIconWithContextMenu) Create() bool {
	t.mu.Lock()
	if t.closed || t.TrayIcon.isClosed() {
		t.mu.Unlock()
		return false
	}

	if t.done != nil {
		t.mu.Unlock()

		var created bool
		if !t.Invoke(func() { created = t.TrayIcon.Create() }) {
			return false
		}

		return created
	}

	done := make(chan struct{})
	t.done = done
	t.mu.Unlock()

	result := make(chan bool, 1)
	go t.run(done, result)

	return <-result
}

// run is the body of the dedicated thread.
func (t *TrayIconWithContextMenu) run(done chan<- struct{}, result chan<- bool) {
	// Never unlocked: the thread exits together with the goroutine.
	runtime.LockOSThread()
	defer close(done)

	threadID := t.shell.CurrentThreadID()

	t.mu.Lock()
	t.threadID = threadID
	t.mu.Unlock()

	result <- t.TrayIcon.Create()

	t.shell.RunMessageLoop()

	// The window belongs to this thread, so it is released here.
	err := t.TrayIcon.Close()

	t.mu.Lock()
	t.closeErr = err
	t.mu.Unlock()
}

// ThreadID returns the id of the dedicated thread, or 0 if it was not
// started.
func (t *TrayIconWithContextMenu) ThreadID() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.threadID
}

// Invoke runs fn on the dedicated thread and waits for it to return. It
// reports false if fn could not be scheduled or the thread exited before
// running it. In both cases fn never runs.
func (t *TrayIconWithContextMenu) Invoke(fn func()) bool {
	t.mu.Lock()
	done, threadID := t.done, t.threadID
	t.mu.Unlock()

	if done == nil {
		return false
	}

	if t.shell.CurrentThreadID() == threadID {
		fn()
		return true
	}

	// A call that failed to post may still sit in the window queue, so
	// the caller and the thread race to claim it.
	var state atomic.Int32
	finished := make(chan struct{})
	post := t.Window().Post(func() {
		if !state.CompareAndSwap(invokePending, invokeRunning) {
			return
		}
		defer close(finished)
		fn()
	})

	if post {
		select {
		case <-finished:
			return true
		case <-done:
		}
	}

	if state.CompareAndSwap(invokePending, invokeCancelled) {
		return false
	}

	<-finished
	return true
}

const (
	invokePending int32 = iota
	invokeRunning
	invokeCancelled
)

// ShowContextMenu shows ContextMenu at the cursor position and blocks until
// it is dismissed. It must run on the dedicated thread.
func (t *TrayIconWithContextMenu) ShowContextMenu() {
	window := t.Window().Window()
	if window == nil {
		return
	}

	cursor := t.shell.CursorPos()

	// Without it the menu is not dismissed when the user clicks elsewhere.
	_ = window.SetForeground()

	if t.ContextMenu == nil {
		return
	}

	if err := t.ContextMenu.Show(window, cursor.X, cursor.Y); err != nil {
		t.logError(err, "failed to show context menu")
	}
}

// Close stops the dedicated thread and releases the icon. When called from
// another thread, Close waits for the dedicated thread to exit, so the
// window is never released while its message loop runs.
func (t *TrayIconWithContextMenu) Close() error {
	t.mu.Lock()
	t.closed = true
	done, threadID := t.done, t.threadID
	t.mu.Unlock()

	if done == nil {
		return t.TrayIcon.Close()
	}

	posted := t.shell.PostQuit(threadID)

	if t.shell.CurrentThreadID() == threadID {
		// Joining here would deadlock. The loop exits once this call
		// returns to it.
		return t.TrayIcon.Close()
	}

	if posted {
		<-done
	} else {
		select {
		case <-done:
		default:
			return fmt.Errorf("close: failed to post quit message to thread %d", threadID)
		}
	}

	t.mu.Lock()
	err := t.closeErr
	t.mu.Unlock()

	if closeErr := t.TrayIcon.Close(); closeErr != nil {
		return closeErr
	}

	return err
}

func (t *TrayIconWithContextMenu) handleMouseEvent(args MouseEventArgs) {
	switch args.Event {
	case MouseMove:
		return
	case IconRightMouseUp:
		t.ShowContextMenu()
	case IconLeftMouseDown:
	case IconLeftMouseUp:
	case IconLeftDoubleClick:
	case IconRightMouseDown:
	case IconRightDoubleClick:
	case IconMiddleMouseDown:
	case IconMiddleMouseUp:
	case IconMiddleDoubleClick:
	case IconDoubleClick:
	case BalloonToolTipClicked:
	default:
		panic(&UnsupportedEventError{Event: args.Event})
	}
}
