package notifyicon

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// goroutineID stands in for the OS thread id in tests.
func goroutineID() uint32 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	fields := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))
	id, _ := strconv.ParseUint(fields[0], 10, 32)

	return uint32(id)
}

type notifyCall struct {
	Cmd  NotifyCommand
	Data IconData
}

type fakeMessage struct {
	window *fakeWindow
	msg    Message
}

type fakeShell struct {
	mu sync.Mutex

	registerCount int
	registerErr   error
	createCount   int
	createErr     error
	messages      map[string]uint32

	calls  []notifyCall
	reject map[NotifyCommand]bool

	queues  map[uint32]chan fakeMessage
	windows []*fakeWindow

	cursor      Point
	doubleClick time.Duration
	dpiX, dpiY  uint32

	efficiency    []bool
	efficiencyErr error

	// dropPosts makes PostMessage fail as if the queue were full.
	dropPosts bool

	// selectItem picks the command returned by TrackPopupMenu.
	selectItem func(menu *NativeMenu) uint32
}

func newFakeShell() *fakeShell {
	return &fakeShell{
		messages:    make(map[string]uint32),
		reject:      make(map[NotifyCommand]bool),
		queues:      make(map[uint32]chan fakeMessage),
		doubleClick: 20 * time.Millisecond,
	}
}

func (s *fakeShell) RegisterWindowClass() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registerCount++
	return s.registerErr
}

func (s *fakeShell) RegisterWindowMessage(name string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.messages[name]
	if !ok {
		id = 0xC000 + uint32(len(s.messages))
		s.messages[name] = id
	}

	return id, nil
}

func (s *fakeShell) CreateWindow(proc WindowProc) (Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCount++
	if s.createErr != nil {
		return nil, s.createErr
	}

	w := &fakeWindow{
		shell:  s,
		handle: Handle(len(s.windows) + 1),
		owner:  goroutineID(),
		proc:   proc,
	}
	s.windows = append(s.windows, w)

	return w, nil
}

func (s *fakeShell) NotifyIcon(cmd NotifyCommand, data *IconData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, notifyCall{Cmd: cmd, Data: *data})
	return !s.reject[cmd]
}

func (s *fakeShell) CursorPos() Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cursor
}

func (s *fakeShell) DoubleClickTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doubleClick
}

func (s *fakeShell) SystemDPI() (x, y uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dpiX, s.dpiY
}

func (s *fakeShell) CurrentThreadID() uint32 {
	return goroutineID()
}

func (s *fakeShell) RunMessageLoop() {
	queue := s.queue(goroutineID())

	for queued := range queue {
		if queued.window == nil {
			if queued.msg.ID == WMQuit {
				return
			}
			continue
		}

		queued.window.deliver(queued.msg)
	}
}

func (s *fakeShell) PostQuit(threadID uint32) bool {
	return s.post(threadID, fakeMessage{msg: Message{ID: WMQuit}})
}

func (s *fakeShell) SetEfficiencyMode(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.efficiency = append(s.efficiency, enabled)
	return s.efficiencyErr
}

func (s *fakeShell) queue(threadID uint32) chan fakeMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, ok := s.queues[threadID]
	if !ok {
		queue = make(chan fakeMessage, 256)
		s.queues[threadID] = queue
	}

	return queue
}

func (s *fakeShell) post(threadID uint32, queued fakeMessage) bool {
	select {
	case s.queue(threadID) <- queued:
		return true
	default:
		return false
	}
}

// pump dispatches the messages pending for the given thread without
// blocking.
func (s *fakeShell) pump(threadID uint32) {
	queue := s.queue(threadID)

	for {
		select {
		case queued := <-queue:
			if queued.window != nil {
				queued.window.deliver(queued.msg)
			}
		default:
			return
		}
	}
}

// commands returns the recorded notify commands.
func (s *fakeShell) commands() []NotifyCommand {
	s.mu.Lock()
	defer s.mu.Unlock()

	commands := make([]NotifyCommand, 0, len(s.calls))
	for _, call := range s.calls {
		commands = append(commands, call.Cmd)
	}

	return commands
}

// lastCall returns the last recorded call of cmd.
func (s *fakeShell) lastCall(cmd NotifyCommand) (IconData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].Cmd == cmd {
			return s.calls[i].Data, true
		}
	}

	return IconData{}, false
}

func (s *fakeShell) resetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = nil
}

func (s *fakeShell) setDropPosts(drop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropPosts = drop
}

func (s *fakeShell) window(i int) *fakeWindow {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.windows[i]
}

type fakeWindow struct {
	shell  *fakeShell
	handle Handle
	owner  uint32
	proc   WindowProc

	mu          sync.Mutex
	destroyed   bool
	destroyedBy uint32
	foreground  int
	menus       []*NativeMenu
	menuAt      []Point
}

func (w *fakeWindow) Handle() Handle {
	return w.handle
}

func (w *fakeWindow) PostMessage(id uint32, wParam, lParam uintptr) bool {
	if w.isDestroyed() {
		return false
	}

	w.shell.mu.Lock()
	drop := w.shell.dropPosts
	w.shell.mu.Unlock()

	if drop {
		return false
	}

	return w.shell.post(w.owner, fakeMessage{
		window: w,
		msg:    Message{ID: id, WParam: wParam, LParam: lParam},
	})
}

func (w *fakeWindow) SetForeground() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.foreground++
	return true
}

func (w *fakeWindow) TrackPopupMenu(menu *NativeMenu, x, y int32) uint32 {
	w.mu.Lock()
	w.menus = append(w.menus, menu)
	w.menuAt = append(w.menuAt, Point{X: x, Y: y})
	w.mu.Unlock()

	w.shell.mu.Lock()
	selectItem := w.shell.selectItem
	w.shell.mu.Unlock()

	if selectItem == nil {
		return 0
	}

	return selectItem(menu)
}

func (w *fakeWindow) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.destroyed = true
	w.destroyedBy = goroutineID()

	return nil
}

func (w *fakeWindow) isDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.destroyed
}

// send delivers msg synchronously, the way the shell calls the window
// procedure.
func (w *fakeWindow) send(msg Message) bool {
	return w.proc(msg)
}

func (w *fakeWindow) deliver(msg Message) {
	if w.isDestroyed() {
		return
	}

	w.proc(msg)
}

// callback builds a callback message for event at (x, y).
func callback(event uint16, x, y int16) Message {
	return Message{
		ID:     CallbackMessage,
		WParam: MakeLong(uint16(x), uint16(y)),
		LParam: MakeLong(event, 1),
	}
}
