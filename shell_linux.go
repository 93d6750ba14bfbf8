//go:build linux

package notifyicon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/shelepuginivan/notifyicon/internal/sni"
)

const (
	// First id returned by RegisterWindowMessage, as on Windows.
	firstRegisteredMessage = 0xC000

	threadQueueSize   = 256
	doubleClickTime   = 400 * time.Millisecond
	efficiencyNice    = 10
	menuAboutToShow   = 500 * time.Millisecond
	menuOpenTimeout   = 3 * time.Second
	menuIdleTimeout   = time.Minute
	menuCloseGrace    = 200 * time.Millisecond
	layoutContainerID = 1 << 24
)

var (
	defaultShellOnce sync.Once
	defaultShell     *linuxShell
	defaultShellErr  error
)

// DefaultShell returns the shell that publishes icons as StatusNotifierItems
// on the session bus.
func DefaultShell() (Shell, error) {
	defaultShellOnce.Do(func() {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			defaultShellErr = fmt.Errorf("connect session bus: %w", err)
			return
		}

		defaultShell = newLinuxShell(conn)
	})

	if defaultShellErr != nil {
		return nil, defaultShellErr
	}

	return defaultShell, nil
}

var iconFiles = struct {
	sync.Mutex
	next  Handle
	paths map[Handle]string
}{paths: make(map[Handle]string)}

// LoadIconFile returns a handle that refers to the icon file at path. Hosts
// load the file themselves.
func LoadIconFile(path string) (Handle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("load icon %s: %w", path, err)
	}

	if _, err := os.Stat(abs); err != nil {
		return 0, fmt.Errorf("load icon %s: %w", path, err)
	}

	iconFiles.Lock()
	defer iconFiles.Unlock()

	iconFiles.next++
	iconFiles.paths[iconFiles.next] = abs

	return iconFiles.next, nil
}

func iconFileName(h Handle) string {
	iconFiles.Lock()
	defer iconFiles.Unlock()

	return iconFiles.paths[h]
}

type queuedMessage struct {
	window *linuxWindow
	msg    Message
}

// threadQueue is the message queue of one thread. It exists from the first
// window created on the thread until its message loop returns.
type threadQueue struct {
	messages chan queuedMessage

	// quit is closed by PostQuit so that a blocking menu returns early.
	quit     chan struct{}
	quitOnce sync.Once
}

func newThreadQueue() *threadQueue {
	return &threadQueue{
		messages: make(chan queuedMessage, threadQueueSize),
		quit:     make(chan struct{}),
	}
}

// linuxShell emulates the Win32 message model on top of D-Bus: host
// requests are translated into callback messages and posted to the queue
// of the thread that created the window.
type linuxShell struct {
	conn    *dbus.Conn
	appName string

	mu          sync.Mutex
	watcher     *sni.WatcherMonitor
	notifier    *sni.Notifier
	messages    map[string]uint32
	nextMessage uint32
	queues      map[uint32]*threadQueue
	windows     map[Handle]*linuxWindow
	nextWindow  Handle
	icons       map[uuid.UUID]*linuxIcon
	balloons    map[uint32]*linuxIcon
	cursor      Point
}

func newLinuxShell(conn *dbus.Conn) *linuxShell {
	appName := filepath.Base(os.Args[0])
	if exe, err := os.Executable(); err == nil {
		appName = filepath.Base(exe)
	}

	return &linuxShell{
		conn:        conn,
		appName:     appName,
		messages:    make(map[string]uint32),
		nextMessage: firstRegisteredMessage,
		queues:      make(map[uint32]*threadQueue),
		windows:     make(map[Handle]*linuxWindow),
		icons:       make(map[uuid.UUID]*linuxIcon),
		balloons:    make(map[uint32]*linuxIcon),
	}
}

// RegisterWindowClass starts watching for the tray and the notification
// server.
func (s *linuxShell) RegisterWindowClass() error {
	watcher := sni.NewWatcherMonitor(s.conn)
	watcher.OnStarted(s.broadcastTaskbarCreated)
	if err := watcher.Listen(); err != nil {
		return fmt.Errorf("watch status notifier watcher: %w", err)
	}

	notifier, err := sni.NewNotifier(s.conn)
	if err != nil {
		_ = watcher.Close()
		return err
	}
	notifier.OnActionInvoked(s.handleBalloonAction)
	notifier.OnClosed(s.handleBalloonClosed)

	s.mu.Lock()
	s.watcher, s.notifier = watcher, notifier
	s.mu.Unlock()

	return nil
}

func (s *linuxShell) RegisterWindowMessage(name string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.messages[name]; ok {
		return id, nil
	}

	id := s.nextMessage
	s.nextMessage++
	s.messages[name] = id

	return id, nil
}

func (s *linuxShell) CreateWindow(proc WindowProc) (Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threadID := s.CurrentThreadID()
	if _, ok := s.queues[threadID]; !ok {
		s.queues[threadID] = newThreadQueue()
	}

	s.nextWindow++
	w := &linuxWindow{
		shell:    s,
		handle:   s.nextWindow,
		threadID: threadID,
		proc:     proc,
		done:     make(chan struct{}),
	}
	s.windows[w.handle] = w

	return w, nil
}

// queue returns the queue of the thread, or nil if the thread has none.
func (s *linuxShell) queue(threadID uint32) *threadQueue {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queues[threadID]
}

func (s *linuxShell) post(threadID uint32, w *linuxWindow, msg Message) bool {
	q := s.queue(threadID)
	if q == nil {
		return false
	}

	select {
	case q.messages <- queuedMessage{window: w, msg: msg}:
		return true
	default:
		return false
	}
}

func (s *linuxShell) CursorPos() Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cursor
}

func (s *linuxShell) setCursor(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursor = p
}

func (s *linuxShell) DoubleClickTime() time.Duration {
	return doubleClickTime
}

// SystemDPI derives the DPI from the GDK_SCALE integer scale factor.
func (s *linuxShell) SystemDPI() (x, y uint32) {
	dpi := uint32(baseDPI)

	if scale, err := strconv.Atoi(os.Getenv("GDK_SCALE")); err == nil && scale > 0 {
		dpi *= uint32(scale)
	}

	return dpi, dpi
}

func (s *linuxShell) CurrentThreadID() uint32 {
	return uint32(unix.Gettid())
}

func (s *linuxShell) RunMessageLoop() {
	threadID := s.CurrentThreadID()

	s.mu.Lock()
	q, ok := s.queues[threadID]
	if !ok {
		q = newThreadQueue()
		s.queues[threadID] = q
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.queues[threadID] == q {
			delete(s.queues, threadID)
		}
		s.mu.Unlock()
	}()

	for m := range q.messages {
		if m.window == nil {
			if m.msg.ID == WMQuit {
				return
			}
			continue
		}

		if !m.window.isDestroyed() {
			m.window.proc(m.msg)
		}
	}
}

// PostQuit reports false if the thread has no message queue, like
// PostThreadMessage does.
func (s *linuxShell) PostQuit(threadID uint32) bool {
	q := s.queue(threadID)
	if q == nil {
		return false
	}

	if !s.post(threadID, nil, Message{ID: WMQuit}) {
		return false
	}
	q.quitOnce.Do(func() { close(q.quit) })

	return true
}

// SetEfficiencyMode lowers the scheduling priority of the process.
func (s *linuxShell) SetEfficiencyMode(enabled bool) error {
	nice := 0
	if enabled {
		nice = efficiencyNice
	}

	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, nice); err != nil {
		return fmt.Errorf("setpriority: %w", err)
	}

	return nil
}

func (s *linuxShell) NotifyIcon(cmd NotifyCommand, data *IconData) bool {
	switch cmd {
	case NIMAdd:
		return s.addIcon(data)
	case NIMModify:
		return s.modifyIcon(data)
	case NIMDelete:
		return s.deleteIcon(data.ID)
	case NIMSetVersion:
		return s.icon(data.ID) != nil
	case NIMSetFocus:
		// StatusNotifierItem has no keyboard focus.
		return false
	default:
		return false
	}
}

func (s *linuxShell) icon(id uuid.UUID) *linuxIcon {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.icons[id]
}

func (s *linuxShell) addIcon(data *IconData) bool {
	window, ok := data.Window.(*linuxWindow)
	if !ok || s.icon(data.ID) != nil {
		return false
	}

	// Every item gets its own connection, see sni.Item.
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return false
	}

	icon := &linuxIcon{
		shell:    s,
		id:       data.ID,
		conn:     conn,
		window:   window,
		callback: data.CallbackMessage,
		item:     sni.NewItem(conn),
		menu:     sni.NewMenu(conn),
	}

	if err := icon.export(s.itemProperties(data)); err != nil {
		_ = conn.Close()
		return false
	}

	s.mu.Lock()
	if _, exists := s.icons[data.ID]; exists {
		s.mu.Unlock()
		_ = conn.Close()
		return false
	}
	s.icons[data.ID] = icon
	s.mu.Unlock()

	window.attach(icon)

	return true
}

func (s *linuxShell) modifyIcon(data *IconData) bool {
	icon := s.icon(data.ID)
	if icon == nil {
		return false
	}

	if data.Flags&(NIFIcon|NIFTip|NIFState) != 0 {
		if err := icon.item.Update(s.itemProperties(data)); err != nil {
			return false
		}
	}

	if data.Flags&NIFInfo != 0 {
		return icon.showBalloon(data)
	}

	return true
}

func (s *linuxShell) deleteIcon(id uuid.UUID) bool {
	s.mu.Lock()
	icon, ok := s.icons[id]
	delete(s.icons, id)
	for balloon, owner := range s.balloons {
		if owner == icon {
			delete(s.balloons, balloon)
		}
	}
	s.mu.Unlock()

	if !ok {
		return false
	}

	icon.window.attach(nil)

	// Closing the connection releases its names and exported objects.
	return icon.conn.Close() == nil
}

func (s *linuxShell) itemProperties(data *IconData) sni.ItemProperties {
	status := sni.StatusActive
	if data.StateMask&NISHidden != 0 && data.State&NISHidden != 0 {
		status = sni.StatusPassive
	}

	title := data.ToolTip
	if title == "" {
		title = s.appName
	}

	return sni.ItemProperties{
		ID:       s.appName,
		Title:    title,
		Category: sni.CategoryApplicationStatus,
		Status:   status,
		IconName: iconFileName(data.Icon),
		ToolTip:  sni.ToolTip{Title: data.ToolTip},
		MenuPath: sni.MenuPath,
	}
}

func (s *linuxShell) broadcastTaskbarCreated() {
	id, _ := s.RegisterWindowMessage("TaskbarCreated")

	s.mu.Lock()
	windows := make([]*linuxWindow, 0, len(s.windows))
	for _, w := range s.windows {
		windows = append(windows, w)
	}
	s.mu.Unlock()

	for _, w := range windows {
		w.PostMessage(id, 0, 0)
	}
}

func (s *linuxShell) balloonOwner(id uint32, release bool) *linuxIcon {
	s.mu.Lock()
	defer s.mu.Unlock()

	icon := s.balloons[id]
	if release {
		delete(s.balloons, id)
	}

	return icon
}

func (s *linuxShell) handleBalloonAction(id uint32, action string) {
	if action != sni.DefaultAction {
		return
	}

	if icon := s.balloonOwner(id, false); icon != nil {
		icon.postEvent(NINBalloonUserClick, s.CursorPos())
	}
}

func (s *linuxShell) handleBalloonClosed(id uint32, reason sni.CloseReason) {
	icon := s.balloonOwner(id, true)
	if icon == nil {
		return
	}

	icon.forgetBalloon(id)

	if reason == sni.CloseReasonExpired {
		icon.postEvent(NINBalloonTimeout, s.CursorPos())
	} else {
		icon.postEvent(NINBalloonHide, s.CursorPos())
	}
}

// linuxIcon is one registered StatusNotifierItem.
type linuxIcon struct {
	shell    *linuxShell
	id       uuid.UUID
	conn     *dbus.Conn
	window   *linuxWindow
	callback uint32
	item     *sni.Item
	menu     *sni.Menu

	mu      sync.Mutex
	balloon uint32
}

func (icon *linuxIcon) export(props sni.ItemProperties) error {
	icon.item.OnActivate(func(x, y int32) {
		icon.postClick(x, y, WMLButtonDown, WMLButtonUp, NINSelect)
	})
	icon.item.OnSecondaryActivate(func(x, y int32) {
		icon.postClick(x, y, WMMButtonDown, WMMButtonUp)
	})
	icon.item.OnContextMenu(func(x, y int32) {
		icon.postClick(x, y, WMRButtonDown, WMRButtonUp, WMContextMenu)
	})
	icon.menu.OnEvent(icon.window.menuEvent)
	icon.menu.OnAboutToShow(func(id int32) bool {
		if id != 0 {
			return false
		}
		return icon.window.requestMenu()
	})

	if err := icon.menu.Export(); err != nil {
		return err
	}

	if err := icon.item.Export(props); err != nil {
		return err
	}

	return sni.RegisterItem(icon.conn)
}

func (icon *linuxIcon) postClick(x, y int32, codes ...uint16) {
	p := Point{X: x, Y: y}
	icon.shell.setCursor(p)

	for _, code := range codes {
		icon.postEvent(code, p)
	}
}

// postEvent posts a callback message in the NOTIFYICON_VERSION_4 layout.
func (icon *linuxIcon) postEvent(code uint16, p Point) bool {
	return icon.window.PostMessage(
		icon.callback,
		MakeLong(uint16(p.X), uint16(p.Y)),
		MakeLong(code, 0),
	)
}

func (icon *linuxIcon) showBalloon(data *IconData) bool {
	icon.shell.mu.Lock()
	notifier := icon.shell.notifier
	icon.shell.mu.Unlock()

	if notifier == nil {
		return false
	}

	icon.mu.Lock()
	current := icon.balloon
	icon.mu.Unlock()

	if data.Info == "" {
		if current == 0 {
			return true
		}
		return notifier.CloseNotification(current) == nil
	}

	id, err := notifier.Notify(sni.Notification{
		AppName:       icon.shell.appName,
		ReplacesID:    current,
		AppIcon:       balloonIconName(data),
		Summary:       data.InfoTitle,
		Body:          data.Info,
		Urgency:       balloonUrgency(data.InfoFlags),
		SuppressSound: data.InfoFlags&NIIFNoSound != 0,
		Timeout:       time.Duration(data.Timeout) * time.Millisecond,
	})
	if err != nil {
		return false
	}

	icon.mu.Lock()
	icon.balloon = id
	icon.mu.Unlock()

	icon.shell.mu.Lock()
	icon.shell.balloons[id] = icon
	icon.shell.mu.Unlock()

	icon.postEvent(NINBalloonShow, icon.shell.CursorPos())

	return true
}

func (icon *linuxIcon) forgetBalloon(id uint32) {
	icon.mu.Lock()
	defer icon.mu.Unlock()

	if icon.balloon == id {
		icon.balloon = 0
	}
}

func balloonIconName(data *IconData) string {
	switch data.InfoFlags & 0x0F {
	case NIIFInfo:
		return "dialog-information"
	case NIIFWarning:
		return "dialog-warning"
	case NIIFError:
		return "dialog-error"
	case NIIFUser:
		return iconFileName(data.BalloonIcon)
	default:
		return ""
	}
}

func balloonUrgency(flags uint32) sni.Urgency {
	if flags&0x0F == NIIFError {
		return sni.UrgencyCritical
	}

	return sni.UrgencyNormal
}

type menuEvent struct {
	id      int32
	eventID string
}

// linuxWindow stands in for a message window. Messages posted to it are
// dispatched by the message loop of the thread that created it.
type linuxWindow struct {
	shell    *linuxShell
	handle   Handle
	threadID uint32
	proc     WindowProc
	done     chan struct{}

	mu        sync.Mutex
	destroyed bool
	icon      *linuxIcon
	tracking  chan menuEvent
	published chan struct{}
}

func (w *linuxWindow) Handle() Handle {
	return w.handle
}

func (w *linuxWindow) PostMessage(id uint32, wParam, lParam uintptr) bool {
	if w.isDestroyed() {
		return false
	}

	return w.shell.post(w.threadID, w, Message{ID: id, WParam: wParam, LParam: lParam})
}

func (w *linuxWindow) SetForeground() bool {
	return true
}

// TrackPopupMenu publishes menu through dbusmenu and waits for the host to
// report a click or the closing of the menu.
func (w *linuxWindow) TrackPopupMenu(menu *NativeMenu, x, y int32) uint32 {
	w.mu.Lock()
	if w.icon == nil || w.tracking != nil {
		w.mu.Unlock()
		return 0
	}
	dbusMenu := w.icon.menu
	events := make(chan menuEvent, 16)
	w.tracking = events
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.tracking = nil
		w.mu.Unlock()
	}()

	if err := dbusMenu.SetLayout(layoutFromNative(menu)); err != nil {
		return 0
	}
	w.notifyPublished()

	var quit <-chan struct{}
	if q := w.shell.queue(w.threadID); q != nil {
		quit = q.quit
	}

	return waitMenuSelection(events, w.done, quit)
}

// waitMenuSelection returns the id of the clicked command item, or 0 when
// the menu is dismissed, the host stops responding, the window is destroyed
// or a quit is posted to the thread.
func waitMenuSelection(events <-chan menuEvent, done, quit <-chan struct{}) uint32 {
	wait := time.NewTimer(menuOpenTimeout)
	defer wait.Stop()

	closing := false
	for {
		select {
		case ev := <-events:
			switch ev.eventID {
			case "clicked":
				if ev.id > 0 && ev.id < layoutContainerID {
					return uint32(ev.id)
				}
			case "closed":
				// Some hosts report the click after closing the menu.
				closing = true
				wait.Reset(menuCloseGrace)
				continue
			}

			if !closing {
				wait.Reset(menuIdleTimeout)
			}
		case <-wait.C:
			return 0
		case <-done:
			return 0
		case <-quit:
			return 0
		}
	}
}

func (w *linuxWindow) Destroy() error {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return nil
	}
	w.destroyed = true
	close(w.done)
	w.mu.Unlock()

	w.shell.mu.Lock()
	delete(w.shell.windows, w.handle)
	w.shell.mu.Unlock()

	return nil
}

func (w *linuxWindow) isDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.destroyed
}

func (w *linuxWindow) attach(icon *linuxIcon) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.icon = icon
}

func (w *linuxWindow) menuEvent(id int32, eventID string) {
	w.mu.Lock()
	events := w.tracking
	w.mu.Unlock()

	if events == nil {
		if id == 0 && eventID == "opened" {
			w.requestMenu()
		}
		return
	}

	select {
	case events <- menuEvent{id: id, eventID: eventID}:
	default:
	}
}

// requestMenu asks the owner of the window for its context menu by posting
// a right click, and waits briefly for the menu to be published. It reports
// whether the layout changed.
func (w *linuxWindow) requestMenu() bool {
	w.mu.Lock()
	if w.icon == nil {
		w.mu.Unlock()
		return false
	}

	if w.tracking != nil {
		events := w.tracking
		w.mu.Unlock()

		select {
		case events <- menuEvent{eventID: "about-to-show"}:
		default:
		}
		return false
	}

	if w.published == nil {
		w.published = make(chan struct{})
	}
	published, icon := w.published, w.icon
	w.mu.Unlock()

	cursor := w.shell.CursorPos()
	icon.postClick(cursor.X, cursor.Y, WMRButtonDown, WMRButtonUp, WMContextMenu)

	select {
	case <-published:
		return true
	case <-time.After(menuAboutToShow):
		return false
	}
}

func (w *linuxWindow) notifyPublished() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.published != nil {
		close(w.published)
		w.published = nil
	}
}

// layoutFromNative converts a native menu into a dbusmenu layout. Command
// items keep their ids; submenus and separators get ids from
// layoutContainerID up.
func layoutFromNative(menu *NativeMenu) *sni.LayoutNode {
	next := int32(layoutContainerID)

	return &sni.LayoutNode{
		ID:         0,
		Properties: map[string]any{"children-display": "submenu"},
		Children:   layoutChildren(menu, &next),
	}
}

func layoutChildren(menu *NativeMenu, next *int32) []*sni.LayoutNode {
	children := make([]*sni.LayoutNode, 0, len(menu.Items))

	for _, item := range menu.Items {
		var node *sni.LayoutNode

		switch {
		case item.Flags&MFSeparator != 0:
			*next++
			node = &sni.LayoutNode{
				ID:         *next,
				Properties: map[string]any{"type": "separator"},
			}
		case item.SubMenu != nil:
			*next++
			node = &sni.LayoutNode{
				ID: *next,
				Properties: map[string]any{
					"label":            menuLabel(item.Text),
					"children-display": "submenu",
				},
			}
			node.Children = layoutChildren(item.SubMenu, next)
		default:
			node = &sni.LayoutNode{
				ID: int32(item.ID),
				Properties: map[string]any{
					"label":   menuLabel(item.Text),
					"enabled": item.Flags&(MFDisabled|MFGrayed) == 0,
				},
			}

			if item.Flags&MFChecked != 0 {
				node.Properties["toggle-type"] = "checkmark"
				node.Properties["toggle-state"] = int32(1)
			}
		}

		children = append(children, node)
	}

	return children
}

// menuLabel escapes underscores, which dbusmenu treats as mnemonic markers.
func menuLabel(text string) string {
	return strings.ReplaceAll(text, "_", "__")
}
