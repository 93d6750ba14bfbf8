package notifyicon

import (
	"fmt"
	"sync"
)

// MouseEvent is a mouse event reported by the notification area.
type MouseEvent int

const (
	// The mouse was moved within the icon's area.
	MouseMove MouseEvent = iota

	IconLeftMouseDown
	IconLeftMouseUp
	IconLeftDoubleClick
	IconRightMouseDown
	IconRightMouseUp
	IconRightDoubleClick
	IconMiddleMouseDown
	IconMiddleMouseUp
	IconMiddleDoubleClick

	// The icon was double clicked with the primary button.
	IconDoubleClick

	// The balloon tip was clicked.
	BalloonToolTipClicked
)

var mouseEventNames = [...]string{
	MouseMove:             "MouseMove",
	IconLeftMouseDown:     "IconLeftMouseDown",
	IconLeftMouseUp:       "IconLeftMouseUp",
	IconLeftDoubleClick:   "IconLeftDoubleClick",
	IconRightMouseDown:    "IconRightMouseDown",
	IconRightMouseUp:      "IconRightMouseUp",
	IconRightDoubleClick:  "IconRightDoubleClick",
	IconMiddleMouseDown:   "IconMiddleMouseDown",
	IconMiddleMouseUp:     "IconMiddleMouseUp",
	IconMiddleDoubleClick: "IconMiddleDoubleClick",
	IconDoubleClick:       "IconDoubleClick",
	BalloonToolTipClicked: "BalloonToolTipClicked",
}

func (e MouseEvent) String() string {
	if e >= 0 && int(e) < len(mouseEventNames) {
		return mouseEventNames[e]
	}
	return fmt.Sprintf("MouseEvent(%d)", int(e))
}

// KeyboardEvent is a keyboard event reported by the notification area.
type KeyboardEvent int

const (
	// Context menu requested with the keyboard (Shift+F10, menu key).
	KeyboardContextMenu KeyboardEvent = iota

	// The icon was selected with the keyboard (Space, Enter).
	KeyboardKeySelect

	// The icon was selected with the mouse or the keyboard.
	KeyboardSelect
)

func (e KeyboardEvent) String() string {
	switch e {
	case KeyboardContextMenu:
		return "ContextMenu"
	case KeyboardKeySelect:
		return "KeySelect"
	case KeyboardSelect:
		return "Select"
	default:
		return fmt.Sprintf("KeyboardEvent(%d)", int(e))
	}
}

// MouseEventArgs describes a mouse event and where it happened.
type MouseEventArgs struct {
	Event MouseEvent
	Point Point
}

// KeyboardEventArgs describes a keyboard event and the icon anchor point.
type KeyboardEventArgs struct {
	Event KeyboardEvent
	Point Point
}

// observers is a list of callbacks of one event kind. Callbacks run outside
// of the lock, so they may subscribe further callbacks.
type observers[T any] struct {
	mu   sync.Mutex
	list []func(T)
}

func (o *observers[T]) add(callback func(T)) {
	if callback == nil {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.list = append(o.list, callback)
}

func (o *observers[T]) emit(value T) {
	o.mu.Lock()
	list := o.list
	o.mu.Unlock()

	for _, callback := range list {
		callback(value)
	}
}
