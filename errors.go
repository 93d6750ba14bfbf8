package notifyicon

import (
	"errors"
	"fmt"
)

var (
	// ErrWindowDestroyed is returned when a destroyed message window is
	// used again. Message windows cannot be re-created.
	ErrWindowDestroyed = errors.New("message window is destroyed")

	// ErrUnsupportedPlatform is returned by the shell of platforms without
	// a notification area implementation.
	ErrUnsupportedPlatform = errors.New("notification area is not supported on this platform")

	// ErrSharedPopupItem is returned when a popup item is reachable from
	// more than one parent.
	ErrSharedPopupItem = errors.New("popup item appears more than once in the menu tree")
)

// UnsupportedEventError is raised (as a panic value) when an event
// handler receives an event it has no branch for. It indicates a
// programming error and is never reported as an ordinary fault.
type UnsupportedEventError struct {
	Event fmt.Stringer
}

func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("unsupported event: %s", e.Event)
}

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
