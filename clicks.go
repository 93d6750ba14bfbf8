package notifyicon

import "time"

// OnLeftClick registers callback that runs for a single left click. Unless
// [TrayIcon.SetNoLeftClickDelay] is set, the click is reported once the
// double click time has elapsed without a double click.
func (t *TrayIcon) OnLeftClick(callback func(Point)) {
	t.leftClick.add(callback)
}

func (t *TrayIcon) handleMouseEvent(args MouseEventArgs) {
	t.mouse.emit(args)

	switch args.Event {
	case IconLeftMouseUp:
		t.scheduleLeftClick(args.Point)
	case IconLeftDoubleClick:
		t.mu.Lock()
		t.stopClickTimerLocked()
		t.mu.Unlock()
	}
}

func (t *TrayIcon) scheduleLeftClick(point Point) {
	delay := t.shell.DoubleClickTime()

	t.mu.Lock()
	t.stopClickTimerLocked()
	noDelay := t.noLeftClickDelay
	if !noDelay {
		t.clickTimer = t.newClickTimer(delay, t.clickSeq, point)
	}
	t.mu.Unlock()

	if noDelay {
		t.leftClick.emit(point)
	}
}

func (t *TrayIcon) newClickTimer(delay time.Duration, seq uint64, point Point) *time.Timer {
	return time.AfterFunc(delay, func() {
		// The timer fires on its own goroutine; the click is delivered on
		// the thread that owns the window.
		t.window.Post(func() {
			t.mu.Lock()
			current := seq == t.clickSeq
			if current {
				t.clickTimer = nil
			}
			t.mu.Unlock()

			if current {
				t.leftClick.emit(point)
			}
		})
	})
}

// stopClickTimerLocked cancels a pending single click. t.mu must be held.
func (t *TrayIcon) stopClickTimerLocked() {
	t.clickSeq++

	if t.clickTimer != nil {
		t.clickTimer.Stop()
		t.clickTimer = nil
	}
}
