package notifyicon

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIcon(t *testing.T) (*TrayIcon, *fakeShell) {
	t.Helper()

	shell := newFakeShell()
	icon := New(shell, NewID())

	return icon, shell
}

func newCreatedIcon(t *testing.T) (*TrayIcon, *fakeShell) {
	t.Helper()

	icon, shell := newTestIcon(t)
	require.True(t, icon.Create())
	shell.resetCalls()

	return icon, shell
}

func TestTrayIconCreate(t *testing.T) {
	icon, shell := newTestIcon(t)
	icon.SetIcon(7)
	icon.SetToolTip("hello")

	require.True(t, icon.Create())

	assert.Equal(t, StateCreated, icon.State())
	assert.Equal(t, []NotifyCommand{NIMAdd, NIMSetVersion}, shell.commands())

	add, _ := shell.lastCall(NIMAdd)
	assert.Equal(t, icon.ID(), add.ID)
	assert.Equal(t, uint32(NIFGUID|NIFMessage|NIFIcon|NIFTip|NIFState), add.Flags)
	assert.Equal(t, uint32(CallbackMessage), add.CallbackMessage)
	assert.Equal(t, Handle(7), add.Icon)
	assert.Equal(t, "hello", add.ToolTip)
	assert.Equal(t, uint32(NISHidden), add.StateMask)
	assert.Zero(t, add.State)
	assert.Same(t, shell.window(0), add.Window)

	version, _ := shell.lastCall(NIMSetVersion)
	assert.Equal(t, uint32(NotifyIconVersion4), version.Version)
}

func TestTrayIconCreateRejected(t *testing.T) {
	icon, shell := newTestIcon(t)
	shell.reject[NIMAdd] = true

	assert.False(t, icon.Create())
	assert.Equal(t, StateNotCreated, icon.State())
	assert.Equal(t, []NotifyCommand{NIMAdd}, shell.commands())
}

func TestTrayIconCreateSurvivesVersionFailure(t *testing.T) {
	icon, shell := newTestIcon(t)
	shell.reject[NIMSetVersion] = true

	assert.True(t, icon.Create())
	assert.True(t, icon.IsCreated())
}

func TestTrayIconCreateWindowFailure(t *testing.T) {
	icon, shell := newTestIcon(t)
	shell.createErr = errors.New("no desktop")

	assert.False(t, icon.Create())
	assert.Empty(t, shell.commands())
}

func TestTrayIconCreateWhenCreatedUpdates(t *testing.T) {
	icon, shell := newCreatedIcon(t)

	assert.True(t, icon.Create())
	assert.Equal(t, []NotifyCommand{NIMModify}, shell.commands())
}

func TestTrayIconSettersBeforeCreate(t *testing.T) {
	icon, shell := newTestIcon(t)

	assert.True(t, icon.SetIcon(3))
	assert.True(t, icon.SetToolTip("tip"))
	assert.True(t, icon.SetVisible(false))
	assert.Empty(t, shell.commands())

	assert.Equal(t, Handle(3), icon.Icon())
	assert.Equal(t, "tip", icon.ToolTip())
}

func TestTrayIconSettersUpdateCreatedIcon(t *testing.T) {
	icon, shell := newCreatedIcon(t)

	assert.True(t, icon.SetToolTip("new"))
	modify, ok := shell.lastCall(NIMModify)
	require.True(t, ok)
	assert.Equal(t, "new", modify.ToolTip)

	shell.reject[NIMModify] = true
	assert.False(t, icon.SetIcon(9))
}

func TestTrayIconSetVisible(t *testing.T) {
	icon, shell := newCreatedIcon(t)

	require.True(t, icon.SetVisible(false))
	hidden, _ := shell.lastCall(NIMModify)
	assert.Equal(t, uint32(NISHidden), hidden.State)
	assert.Equal(t, uint32(NISHidden), hidden.StateMask)
	assert.True(t, icon.IsCreated())

	require.True(t, icon.SetVisible(true))
	shown, _ := shell.lastCall(NIMModify)
	assert.Zero(t, shown.State)
	assert.Equal(t, uint32(NISHidden), shown.StateMask)
}

func TestTrayIconStandardToolTip(t *testing.T) {
	icon, shell := newTestIcon(t)
	icon.SetUseStandardToolTip(true)

	require.True(t, icon.Create())

	add, _ := shell.lastCall(NIMAdd)
	assert.NotZero(t, add.Flags&NIFShowTip)
}

func TestTrayIconRemove(t *testing.T) {
	icon, shell := newTestIcon(t)

	assert.False(t, icon.Remove())
	assert.False(t, icon.TryRemove())
	assert.Empty(t, shell.commands())

	require.True(t, icon.Create())
	shell.resetCalls()

	require.True(t, icon.Remove())
	assert.Equal(t, StateRemoved, icon.State())

	remove, _ := shell.lastCall(NIMDelete)
	assert.Equal(t, uint32(NIFGUID), remove.Flags)
	assert.Equal(t, icon.ID(), remove.ID)

	assert.False(t, icon.Remove())
	assert.True(t, icon.TryRemove())
	assert.Equal(t, []NotifyCommand{NIMDelete}, shell.commands())
}

func TestTrayIconRemoveRejected(t *testing.T) {
	icon, shell := newCreatedIcon(t)
	shell.reject[NIMDelete] = true

	assert.False(t, icon.Remove())
	assert.Equal(t, StateCreated, icon.State())
}

func TestTrayIconCreateAfterRemove(t *testing.T) {
	icon, shell := newCreatedIcon(t)
	require.True(t, icon.Remove())

	require.True(t, icon.Create())
	assert.Equal(t, []NotifyCommand{NIMDelete, NIMAdd, NIMSetVersion}, shell.commands())
	assert.Equal(t, 1, shell.createCount)
}

func TestTrayIconSetFocus(t *testing.T) {
	icon, shell := newTestIcon(t)
	assert.False(t, icon.SetFocus())

	require.True(t, icon.Create())
	assert.True(t, icon.SetFocus())

	focus, ok := shell.lastCall(NIMSetFocus)
	require.True(t, ok)
	assert.Equal(t, icon.ID(), focus.ID)
}

func TestTrayIconTaskbarCreated(t *testing.T) {
	tests := []struct {
		name         string
		rejectDelete bool
	}{
		// The old registration is gone, so the removal is rejected.
		{"stale registration", true},
		{"live registration", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			icon, shell := newCreatedIcon(t)

			var notified int
			icon.OnTaskbarCreated(func() { notified++ })

			id, err := shell.RegisterWindowMessage("TaskbarCreated")
			require.NoError(t, err)

			shell.reject[NIMDelete] = tt.rejectDelete
			shell.window(0).send(Message{ID: id})

			assert.Equal(t, []NotifyCommand{NIMDelete, NIMAdd, NIMSetVersion}, shell.commands())
			assert.True(t, icon.IsCreated())
			assert.Equal(t, 1, notified)
		})
	}
}

func TestTrayIconTaskbarCreatedKeepsRemovedIcon(t *testing.T) {
	icon, shell := newCreatedIcon(t)
	require.True(t, icon.Remove())
	shell.resetCalls()

	var notified int
	icon.OnTaskbarCreated(func() { notified++ })

	id, err := shell.RegisterWindowMessage("TaskbarCreated")
	require.NoError(t, err)
	shell.window(0).send(Message{ID: id})

	assert.Empty(t, shell.commands())
	assert.Equal(t, StateRemoved, icon.State())
	assert.Equal(t, 1, notified)
}

func TestTrayIconClose(t *testing.T) {
	icon, shell := newCreatedIcon(t)

	require.NoError(t, icon.Close())
	require.NoError(t, icon.Close())

	assert.Equal(t, []NotifyCommand{NIMDelete}, shell.commands())
	assert.True(t, shell.window(0).isDestroyed())
	assert.False(t, icon.Create())
}

func TestTrayIconCreateOnLoadReportsFault(t *testing.T) {
	icon, shell := newTestIcon(t)
	shell.reject[NIMAdd] = true

	var faults []error
	icon.OnFault(func(err error) { faults = append(faults, err) })

	assert.NotPanics(t, icon.CreateOnLoad)
	require.Len(t, faults, 1)
	assert.Contains(t, faults[0].Error(), icon.ID().String())
	assert.Empty(t, shell.efficiency)
}

func TestTrayIconCreateOnLoadWindowFault(t *testing.T) {
	icon, shell := newTestIcon(t)
	cause := errors.New("no desktop")
	shell.createErr = cause

	var faults []error
	icon.OnFault(func(err error) { faults = append(faults, err) })

	icon.CreateOnLoad()

	require.Len(t, faults, 1)
	assert.ErrorIs(t, faults[0], cause)
}

func TestTrayIconForceCreate(t *testing.T) {
	icon, shell := newTestIcon(t)

	assert.True(t, icon.ForceCreate(true))
	assert.Equal(t, []bool{true}, shell.efficiency)
}

func TestTrayIconForceCreateIgnoresEfficiencyFailure(t *testing.T) {
	icon, shell := newTestIcon(t)
	shell.efficiencyErr = ErrUnsupportedPlatform

	assert.True(t, icon.ForceCreate(true))
}

func TestTrayIconForwardsEvents(t *testing.T) {
	icon, shell := newCreatedIcon(t)
	native := shell.window(0)

	var (
		mouse    []MouseEvent
		keyboard []KeyboardEvent
		toolTips []bool
		balloons []bool
	)
	icon.OnMouseEvent(func(args MouseEventArgs) { mouse = append(mouse, args.Event) })
	icon.OnKeyboardEvent(func(args KeyboardEventArgs) { keyboard = append(keyboard, args.Event) })
	icon.OnToolTipChange(func(visible bool) { toolTips = append(toolTips, visible) })
	icon.OnBalloonChange(func(visible bool) { balloons = append(balloons, visible) })

	native.send(callback(WMRButtonUp, 0, 0))
	native.send(callback(NINSelect, 0, 0))
	native.send(callback(NINPopupOpen, 0, 0))
	native.send(callback(NINBalloonShow, 0, 0))

	assert.Equal(t, []MouseEvent{IconRightMouseUp}, mouse)
	assert.Equal(t, []KeyboardEvent{KeyboardSelect}, keyboard)
	assert.Equal(t, []bool{true}, toolTips)
	assert.Equal(t, []bool{true}, balloons)
}

func TestTrayIconDPIChanged(t *testing.T) {
	icon, shell := newCreatedIcon(t)
	assert.Equal(t, DefaultDPIScale, icon.DPIScale())

	var got DPIScale
	icon.OnDPIChanged(func(scale DPIScale) { got = scale })

	shell.window(0).send(Message{ID: WMDPIChanged, WParam: MakeLong(120, 120)})

	assert.Equal(t, DPIScale{X: 1.25, Y: 1.25}, icon.DPIScale())
	assert.Equal(t, got, icon.DPIScale())
}

type clickRecorder struct {
	mu     sync.Mutex
	points []Point
}

func (r *clickRecorder) record(p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.points = append(r.points, p)
}

func (r *clickRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.points)
}

func TestTrayIconLeftClickWithoutDelay(t *testing.T) {
	icon, shell := newCreatedIcon(t)
	icon.SetNoLeftClickDelay(true)

	clicks := &clickRecorder{}
	icon.OnLeftClick(clicks.record)

	shell.window(0).send(callback(WMLButtonDown, 4, 2))
	shell.window(0).send(callback(WMLButtonUp, 4, 2))

	assert.Equal(t, []Point{{X: 4, Y: 2}}, clicks.points)
}

func TestTrayIconLeftClickAfterDoubleClickTime(t *testing.T) {
	icon, shell := newCreatedIcon(t)
	native := shell.window(0)

	clicks := &clickRecorder{}
	icon.OnLeftClick(clicks.record)

	native.send(callback(WMLButtonDown, 1, 1))
	native.send(callback(WMLButtonUp, 1, 1))
	assert.Zero(t, clicks.count())

	require.Eventually(t, func() bool {
		shell.pump(native.owner)
		return clicks.count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTrayIconDoubleClickCancelsLeftClick(t *testing.T) {
	icon, shell := newCreatedIcon(t)
	native := shell.window(0)

	clicks := &clickRecorder{}
	icon.OnLeftClick(clicks.record)

	var doubleClicks int
	icon.OnMouseEvent(func(args MouseEventArgs) {
		if args.Event == IconDoubleClick {
			doubleClicks++
		}
	})

	native.send(callback(WMLButtonDown, 1, 1))
	native.send(callback(WMLButtonUp, 1, 1))
	native.send(callback(WMLButtonDblClk, 1, 1))
	native.send(callback(WMLButtonUp, 1, 1))

	time.Sleep(3 * shell.DoubleClickTime())
	shell.pump(native.owner)

	assert.Zero(t, clicks.count())
	assert.Equal(t, 1, doubleClicks)
}

func TestNewWithNameIsStable(t *testing.T) {
	shell := newFakeShell()

	a := NewWithName(shell, "main")
	b := NewWithName(shell, "main")
	c := NewWithName(shell, "other")

	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	assert.NotEqual(t, uuid.Nil, a.ID())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "NotCreated", StateNotCreated.String())
	assert.Equal(t, "Created", StateCreated.String())
	assert.Equal(t, "Removed", StateRemoved.String())
	assert.Equal(t, "State(7)", State(7).String())
}
