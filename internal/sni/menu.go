package sni

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const (
	MenuInterface = "com.canonical.dbusmenu"
	MenuPath      = dbus.ObjectPath("/MenuBar")

	menuVersion = uint32(3)
)

var menuSignals = []introspect.Signal{
	{Name: "ItemsPropertiesUpdated", Args: []introspect.Arg{
		{Name: "updatedProps", Type: "a(ia{sv})"},
		{Name: "removedProps", Type: "a(ias)"},
	}},
	{Name: "LayoutUpdated", Args: []introspect.Arg{
		{Name: "revision", Type: "u"},
		{Name: "parent", Type: "i"},
	}},
	{Name: "ItemActivationRequested", Args: []introspect.Arg{
		{Name: "id", Type: "i"},
		{Name: "timestamp", Type: "u"},
	}},
}

// Menu exports com.canonical.dbusmenu on a connection. The host fetches
// the layout and reports events on its nodes.
type Menu struct {
	conn *dbus.Conn

	mu            sync.Mutex
	revision      uint32
	root          *LayoutNode
	onEvent       func(id int32, eventID string)
	onAboutToShow func(id int32) bool
}

// NewMenu returns a new [Menu] with an empty layout.
func NewMenu(conn *dbus.Conn) *Menu {
	return &Menu{
		conn: conn,
		root: emptyLayout(),
	}
}

func emptyLayout() *LayoutNode {
	return &LayoutNode{
		ID:         0,
		Properties: map[string]any{"children-display": "submenu"},
	}
}

// Export exports the menu object at [MenuPath].
func (m *Menu) Export() error {
	if err := m.conn.Export(menuMethods{m}, MenuPath, MenuInterface); err != nil {
		return fmt.Errorf("export: failed to export %s: %w", MenuInterface, err)
	}

	props, err := prop.Export(m.conn, MenuPath, prop.Map{
		MenuInterface: map[string]*prop.Prop{
			"Version":       {Value: menuVersion, Emit: prop.EmitConst},
			"TextDirection": {Value: "ltr", Emit: prop.EmitConst},
			"Status":        {Value: "normal", Emit: prop.EmitConst},
			"IconThemePath": {Value: []string{}, Emit: prop.EmitConst},
		},
	})
	if err != nil {
		return fmt.Errorf("export: failed to export properties: %w", err)
	}

	node := &introspect.Node{
		Name: string(MenuPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       MenuInterface,
				Methods:    introspect.Methods(menuMethods{}),
				Properties: props.Introspection(MenuInterface),
				Signals:    menuSignals,
			},
		},
	}

	if err := m.conn.Export(introspect.NewIntrospectable(node), MenuPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export: failed to export introspection data: %w", err)
	}

	return nil
}

// SetLayout replaces the layout and tells the host to fetch it again. A nil
// root clears the menu.
func (m *Menu) SetLayout(root *LayoutNode) error {
	if root == nil {
		root = emptyLayout()
	}

	m.mu.Lock()
	m.root = root
	m.revision++
	revision := m.revision
	m.mu.Unlock()

	if err := m.conn.Emit(MenuPath, MenuInterface+".LayoutUpdated", revision, int32(0)); err != nil {
		return fmt.Errorf("set layout: %w", err)
	}

	return nil
}

// OnEvent registers callback that runs for every event the host reports,
// such as "clicked", "hovered", "opened" and "closed".
func (m *Menu) OnEvent(callback func(id int32, eventID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onEvent = callback
}

// OnAboutToShow registers callback that runs before the host shows the node
// with the given ID. It reports whether the layout needs to be fetched again.
func (m *Menu) OnAboutToShow(callback func(id int32) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onAboutToShow = callback
}

func (m *Menu) find(id int32) (*LayoutNode, uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.root.Find(id), m.revision
}

func (m *Menu) event(id int32, eventID string) {
	m.mu.Lock()
	callback := m.onEvent
	m.mu.Unlock()

	if callback != nil {
		callback(id, eventID)
	}
}

func (m *Menu) aboutToShow(id int32) bool {
	m.mu.Lock()
	callback := m.onAboutToShow
	m.mu.Unlock()

	if callback == nil {
		return false
	}

	return callback(id)
}

func unknownNode(id int32) *dbus.Error {
	return dbus.MakeFailedError(fmt.Errorf("unknown menu node %d", id))
}

// nodeProperties is the (ia{sv}) wire form of the properties of one node.
type nodeProperties struct {
	ID         int32
	Properties map[string]dbus.Variant
}

// menuEvent is the (isvu) wire form of one event of EventGroup.
type menuEvent struct {
	ID        int32
	EventID   string
	Data      dbus.Variant
	Timestamp uint32
}

// menuMethods holds the methods exported on the bus.
type menuMethods struct {
	menu *Menu
}

func (m menuMethods) GetLayout(parentID int32, recursionDepth int32, propertyNames []string) (uint32, layout, *dbus.Error) {
	node, revision := m.menu.find(parentID)
	if node == nil {
		return revision, layout{}, unknownNode(parentID)
	}

	return revision, node.encode(recursionDepth, propertyNames), nil
}

func (m menuMethods) GetGroupProperties(ids []int32, propertyNames []string) ([]nodeProperties, *dbus.Error) {
	result := make([]nodeProperties, 0, len(ids))

	for _, id := range ids {
		node, _ := m.menu.find(id)
		if node == nil {
			continue
		}

		result = append(result, nodeProperties{
			ID:         id,
			Properties: node.properties(propertyNames),
		})
	}

	return result, nil
}

func (m menuMethods) GetProperty(id int32, name string) (dbus.Variant, *dbus.Error) {
	node, _ := m.menu.find(id)
	if node == nil {
		return dbus.Variant{}, unknownNode(id)
	}

	value, ok := node.Properties[name]
	if !ok {
		return dbus.Variant{}, dbus.MakeFailedError(fmt.Errorf("menu node %d has no property %s", id, name))
	}

	return dbus.MakeVariant(value), nil
}

func (m menuMethods) Event(id int32, eventID string, data dbus.Variant, timestamp uint32) *dbus.Error {
	if node, _ := m.menu.find(id); node == nil {
		return unknownNode(id)
	}

	m.menu.event(id, eventID)

	return nil
}

func (m menuMethods) EventGroup(events []menuEvent) ([]int32, *dbus.Error) {
	idErrors := []int32{}

	for _, ev := range events {
		if node, _ := m.menu.find(ev.ID); node == nil {
			idErrors = append(idErrors, ev.ID)
			continue
		}

		m.menu.event(ev.ID, ev.EventID)
	}

	return idErrors, nil
}

func (m menuMethods) AboutToShow(id int32) (bool, *dbus.Error) {
	return m.menu.aboutToShow(id), nil
}

func (m menuMethods) AboutToShowGroup(ids []int32) ([]int32, []int32, *dbus.Error) {
	updatesNeeded := []int32{}
	idErrors := []int32{}

	for _, id := range ids {
		if node, _ := m.menu.find(id); node == nil {
			idErrors = append(idErrors, id)
			continue
		}

		if m.menu.aboutToShow(id) {
			updatesNeeded = append(updatesNeeded, id)
		}
	}

	return updatesNeeded, idErrors, nil
}
