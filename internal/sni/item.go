package sni

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const (
	ItemInterface = "org.kde.StatusNotifierItem"
	ItemPath      = "/StatusNotifierItem"
)

type Category string

// StatusNotifierItem categories.
const (
	// The item describes the status of a generic application, for instance the
	// current state of a media player.
	CategoryApplicationStatus Category = "ApplicationStatus"
)

type Status string

// StatusNotifierItem statuses.
const (
	// The item doesn't convey important information to the user. Hosts
	// usually hide passive items.
	StatusPassive Status = "Passive"

	// The item is active and should be shown to the user.
	StatusActive Status = "Active"
)

// ItemProperties are the properties of an item that the application
// controls.
type ItemProperties struct {
	// Unique identifier for the application, such as the application name.
	ID string

	// Name that describes the application, can be more descriptive than ID.
	Title string

	Category Category
	Status   Status

	// Freedesktop icon name or absolute path of an icon file.
	IconName string

	ToolTip ToolTip

	// Path of the exported [Menu], or "/" without a menu.
	MenuPath dbus.ObjectPath
}

var itemSignals = []introspect.Signal{
	{Name: "NewTitle"},
	{Name: "NewIcon"},
	{Name: "NewToolTip"},
	{Name: "NewStatus", Args: []introspect.Arg{{Name: "status", Type: "s"}}},
}

// Item exports org.kde.StatusNotifierItem on a connection.
//
// Every item needs its own connection: the object path is fixed and the
// watcher identifies items by the unique name of their connection.
type Item struct {
	conn  *dbus.Conn
	props *prop.Properties

	mu                  sync.Mutex
	current             ItemProperties
	onActivate          func(x, y int32)
	onSecondaryActivate func(x, y int32)
	onContextMenu       func(x, y int32)
}

// NewItem returns a new [Item] that is exported on conn by [Item.Export].
func NewItem(conn *dbus.Conn) *Item {
	return &Item{conn: conn}
}

// Export exports the item object with the given properties.
func (item *Item) Export(p ItemProperties) error {
	if p.MenuPath == "" {
		p.MenuPath = "/"
	}

	if err := item.conn.Export(itemMethods{item}, ItemPath, ItemInterface); err != nil {
		return fmt.Errorf("export: failed to export %s: %w", ItemInterface, err)
	}

	props, err := prop.Export(item.conn, ItemPath, prop.Map{
		ItemInterface: map[string]*prop.Prop{
			"Category":          {Value: string(p.Category), Emit: prop.EmitConst},
			"Id":                {Value: p.ID, Emit: prop.EmitConst},
			"Title":             {Value: p.Title, Emit: prop.EmitTrue},
			"Status":            {Value: string(p.Status), Emit: prop.EmitTrue},
			"WindowId":          {Value: int32(0), Emit: prop.EmitConst},
			"IconName":          {Value: p.IconName, Emit: prop.EmitTrue},
			"IconPixmap":        {Value: []Icon{}, Emit: prop.EmitTrue},
			"OverlayIconName":   {Value: "", Emit: prop.EmitTrue},
			"AttentionIconName": {Value: "", Emit: prop.EmitTrue},
			"ToolTip":           {Value: p.ToolTip, Emit: prop.EmitTrue},
			"ItemIsMenu":        {Value: false, Emit: prop.EmitConst},
			"Menu":              {Value: p.MenuPath, Emit: prop.EmitConst},
		},
	})
	if err != nil {
		return fmt.Errorf("export: failed to export properties: %w", err)
	}

	node := &introspect.Node{
		Name: ItemPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       ItemInterface,
				Methods:    introspect.Methods(itemMethods{}),
				Properties: props.Introspection(ItemInterface),
				Signals:    itemSignals,
			},
		},
	}

	if err := item.conn.Export(introspect.NewIntrospectable(node), ItemPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export: failed to export introspection data: %w", err)
	}

	item.mu.Lock()
	item.props = props
	item.current = p
	item.mu.Unlock()

	return nil
}

// Update sets the properties that changed since the last update and emits
// the matching New* signals.
func (item *Item) Update(p ItemProperties) error {
	item.mu.Lock()
	props, old := item.props, item.current
	if props == nil {
		item.mu.Unlock()
		return fmt.Errorf("update: item is not exported")
	}
	p.ID, p.Category, p.MenuPath = old.ID, old.Category, old.MenuPath
	item.current = p
	item.mu.Unlock()

	if p.Title != old.Title {
		props.SetMust(ItemInterface, "Title", p.Title)
		item.emit("NewTitle")
	}

	if p.IconName != old.IconName {
		props.SetMust(ItemInterface, "IconName", p.IconName)
		item.emit("NewIcon")
	}

	if !p.ToolTip.equal(old.ToolTip) {
		props.SetMust(ItemInterface, "ToolTip", p.ToolTip)
		item.emit("NewToolTip")
	}

	if p.Status != old.Status {
		props.SetMust(ItemInterface, "Status", string(p.Status))
		item.emit("NewStatus", string(p.Status))
	}

	return nil
}

// OnActivate registers callback that runs when the host asks for primary
// activation, typically on left click. x and y are a position hint.
func (item *Item) OnActivate(callback func(x, y int32)) {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.onActivate = callback
}

// OnSecondaryActivate registers callback that runs when the host asks for
// secondary activation, typically on middle click.
func (item *Item) OnSecondaryActivate(callback func(x, y int32)) {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.onSecondaryActivate = callback
}

// OnContextMenu registers callback that runs when a host that does not
// render dbusmenu asks the item to show its context menu.
func (item *Item) OnContextMenu(callback func(x, y int32)) {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.onContextMenu = callback
}

func (item *Item) emit(name string, values ...any) {
	_ = item.conn.Emit(ItemPath, ItemInterface+"."+name, values...)
}

// equal compares tooltips by text and icon name. Pixmaps are not compared.
func (t ToolTip) equal(other ToolTip) bool {
	return t.IconName == other.IconName &&
		t.Title == other.Title &&
		t.Description == other.Description
}

// itemMethods holds the methods exported on the bus, so that methods of
// [Item] are not callable remotely.
type itemMethods struct {
	item *Item
}

func (m itemMethods) ContextMenu(x, y int32) *dbus.Error {
	m.item.mu.Lock()
	callback := m.item.onContextMenu
	m.item.mu.Unlock()

	if callback != nil {
		callback(x, y)
	}

	return nil
}

func (m itemMethods) Activate(x, y int32) *dbus.Error {
	m.item.mu.Lock()
	callback := m.item.onActivate
	m.item.mu.Unlock()

	if callback != nil {
		callback(x, y)
	}

	return nil
}

func (m itemMethods) SecondaryActivate(x, y int32) *dbus.Error {
	m.item.mu.Lock()
	callback := m.item.onSecondaryActivate
	m.item.mu.Unlock()

	if callback != nil {
		callback(x, y)
	}

	return nil
}

// Scroll is ignored: the notification area has no wheel events.
func (m itemMethods) Scroll(delta int32, orientation string) *dbus.Error {
	return nil
}
