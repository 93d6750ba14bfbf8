package notifyicon

import (
	"errors"
	"fmt"
)

// MenuBreak is a presentation hint that starts a new column of a popup
// menu before the item.
type MenuBreak int

const (
	BreakNone MenuBreak = iota

	// BreakMenu places the item in a new column.
	BreakMenu

	// BreakMenuBar places the item in a new column separated by a
	// vertical line.
	BreakMenuBar
)

var errNilPopupItem = errors.New("popup item is nil")

// PopupItem is an entry of a [PopupMenu]: [*PopupMenuItem],
// [*PopupSubMenu] or [*PopupSeparator].
type PopupItem interface {
	popupItem()
}

// PopupMenuItem is a selectable leaf of a popup menu. A PopupMenuItem must
// not be copied after first use.
type PopupMenuItem struct {
	Text    string
	Checked bool
	Enabled bool
	Break   MenuBreak

	click observers[*PopupMenuItem]
}

// NewPopupMenuItem returns an enabled item that runs onClick when selected.
func NewPopupMenuItem(text string, onClick func(*PopupMenuItem)) *PopupMenuItem {
	item := &PopupMenuItem{
		Text:    text,
		Enabled: true,
	}
	item.OnClick(onClick)

	return item
}

// OnClick registers callback that runs when the item is selected.
func (i *PopupMenuItem) OnClick(callback func(*PopupMenuItem)) {
	i.click.add(callback)
}

func (i *PopupMenuItem) popupItem() {}

// nativeFlags returns MF* flags reflecting the current item state.
func (i *PopupMenuItem) nativeFlags() uint32 {
	flags := uint32(MFString)

	if !i.Enabled {
		flags |= MFDisabled | MFGrayed
	}

	if i.Checked {
		flags |= MFChecked
	}

	switch i.Break {
	case BreakNone:
	case BreakMenu:
		flags |= MFMenuBreak
	case BreakMenuBar:
		flags |= MFMenuBarBreak
	default:
		panic(fmt.Sprintf("notifyicon: unknown menu break %d", int(i.Break)))
	}

	return flags
}

// PopupSubMenu is an entry that opens a nested menu.
type PopupSubMenu struct {
	Text  string
	Items []PopupItem
}

// NewPopupSubMenu returns a submenu with the given items.
func NewPopupSubMenu(text string, items ...PopupItem) *PopupSubMenu {
	return &PopupSubMenu{
		Text:  text,
		Items: items,
	}
}

func (s *PopupSubMenu) popupItem() {}

// PopupSeparator is a horizontal line between items.
type PopupSeparator struct{}

func (s *PopupSeparator) popupItem() {}

// PopupMenu is the root of a popup menu tree.
//
// Items may be changed between shows: the native menu is built from the
// tree every time the menu is shown. An item must not be reachable from
// more than one parent.
type PopupMenu struct {
	Items []PopupItem
}

// NewPopupMenu returns a menu with the given items.
func NewPopupMenu(items ...PopupItem) *PopupMenu {
	return &PopupMenu{Items: items}
}

// Show displays the menu at screen position (x, y) and blocks until it is
// dismissed. If an item was selected, its click callbacks run before Show
// returns.
func (m *PopupMenu) Show(owner Window, x, y int32) error {
	native, commands, err := m.build()
	if err != nil {
		return fmt.Errorf("show menu: %w", err)
	}

	id := owner.TrackPopupMenu(native, x, y)
	if id == 0 {
		return nil
	}

	item, ok := commands[id]
	if !ok {
		return fmt.Errorf("show menu: unknown command id %d", id)
	}

	item.click.emit(item)

	return nil
}

// build converts the tree into a native menu. Command ids are assigned per
// build, starting at 1, in depth-first order.
func (m *PopupMenu) build() (*NativeMenu, map[uint32]*PopupMenuItem, error) {
	b := menuBuilder{
		commands: make(map[uint32]*PopupMenuItem),
		seen:     make(map[PopupItem]struct{}),
	}

	native, err := b.build(m.Items)
	if err != nil {
		return nil, nil, err
	}

	return native, b.commands, nil
}

type menuBuilder struct {
	next     uint32
	commands map[uint32]*PopupMenuItem
	seen     map[PopupItem]struct{}
}

func (b *menuBuilder) build(items []PopupItem) (*NativeMenu, error) {
	native := &NativeMenu{Items: make([]NativeMenuItem, 0, len(items))}

	for _, item := range items {
		switch item := item.(type) {
		case *PopupSeparator:
			// Separators carry no state and may be shared.
			native.Items = append(native.Items, NativeMenuItem{Flags: MFSeparator})
		case *PopupMenuItem:
			if err := b.visit(item, item == nil); err != nil {
				return nil, err
			}

			b.next++
			b.commands[b.next] = item

			native.Items = append(native.Items, NativeMenuItem{
				ID:    b.next,
				Flags: item.nativeFlags(),
				Text:  item.Text,
			})
		case *PopupSubMenu:
			if err := b.visit(item, item == nil); err != nil {
				return nil, err
			}

			sub, err := b.build(item.Items)
			if err != nil {
				return nil, err
			}

			native.Items = append(native.Items, NativeMenuItem{
				Flags:   MFString | MFPopup,
				Text:    item.Text,
				SubMenu: sub,
			})
		default:
			return nil, errNilPopupItem
		}
	}

	return native, nil
}

func (b *menuBuilder) visit(item PopupItem, isNil bool) error {
	if isNil {
		return errNilPopupItem
	}

	if _, ok := b.seen[item]; ok {
		return fmt.Errorf("%w: %T", ErrSharedPopupItem, item)
	}
	b.seen[item] = struct{}{}

	return nil
}
