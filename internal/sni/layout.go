package sni

import (
	"slices"

	"github.com/godbus/dbus/v5"
)

// LayoutNode is an entry of a dbusmenu layout. The root node has ID 0.
type LayoutNode struct {
	ID         int32
	Properties map[string]any
	Children   []*LayoutNode
}

// Find returns the node with the given ID in the subtree of n, or nil.
func (n *LayoutNode) Find(id int32) *LayoutNode {
	if n.ID == id {
		return n
	}

	for _, child := range n.Children {
		if found := child.Find(id); found != nil {
			return found
		}
	}

	return nil
}

// layout is the (ia{sv}av) wire form of a node.
type layout struct {
	ID         int32
	Properties map[string]dbus.Variant
	Children   []dbus.Variant
}

// encode returns the wire form of n.
//
// depth limits the levels of children: -1 delivers all of them, 0 none.
// names selects the properties; nil or empty selects all.
func (n *LayoutNode) encode(depth int32, names []string) layout {
	l := layout{
		ID:         n.ID,
		Properties: n.properties(names),
		Children:   []dbus.Variant{},
	}

	if depth == 0 {
		return l
	}

	next := depth - 1
	if depth < 0 {
		next = -1
	}

	for _, child := range n.Children {
		l.Children = append(l.Children, dbus.MakeVariant(child.encode(next, names)))
	}

	return l
}

func (n *LayoutNode) properties(names []string) map[string]dbus.Variant {
	props := make(map[string]dbus.Variant, len(n.Properties))

	for key, value := range n.Properties {
		if len(names) > 0 && !slices.Contains(names, key) {
			continue
		}

		props[key] = dbus.MakeVariant(value)
	}

	return props
}
