package sni

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMenu() (*Menu, menuMethods) {
	m := NewMenu(nil)
	m.root = testLayout()
	m.revision = 5

	return m, menuMethods{m}
}

func TestMenuGetLayout(t *testing.T) {
	_, methods := newTestMenu()

	revision, l, err := methods.GetLayout(1<<24, -1, nil)
	require.Nil(t, err)
	assert.Equal(t, uint32(5), revision)
	assert.Equal(t, int32(1<<24), l.ID)
	assert.Len(t, l.Children, 1)

	_, _, err = methods.GetLayout(42, -1, nil)
	assert.NotNil(t, err)
}

func TestMenuGetGroupPropertiesSkipsUnknownNodes(t *testing.T) {
	_, methods := newTestMenu()

	props, err := methods.GetGroupProperties([]int32{1, 42, 2}, []string{"label"})
	require.Nil(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, int32(1), props[0].ID)
	assert.Equal(t, "Open", props[0].Properties["label"].Value())
	assert.Equal(t, int32(2), props[1].ID)
}

func TestMenuGetProperty(t *testing.T) {
	_, methods := newTestMenu()

	value, err := methods.GetProperty(1, "label")
	require.Nil(t, err)
	assert.Equal(t, "Open", value.Value())

	_, err = methods.GetProperty(1, "icon-name")
	assert.NotNil(t, err)

	_, err = methods.GetProperty(42, "label")
	assert.NotNil(t, err)
}

func TestMenuEvents(t *testing.T) {
	m, methods := newTestMenu()

	type event struct {
		id   int32
		name string
	}

	var got []event
	m.OnEvent(func(id int32, eventID string) {
		got = append(got, event{id, eventID})
	})

	require.Nil(t, methods.Event(1, "clicked", dbus.MakeVariant(""), 0))
	assert.NotNil(t, methods.Event(42, "clicked", dbus.MakeVariant(""), 0))

	idErrors, err := methods.EventGroup([]menuEvent{
		{ID: 2, EventID: "hovered"},
		{ID: 42, EventID: "clicked"},
		{ID: 0, EventID: "closed"},
	})
	require.Nil(t, err)
	assert.Equal(t, []int32{42}, idErrors)

	assert.Equal(t, []event{{1, "clicked"}, {2, "hovered"}, {0, "closed"}}, got)
}

func TestMenuAboutToShow(t *testing.T) {
	m, methods := newTestMenu()

	needUpdate, err := methods.AboutToShow(0)
	require.Nil(t, err)
	assert.False(t, needUpdate)

	var asked []int32
	m.OnAboutToShow(func(id int32) bool {
		asked = append(asked, id)
		return id == 0
	})

	updates, idErrors, err := methods.AboutToShowGroup([]int32{0, 1 << 24, 42})
	require.Nil(t, err)
	assert.Equal(t, []int32{0}, updates)
	assert.Equal(t, []int32{42}, idErrors)
	assert.Equal(t, []int32{0, 1 << 24}, asked)
}
