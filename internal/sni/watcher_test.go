package sni

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestIsWatcherStarted(t *testing.T) {
	tests := []struct {
		name   string
		signal *dbus.Signal
		want   bool
	}{
		{
			"started",
			&dbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []any{WatcherInterface, "", ":1.42"},
			},
			true,
		},
		{
			"stopped",
			&dbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []any{WatcherInterface, ":1.42", ""},
			},
			false,
		},
		{
			"other name",
			&dbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []any{"org.example.Other", "", ":1.7"},
			},
			false,
		},
		{
			"other signal",
			&dbus.Signal{
				Name: "org.freedesktop.DBus.NameLost",
				Body: []any{WatcherInterface},
			},
			false,
		},
		{
			"short body",
			&dbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []any{WatcherInterface},
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isWatcherStarted(tt.signal))
		})
	}
}
