package notifyicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemDPIScale(t *testing.T) {
	tests := []struct {
		name string
		x, y uint32
		want DPIScale
	}{
		{"unknown", 0, 0, DefaultDPIScale},
		{"default", 96, 96, DefaultDPIScale},
		{"150%", 144, 144, DPIScale{X: 1.5, Y: 1.5}},
		{"mixed", 192, 0, DPIScale{X: 2, Y: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shell := newFakeShell()
			shell.dpiX, shell.dpiY = tt.x, tt.y

			assert.Equal(t, tt.want, SystemDPIScale(shell))
		})
	}
}

func TestScalePoint(t *testing.T) {
	assert.Equal(t, Point{X: 100, Y: 67}, ScalePoint(Point{X: 150, Y: 100}, DPIScale{X: 1.5, Y: 1.5}))
	assert.Equal(t, Point{X: -50, Y: 20}, ScalePoint(Point{X: -100, Y: 40}, DPIScale{X: 2, Y: 2}))
	assert.Equal(t, Point{X: 3, Y: 4}, ScalePoint(Point{X: 3, Y: 4}, DPIScale{}))
}
