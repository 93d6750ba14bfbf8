package notifyicon

import "math"

const baseDPI = 96

// DPIScale holds the horizontal and vertical scale factors relative to
// 96 DPI.
type DPIScale struct {
	X float64
	Y float64
}

// DefaultDPIScale is the scale of a 96 DPI display.
var DefaultDPIScale = DPIScale{X: 1, Y: 1}

// SystemDPIScale returns the current system scale factors. Zero values
// reported by the shell are treated as 96 DPI.
func SystemDPIScale(shell Shell) DPIScale {
	x, y := shell.SystemDPI()
	if x == 0 {
		x = baseDPI
	}
	if y == 0 {
		y = baseDPI
	}

	return DPIScale{
		X: float64(x) / baseDPI,
		Y: float64(y) / baseDPI,
	}
}

// ScalePoint converts a point in physical pixels into device-independent
// units.
func ScalePoint(p Point, scale DPIScale) Point {
	if scale.X == 0 || scale.Y == 0 {
		return p
	}

	return Point{
		X: int32(math.Round(float64(p.X) / scale.X)),
		Y: int32(math.Round(float64(p.Y) / scale.Y)),
	}
}
