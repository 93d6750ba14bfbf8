package notifyicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMouseEventString(t *testing.T) {
	assert.Equal(t, "IconRightMouseUp", IconRightMouseUp.String())
	assert.Equal(t, "BalloonToolTipClicked", BalloonToolTipClicked.String())
	assert.Equal(t, "MouseEvent(-1)", MouseEvent(-1).String())
}

func TestUnsupportedEventError(t *testing.T) {
	err := &UnsupportedEventError{Event: KeyboardEvent(7)}

	assert.Equal(t, "unsupported event: KeyboardEvent(7)", err.Error())
}

func TestObserversIgnoreNilCallbacks(t *testing.T) {
	var o observers[int]
	o.add(nil)

	var got []int
	o.add(func(v int) { got = append(got, v) })
	o.emit(3)

	assert.Equal(t, []int{3}, got)
}

func TestMakeLong(t *testing.T) {
	v := MakeLong(0x1234, 0xABCD)

	assert.Equal(t, uint16(0x1234), loword(v))
	assert.Equal(t, uint16(0xABCD), hiword(v))
}
