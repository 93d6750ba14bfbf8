//go:build windows

package win32

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	processPowerThrottling = 4

	processPowerThrottlingCurrentVersion = 1
	processPowerThrottlingExecutionSpeed = 0x1

	idlePriorityClass   = 0x00000040
	normalPriorityClass = 0x00000020
)

type processPowerThrottlingState struct {
	Version     uint32
	ControlMask uint32
	StateMask   uint32
}

// SupportsEfficiencyMode reports whether the system is Windows 8 or newer.
func SupportsEfficiencyMode() bool {
	v := windows.RtlGetVersion()
	return v.MajorVersion > 6 || (v.MajorVersion == 6 && v.MinorVersion >= 2)
}

// SetEfficiencyMode turns on execution speed throttling together with the
// idle priority class for the current process, or restores the defaults.
func SetEfficiencyMode(enabled bool) error {
	state := processPowerThrottlingState{
		Version:     processPowerThrottlingCurrentVersion,
		ControlMask: processPowerThrottlingExecutionSpeed,
	}
	priority := uint32(normalPriorityClass)

	if enabled {
		state.StateMask = processPowerThrottlingExecutionSpeed
		priority = idlePriorityClass
	}

	process := windows.CurrentProcess()

	res, _, err := pSetProcessInformation.Call(
		uintptr(process),
		processPowerThrottling,
		uintptr(unsafe.Pointer(&state)),
		unsafe.Sizeof(state),
	)
	if res == 0 {
		return fmt.Errorf("set process information: %w", err)
	}

	if err := windows.SetPriorityClass(process, priority); err != nil {
		return fmt.Errorf("set priority class: %w", err)
	}

	return nil
}
