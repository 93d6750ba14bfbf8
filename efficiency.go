package notifyicon

import "fmt"

// SetEfficiencyMode asks the operating system to run the process in a
// reduced-priority background state (enabled) or to restore the normal
// state. Applications that live in the notification area with no visible
// window usually enable it.
func SetEfficiencyMode(shell Shell, enabled bool) error {
	if err := shell.SetEfficiencyMode(enabled); err != nil {
		return fmt.Errorf("set efficiency mode: %w", err)
	}

	return nil
}
