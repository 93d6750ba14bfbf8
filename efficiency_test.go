package notifyicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetEfficiencyMode(t *testing.T) {
	shell := newFakeShell()

	require.NoError(t, SetEfficiencyMode(shell, true))
	require.NoError(t, SetEfficiencyMode(shell, false))
	assert.Equal(t, []bool{true, false}, shell.efficiency)
}

func TestSetEfficiencyModeWrapsErrors(t *testing.T) {
	shell := newFakeShell()
	shell.efficiencyErr = ErrUnsupportedPlatform

	err := SetEfficiencyMode(shell, true)
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}
