package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/trattoria-erp/trattoria/internal/testing/guard"
)

func TestInTestModeFromGuard(t *testing.T) {
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())
}
