package logx

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewHonoursLevel(t *testing.T) {
	l, err := New("petcare-api", "debug")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("petcare-api", "bogus")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
