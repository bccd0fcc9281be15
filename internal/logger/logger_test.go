package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit(t *testing.T) {
	previous := Logger
	t.Cleanup(func() { Logger = previous })

	tests := []struct {
		name        string
		level       string
		expectError bool
		enabled     zap.AtomicLevel
	}{
		{name: "debug", level: "debug", enabled: zap.NewAtomicLevelAt(zap.DebugLevel)},
		{name: "upper case warn", level: "WARN", enabled: zap.NewAtomicLevelAt(zap.WarnLevel)},
		{name: "unknown level", level: "verbose", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.level)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, Logger.Core().Enabled(tt.enabled.Level()))
			assert.False(t, Logger.Core().Enabled(tt.enabled.Level()-1))
		})
	}
}
