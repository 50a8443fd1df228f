package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Logger
			t.Cleanup(func() { Logger = prev })

			require.NoError(t, Initialize(tt.jsonOutput))
			assert.NotNil(t, Logger)
			assert.NotSame(t, prev, Logger)
		})
	}
}

func TestDefaultLoggerIsUsable(t *testing.T) {
	assert.NotPanics(t, func() {
		Logger.Infow("before initialize", FieldUserID, "u1")
	})
}
