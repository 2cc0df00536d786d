package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		want          zapcore.Level
		wantErr       bool
	}{
		{"info", "json", zapcore.InfoLevel, false},
		{"DEBUG", "console", zapcore.DebugLevel, false},
		{"warn", "", zapcore.WarnLevel, false},
		{"loud", "json", 0, true},
		{"info", "xml", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			log, err := New(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestMustFallsBack(t *testing.T) {
	log := Must("nope", "json")
	assert.NotNil(t, log)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}
