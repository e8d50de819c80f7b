package observability

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env    string
		expect zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"DEBUG", zap.DebugLevel},
		{"debug", zap.DebugLevel},
		{"  warn  ", zap.WarnLevel},
		{"ERROR", zap.ErrorLevel},
		{"TRACE", zap.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.env).Level(); got != tt.expect {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.env, got, tt.expect)
		}
	}
}

// TestNewLogger_HonoursLogLevel counts entries that pass the level filter via a hook.
func TestNewLogger_HonoursLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")

	var written []zapcore.Level
	logger, err := NewLogger(zap.Hooks(func(e zapcore.Entry) error {
		written = append(written, e.Level)
		return nil
	}))
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")
	_ = logger.Sync() // stderr sync can fail under go test

	if len(written) != 2 || written[0] != zap.WarnLevel || written[1] != zap.ErrorLevel {
		t.Errorf("written levels = %v, want [warn error]", written)
	}
}
