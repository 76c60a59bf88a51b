package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		json     bool
		debug    bool
		encoding string
		level    zapcore.Level
	}{
		{name: "console info", encoding: "console", level: zapcore.InfoLevel},
		{name: "json debug", json: true, debug: true, encoding: "json", level: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Config(tt.json, tt.debug)
			if cfg.Encoding != tt.encoding || cfg.Level.Level() != tt.level {
				t.Fatalf("unexpected config: %s/%s", cfg.Encoding, cfg.Level.Level())
			}
			if cfg.OutputPaths[0] != "stderr" || cfg.EncoderConfig.MessageKey != "step" {
				t.Fatalf("unexpected output: %v %q", cfg.OutputPaths, cfg.EncoderConfig.MessageKey)
			}
		})
	}

	if _, err := New(false, false); err != nil {
		t.Fatalf("new: %v", err)
	}
}
