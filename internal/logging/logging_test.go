package logging

import (
	"log/slog"
	"testing"
)

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name        string
		s           string
		interactive bool
		want        slog.Level
	}{
		{"explicit wins over interactive default", "warn", true, slog.LevelWarn},
		{"explicit wins over service default", "error", false, slog.LevelError},
		{"interactive defaults to debug", "", true, slog.LevelDebug},
		{"service defaults to info", "", false, slog.LevelInfo},
		{"garbage falls back to info", "loud", false, slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLevel(tt.s, tt.interactive); got != tt.want {
				t.Errorf("ResolveLevel(%q, %v) = %v, want %v", tt.s, tt.interactive, got, tt.want)
			}
		})
	}
}
