package util

import (
	"log/slog"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			logger := NewLogger(tc.level, "json")
			if logger == nil {
				t.Fatal("NewLogger returned nil")
			}
			ctx := t.Context()
			if !logger.Enabled(ctx, tc.want) {
				t.Errorf("logger at %q should enable level %v", tc.level, tc.want)
			}
			if tc.want > slog.LevelDebug && logger.Enabled(ctx, tc.want-4) {
				t.Errorf("logger at %q should not enable level %v", tc.level, tc.want-4)
			}
		})
	}
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(5)
	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Fatalf("Allow() = false on call %d, want full burst of 5", i+1)
		}
	}
	if rl.Allow() {
		t.Error("Allow() = true after bucket drained, want false")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0)
	for i := 0; i < 1000; i++ {
		if !rl.Allow() {
			t.Fatal("disabled limiter must always allow")
		}
	}
}
