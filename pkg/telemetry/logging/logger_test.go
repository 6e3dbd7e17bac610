package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("defaults to info level and json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Writer: &buf})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		logger.Debug("should be suppressed")
		logger.Info("should be emitted")

		out := buf.String()
		if strings.Contains(out, "should be suppressed") {
			t.Error("debug message emitted at info level")
		}
		if !strings.Contains(out, "should be emitted") {
			t.Error("info message not emitted")
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		if _, err := New(Config{Level: "loud"}); err == nil {
			t.Error("expected error for unknown level")
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		if _, err := New(Config{Format: "xml"}); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestTraceLevel(t *testing.T) {
	t.Run("trace suppressed at debug level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "debug", Format: "text", Writer: &buf})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		logger.Trace("hop detail")
		if buf.Len() != 0 {
			t.Errorf("trace message emitted at debug level: %q", buf.String())
		}
	})

	t.Run("trace emitted with TRACE level name", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "trace", Format: "text", Writer: &buf})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		logger.Trace("hop detail")
		out := buf.String()
		if !strings.Contains(out, "hop detail") {
			t.Error("trace message not emitted at trace level")
		}
		if !strings.Contains(out, "level=TRACE") {
			t.Errorf("trace level not rendered as TRACE: %q", out)
		}
	})
}

func TestEnabled(t *testing.T) {
	logger, err := New(Config{Level: "warn"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if logger.Enabled(slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("component", "proxy").Info("ready")
	if !strings.Contains(buf.String(), "component=proxy") {
		t.Errorf("With() field missing from output: %q", buf.String())
	}
}
