package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerTagsRecordsByType(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, slog.LevelDebug, false))

	l.Info("Pushed", slog.String("type", "sync"), slog.Int("tasks", 3))
	l.Error("Write failed", slog.String("type", "db"), slog.Any("error", errors.New("disk full")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "[INFO] [SYNC] Pushed tasks=3") {
		t.Fatalf("info line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] [DB] Write failed: disk full") {
		t.Fatalf("error line = %q", lines[1])
	}
}

func TestHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, slog.LevelWarn, false))
	l.Info("hidden")
	l.Debug("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("debug"); err != nil || l != slog.LevelDebug {
		t.Fatalf("ParseLevel(debug) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
