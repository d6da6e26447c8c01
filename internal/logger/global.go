package logger

import "log/slog"

// LogSystem logs lifecycle events.
func LogSystem(msg string, attrs ...any) {
	slog.Info(msg, append([]any{slog.String("type", "sys")}, attrs...)...)
}

func LogError(msg string, err error, attrs ...any) {
	base := []any{slog.String("type", "error"), slog.Any("error", err)}
	slog.Error(msg, append(base, attrs...)...)
}
