package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeDB     LogType = "DB"
	TypeSync   LogType = "SYNC"
	TypeSystem LogType = "SYS"
	TypeError  LogType = "ERR"
	TypeNotify LogType = "NOTIFY"
)

// Handler prints one colored line per record, tagged with the record's
// "type" attribute.
type Handler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	color bool
	attrs []slog.Attr
}

func NewHandler(w io.Writer, level slog.Leveler, color bool) *Handler {
	return &Handler{mu: &sync.Mutex{}, w: w, level: level, color: color}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

// WithGroup is a no-op; every attribute prints flat.
func (h *Handler) WithGroup(string) slog.Handler { return h }

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var levelColor, levelText string
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level >= slog.LevelInfo:
		levelColor, levelText = colorGreen, "INFO"
	default:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	logType := TypeSystem
	var extra strings.Builder
	add := func(a slog.Attr) bool {
		switch a.Key {
		case "type":
			logType = typeOf(a.Value.String())
		case "error":
			fmt.Fprintf(&extra, ": %v", a.Value.Any())
		default:
			fmt.Fprintf(&extra, " %s=%v", a.Key, a.Value.Any())
		}
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	line := fmt.Sprintf("[hq] [%s] [%s] [%s] %s%s", ts.Format("15:04:05"), levelText, logType, r.Message, extra.String())
	if h.color {
		line = fmt.Sprintf("%s[hq] [%s] [%s%s%s] [%s%s%s] %s%s%s",
			colorWhite, ts.Format("15:04:05"),
			levelColor, levelText, colorWhite,
			colorCyan, logType, colorWhite,
			r.Message, extra.String(), colorReset)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, line)
	return err
}

func typeOf(v string) LogType {
	switch v {
	case "db":
		return TypeDB
	case "sync":
		return TypeSync
	case "error":
		return TypeError
	case "notify":
		return TypeNotify
	default:
		return TypeSystem
	}
}

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// New builds a logger writing to w. Format "json" emits JSON lines; any
// other value uses the terminal handler.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
	}
	return slog.New(NewHandler(w, lvl, isTerminal(w))), nil
}

// Setup installs the logger as the slog default and returns it.
func Setup(level, format string) (*slog.Logger, error) {
	l, err := New(os.Stderr, level, format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
