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

	"github.com/fatih/color"
)

var (
	infoColor  = color.New(color.FgHiBlack)
	warnColor  = color.New(color.FgHiYellow)
	errorColor = color.New(color.FgHiRed)
	debugColor = color.New(color.FgHiBlue)

	componentColors = map[string]*color.Color{
		"SESSION": color.New(color.FgHiGreen),
		"BOT":     color.New(color.FgHiMagenta),
		"WS":      color.New(color.FgHiCyan),
		"HTTP":    color.New(color.FgCyan),
		"CACHE":   color.New(color.FgHiBlack),
		"REDIS":   color.New(color.FgHiBlack),
		"DB":      color.New(color.FgHiBlack),
		"CLEANUP": color.New(color.FgMagenta),
	}

	mu sync.Mutex
)

func init() {
	Init(os.Stdout, strings.ToLower(os.Getenv("DEBUG")) == "true")
}

// Init installs the coloured handler as the slog default.
func Init(w io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(NewHandler(w, level)))
}

func Info(component, format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", component))
}

func Warn(component, format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...), slog.String("component", component))
}

func Error(component, format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...), slog.String("component", component))
}

func Debug(component, format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...), slog.String("component", component))
}

// Fatal logs and exits the process. Only main should call it.
func Fatal(component, format string, v ...any) {
	slog.Log(context.Background(), slog.LevelError+4, fmt.Sprintf(format, v...), slog.String("component", component))
	os.Exit(1)
}

// Handler prints "15:04:05 [LEVEL] [COMPONENT] message". The level tag is left
// out for INFO.
type Handler struct {
	w     io.Writer
	level slog.Leveler
	mu    *sync.Mutex
	attrs []slog.Attr
}

func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{w: w, level: level, mu: &sync.Mutex{}}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var levelStr string
	var levelColor *color.Color
	switch {
	case r.Level >= slog.LevelError+4:
		levelStr, levelColor = "FATAL", errorColor
	case r.Level >= slog.LevelError:
		levelStr, levelColor = "ERROR", errorColor
	case r.Level >= slog.LevelWarn:
		levelStr, levelColor = "WARN", warnColor
	case r.Level >= slog.LevelInfo:
		levelStr, levelColor = "INFO", infoColor
	default:
		levelStr, levelColor = "DEBUG", debugColor
	}

	component := ""
	for _, a := range h.attrs {
		if a.Key == "component" {
			component = strings.ToUpper(a.Value.String())
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = strings.ToUpper(a.Value.String())
			return false
		}
		return true
	})

	var sb strings.Builder
	sb.WriteString(r.Time.Format(time.TimeOnly))
	if levelStr != "INFO" {
		sb.WriteByte(' ')
		sb.WriteString(levelColor.Sprintf("[%s]", levelStr))
	}
	if component != "" {
		c, ok := componentColors[component]
		if !ok {
			c = infoColor
		}
		sb.WriteByte(' ')
		sb.WriteString(c.Sprintf("[%s] %s", component, r.Message))
	} else {
		sb.WriteByte(' ')
		sb.WriteString(levelColor.Sprint(r.Message))
	}
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

func (h *Handler) WithGroup(string) slog.Handler { return h }
