// Package log wraps slog with a component label so log lines from the API
// server, gateway, and export worker stay distinguishable in one stream.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Standard component names used across the binaries.
const (
	ComponentServer  = "server"
	ComponentGateway = "gateway"
	ComponentWorker  = "worker"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentSheets  = "sheets"
)

type Logger struct {
	*slog.Logger
	component string
}

// New builds a text logger at the given level and installs it as the slog
// default, so package-level slog calls share the same handler.
func New(component, level string) *Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	base := slog.New(handler)
	slog.SetDefault(base)

	return &Logger{
		Logger:    base.With("component", component),
		component: component,
	}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With("component", component),
		component: component,
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
