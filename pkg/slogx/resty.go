package slogx

import (
	"fmt"
	"log/slog"
)

// RestyLogger adapts a slog.Logger to the printf-style logger resty expects.
type RestyLogger struct {
	Logger *slog.Logger
}

func (l RestyLogger) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l RestyLogger) Errorf(format string, v ...any) {
	l.logger().Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (l RestyLogger) Warnf(format string, v ...any) {
	l.logger().Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (l RestyLogger) Debugf(format string, v ...any) {
	l.logger().Debug(fmt.Sprintf(format, v...), "component", "resty")
}
