package log

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rusackas/haas-addon/internal/config"
)

// Setup installs the default slog logger. Output always goes to stdout; a
// rotating file is added when cfg.LogFile is set, and the broadcaster (for
// the admin /logs endpoint) when non-nil.
func Setup(cfg *config.Config, broadcaster *Broadcaster) {
	writers := []io.Writer{os.Stdout}
	if cfg.LogFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    5, // megabytes
			MaxBackups: 5,
			MaxAge:     7, // days
			LocalTime:  true,
			Compress:   true,
		})
	}
	if broadcaster != nil {
		writers = append(writers, broadcaster)
	}

	var logLevel slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	}
	logger := slog.New(slog.NewTextHandler(io.MultiWriter(writers...), opts))
	slog.SetDefault(logger)
}

// Header logs the startup banner with the effective configuration.
func Header(version string, cfg *config.Config) {
	slog.Info("haas-ingress started", "version", version, "", cfg)
}
