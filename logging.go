package main

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the process logger: readable text in development,
// JSON in production, with optional rotating file output when LOG_FILE
// is set.
func newLogger(cfg Config) *slog.Logger {
	writers := []io.Writer{os.Stdout}

	if cfg.LogFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	w := io.MultiWriter(writers...)

	level := slog.LevelInfo
	if cfg.isDev() {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.isDev(),
	}

	var h slog.Handler
	if cfg.isDev() {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With(slog.String("service", "portfolio"))
}
