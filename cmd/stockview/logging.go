// Part of the stockview CLI - this file initializes the logging system
// with a JSON file handler and an optional stdout text handler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	mainLogger *slog.Logger

	logLevelMap = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

// initLogging builds the main logger: JSON records in the XDG cache
// directory, plus a text handler on stdout when requested.
func initLogging(level string, stdout bool) error {
	lvl, ok := logLevelMap[strings.ToLower(level)]
	if !ok {
		lvl = slog.LevelWarn
	}

	logDir := getXDGCacheDir()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "stockview.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	var handler slog.Handler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: true,
	})

	if stdout {
		stdoutHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: lvl,
		})
		handler = &multiHandler{handlers: []slog.Handler{handler, stdoutHandler}}
	}

	mainLogger = slog.New(handler)
	slog.SetDefault(mainLogger)

	mainLogger.Debug("logging initialized",
		"level", lvl.String(),
		"log_file", logPath,
		"stdout", stdout)
	return nil
}

// getXDGCacheDir returns the XDG cache directory for stockview
func getXDGCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "stockview")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Last resort - use temp directory
		return filepath.Join(os.TempDir(), "stockview")
	}

	if runtime.GOOS == "darwin" {
		// macOS uses ~/Library/Caches
		return filepath.Join(homeDir, "Library", "Caches", "stockview")
	}

	// Linux and others use ~/.cache
	return filepath.Join(homeDir, ".cache", "stockview")
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if err := handler.Handle(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
