package source

import (
	"log/slog"
	"time"
)

// FileSourceOption modifies a FileSource during construction.
type FileSourceOption func(*FileSource)

// WithFileSystem sets a custom FileSystem implementation.
func WithFileSystem(fs FileSystem) FileSourceOption {
	return func(s *FileSource) {
		s.fs = fs
	}
}

// WithFileLockFactory sets a custom FileLockFactory implementation.
func WithFileLockFactory(factory FileLockFactory) FileSourceOption {
	return func(s *FileSource) {
		s.lockFactory = factory
	}
}

// WithTimeFunc sets a custom time function, for deterministic timestamps in
// tests.
func WithTimeFunc(fn func() time.Time) FileSourceOption {
	return func(s *FileSource) {
		s.timeFunc = fn
	}
}

// WithLogger sets the logger for file and lock diagnostics.
func WithLogger(logger *slog.Logger) FileSourceOption {
	return func(s *FileSource) {
		s.logger = logger
	}
}
