package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Services receive child loggers via
// slog.With rather than constructing their own.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
