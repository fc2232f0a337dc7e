package logger

import (
	"log/slog"
	"os"
)

// New returns the process root logger. JSON output so log shippers can index
// tag codes and subsystem fields from degradation logs.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
