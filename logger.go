package flipbook

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/flipbook/gif"
)

// nopHandler is a slog.Handler that silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for flipbook and the gif decoder.
// By default nothing is logged. Pass nil to restore the silent default.
//
// SetLogger is safe for concurrent use.
//
// Log levels used:
//   - [slog.LevelDebug]: stream metadata, per-frame decoding, layer sizes
//   - [slog.LevelInfo]: a texture array was built
//   - [slog.LevelWarn]: image data accepted under a lenient rule
//
// Example:
//
//	flipbook.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gif.SetLogger(l)
}

// Logger returns the current logger used by flipbook.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
