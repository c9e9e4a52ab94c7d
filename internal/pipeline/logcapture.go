package pipeline

import (
	"bytes"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCapture collects one request's stage logs so they can be persisted
// with the search record. Each request owns its own capture; the process
// logger is never replaced, so overlapping requests cannot observe each
// other's logs.
type LogCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogCapture creates an empty capture.
func NewLogCapture() *LogCapture {
	return &LogCapture{}
}

// Logger returns the process logger teed into this capture's buffer. The
// returned logger is what the pipeline attaches to the request context.
func (lc *LogCapture) Logger() *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	captureCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(lc),
		zapcore.InfoLevel,
	)

	return zap.L().WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, captureCore)
	}))
}

// Write appends encoded log output. Safe for concurrent use; Stage-1
// goroutines log from the fan-out.
func (lc *LogCapture) Write(p []byte) (int, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.buf.Write(p)
}

// Logs returns everything captured so far.
func (lc *LogCapture) Logs() string {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.buf.String()
}
