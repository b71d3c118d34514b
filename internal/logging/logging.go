package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// structured logger shared by the cli, server and playback layers
type Logger struct {
	*zap.SugaredLogger
}

// builds a console logger at debug level when verbose, JSON at info otherwise
func NewLogger(verbose bool) *Logger {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{SugaredLogger: base.Sugar()}
}

// discards everything; default for library callers that pass nil
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// returns a child logger with the given key/value pairs attached
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}

// returns l, or a no-op logger when l is nil
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}
