package snowql

import (
	"context"
	"io"
	"path"
	"runtime"

	rlog "github.com/sirupsen/logrus"
)

// Logger is the logging interface used throughout the package. A
// caller can swap in their own implementation (a logrus.FieldLogger
// plus SetOutput/SetLevel) via SetLogger.
type Logger interface {
	rlog.FieldLogger
	SetOutput(output io.Writer)
	SetLevel(level string) error
}

type defaultLogger struct {
	*rlog.Logger
}

func (l *defaultLogger) SetLevel(level string) error {
	parsed, err := rlog.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Level = parsed
	return nil
}

// callerPrettyfier trims caller frames down to base file name and
// function, matching the teacher's SFCallerPrettyfier.
func callerPrettyfier(frame *runtime.Frame) (string, string) {
	return path.Base(frame.Function), path.Base(frame.File)
}

// newDefaultLogger returns the package's default Logger: text-
// formatted logrus at Info level, writing to stderr.
func newDefaultLogger() Logger {
	l := rlog.New()
	l.SetFormatter(&rlog.TextFormatter{CallerPrettyfier: callerPrettyfier})
	l.SetReportCaller(true)
	return &defaultLogger{Logger: l}
}

var logger Logger = newDefaultLogger()

// SetLogger replaces the package-wide default logger. It is not
// goroutine-safe against concurrent in-flight requests; call it once
// during program initialization.
func SetLogger(l Logger) {
	if l != nil {
		logger = l
	}
}

type loggerField struct {
	key   string
	value any
}

func withFields(ctx context.Context, fields ...loggerField) *rlog.Entry {
	data := rlog.Fields{}
	if qid, ok := ctx.Value(ctxKeyQueryID).(string); ok && qid != "" {
		data["query_id"] = qid
	}
	for _, f := range fields {
		data[f.key] = f.value
	}
	return logger.WithFields(data)
}
