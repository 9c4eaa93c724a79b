package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

const consoleTimeFormat = "15:04:05.00"

// newLogger creates a console logger with short timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      consoleTimeFormat,
		Level:           level,
	})
}

// setLogFormat switches l to f. Machine formats get full timestamps so
// that lines from `flowbuilder serve` can be shipped as they are.
func setLogFormat(l *log.Logger, f log.Formatter) {
	l.SetFormatter(f)
	if f == log.TextFormatter {
		l.SetTimeFormat(consoleTimeFormat)
		return
	}
	l.SetTimeFormat(time.RFC3339)
}

// progress measures one command step. Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with an elapsed=... pair in front of keyvals.
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append([]any{"elapsed", time.Since(p.start).Round(time.Millisecond)}, keyvals...)...)
}
