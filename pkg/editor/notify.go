package editor

import (
	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
)

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-facing report of a rejected or failed operation.
type Notice struct {
	Level   Level
	Code    ferrors.Code
	Message string
}

// Notifier receives notices. Implementations must not call back into the
// session.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger *log.Logger
}

func (l LogNotifier) Notify(n Notice) {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	switch n.Level {
	case LevelError:
		logger.Error(n.Message, "code", n.Code)
	case LevelWarning:
		logger.Warn(n.Message, "code", n.Code)
	default:
		logger.Info(n.Message)
	}
}

// noticeFor builds a warning from an error.
func noticeFor(err error) Notice {
	return Notice{Level: LevelWarning, Code: ferrors.GetCode(err), Message: ferrors.UserMessage(err)}
}
