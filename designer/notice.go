package designer

import "github.com/sirupsen/logrus"

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type (
	// Notice is a user-visible message about the outcome of an action.
	Notice struct {
		Level   Level
		Message string
	}

	Notifier interface {
		Notify(Notice)
	}

	NotifierFunc func(Notice)

	// LogNotifier writes notices to logrus.
	LogNotifier struct {
		Logger logrus.FieldLogger
	}
)

func (f NotifierFunc) Notify(n Notice) { f(n) }

func (l LogNotifier) Notify(n Notice) {
	log := l.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithField("notice", n.Level)
	switch n.Level {
	case LevelError:
		entry.Error(n.Message)
	case LevelWarning:
		entry.Warn(n.Message)
	default:
		entry.Info(n.Message)
	}
}
