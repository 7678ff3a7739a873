package wa

import (
	"github.com/sirupsen/logrus"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// logAdapter 把 whatsmeow 的日志接到 logrus
type logAdapter struct {
	l logrus.FieldLogger
}

func newLogAdapter(l logrus.FieldLogger) waLog.Logger {
	return &logAdapter{l: l}
}

func (a *logAdapter) Warnf(msg string, args ...interface{})  { a.l.Warnf(msg, args...) }
func (a *logAdapter) Errorf(msg string, args ...interface{}) { a.l.Errorf(msg, args...) }
func (a *logAdapter) Infof(msg string, args ...interface{})  { a.l.Infof(msg, args...) }
func (a *logAdapter) Debugf(msg string, args ...interface{}) { a.l.Debugf(msg, args...) }

func (a *logAdapter) Sub(module string) waLog.Logger {
	return &logAdapter{l: a.l.WithField("wa_module", module)}
}
