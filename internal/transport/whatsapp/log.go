package whatsapp

import (
	"fmt"

	waLog "go.mau.fi/whatsmeow/util/log"

	"stock-bot/internal/common/logger"
)

// waLogger routes whatsmeow's printf-style logs into the structured logger.
type waLogger struct {
	log    logger.Logger
	module string
}

// NewWALogger adapts log for whatsmeow and its SQL store.
func NewWALogger(log logger.Logger, module string) waLog.Logger {
	return &waLogger{log: log, module: module}
}

func (l *waLogger) fields() map[string]interface{} {
	return map[string]interface{}{"module": l.module}
}

func (l *waLogger) Debugf(msg string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(msg, args...), l.fields())
}

func (l *waLogger) Infof(msg string, args ...interface{}) {
	l.log.Info(fmt.Sprintf(msg, args...), l.fields())
}

func (l *waLogger) Warnf(msg string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(msg, args...), l.fields())
}

func (l *waLogger) Errorf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...), l.fields())
}

func (l *waLogger) Sub(module string) waLog.Logger {
	return &waLogger{log: l.log, module: l.module + "/" + module}
}
