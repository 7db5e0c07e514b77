// Package notify delivers short fire-and-forget messages to the user.
// Delivery failures are logged, never returned: a notification must not
// be able to fail a sync pass.
package notify

import "go.uber.org/zap"

// Notifier displays one short message
type Notifier interface {
	Notify(message string)
}

// Log writes notifications to the application log
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(message string) {
	l.logger.Info("notify", zap.String("message", message))
}

// Multi fans a notification out to several sinks
type Multi []Notifier

func (m Multi) Notify(message string) {
	for _, n := range m {
		n.Notify(message)
	}
}
