// Package mail sends notification email without making the caller wait.
package mail

import (
	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Dispatcher must return immediately. Delivery errors are the dispatcher's
// to log; callers never see them.
type Dispatcher interface {
	Send(msg Message)
}

// LogDispatcher logs messages instead of delivering them. It is the default
// until an SMTP relay is configured.
type LogDispatcher struct {
	from   string
	logger *zap.Logger
}

func NewLogDispatcher(from string, logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{from: from, logger: logger}
}

func (d *LogDispatcher) Send(msg Message) {
	go d.logger.Info("mail dispatched",
		zap.String("from", d.from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
		zap.Int("text_bytes", len(msg.Text)),
	)
}
