package mail

import (
	"context"
	"net/mail"

	"go.uber.org/zap"
)

// LogMailer writes messages to the logger instead of sending them.
type LogMailer struct {
	from   mail.Address
	logger *zap.Logger
}

func NewLogMailer(from mail.Address, logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{from: from, logger: logger.Named("mail")}
}

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}
	m.logger.Info("email",
		zap.String("from", m.from.String()),
		zap.Strings("to", to),
		zap.String("subject", msg.Subject),
		zap.String("category", msg.Category),
		zap.String("body", msg.Text),
	)
	return nil
}
