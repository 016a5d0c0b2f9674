package notify

import (
	"context"

	"go.uber.org/zap"
)

// Console logs messages instead of sending them. Used when no transport is
// configured.
type Console struct {
	log *zap.SugaredLogger
}

func NewConsole(log *zap.SugaredLogger) *Console {
	return &Console{log: log}
}

func (c *Console) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.log.Infow("email (console transport)",
		"to", msg.To,
		"subject", msg.Subject,
		"headers", msg.Headers,
	)
	c.log.Debug(msg.Text)
	return nil
}
