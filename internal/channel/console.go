package channel

import (
	"context"
	"fmt"
	"io"
	"time"

	"chat-gateway/internal/logger"
)

// ConsoleSender prints outbound messages instead of delivering them. Used for local runs.
type ConsoleSender struct {
	out    io.Writer
	logger *logger.Logger
}

// NewConsoleSender creates a sender that writes messages to out
func NewConsoleSender(out io.Writer, log *logger.Logger) *ConsoleSender {
	return &ConsoleSender{out: out, logger: log}
}

// SendMessage writes the message to the console instead of delivering it
func (c *ConsoleSender) SendMessage(ctx context.Context, to, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if _, err := fmt.Fprintf(c.out, "[%s] to %s: %s\n", timestamp, to, text); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	c.logger.Info("message_displayed", "Outbound message written to console", "", map[string]interface{}{
		"to": to,
	})
	return nil
}
