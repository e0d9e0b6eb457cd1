package transport

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const DefaultDelay = 100 * time.Millisecond

const (
	CommandReset        = "ATZ"
	CommandEchoOff      = "ATE0"
	CommandLineFeedsOff = "ATL0"
	CommandHeadersOff   = "ATH0"
	CommandReadVoltage  = "ATRV"

	CR = "\r"

	resetDelay = time.Second
)

// DefaultInit resets the adapter and makes replies start with the mode byte.
// Echo is left as configured on the adapter.
var DefaultInit = []string{CommandReset, CommandLineFeedsOff, CommandHeadersOff}

// initialize writes the init sequence to a freshly opened connection. Replies
// arrive before anyone subscribes and are discarded.
func initialize(ctx context.Context, conn Conn, cmds []string, logger *zap.Logger) error {
	for _, cmd := range cmds {
		logger.Debug("Sending init command", zap.String("command", cmd))
		if err := conn.Write([]byte(cmd + CR)); err != nil {
			return fmt.Errorf("init command %s failed: %w", cmd, err)
		}

		delay := DefaultDelay
		if cmd == CommandReset {
			delay = resetDelay
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil
}
