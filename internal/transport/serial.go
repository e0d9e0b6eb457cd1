package transport

import (
	"context"
	"fmt"
	"time"

	tarm "github.com/tarm/serial"
	"go.uber.org/zap"
)

const DefaultBaud = 38400

// SerialDialer opens adapters through github.com/tarm/serial. Bluetooth
// adapters show up as serial devices once bound (e.g. /dev/rfcomm0, COM5).
type SerialDialer struct {
	Baud        int
	ReadTimeout time.Duration
	Init        []string
	Logger      *zap.Logger
}

func (d SerialDialer) Open(ctx context.Context, address string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := loggerOr(d.Logger).With(zap.String("port", address))

	cfg := &tarm.Config{
		Name:        address,
		Baud:        baudOr(d.Baud),
		ReadTimeout: readTimeoutOr(d.ReadTimeout),
		Size:        8,
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
	}
	logger.Info("Opening serial port", zap.Int("baud", cfg.Baud))

	p, err := tarm.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", address, err)
	}
	if err := p.Flush(); err != nil {
		logger.Warn("Failed to flush port", zap.Error(err))
	}

	conn := NewStreamConn(p, StreamOptions{IdleEOF: true, Logger: logger})
	if err := initialize(ctx, conn, d.Init, logger); err != nil {
		conn.Close()
		return nil, err
	}
	logger.Info("Serial port opened")
	return conn, nil
}

func loggerOr(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func baudOr(b int) int {
	if b <= 0 {
		return DefaultBaud
	}
	return b
}

func readTimeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return 200 * time.Millisecond
	}
	return d
}
