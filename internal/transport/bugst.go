package transport

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// BugstDialer opens adapters through go.bug.st/serial.
type BugstDialer struct {
	Baud        int
	ReadTimeout time.Duration
	Init        []string
	Logger      *zap.Logger
}

func (d BugstDialer) Open(ctx context.Context, address string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := loggerOr(d.Logger).With(zap.String("port", address))

	mode := &serial.Mode{
		BaudRate: baudOr(d.Baud),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	logger.Info("Opening serial port", zap.Int("baud", mode.BaudRate))

	port, err := serial.Open(address, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", address, err)
	}
	if err := port.SetReadTimeout(readTimeoutOr(d.ReadTimeout)); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", address, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		logger.Warn("Failed to reset input buffer", zap.Error(err))
	}

	conn := NewStreamConn(port, StreamOptions{Logger: logger})
	if err := initialize(ctx, conn, d.Init, logger); err != nil {
		conn.Close()
		return nil, err
	}
	logger.Info("Serial port opened")
	return conn, nil
}
