package transport

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	BackendTarm  = "tarm"
	BackendBugst = "bugst"
)

// Options select and configure a Dialer.
type Options struct {
	Backend     string
	Baud        int
	ReadTimeout time.Duration
	Init        []string
	Logger      *zap.Logger
}

// NewDialer picks a dialer for address: websocket URLs use WebSocketDialer,
// anything else is a serial device opened through the configured backend.
func NewDialer(address string, opts Options) (Dialer, error) {
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		return WebSocketDialer{Logger: opts.Logger}, nil
	}

	switch opts.Backend {
	case "", BackendTarm:
		return SerialDialer{Baud: opts.Baud, ReadTimeout: opts.ReadTimeout, Init: opts.Init, Logger: opts.Logger}, nil
	case BackendBugst:
		return BugstDialer{Baud: opts.Baud, ReadTimeout: opts.ReadTimeout, Init: opts.Init, Logger: opts.Logger}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
