// Package transport provides the connection handles the acquisition session
// consumes: something that can write a command and emits inbound lines.
package transport

import (
	"context"
	"errors"
)

var (
	ErrClosed         = errors.New("transport: connection closed")
	ErrUnknownBackend = errors.New("transport: unknown serial backend")
)

// Event is one inbound occurrence on a connection: either a complete line
// or a connection-level error. After an error event no further events follow.
type Event struct {
	Line string
	Err  error
}

type Handler func(Event)

// Conn is an open duplex link to an adapter.
type Conn interface {
	// Write sends p as is. The caller adds the command delimiter.
	Write(p []byte) error
	// Subscribe installs h as the receiver of inbound events, replacing any
	// previous handler. Once the returned func has returned, h is not called again.
	Subscribe(h Handler) (unsubscribe func())
	// Close releases the link. Calling it again is a no-op.
	Close() error
}

// Dialer opens connections to an adapter address (device path or URL).
type Dialer interface {
	Open(ctx context.Context, address string) (Conn, error)
}

// Device is an adapter the host knows about.
type Device struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name"`
}

// Discoverer lists adapters that can be passed to a Dialer.
type Discoverer interface {
	ListPairedDevices() ([]Device, error)
}
