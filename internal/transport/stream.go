package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	idlePause    = 10 * time.Millisecond
	closeTimeout = 2 * time.Second
)

// StreamOptions tune how a byte stream is turned into line events.
type StreamOptions struct {
	// IdleEOF treats io.EOF as a read timeout rather than end of stream.
	// Serial ports opened with a read timeout report idle periods that way.
	IdleEOF bool
	Logger  *zap.Logger
}

// StreamConn adapts an io.ReadWriteCloser to Conn. Inbound bytes are split on
// CR/LF and on the ELM327 '>' prompt; the prompt and non-printable bytes are
// dropped, blank lines are skipped.
type StreamConn struct {
	rwc    io.ReadWriteCloser
	opts   StreamOptions
	logger *zap.Logger

	wmu sync.Mutex // serializes writes
	dmu sync.Mutex // held while a handler runs

	mu      sync.Mutex
	handler Handler
	subID   uint64
	closed  bool

	closeOnce sync.Once
	done      chan struct{}
}

func NewStreamConn(rwc io.ReadWriteCloser, opts StreamOptions) *StreamConn {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &StreamConn{
		rwc:    rwc,
		opts:   opts,
		logger: logger,
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *StreamConn) Write(p []byte) error {
	if c.isClosed() {
		return ErrClosed
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	n, err := c.rwc.Write(p)
	if err != nil {
		return fmt.Errorf("write %q: %w", p, err)
	}
	if n != len(p) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(p))
	}
	c.logger.Debug("Command written", zap.String("command", strings.TrimSpace(string(p))), zap.Int("bytes", n))
	return nil
}

func (c *StreamConn) Subscribe(h Handler) func() {
	c.mu.Lock()
	c.subID++
	id := c.subID
	c.handler = h
	c.mu.Unlock()

	return func() {
		c.dmu.Lock()
		defer c.dmu.Unlock()
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.subID == id {
			c.handler = nil
		}
	}
}

func (c *StreamConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		err = c.rwc.Close()

		select {
		case <-c.done:
		case <-time.After(closeTimeout):
			c.logger.Warn("Reader did not stop after close", zap.Duration("timeout", closeTimeout))
		}
	})
	return err
}

func (c *StreamConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *StreamConn) dispatch(ev Event) {
	c.dmu.Lock()
	defer c.dmu.Unlock()

	c.mu.Lock()
	h, closed := c.handler, c.closed
	c.mu.Unlock()

	if closed || h == nil {
		if ev.Line != "" {
			c.logger.Debug("Dropped unsubscribed line", zap.String("line", ev.Line))
		}
		return
	}
	h(ev)
}

func (c *StreamConn) readLoop() {
	defer close(c.done)

	var line strings.Builder
	flush := func() {
		s := strings.TrimSpace(line.String())
		line.Reset()
		if s != "" {
			c.dispatch(Event{Line: s})
		}
	}

	buf := make([]byte, 256)
	for {
		n, err := c.rwc.Read(buf)
		for _, b := range buf[:n] {
			switch {
			case b == '\r' || b == '\n' || b == '>':
				flush()
			case b >= 32 && b <= 126:
				line.WriteByte(b)
			}
		}

		if err != nil {
			if c.isClosed() {
				return
			}
			if errors.Is(err, io.EOF) && c.opts.IdleEOF {
				time.Sleep(idlePause)
				continue
			}
			c.logger.Error("Read failed", zap.Error(err))
			c.dispatch(Event{Err: fmt.Errorf("read: %w", err)})
			return
		}
		if n == 0 {
			time.Sleep(idlePause)
		}
	}
}
