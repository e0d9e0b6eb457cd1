package session

import (
	"sync"
	"time"

	"obdlog/internal/obd"
	"obdlog/internal/transport"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type messageKind int

const (
	messageTick messageKind = iota
	messageLine
	messageError
)

// message is one unit of work for the session loop. Ticks and inbound
// events share a single FIFO mailbox, so they are handled in arrival order.
type message struct {
	kind messageKind
	at   time.Time
	line string
	err  error
}

// run holds the resources of one connected period.
type run struct {
	conn        transport.Conn
	ticker      Ticker
	unsubscribe func()

	mailbox  chan message
	tickQuit chan struct{}
	tickDone chan struct{}
	loopQuit chan struct{}
	loopDone chan struct{}

	once  sync.Once
	err   error
	cause error // guarded by Session.mu
}

func (r *run) inbound(ev transport.Event) {
	m := message{kind: messageLine, line: ev.Line}
	if ev.Err != nil {
		m = message{kind: messageError, err: ev.Err}
	}
	select {
	case r.mailbox <- m:
	case <-r.loopDone:
	}
}

func (s *Session) tickLoop(r *run) {
	defer close(r.tickDone)
	for {
		select {
		case <-r.tickQuit:
			return
		case at := <-r.ticker.C():
			select {
			case r.mailbox <- message{kind: messageTick, at: at}:
			case <-r.tickQuit:
				return
			case <-r.loopDone:
				return
			}
		}
	}
}

func (s *Session) loop(r *run) {
	defer close(r.loopDone)
	for {
		select {
		case <-r.loopQuit:
			return
		case m := <-r.mailbox:
			switch m.kind {
			case messageTick:
				s.handleTick(r)
			case messageLine:
				s.handleLine(m.line)
			case messageError:
				s.metrics.TransportErrors.Inc()
				s.logger.Error("Connection failed", zap.Error(m.err))
				go s.fail(r, m.err)
				return
			}
		}
	}
}

func (s *Session) handleTick(r *run) {
	defer s.metrics.Ticks.Inc()
	if s.closing {
		s.finalize()
	}

	req := s.scheduler.Next()
	if s.scheduler.Wrapped() {
		s.closing = true
		s.closingKind = req.Kind
	}

	cmd := obd.Encode(req)
	if err := r.conn.Write(cmd); err != nil {
		s.metrics.WriteFailures.Inc()
		s.logger.Warn("Write failed, continuing on next tick", zap.Stringer("request", req), zap.Error(err))
		return
	}
	s.lastSent = string(cmd)
}

func (s *Session) handleLine(line string) {
	if obd.IsEcho(s.lastSent, line) {
		s.metrics.EchoesDropped.Inc()
		s.logger.Debug("Dropped echo", zap.String("line", line))
		return
	}

	reading, err := obd.Decode(line)
	if err != nil {
		s.metrics.LinesRejected.Inc()
		s.logger.Debug("Discarded line", zap.String("line", line), zap.Error(err))
		return
	}

	s.aggregator.Record(reading)
	s.metrics.Readings.WithLabelValues(reading.Kind.String()).Inc()

	if s.closing && reading.Kind == s.closingKind {
		s.finalize()
	}
}

// finalize closes the cycle that wrapped last.
func (s *Session) finalize() {
	s.closing = false
	snap, ok := s.aggregator.Finalize(s.now())
	if !ok {
		s.metrics.EmptyCycles.Inc()
		s.logger.Debug("Cycle closed without readings")
		return
	}

	s.mu.Lock()
	s.history = append(s.history, snap)
	n := len(s.history)
	s.mu.Unlock()

	s.metrics.Snapshots.Inc()
	s.logger.Debug("Snapshot recorded", zap.Int("readings", len(snap.Readings)), zap.Int("history", n))
}

// drain handles lines that were queued before the subscription was released.
// Pending ticks are dropped.
func (s *Session) drain(r *run) {
	for {
		select {
		case m := <-r.mailbox:
			if m.kind == messageLine {
				s.handleLine(m.line)
			}
		default:
			return
		}
	}
}

// shutdown releases r in order: timer, subscription, loop, connection. Every
// step runs even if an earlier one panics. Concurrent callers wait for the
// first one to finish.
func (s *Session) shutdown(r *run) error {
	r.once.Do(func() {
		defer func() {
			r.err = multierr.Append(r.err, r.conn.Close())
			s.logger.Info("Connection closed")
		}()
		defer func() {
			close(r.loopQuit)
			<-r.loopDone
			s.drain(r)
			if s.closing {
				s.finalize()
			} else {
				s.aggregator.Discard()
			}
		}()
		defer r.unsubscribe()

		r.ticker.Stop()
		close(r.tickQuit)
		<-r.tickDone
	})
	return r.err
}
