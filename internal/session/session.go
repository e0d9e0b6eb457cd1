// Package session runs one telemetry acquisition session: it owns the adapter
// connection, polls the configured parameters on a fixed period, decodes the
// replies and keeps the history of per-cycle snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"obdlog/internal/metrics"
	"obdlog/internal/models"
	"obdlog/internal/obd"
	"obdlog/internal/transport"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPeriod = 500 * time.Millisecond

	mailboxSize = 64
)

var ErrSessionActive = errors.New("session: already started")

// Ticker is the periodic clock driving the poll loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type Config struct {
	// Requests defines polling order and cycle length. Defaults to obd.DefaultRequests().
	Requests []obd.ParameterRequest
	Period   time.Duration
	Logger   *zap.Logger
	Metrics  *metrics.Session

	Now       func() time.Time
	NewTicker func(time.Duration) Ticker
}

type Session struct {
	id        string
	dialer    transport.Dialer
	period    time.Duration
	logger    *zap.Logger
	metrics   *metrics.Session
	now       func() time.Time
	newTicker func(time.Duration) Ticker

	// Owned by the loop goroutine while connected.
	scheduler   *Scheduler
	aggregator  *Aggregator
	lastSent    string
	closing     bool
	closingKind models.ReadingKind

	mu      sync.RWMutex
	state   State
	history []models.Snapshot
	run     *run
	err     error
	done    chan struct{}
}

func New(dialer transport.Dialer, cfg Config) (*Session, error) {
	requests := cfg.Requests
	if requests == nil {
		requests = obd.DefaultRequests()
	}
	scheduler, err := NewScheduler(requests)
	if err != nil {
		return nil, err
	}
	if cfg.Period < 0 {
		return nil, fmt.Errorf("session: period must be > 0, got %s", cfg.Period)
	}
	if cfg.Period == 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewSession(nil)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = newTimeTicker
	}

	id := uuid.NewString()
	done := make(chan struct{})
	close(done)

	return &Session{
		id:         id,
		dialer:     dialer,
		period:     cfg.Period,
		logger:     cfg.Logger.With(zap.String("session_id", id)),
		metrics:    cfg.Metrics,
		now:        cfg.Now,
		newTicker:  cfg.NewTicker,
		scheduler:  scheduler,
		aggregator: NewAggregator(),
		state:      StateIdle,
		done:       done,
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the transport error that ended the last run, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Done is closed when the current run ends, by Stop or by a transport failure.
func (s *Session) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// History returns a point-in-time copy of the finalized snapshots.
func (s *Session) History() []models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Snapshot, len(s.history))
	for i, snap := range s.history {
		out[i] = snap.Clone()
	}
	return out
}

// Latest returns a copy of the most recent snapshot.
func (s *Session) Latest() (models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return models.Snapshot{}, false
	}
	return s.history[len(s.history)-1].Clone(), true
}

// Start opens the adapter at address and begins polling. ctx bounds the open
// only. Starting an active session is an error.
func (s *Session) Start(ctx context.Context, address string) error {
	s.mu.Lock()
	if s.state.active() {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrSessionActive, state)
	}
	s.err = nil
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	s.logger.Info("Opening connection", zap.String("address", address))
	conn, err := s.dialer.Open(ctx, address)
	if err != nil {
		s.logger.Error("Failed to open connection", zap.String("address", address), zap.Error(err))
		s.mu.Lock()
		s.err = err
		s.setStateLocked(StateFailed)
		s.mu.Unlock()
		return fmt.Errorf("open %s: %w", address, err)
	}

	s.scheduler.Reset()
	s.aggregator.Discard()
	s.lastSent = ""
	s.closing = false

	r := &run{
		conn:     conn,
		mailbox:  make(chan message, mailboxSize),
		tickQuit: make(chan struct{}),
		tickDone: make(chan struct{}),
		loopQuit: make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	r.unsubscribe = conn.Subscribe(r.inbound)
	r.ticker = s.newTicker(s.period)

	s.mu.Lock()
	s.run = r
	s.done = make(chan struct{})
	s.setStateLocked(StateConnected)
	s.mu.Unlock()

	go s.tickLoop(r)
	go s.loop(r)

	s.logger.Info("Session started", zap.Duration("period", s.period), zap.Int("cycle", s.scheduler.Len()))
	return nil
}

// Stop tears the session down: timer first, then the inbound subscription,
// then the connection. It is safe to call repeatedly; once it returns no tick
// or inbound line touches the session any more.
func (s *Session) Stop() error {
	s.mu.Lock()
	r := s.run
	if r == nil {
		s.mu.Unlock()
		return nil
	}
	if s.state == StateConnected {
		s.setStateLocked(StateDisconnecting)
	}
	s.mu.Unlock()

	err := s.shutdown(r)
	s.release(r)
	if err != nil {
		s.logger.Warn("Teardown reported errors", zap.Error(err))
	}
	return err
}

// fail runs when the transport reports a connection-level error.
func (s *Session) fail(r *run, cause error) {
	s.mu.Lock()
	if s.run != r || s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	r.cause = cause
	s.setStateLocked(StateDisconnecting)
	s.mu.Unlock()

	if err := s.shutdown(r); err != nil {
		s.logger.Warn("Teardown reported errors", zap.Error(err))
	}
	s.release(r)
}

func (s *Session) release(r *run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != r {
		return
	}
	s.run = nil
	if r.cause != nil {
		s.err = r.cause
		s.setStateLocked(StateFailed)
	} else {
		s.setStateLocked(StateIdle)
	}
	close(s.done)
}

func (s *Session) setStateLocked(next State) {
	if s.state == next {
		return
	}
	s.logger.Info("Session state changed", zap.String("from", string(s.state)), zap.String("to", string(next)))
	s.state = next
	if next == StateConnected {
		s.metrics.Connected.Set(1)
	} else {
		s.metrics.Connected.Set(0)
	}
}
