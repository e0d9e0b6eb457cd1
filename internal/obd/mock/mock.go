// Package mock simulates an ELM327 adapter attached to a running engine. It
// speaks the adapter's byte protocol, so the session sees it exactly like a
// serial port: commands in, CR-terminated lines and '>' prompts out.
package mock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"obdlog/internal/models"
	"obdlog/internal/obd"
	"obdlog/internal/transport"

	"go.uber.org/zap"
)

const (
	DefaultStep = time.Second

	queueSize = 16
	version   = "ELM327 v1.5"
)

var ErrBusy = errors.New("mock: adapter busy")

// Options shape the simulated vehicle.
type Options struct {
	// Echo reflects every command back before its reply, as ATE1 does.
	Echo bool
	// Values overrides the starting value of a reading kind.
	Values map[models.ReadingKind]float64
	// Frozen keeps values constant instead of random walking them.
	Frozen bool
	// Step is the random walk interval. Defaults to DefaultStep.
	Step time.Duration
	// Latency delays every reply.
	Latency time.Duration
	Seed    int64
}

// Dialer opens simulated adapters. The address is only logged.
type Dialer struct {
	Options Options
	Logger  *zap.Logger
}

func (d Dialer) Open(ctx context.Context, address string) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Opening simulated adapter", zap.String("address", address), zap.Bool("echo", d.Options.Echo))
	return transport.NewStreamConn(New(d.Options), transport.StreamOptions{Logger: logger}), nil
}

// Adapter is the simulated device. It implements io.ReadWriteCloser.
type Adapter struct {
	opts Options

	mu      sync.RWMutex
	values  map[models.ReadingKind]float64
	rng     *rand.Rand
	partial strings.Builder

	pr     *io.PipeReader
	pw     *io.PipeWriter
	queue  chan string
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func New(opts Options) *Adapter {
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	values := map[models.ReadingKind]float64{
		models.EngineRpm:          800,
		models.VehicleSpeed:       0,
		models.CoolantTemperature: 75,
		models.FuelLevel:          60,
	}
	for k, v := range opts.Values {
		values[k] = v
	}

	pr, pw := io.Pipe()
	m := &Adapter{
		opts:   opts,
		values: values,
		rng:    rand.New(rand.NewSource(seed)),
		pr:     pr,
		pw:     pw,
		queue:  make(chan string, queueSize),
		stopCh: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.respond()
	if !opts.Frozen {
		m.wg.Add(1)
		go m.walk()
	}
	return m
}

// Value returns the current simulated value of k.
func (m *Adapter) Value(k models.ReadingKind) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[k]
	return v, ok
}

func (m *Adapter) Read(p []byte) (int, error) {
	return m.pr.Read(p)
}

// Write accepts command bytes. Every CR completes a command, which is
// answered asynchronously.
func (m *Adapter) Write(p []byte) (int, error) {
	select {
	case <-m.stopCh:
		return 0, io.ErrClosedPipe
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range p {
		if b != '\r' {
			m.partial.WriteByte(b)
			continue
		}
		cmd := m.partial.String()
		m.partial.Reset()
		select {
		case m.queue <- cmd:
		default:
			return 0, ErrBusy
		}
	}
	return len(p), nil
}

func (m *Adapter) Close() error {
	m.once.Do(func() {
		close(m.stopCh)
		m.pr.Close()
		m.pw.Close()
		m.wg.Wait()
	})
	return nil
}

func (m *Adapter) respond() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case cmd := <-m.queue:
			if m.opts.Latency > 0 {
				select {
				case <-time.After(m.opts.Latency):
				case <-m.stopCh:
					return
				}
			}
			var out strings.Builder
			if m.opts.Echo {
				out.WriteString(cmd + "\r")
			}
			out.WriteString(m.reply(cmd) + "\r\r>")
			if _, err := io.WriteString(m.pw, out.String()); err != nil {
				return
			}
		}
	}
}

// reply answers one command the way an ELM327 would.
func (m *Adapter) reply(cmd string) string {
	c := strings.ToUpper(strings.Join(strings.Fields(cmd), ""))
	switch {
	case c == obdReset:
		return version
	case strings.HasPrefix(c, "AT"):
		return "OK"
	case len(c) == 4 && strings.HasPrefix(c, "01"):
		return m.dataReply(c[2:])
	default:
		return "?"
	}
}

const obdReset = "ATZ"

func (m *Adapter) dataReply(code string) string {
	var req obd.ParameterRequest
	found := false
	for _, r := range obd.DefaultRequests() {
		if r.PID.Code == code {
			req, found = r, true
			break
		}
	}
	if !found {
		return "NO DATA"
	}
	v, ok := m.Value(req.Kind)
	if !ok {
		return "NO DATA"
	}

	data := encode(req.Kind, v)
	parts := []string{obd.ResponsePrefix, code}
	for _, b := range data {
		parts = append(parts, fmt.Sprintf("%02X", b))
	}
	return strings.Join(parts, " ")
}

// encode is the inverse of the obd decoders.
func encode(k models.ReadingKind, v float64) []byte {
	switch k {
	case models.EngineRpm:
		raw := int(math.Round(clamp(v, 0, 16383.75) * 4))
		return []byte{byte(raw >> 8), byte(raw)}
	case models.VehicleSpeed:
		return []byte{byte(math.Round(clamp(v, 0, 255)))}
	case models.CoolantTemperature:
		return []byte{byte(math.Round(clamp(v+40, 0, 255)))}
	case models.FuelLevel:
		return []byte{byte(math.Round(clamp(v, 0, 100) * 255 / 100))}
	}
	return nil
}

func (m *Adapter) walk() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.opts.Step)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.step()
		case <-m.stopCh:
			return
		}
	}
}

// step advances the simulated engine by one random walk step.
func (m *Adapter) step() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[models.EngineRpm] = clamp(m.values[models.EngineRpm]+float64(m.rng.Intn(201)-100), 600, 4000)
	m.values[models.VehicleSpeed] = clamp(m.values[models.VehicleSpeed]+float64(m.rng.Intn(11)-5), 0, 180)
	m.values[models.CoolantTemperature] = clamp(m.values[models.CoolantTemperature]+float64(m.rng.Intn(21)-10)*0.1, 60, 110)
	m.values[models.FuelLevel] = clamp(m.values[models.FuelLevel]-0.02, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
