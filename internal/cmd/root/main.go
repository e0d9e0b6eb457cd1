package root

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"obdlog/internal/api/rest"
	"obdlog/internal/config"
	"obdlog/internal/displayer"
	"obdlog/internal/export"
	"obdlog/internal/metrics"
	"obdlog/internal/obd/mock"
	"obdlog/internal/session"
	"obdlog/internal/transport"
	"obdlog/pkg/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	mockAddress     = "mock"
	mockLatency     = 20 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

func Run(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := record(ctx, cfg, afero.NewOsFs(), os.Stdout, log.Logger()); err != nil {
		log.Fatal("recording failed", zap.Error(err))
	}
}

// record runs one session until ctx is done, the configured duration
// elapses, the user quits the TUI or the connection fails, then exports the
// history to fs.
func record(ctx context.Context, cfg *config.Config, fs afero.Fs, out io.Writer, logger *zap.Logger) error {
	dialer, address, err := newDialer(cfg, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := session.New(dialer, session.Config{
		Period:  cfg.Period,
		Logger:  logger,
		Metrics: metrics.NewSession(reg),
	})
	if err != nil {
		return err
	}

	if err := s.Start(ctx, address); err != nil {
		return err
	}

	if cfg.HTTP != "" {
		srv := rest.NewServer(cfg.HTTP, s, reg, logger)
		if err := srv.Start(); err != nil {
			s.Stop()
			return fmt.Errorf("start http view: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("HTTP shutdown failed", zap.Error(err))
			}
		}()
	}

	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	if cfg.NoTUI {
		select {
		case <-ctx.Done():
		case <-s.Done():
		}
	} else {
		d := displayer.New(s)
		go func() {
			select {
			case <-ctx.Done():
			case <-s.Done():
			}
			d.Shutdown()
		}()
		if err := d.Run(); err != nil {
			logger.Error("TUI failed", zap.Error(err))
		}
		d.Shutdown()
	}

	if err := s.Stop(); err != nil {
		logger.Warn("Session teardown reported errors", zap.Error(err))
	}
	if err := s.Err(); err != nil {
		logger.Error("Session ended on connection failure", zap.Error(err))
	}

	history := s.History()
	path := cfg.OutputPath(s.ID())
	if err := export.NewWriter(fs, logger).WriteFile(path, history); err != nil {
		return err
	}
	fmt.Fprintf(out, "Recorded %d snapshots to %s\n", len(history), path)
	return nil
}

func newDialer(cfg *config.Config, logger *zap.Logger) (transport.Dialer, string, error) {
	if cfg.Mock {
		return mock.Dialer{
			Options: mock.Options{Echo: cfg.Echo, Latency: mockLatency},
			Logger:  logger,
		}, mockAddress, nil
	}

	dialer, err := transport.NewDialer(cfg.Address, transport.Options{
		Backend: cfg.Backend,
		Baud:    cfg.Baud,
		Init:    transport.DefaultInit,
		Logger:  logger,
	})
	if err != nil {
		return nil, "", err
	}
	return dialer, cfg.Address, nil
}
