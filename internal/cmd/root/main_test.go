package root

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"obdlog/internal/config"
	"obdlog/internal/obd/mock"
	"obdlog/internal/transport"

	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"
)

func TestNewDialer(t *testing.T) {
	logger := zaptest.NewLogger(t)

	d, addr, err := newDialer(&config.Config{Mock: true, Address: "/dev/rfcomm0"}, logger)
	if err != nil {
		t.Fatalf("mock: err=%v", err)
	}
	if _, ok := d.(mock.Dialer); !ok || addr != mockAddress {
		t.Errorf("mock: got %T at %q", d, addr)
	}

	d, addr, err = newDialer(&config.Config{Address: "/dev/ttyUSB0", Backend: transport.BackendBugst, Baud: 9600}, logger)
	if err != nil {
		t.Fatalf("bugst: err=%v", err)
	}
	if bd, ok := d.(transport.BugstDialer); !ok || bd.Baud != 9600 || addr != "/dev/ttyUSB0" {
		t.Errorf("bugst: got %#v at %q", d, addr)
	}

	if _, _, err := newDialer(&config.Config{Address: "/dev/ttyUSB0", Backend: "usb"}, logger); err == nil {
		t.Errorf("unknown backend accepted")
	}
}

func TestRecord_MockHeadless(t *testing.T) {
	fs := afero.NewMemMapFs()
	var out bytes.Buffer
	cfg := &config.Config{
		Mock:     true,
		Echo:     true,
		NoTUI:    true,
		Period:   10 * time.Millisecond,
		Duration: 500 * time.Millisecond,
		Output:   "trips/run.csv",
	}

	if err := record(context.Background(), cfg, fs, &out, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("record err=%v", err)
	}

	data, err := afero.ReadFile(fs, "trips/run.csv")
	if err != nil {
		t.Fatalf("ReadFile err=%v", err)
	}
	rows := strings.Split(strings.TrimSpace(string(data)), "\n")
	if rows[0] != "Time,EngineRpm,VehicleSpeed,CoolantTemperature,FuelLevel" {
		t.Errorf("header = %q", rows[0])
	}
	if len(rows) < 2 {
		t.Errorf("no snapshot rows recorded")
	}
	if !strings.Contains(out.String(), "trips/run.csv") {
		t.Errorf("summary = %q", out.String())
	}
}

func TestRecord_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &config.Config{Mock: true, NoTUI: true, Period: 10 * time.Millisecond}
	if err := record(ctx, cfg, afero.NewMemMapFs(), &bytes.Buffer{}, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("record with canceled context succeeded")
	}
}
