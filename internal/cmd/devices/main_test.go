package devices

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"obdlog/internal/transport"
)

type fakeDiscoverer struct {
	devs []transport.Device
	err  error
}

func (f fakeDiscoverer) ListPairedDevices() ([]transport.Device, error) { return f.devs, f.err }

func TestList(t *testing.T) {
	var buf bytes.Buffer
	err := list(&buf, fakeDiscoverer{devs: []transport.Device{
		{Address: "/dev/rfcomm0", DisplayName: "/dev/rfcomm0"},
		{Address: "/dev/ttyUSB0", DisplayName: "FT232R USB UART (0403:6001)"},
	}})
	if err != nil {
		t.Fatalf("list err=%v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ADDRESS") || !strings.Contains(lines[2], "FT232R USB UART (0403:6001)") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestList_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := list(&buf, fakeDiscoverer{}); err != nil {
		t.Fatalf("list err=%v", err)
	}
	if buf.String() != "No devices found.\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestList_Error(t *testing.T) {
	boom := errors.New("enumeration failed")
	if err := list(&bytes.Buffer{}, fakeDiscoverer{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("err=%v, want %v", err, boom)
	}
}
