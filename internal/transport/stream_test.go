package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Event, 16)}
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
}

func (r *recorder) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newPipeConn(t *testing.T) (*StreamConn, net.Conn) {
	t.Helper()
	local, peer := net.Pipe()
	c := NewStreamConn(local, StreamOptions{Logger: zaptest.NewLogger(t)})
	t.Cleanup(func() {
		c.Close()
		peer.Close()
	})
	return c, peer
}

func TestStreamConn_SplitsLines(t *testing.T) {
	c, peer := newPipeConn(t)
	rec := newRecorder()
	c.Subscribe(rec.handle)

	go peer.Write([]byte("010C\r41 0C 1A F8\r\r>41 0D 50\n>"))

	want := []string{"010C", "41 0C 1A F8", "41 0D 50"}
	for _, w := range want {
		ev := rec.next(t)
		if ev.Err != nil {
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
		if ev.Line != w {
			t.Errorf("line = %q, want %q", ev.Line, w)
		}
	}
}

func TestStreamConn_DropsControlBytes(t *testing.T) {
	c, peer := newPipeConn(t)
	rec := newRecorder()
	c.Subscribe(rec.handle)

	go peer.Write([]byte("\x0041 05\x07 5A\r"))

	if ev := rec.next(t); ev.Line != "41 05 5A" {
		t.Errorf("line = %q, want %q", ev.Line, "41 05 5A")
	}
}

func TestStreamConn_Write(t *testing.T) {
	c, peer := newPipeConn(t)

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 16)
		n, _ := peer.Read(buf)
		got <- string(buf[:n])
	}()

	if err := c.Write([]byte("010D\r")); err != nil {
		t.Fatalf("Write err=%v", err)
	}
	select {
	case s := <-got:
		if s != "010D\r" {
			t.Errorf("peer read %q, want %q", s, "010D\r")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("peer never received the command")
	}
}

func TestStreamConn_Unsubscribe(t *testing.T) {
	c, peer := newPipeConn(t)
	rec := newRecorder()
	unsubscribe := c.Subscribe(rec.handle)

	go peer.Write([]byte("41 0D 50\r"))
	rec.next(t)

	unsubscribe()
	// the pipe is synchronous: once Write returns the reader has consumed it
	if _, err := peer.Write([]byte("41 0D 51\r")); err != nil {
		t.Fatalf("peer write err=%v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if n := rec.count(); n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
}

func TestStreamConn_ReadErrorDeliveredOnce(t *testing.T) {
	c, peer := newPipeConn(t)
	rec := newRecorder()
	c.Subscribe(rec.handle)

	peer.Close()

	ev := rec.next(t)
	if ev.Err == nil {
		t.Fatalf("expected error event, got line %q", ev.Line)
	}
	if !errors.Is(ev.Err, io.EOF) {
		t.Errorf("err = %v, want EOF", ev.Err)
	}
	time.Sleep(50 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("got %d events, want 1", n)
	}
}

func TestStreamConn_CloseIdempotent(t *testing.T) {
	c, _ := newPipeConn(t)
	rec := newRecorder()
	c.Subscribe(rec.handle)

	if err := c.Close(); err != nil {
		t.Fatalf("first Close err=%v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close err=%v", err)
	}
	if err := c.Write([]byte("010C\r")); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after close err=%v, want ErrClosed", err)
	}
	time.Sleep(50 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("got %d events after local close, want 0", n)
	}
}

type idleEOFStream struct {
	mu     sync.Mutex
	reads  [][]byte
	closed chan struct{}
}

func (s *idleEOFStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	if len(s.reads) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.reads[0])
	s.reads = s.reads[1:]
	return n, nil
}

func (s *idleEOFStream) Write(p []byte) (int, error) { return len(p), nil }

func (s *idleEOFStream) Close() error {
	close(s.closed)
	return nil
}

func TestStreamConn_IdleEOF(t *testing.T) {
	s := &idleEOFStream{closed: make(chan struct{})}
	c := NewStreamConn(s, StreamOptions{IdleEOF: true})
	defer c.Close()

	rec := newRecorder()
	c.Subscribe(rec.handle)

	time.Sleep(30 * time.Millisecond)
	s.mu.Lock()
	s.reads = append(s.reads, []byte("41 05 5A\r>"))
	s.mu.Unlock()

	ev := rec.next(t)
	if ev.Err != nil || ev.Line != "41 05 5A" {
		t.Fatalf("event = %+v, want line 41 05 5A", ev)
	}
}
