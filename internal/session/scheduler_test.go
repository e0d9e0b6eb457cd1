package session

import (
	"errors"
	"testing"

	"obdlog/internal/obd"
)

func TestNewScheduler_Empty(t *testing.T) {
	if _, err := NewScheduler(nil); !errors.Is(err, ErrEmptyRequests) {
		t.Fatalf("err=%v, want ErrEmptyRequests", err)
	}
	if _, err := NewScheduler([]obd.ParameterRequest{}); !errors.Is(err, ErrEmptyRequests) {
		t.Fatalf("err=%v, want ErrEmptyRequests", err)
	}
}

func TestScheduler_OrderAndWrap(t *testing.T) {
	reqs := obd.DefaultRequests()
	s, err := NewScheduler(reqs)
	if err != nil {
		t.Fatalf("NewScheduler err=%v", err)
	}

	for cycle := 0; cycle < 3; cycle++ {
		for i, want := range reqs {
			got := s.Next()
			if got != want {
				t.Fatalf("cycle %d step %d: got %s, want %s", cycle, i, got, want)
			}
			wantWrap := i == len(reqs)-1
			if s.Wrapped() != wantWrap {
				t.Fatalf("cycle %d step %d: Wrapped()=%v, want %v", cycle, i, s.Wrapped(), wantWrap)
			}
		}
	}
}

func TestScheduler_SingleRequestWrapsEveryCall(t *testing.T) {
	s, err := NewScheduler(obd.DefaultRequests()[:1])
	if err != nil {
		t.Fatalf("NewScheduler err=%v", err)
	}
	for i := 0; i < 3; i++ {
		s.Next()
		if !s.Wrapped() {
			t.Fatalf("call %d did not wrap", i)
		}
	}
}

func TestScheduler_CopiesRequests(t *testing.T) {
	reqs := obd.DefaultRequests()
	s, _ := NewScheduler(reqs)
	reqs[0] = reqs[1]

	if got := s.Next(); got.PID != obd.PIDEngineRPM {
		t.Fatalf("scheduler saw caller mutation: got %s", got)
	}
}

func TestScheduler_Reset(t *testing.T) {
	s, _ := NewScheduler(obd.DefaultRequests())
	s.Next()
	s.Next()
	s.Reset()
	if got := s.Next(); got.PID != obd.PIDEngineRPM {
		t.Fatalf("after Reset got %s, want first request", got)
	}
	if s.Wrapped() {
		t.Fatalf("Wrapped() true right after Reset")
	}
}
