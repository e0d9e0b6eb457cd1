package session

import (
	"errors"

	"obdlog/internal/obd"
)

var ErrEmptyRequests = errors.New("session: at least one parameter request required")

// Scheduler hands out parameter requests in a fixed order, wrapping after the
// last one.
type Scheduler struct {
	requests []obd.ParameterRequest
	cursor   int
	wrapped  bool
}

// NewScheduler copies requests; the list is never mutated afterwards.
func NewScheduler(requests []obd.ParameterRequest) (*Scheduler, error) {
	if len(requests) == 0 {
		return nil, ErrEmptyRequests
	}
	return &Scheduler{requests: append([]obd.ParameterRequest(nil), requests...)}, nil
}

// Next returns the request at the cursor and advances it.
func (s *Scheduler) Next() obd.ParameterRequest {
	req := s.requests[s.cursor]
	s.cursor = (s.cursor + 1) % len(s.requests)
	s.wrapped = s.cursor == 0
	return req
}

// Wrapped reports whether the last call to Next completed a cycle.
func (s *Scheduler) Wrapped() bool {
	return s.wrapped
}

// Len is the cycle length.
func (s *Scheduler) Len() int {
	return len(s.requests)
}

// Reset moves the cursor back to the first request.
func (s *Scheduler) Reset() {
	s.cursor = 0
	s.wrapped = false
}
