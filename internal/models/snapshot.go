package models

import (
	"maps"
	"time"
)

// Snapshot is the set of readings collected during one poll cycle.
// Readings may be partial; absent kinds were not answered in that cycle.
type Snapshot struct {
	Timestamp time.Time               `json:"timestamp"`
	Readings  map[ReadingKind]float64 `json:"readings"`
}

// Value returns the reading for k, if the cycle produced one.
func (s Snapshot) Value(k ReadingKind) (float64, bool) {
	v, ok := s.Readings[k]
	return v, ok
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Timestamp: s.Timestamp,
		Readings:  maps.Clone(s.Readings),
	}
}
