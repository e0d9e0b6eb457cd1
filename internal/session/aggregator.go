package session

import (
	"time"

	"obdlog/internal/models"
)

// Aggregator accumulates the readings of the cycle in progress.
type Aggregator struct {
	current map[models.ReadingKind]float64
}

func NewAggregator() *Aggregator {
	return &Aggregator{current: make(map[models.ReadingKind]float64)}
}

// Record stores r, overwriting an earlier value of the same kind.
func (a *Aggregator) Record(r models.Reading) {
	a.current[r.Kind] = r.Value
}

// Pending is the number of kinds collected so far in this cycle.
func (a *Aggregator) Pending() int {
	return len(a.current)
}

// Finalize closes the cycle. It returns a snapshot when at least one reading
// was collected; the accumulator is cleared either way.
func (a *Aggregator) Finalize(at time.Time) (models.Snapshot, bool) {
	if len(a.current) == 0 {
		return models.Snapshot{}, false
	}
	snap := models.Snapshot{Timestamp: at, Readings: a.current}
	a.current = make(map[models.ReadingKind]float64, len(snap.Readings))
	return snap, true
}

// Discard drops the readings of the cycle in progress.
func (a *Aggregator) Discard() {
	clear(a.current)
}
