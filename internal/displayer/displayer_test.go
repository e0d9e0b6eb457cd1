package displayer

import (
	"errors"
	"testing"
	"time"

	"obdlog/internal/models"
	"obdlog/internal/session"
)

func TestFormatValue(t *testing.T) {
	snap := models.Snapshot{Readings: map[models.ReadingKind]float64{
		models.EngineRpm: 1726,
		models.FuelLevel: 50.2,
	}}

	tests := []struct {
		kind models.ReadingKind
		want string
	}{
		{models.EngineRpm, "1726 rpm"},
		{models.FuelLevel, "50.2 %"},
		{models.VehicleSpeed, "--"},
	}
	for _, tt := range tests {
		if got := formatValue(snap, tt.kind); got != tt.want {
			t.Errorf("formatValue(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		state session.State
		err   error
		want  string
	}{
		{session.StateConnected, nil, "Status: [green]connected[white]"},
		{session.StateConnecting, nil, "Status: [yellow]connecting[white]"},
		{session.StateIdle, nil, "Status: [red]disconnected[white]"},
		{session.StateFailed, errors.New("read: EOF"), "Status: [red]failed[white]: read: EOF"},
	}
	for _, tt := range tests {
		if got := statusLine(tt.state, tt.err); got != tt.want {
			t.Errorf("statusLine(%s) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestFillHistory(t *testing.T) {
	d := New(nil)
	tbl := d.buildHistory()

	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	var history []models.Snapshot
	for i := 0; i < historyRows+10; i++ {
		history = append(history, models.Snapshot{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Readings:  map[models.ReadingKind]float64{models.EngineRpm: float64(i)},
		})
	}

	fillHistory(tbl, history)
	if got := tbl.GetRowCount(); got != historyRows+1 {
		t.Fatalf("rows = %d, want %d", got, historyRows+1)
	}
	if got := tbl.GetCell(1, 1).Text; got != "59" {
		t.Errorf("newest rpm = %q, want 59", got)
	}
	if got := tbl.GetCell(1, 2).Text; got != "--" {
		t.Errorf("absent speed = %q, want --", got)
	}

	fillHistory(tbl, history[:1])
	if got := tbl.GetRowCount(); got != 2 {
		t.Errorf("rows after shrink = %d, want 2", got)
	}
}
