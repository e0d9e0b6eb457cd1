package obd

import "testing"

func TestIsEcho(t *testing.T) {
	tests := []struct {
		name     string
		lastSent string
		line     string
		want     bool
	}{
		{"exact echo", "010C", "010C", true},
		{"echo with cr", "010C\r", "010C\r", true},
		{"echo with spaces", "010C", "01 0C", true},
		{"echo lower case", "010c", "010C", true},
		{"genuine reply", "010C", "41 0C 1A F8", false},
		{"reply spelling the command", "010C", "41 0D 01 0C", false},
		{"reply packed spelling the command", "010D", "410D010D", false},
		{"other command", "010C", "010D", false},
		{"nothing sent yet", "", "010C", false},
		{"noise", "010C", "SEARCHING...", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEcho(tt.lastSent, tt.line); got != tt.want {
				t.Errorf("IsEcho(%q, %q) = %v, want %v", tt.lastSent, tt.line, got, tt.want)
			}
		})
	}
}

func TestIsEcho_ProducesNoReading(t *testing.T) {
	req := DefaultRequests()[0]
	sent := string(Encode(req))
	line := req.PID.String()

	if !IsEcho(sent, line) {
		t.Fatalf("expected %q to be classified as echo of %q", line, sent)
	}
	if _, err := Decode(line); err == nil {
		t.Fatalf("echo line %q decoded into a reading", line)
	}
}
