package obd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"obdlog/internal/models"
)

const (
	// Delimiter terminates every command written to the adapter.
	Delimiter = "\r"
	// ResponsePrefix leads every mode 01 data response.
	ResponsePrefix = "41"
)

var (
	ErrNotResponse      = errors.New("obd: not a data response")
	ErrUnknownPID       = errors.New("obd: unknown parameter identifier")
	ErrInsufficientData = errors.New("obd: insufficient data bytes")
	ErrInvalidHex       = errors.New("obd: invalid hex byte")
)

type decoder struct {
	kind  models.ReadingKind
	bytes int
	value func(a, b float64) float64
}

var decoders = map[string]decoder{
	PIDEngineRPM.Code: {
		kind:  models.EngineRpm,
		bytes: 2,
		value: func(a, b float64) float64 { return (a*256 + b) / 4 },
	},
	PIDVehicleSpeed.Code: {
		kind:  models.VehicleSpeed,
		bytes: 1,
		value: func(a, _ float64) float64 { return a },
	},
	PIDCoolantTemp.Code: {
		kind:  models.CoolantTemperature,
		bytes: 1,
		value: func(a, _ float64) float64 { return a - 40 },
	},
	PIDFuelLevel.Code: {
		kind:  models.FuelLevel,
		bytes: 1,
		// percent with one decimal, half-up
		value: func(a, _ float64) float64 { return math.Round(a*1000/255) / 10 },
	},
}

// Encode renders req as a wire command, CR terminated.
func Encode(req ParameterRequest) []byte {
	return []byte(req.PID.String() + Delimiter)
}

// Decode parses a single adapter line such as "41 0C 1A F8" (or "410C1AF8"
// with spaces off). Lines that do not carry a usable reading are rejected
// with one of the package errors; none of them are fatal.
func Decode(line string) (models.Reading, error) {
	toks := tokens(line)
	if len(toks) == 0 || toks[0] != ResponsePrefix {
		return models.Reading{}, fmt.Errorf("%w: %q", ErrNotResponse, line)
	}
	if len(toks) < 2 {
		return models.Reading{}, fmt.Errorf("%w: %q", ErrInsufficientData, line)
	}

	dec, ok := decoders[toks[1]]
	if !ok {
		return models.Reading{}, fmt.Errorf("%w: %s", ErrUnknownPID, toks[1])
	}

	data := toks[2:]
	if len(data) < dec.bytes {
		return models.Reading{}, fmt.Errorf("%w: %s wants %d, got %d", ErrInsufficientData, dec.kind, dec.bytes, len(data))
	}

	var ab [2]float64
	for i := 0; i < dec.bytes; i++ {
		v, err := parseHexByte(data[i])
		if err != nil {
			return models.Reading{}, err
		}
		ab[i] = float64(v)
	}

	return models.Reading{Kind: dec.kind, Value: dec.value(ab[0], ab[1])}, nil
}

// tokens splits a response line into upper-case byte tokens. A line without
// separators is cut into 2-character pairs.
func tokens(line string) []string {
	parts := strings.Fields(strings.ToUpper(strings.TrimSpace(line)))
	if len(parts) != 1 || len(parts[0]) <= 2 {
		return parts
	}

	s := parts[0]
	out := make([]string, 0, (len(s)+1)/2)
	for len(s) > 2 {
		out = append(out, s[:2])
		s = s[2:]
	}
	return append(out, s)
}

func parseHexByte(s string) (byte, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return byte(v), nil
}
