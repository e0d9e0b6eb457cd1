package models

import "fmt"

// ReadingKind is a physical quantity the adapter can report.
type ReadingKind int

const (
	EngineRpm ReadingKind = iota
	VehicleSpeed
	CoolantTemperature
	FuelLevel
)

var kindNames = [...]string{
	EngineRpm:          "EngineRpm",
	VehicleSpeed:       "VehicleSpeed",
	CoolantTemperature: "CoolantTemperature",
	FuelLevel:          "FuelLevel",
}

var kindUnits = [...]string{
	EngineRpm:          "rpm",
	VehicleSpeed:       "km/h",
	CoolantTemperature: "°C",
	FuelLevel:          "%",
}

// Kinds returns every kind in column order.
func Kinds() []ReadingKind {
	return []ReadingKind{EngineRpm, VehicleSpeed, CoolantTemperature, FuelLevel}
}

func (k ReadingKind) Valid() bool {
	return k >= EngineRpm && k <= FuelLevel
}

func (k ReadingKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("ReadingKind(%d)", int(k))
	}
	return kindNames[k]
}

// Unit returns the display unit of the quantity.
func (k ReadingKind) Unit() string {
	if !k.Valid() {
		return ""
	}
	return kindUnits[k]
}

// MarshalText lets kinds be used as JSON object keys.
func (k ReadingKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid reading kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *ReadingKind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = ReadingKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown reading kind %q", text)
}

// Reading is one decoded value.
type Reading struct {
	Kind  ReadingKind
	Value float64
}

func (r Reading) String() string {
	return fmt.Sprintf("%s=%g%s", r.Kind, r.Value, r.Kind.Unit())
}
