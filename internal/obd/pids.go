package obd

import (
	"fmt"

	"obdlog/internal/models"
)

type PID struct {
	Mode string
	Code string
	Desc string
}

var (
	PIDCoolantTemp  = PID{Mode: "01", Code: "05", Desc: "Engine Coolant Temperature"}
	PIDEngineRPM    = PID{Mode: "01", Code: "0C", Desc: "Engine RPM"}
	PIDVehicleSpeed = PID{Mode: "01", Code: "0D", Desc: "Vehicle Speed"}
	PIDFuelLevel    = PID{Mode: "01", Code: "2F", Desc: "Fuel Tank Level Input"}
)

func (p PID) String() string {
	return fmt.Sprintf("%s%s", p.Mode, p.Code)
}

// ParameterRequest pairs a PID with the kind its reply decodes to.
type ParameterRequest struct {
	PID  PID
	Kind models.ReadingKind
}

func (r ParameterRequest) String() string {
	return fmt.Sprintf("%s (%s)", r.PID, r.Kind)
}

// DefaultRequests returns the polling order used by the logger:
// rpm, speed, coolant, fuel.
func DefaultRequests() []ParameterRequest {
	return []ParameterRequest{
		{PID: PIDEngineRPM, Kind: models.EngineRpm},
		{PID: PIDVehicleSpeed, Kind: models.VehicleSpeed},
		{PID: PIDCoolantTemp, Kind: models.CoolantTemperature},
		{PID: PIDFuelLevel, Kind: models.FuelLevel},
	}
}

// RequestFor returns the request that produces readings of kind k.
func RequestFor(k models.ReadingKind) (ParameterRequest, bool) {
	for _, r := range DefaultRequests() {
		if r.Kind == k {
			return r, true
		}
	}
	return ParameterRequest{}, false
}
