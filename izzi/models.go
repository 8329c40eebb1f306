package izzi

import (
	"strconv"
)

type SensorID string

// Sensors decoded from status frames
const (
	SensorTemperatureOutdoor SensorID = "temperature_outdoor"
	SensorTemperatureSupply  SensorID = "temperature_supply"
	SensorTemperatureExtract SensorID = "temperature_extract"
	SensorTemperatureExhaust SensorID = "temperature_exhaust"
	SensorBypassState        SensorID = "bypass_state"
	SensorCoverState         SensorID = "cover_state"
	SensorDefrostState       SensorID = "defrost_state"
	SensorHumidity           SensorID = "humidity"
	SensorCO2Level           SensorID = "co2_level"
	SensorSupplySpeed        SensorID = "supply_speed"
	SensorExtractSpeed       SensorID = "extract_speed"
	SensorHigroCO2Status     SensorID = "higro_co2_status"
)

// Commanded values, mirrored from the command frame buffer
const (
	SensorFanSupplySpeed  SensorID = "fan_supply_speed"
	SensorFanExtractSpeed SensorID = "fan_extract_speed"
	SensorUnitState       SensorID = "unit_state"
	SensorBypassTemp      SensorID = "bypass_temp"
	SensorBypassMode      SensorID = "bypass_mode"
	SensorVentPreset      SensorID = "vent_preset"
	SensorHigroCO2State   SensorID = "higro_co2_state"
	SensorSupplyState     SensorID = "supply_state"
	SensorExtractState    SensorID = "extract_state"
)

// Virtual values without a frame field
const (
	SensorVentMode            SensorID = "vent_mode"
	SensorEfficiency          SensorID = "efficiency"
	SensorCFSupplyCorrection  SensorID = "cf_supply_correction"
	SensorCFExtractCorrection SensorID = "cf_extract_correction"
	SensorExtractCorrection   SensorID = "extract_correction"
	SensorFanSpeed            SensorID = "fan_speed"
)

// Reading is a published value. Valid is false when the value is unknown,
// e.g. an efficiency that could not be computed.
type Reading struct {
	Value int
	Valid bool
}

func Known(value int) Reading {
	return Reading{Value: value, Valid: true}
}

func (r Reading) String() string {
	if !r.Valid {
		return "unknown"
	}
	return strconv.Itoa(r.Value)
}

// Listener receives every observed or computed change. It is called from the
// controller loop and must not block for long.
type Listener func(id SensorID, reading Reading)

// Scale maps a logical command target onto the raw byte written to the frame.
// The zero value is NoScale.
type Scale struct {
	factor float64
	set    bool
}

var NoScale = Scale{}

func ScaleBy(factor float64) Scale {
	return Scale{factor: factor, set: true}
}

// Apply returns the raw value for target, truncating towards zero.
func (s Scale) Apply(target int) int {
	if !s.set {
		return target
	}
	return int(float64(target) * s.factor)
}
