package bridge

import "github.com/victorjacobs/go-izzi/izzi"

var sensorDefinitions = [...]*sensorConfiguration{
	{
		id:    izzi.SensorTemperatureOutdoor,
		name:  "Outdoor Temperature",
		class: "temperature",
		unit:  "°C",
	},
	{
		id:    izzi.SensorTemperatureSupply,
		name:  "Supply Temperature",
		class: "temperature",
		unit:  "°C",
	},
	{
		id:    izzi.SensorTemperatureExtract,
		name:  "Extract Temperature",
		class: "temperature",
		unit:  "°C",
	},
	{
		id:    izzi.SensorTemperatureExhaust,
		name:  "Exhaust Temperature",
		class: "temperature",
		unit:  "°C",
	},
	{
		id:   izzi.SensorBypassState,
		name: "Bypass State",
		unit: "%",
	},
	{
		id:     izzi.SensorCoverState,
		name:   "Intake Cover",
		format: coverState,
	},
	{
		id:     izzi.SensorDefrostState,
		name:   "Defrost",
		format: mapping(onOffNames),
	},
	{
		id:    izzi.SensorHumidity,
		name:  "Humidity",
		class: "humidity",
		unit:  "%",
	},
	{
		id:   izzi.SensorCO2Level,
		name: "PPM",
		unit: "ppm",
	},
	{
		id:   izzi.SensorSupplySpeed,
		name: "Current Supply Speed",
		unit: "m/s",
	},
	{
		id:   izzi.SensorExtractSpeed,
		name: "Current Extract Speed",
		unit: "m/s",
	},
	{
		id:     izzi.SensorHigroCO2Status,
		name:   "Humidity/CO2 Auto Status",
		format: mapping(onOffNames),
	},
	{
		id:   izzi.SensorFanSupplySpeed,
		name: "Supply Fan Speed",
		unit: "%",
	},
	{
		id:   izzi.SensorFanExtractSpeed,
		name: "Extract Fan Speed",
		unit: "%",
	},
	{
		id:     izzi.SensorUnitState,
		name:   "Unit",
		format: unitState,
	},
	{
		id:   izzi.SensorBypassTemp,
		name: "Bypass Temp",
		unit: "°C",
	},
	{
		id:     izzi.SensorBypassMode,
		name:   "Bypass Mode",
		format: mapping(bypassModeNames),
	},
	{
		id:     izzi.SensorVentPreset,
		name:   "Current Fan Mode Setting",
		format: mapping(ventPresetNames),
	},
	{
		id:     izzi.SensorHigroCO2State,
		name:   "Humidity/CO2 Auto Mode",
		format: mapping(onOffNames),
	},
	{
		id:     izzi.SensorSupplyState,
		name:   "Supply Fan",
		format: mapping(onOffNames),
	},
	{
		id:     izzi.SensorExtractState,
		name:   "Extract Fan",
		format: mapping(onOffNames),
	},
	{
		id:     izzi.SensorVentMode,
		name:   "Vent Mode",
		format: mapping(ventModeNames),
	},
	{
		id:   izzi.SensorEfficiency,
		name: "Efficiency",
		unit: "%",
	},
	{
		id:   izzi.SensorCFSupplyCorrection,
		name: "CF Supply Correction",
		unit: "%",
	},
	{
		id:   izzi.SensorCFExtractCorrection,
		name: "CF Extract Correction",
		unit: "%",
	},
	{
		id:   izzi.SensorFanSpeed,
		name: "Fan Speed",
		unit: "%",
	},
	{
		id:   izzi.SensorExtractCorrection,
		name: "Extract Correction",
		unit: "%",
	},
}

func sensorDefinition(id izzi.SensorID) *sensorConfiguration {
	for _, s := range sensorDefinitions {
		if s.id == id {
			return s
		}
	}
	return &sensorConfiguration{id: id, name: string(id)}
}
