package izzi

// sensorEntry is a status frame field. A nil last value forces the next
// decode to count as a change.
type sensorEntry struct {
	id    SensorID
	field Field
	last  *int
}

// commandEntry is a command frame field. forced re-publishes the buffer value
// on the next cycle even if nothing changed, so every entry starts out forced.
type commandEntry struct {
	id     SensorID
	field  Field
	target int
	scale  Scale
	forced bool
}

type virtualEntry struct {
	id        SensorID
	value     Reading
	published *Reading
}

func intPtr(v int) *int {
	return &v
}

func newSensorTable() []*sensorEntry {
	return []*sensorEntry{
		{id: SensorTemperatureSupply, field: Field{statusSupplyTempIndex, Signed}},
		{id: SensorTemperatureExtract, field: Field{statusExtractTempIndex, Signed}},
		{id: SensorTemperatureExhaust, field: Field{statusExhaustTempIndex, Signed}},
		{id: SensorTemperatureOutdoor, field: Field{statusOutdoorTempIndex, Signed}},
		{id: SensorBypassState, field: Field{statusBypassStateIndex, Unsigned}},
		{id: SensorHigroCO2Status, field: Field{statusHigroCO2StateIndex, Unsigned}},
		{id: SensorCoverState, field: Field{statusCoverStateIndex, Unsigned}},
		{id: SensorDefrostState, field: Field{statusDefrostStateIndex, Unsigned}},
		{id: SensorHumidity, field: Field{statusHumidityIndex, Unsigned}},
		{id: SensorCO2Level, field: Field{statusCO2LevelIndex, Unsigned}},
		{id: SensorExtractSpeed, field: Field{statusExtractSpeedIndex, Unsigned}},
		{id: SensorSupplySpeed, field: Field{statusSupplySpeedIndex, Unsigned}},
	}
}

func newCommandTable() []*commandEntry {
	return []*commandEntry{
		{id: SensorFanSupplySpeed, field: Field{commandSupplySpeedIndex, Unsigned}, target: 0, forced: true},
		{id: SensorFanExtractSpeed, field: Field{commandExtractSpeedIndex, Unsigned}, target: 0, forced: true},
		{id: SensorUnitState, field: Field{commandUnitStateIndex, Unsigned}, target: UnitOff, forced: true},
		{id: SensorBypassTemp, field: Field{commandBypassTempIndex, Unsigned}, target: 22, forced: true},
		{id: SensorBypassMode, field: Field{commandBypassModeIndex, Unsigned}, target: BypassModeAuto, forced: true},
		{id: SensorVentPreset, field: Field{commandVentPresetIndex, Unsigned}, target: VentPresetSpeed1, forced: true},
		{id: SensorHigroCO2State, field: Field{commandHigroCO2Index, Unsigned}, target: StateOn, forced: true},
		{id: SensorSupplyState, field: Field{commandSupplyStateIndex, Unsigned}, target: StateOn, forced: true},
		{id: SensorExtractState, field: Field{commandExtractStateIndex, Unsigned}, target: StateOn, forced: true},
	}
}

func newVirtualTable() []*virtualEntry {
	return []*virtualEntry{
		{id: SensorVentMode, value: Known(VentModeNone)},
		{id: SensorEfficiency, value: Known(0)},
		{id: SensorCFExtractCorrection, value: Known(0), published: &Reading{Value: 0, Valid: true}},
		{id: SensorCFSupplyCorrection, value: Known(0), published: &Reading{Value: 0, Valid: true}},
		{id: SensorExtractCorrection, value: Known(0)},
		{id: SensorFanSpeed},
	}
}

// SensorIDs lists every id the controller can publish, in table order.
func SensorIDs() []SensorID {
	var ids []SensorID
	for _, s := range newSensorTable() {
		ids = append(ids, s.id)
	}
	for _, c := range newCommandTable() {
		ids = append(ids, c.id)
	}
	for _, v := range newVirtualTable() {
		ids = append(ids, v.id)
	}
	return ids
}
