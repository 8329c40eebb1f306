package bridge

import (
	"strconv"

	"github.com/victorjacobs/go-izzi/izzi"
)

const unknownState = "unknown"

var (
	bypassModeNames = []string{"auto", "open", "closed"}
	onOffNames      = []string{"off", "on"}
	ventModeNames   = []string{"none", "fireplace", "open windows", "cooker hood"}
	ventPresetNames = []string{"off", "Speed-1", "Speed-2", "Speed-3", "Ventilate", "Fireplace", "Away", "Auto"}
)

type sensorConfiguration struct {
	id     izzi.SensorID
	name   string
	class  string
	unit   string
	format func(value int) string
}

// State renders a reading the way it is published on MQTT.
func (s *sensorConfiguration) State(reading izzi.Reading) string {
	if !reading.Valid {
		return unknownState
	}
	if s.format == nil {
		return strconv.Itoa(reading.Value)
	}
	return s.format(reading.Value)
}

func mapping(names []string) func(value int) string {
	return func(value int) string {
		if value < 0 || value >= len(names) {
			return strconv.Itoa(value)
		}
		return names[value]
	}
}

func unitState(value int) string {
	if value == izzi.UnitOn {
		return "ON"
	}
	return "OFF"
}

func coverState(value int) string {
	if value == izzi.CoverOpen {
		return "open"
	}
	return "closed"
}

// indexOf looks a display name up in one of the mappings. Plain numbers are
// accepted as well.
func indexOf(names []string, value string) (int, bool) {
	for i, name := range names {
		if name == value {
			return i, true
		}
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i, true
	}
	return 0, false
}
