package homeassistant

type device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

type sensorConfiguration struct {
	UniqueId          string  `json:"unique_id"`
	Name              string  `json:"name"`
	DeviceClass       string  `json:"device_class,omitempty"`
	StateTopic        string  `json:"state_topic"`
	UnitOfMeasurement string  `json:"unit_of_measurement,omitempty"`
	Device            *device `json:"device,omitempty"`
}

type fanConfiguration struct {
	UniqueId               string   `json:"unique_id"`
	Name                   string   `json:"name"`
	StateTopic             string   `json:"state_topic"`
	CommandTopic           string   `json:"command_topic"`
	PercentageStateTopic   string   `json:"percentage_state_topic"`
	PercentageCommandTopic string   `json:"percentage_command_topic"`
	PresetModeStateTopic   string   `json:"preset_mode_state_topic"`
	PresetModeCommandTopic string   `json:"preset_mode_command_topic"`
	PresetModes            []string `json:"preset_modes"`
	Device                 *device  `json:"device,omitempty"`
}
