package homeassistant

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Topics the fan entity reads from and writes to.
type FanTopics struct {
	State             string
	Command           string
	PercentageState   string
	PercentageCommand string
	PresetState       string
	PresetCommand     string
}

type Client struct {
	mqtt            mqtt.Client
	discoveryPrefix string
	device          *device
}

func NewClient(mqtt mqtt.Client, discoveryPrefix string, deviceName string) *Client {
	return &Client{
		mqtt:            mqtt,
		discoveryPrefix: discoveryPrefix,
		device: &device{
			Identifiers:  []string{objectId(deviceName)},
			Name:         deviceName,
			Manufacturer: "iZZi",
			Model:        "ERV 302",
		},
	}
}

func (h *Client) RegisterFan(topics FanTopics, presetModes []string) error {
	uniqueId := objectId(h.device.Name) + "_fan"
	fanConfiguration, _ := json.Marshal(fanConfiguration{
		UniqueId:               uniqueId,
		Name:                   h.device.Name,
		StateTopic:             topics.State,
		CommandTopic:           topics.Command,
		PercentageStateTopic:   topics.PercentageState,
		PercentageCommandTopic: topics.PercentageCommand,
		PresetModeStateTopic:   topics.PresetState,
		PresetModeCommandTopic: topics.PresetCommand,
		PresetModes:            presetModes,
		Device:                 h.device,
	})

	configTopic := fmt.Sprintf("%v/fan/%v/config", h.discoveryPrefix, uniqueId)
	if t := h.mqtt.Publish(configTopic, 0, true, fanConfiguration); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	return nil
}

// RegisterSensor announces a sensor whose state is published on stateTopic.
func (h *Client) RegisterSensor(id string, name string, class string, unit string, stateTopic string) error {
	uniqueId := objectId(h.device.Name) + "_" + id

	sensorConfiguration, _ := json.Marshal(sensorConfiguration{
		UniqueId:          uniqueId,
		Name:              fmt.Sprintf("%v %v", h.device.Name, name),
		DeviceClass:       class,
		StateTopic:        stateTopic,
		UnitOfMeasurement: unit,
		Device:            h.device,
	})

	configTopic := fmt.Sprintf("%v/sensor/%v/config", h.discoveryPrefix, uniqueId)

	if t := h.mqtt.Publish(configTopic, 0, true, sensorConfiguration); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	return nil
}

func objectId(name string) string {
	return strings.Replace(strings.ToLower(name), " ", "_", -1)
}
