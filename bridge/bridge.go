package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/victorjacobs/go-izzi/config"
	"github.com/victorjacobs/go-izzi/homeassistant"
	"github.com/victorjacobs/go-izzi/izzi"
	"github.com/victorjacobs/go-izzi/ui"
)

// Controller is the part of izzi.Controller the bridge drives.
type Controller interface {
	Role() izzi.Role

	SetUnitOn(on bool) bool
	SetSpeed(speed int) bool
	SetFanSpeedRaw(supply int, extract int) bool
	SetVentPreset(preset int) bool
	SetVentMode(mode int) bool
	SetBypassMode(mode int) bool
	SetBypassTemp(temp int) bool
	SetCorrection(correction int) bool
	FeedCFParams(supply float64, extract float64) bool
	ResetCFBias() bool
	ForceUpdate(id izzi.SensorID) bool
}

type ductValues struct {
	Supply  *float64 `json:"supply"`
	Extract *float64 `json:"extract"`
}

type commandHandler func(c Controller, payload string) (bool, error)

var commandHandlers = map[string]commandHandler{
	"unit": func(c Controller, payload string) (bool, error) {
		switch strings.ToUpper(payload) {
		case "ON":
			return c.SetUnitOn(true), nil
		case "OFF":
			return c.SetUnitOn(false), nil
		}
		return false, fmt.Errorf("expected ON or OFF, got %q", payload)
	},
	"speed": func(c Controller, payload string) (bool, error) {
		speed, err := strconv.Atoi(payload)
		if err != nil {
			return false, err
		}
		return c.SetSpeed(speed), nil
	},
	"speed_raw": func(c Controller, payload string) (bool, error) {
		values, err := parseDuctValues(payload)
		if err != nil {
			return false, err
		}
		return c.SetFanSpeedRaw(int(*values.Supply), int(*values.Extract)), nil
	},
	"preset": func(c Controller, payload string) (bool, error) {
		preset, ok := indexOf(ventPresetNames, payload)
		if !ok {
			return false, fmt.Errorf("unknown preset %q", payload)
		}
		return c.SetVentPreset(preset), nil
	},
	"vent_mode": func(c Controller, payload string) (bool, error) {
		mode, ok := indexOf(ventModeNames, payload)
		if !ok {
			return false, fmt.Errorf("unknown vent mode %q", payload)
		}
		return c.SetVentMode(mode), nil
	},
	"bypass_mode": func(c Controller, payload string) (bool, error) {
		mode, ok := indexOf(bypassModeNames, payload)
		if !ok {
			return false, fmt.Errorf("unknown bypass mode %q", payload)
		}
		return c.SetBypassMode(mode), nil
	},
	"bypass_temp": func(c Controller, payload string) (bool, error) {
		temp, err := strconv.Atoi(payload)
		if err != nil {
			return false, err
		}
		return c.SetBypassTemp(temp), nil
	},
	"correction": func(c Controller, payload string) (bool, error) {
		correction, err := strconv.Atoi(payload)
		if err != nil {
			return false, err
		}
		return c.SetCorrection(correction), nil
	},
	"cf_params": func(c Controller, payload string) (bool, error) {
		values, err := parseDuctValues(payload)
		if err != nil {
			return false, err
		}
		return c.FeedCFParams(*values.Supply, *values.Extract), nil
	},
	"cf_reset": func(c Controller, payload string) (bool, error) {
		return c.ResetCFBias(), nil
	},
}

func parseDuctValues(payload string) (*ductValues, error) {
	values := &ductValues{}
	if err := json.Unmarshal([]byte(payload), values); err != nil {
		return nil, err
	}
	if values.Supply == nil || values.Extract == nil {
		return nil, fmt.Errorf("missing supply or extract in %q", payload)
	}
	return values, nil
}

// Bridge mirrors controller notifications to MQTT and turns MQTT commands
// into controller setter calls.
type Bridge struct {
	controller      Controller
	name            string
	topicPrefix     string
	discoveryPrefix string

	// latest reading per sensor not yet published
	pending cmap.ConcurrentMap[string, izzi.Reading]
	wake    chan struct{}
}

func New(cfg *config.Configuration, controller Controller) *Bridge {
	return &Bridge{
		controller:      controller,
		name:            cfg.Name,
		topicPrefix:     cfg.Mqtt.TopicPrefix,
		discoveryPrefix: cfg.Mqtt.DiscoveryPrefix,
		pending:         cmap.New[izzi.Reading](),
		wake:            make(chan struct{}, 1),
	}
}

// Listen queues a notification for publishing. It never blocks, so it is safe
// to use as the controller's listener.
func (b *Bridge) Listen(id izzi.SensorID, reading izzi.Reading) {
	b.pending.Set(string(id), reading)
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Bridge) StateTopic(id izzi.SensorID) string {
	return fmt.Sprintf("%v/%v", b.topicPrefix, id)
}

func (b *Bridge) CommandTopic(command string) string {
	return fmt.Sprintf("%v/%v/set", b.topicPrefix, command)
}

// OnConnect sets up discovery and subscriptions. It is called from the MQTT
// connect handler so everything is restored after a reconnect.
func (b *Bridge) OnConnect(mqttClient mqtt.Client) {
	ui.Info("Connected to MQTT broker")

	if err := b.RegisterSensors(mqttClient); err != nil {
		ui.Error("Registering sensors failed: %v", err)
	}

	if b.controller.Role() == izzi.Master {
		if err := b.RegisterFan(mqttClient); err != nil {
			ui.Error("Registering fan failed: %v", err)
		}
		b.SubscribeToCommands(mqttClient)
	}

	// the broker might have lost retained states
	for _, id := range izzi.SensorIDs() {
		b.controller.ForceUpdate(id)
	}
}

func (b *Bridge) RegisterFan(mqttClient mqtt.Client) error {
	homeAssistantClient := homeassistant.NewClient(mqttClient, b.discoveryPrefix, b.name)

	return homeAssistantClient.RegisterFan(homeassistant.FanTopics{
		State:             b.StateTopic(izzi.SensorUnitState),
		Command:           b.CommandTopic("unit"),
		PercentageState:   b.StateTopic(izzi.SensorFanSpeed),
		PercentageCommand: b.CommandTopic("speed"),
		PresetState:       b.StateTopic(izzi.SensorVentPreset),
		PresetCommand:     b.CommandTopic("preset"),
	}, ventPresetNames)
}

func (b *Bridge) RegisterSensors(mqttClient mqtt.Client) error {
	homeAssistantClient := homeassistant.NewClient(mqttClient, b.discoveryPrefix, b.name)

	for _, sensorConfig := range sensorDefinitions {
		id := string(sensorConfig.id)
		if err := homeAssistantClient.RegisterSensor(id, sensorConfig.name, sensorConfig.class, sensorConfig.unit, b.StateTopic(sensorConfig.id)); err != nil {
			return err
		}
		ui.Debug("Registered sensor %v", sensorConfig.name)
	}

	return nil
}

func (b *Bridge) SubscribeToCommands(mqttClient mqtt.Client) {
	for command := range commandHandlers {
		command := command
		topic := b.CommandTopic(command)
		if t := mqttClient.Subscribe(topic, 0, func(client mqtt.Client, msg mqtt.Message) {
			b.HandleCommand(command, string(msg.Payload()))
		}); t.Wait() && t.Error() != nil {
			ui.Error("MQTT subscribe to %v failed: %v", topic, t.Error())
		}
	}
}

// HandleCommand applies a single command and reports whether it was accepted.
func (b *Bridge) HandleCommand(command string, payload string) bool {
	handler, ok := commandHandlers[command]
	if !ok {
		ui.Warning("Unknown command %v", command)
		return false
	}

	payload = strings.TrimSpace(payload)
	accepted, err := handler(b.controller, payload)
	if err != nil {
		ui.Error("Invalid %v command %q: %v", command, payload, err)
		return false
	}
	if !accepted {
		ui.Warning("Rejected %v command %q", command, payload)
		return false
	}

	ui.Debug("Applied %v command %q", command, payload)
	return true
}

// Run publishes queued notifications until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, mqttClient mqtt.Client) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.wake:
			b.PublishPending(mqttClient)
		}
	}
}

func (b *Bridge) PublishPending(mqttClient mqtt.Client) {
	for _, key := range b.pending.Keys() {
		reading, ok := b.pending.Pop(key)
		if !ok {
			continue
		}

		id := izzi.SensorID(key)
		state := sensorDefinition(id).State(reading)
		if t := mqttClient.Publish(b.StateTopic(id), 0, true, state); t.Wait() && t.Error() != nil {
			ui.Error("MQTT publishing failed: %v", t.Error())
			continue
		}
	}
}
