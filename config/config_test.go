package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/victorjacobs/go-izzi/izzi"
)

func writeConfig(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfiguration_Defaults(t *testing.T) {
	// GIVEN
	path := writeConfig(t, "izzifast.yaml", "name: Attic\n")

	// WHEN
	c, err := LoadConfiguration(path)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "Attic", c.Name)
	assert.Equal(t, TypeSerial, c.Type)
	assert.Equal(t, "/dev/ttyUSB0", c.SerialPort)
	assert.Equal(t, izzi.DefaultTCPPort, c.Port)
	assert.Equal(t, ModeMaster, c.Mode)
	assert.Equal(t, "auto", c.BypassMode)
	assert.Equal(t, 23, c.BypassTemp)
	assert.Equal(t, 0.0, c.CFParamsMax)
	assert.Equal(t, ":8080", c.Http.Listen)
	assert.Equal(t, "izzifast", c.Mqtt.TopicPrefix)
	assert.Equal(t, "homeassistant", c.Mqtt.DiscoveryPrefix)
	assert.False(t, c.Mqtt.Enabled())
	assert.NoError(t, c.Validate())
}

func TestLoadConfiguration_JSON(t *testing.T) {
	// GIVEN
	path := writeConfig(t, "izzifast.json", `{
		"type": "tcp",
		"host": "10.0.0.7",
		"mode": "slave",
		"extract_correction": -10,
		"bypass_mode": "closed",
		"bypass_temp": 20,
		"cf_params_max": 212.5,
		"mqtt": {"ip_address": "10.0.0.2", "username": "izzi"}
	}`)

	// WHEN
	c, err := LoadConfiguration(path)

	// THEN
	require.NoError(t, err)
	assert.NoError(t, c.Validate())
	assert.Equal(t, TypeTCP, c.Type)
	assert.Equal(t, "10.0.0.7", c.Host)
	assert.Equal(t, izzi.Slave, c.Role())
	assert.Equal(t, -10, c.ExtractCorrection)
	assert.Equal(t, izzi.BypassModeClosed, c.BypassModeValue())
	assert.Equal(t, 20, c.BypassTemp)
	assert.Equal(t, 212.5, c.CFParamsMax)
	assert.True(t, c.Mqtt.Enabled())
	assert.Equal(t, "izzi", c.Mqtt.Username)
	assert.IsType(t, &izzi.TCPTransport{}, c.NewTransport())
}

func TestLoadConfiguration_EnvironmentOverrides(t *testing.T) {
	// GIVEN
	path := writeConfig(t, "izzifast.yaml", "bypass_temp: 20\n")
	t.Setenv("IZZIFAST_BYPASS_TEMP", "25")
	t.Setenv("IZZIFAST_MQTT_IP_ADDRESS", "broker.local")

	// WHEN
	c, err := LoadConfiguration(path)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 25, c.BypassTemp)
	assert.Equal(t, "broker.local", c.Mqtt.IpAddress)
}

func TestLoadConfiguration_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Configuration {
		return &Configuration{
			Type:       TypeSerial,
			SerialPort: "/dev/ttyUSB0",
			Port:       izzi.DefaultTCPPort,
			Mode:       ModeMaster,
			BypassMode: "auto",
			BypassTemp: 23,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Configuration)
		valid  bool
	}{
		{"defaults", func(c *Configuration) {}, true},
		{"unknown type", func(c *Configuration) { c.Type = "usb" }, false},
		{"serial without port", func(c *Configuration) { c.SerialPort = "" }, false},
		{"tcp without host", func(c *Configuration) { c.Type = TypeTCP }, false},
		{"tcp port out of range", func(c *Configuration) { c.Type = TypeTCP; c.Host = "h"; c.Port = 70000 }, false},
		{"tcp", func(c *Configuration) { c.Type = TypeTCP; c.Host = "h" }, true},
		{"correction too low", func(c *Configuration) { c.ExtractCorrection = -51 }, false},
		{"correction at limit", func(c *Configuration) { c.ExtractCorrection = 50 }, true},
		{"unknown bypass mode", func(c *Configuration) { c.BypassMode = "half" }, false},
		{"bypass temp too low", func(c *Configuration) { c.BypassTemp = 17 }, false},
		{"bypass temp too high", func(c *Configuration) { c.BypassTemp = 27 }, false},
		{"cf params max too high", func(c *Configuration) { c.CFParamsMax = 501 }, false},
		{"cf params max negative", func(c *Configuration) { c.CFParamsMax = -1 }, false},
		{"unknown mode is not an error", func(c *Configuration) { c.Mode = "observer" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			c := valid()
			tt.mutate(c)

			// WHEN
			err := c.Validate()

			// THEN
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRole_FallsBackToMaster(t *testing.T) {
	c := &Configuration{Mode: "observer"}

	assert.Equal(t, izzi.Master, c.Role())
}

func TestNewTransport_Serial(t *testing.T) {
	c := &Configuration{Type: TypeSerial, SerialPort: "/dev/ttyS1"}

	assert.IsType(t, &izzi.SerialTransport{}, c.NewTransport())
}

func TestMqtt_ClientOptions(t *testing.T) {
	m := &Mqtt{IpAddress: "10.0.0.2", Username: "u", Password: "p"}

	opts := m.ClientOptions()

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://10.0.0.2:1883", opts.Servers[0].String())
	assert.Equal(t, "u", opts.Username)
	assert.True(t, opts.AutoReconnect)
}
