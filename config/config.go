package config

import (
	"errors"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/victorjacobs/go-izzi/izzi"
	"github.com/victorjacobs/go-izzi/ui"
)

const (
	TypeSerial = "serial"
	TypeTCP    = "tcp"

	ModeMaster = "master"
	ModeSlave  = "slave"
)

var bypassModes = map[string]int{
	"auto":   izzi.BypassModeAuto,
	"open":   izzi.BypassModeOpen,
	"closed": izzi.BypassModeClosed,
}

type Configuration struct {
	Type       string `mapstructure:"type"`
	SerialPort string `mapstructure:"serial_port"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`

	Name string `mapstructure:"name"`
	Mode string `mapstructure:"mode"`

	ExtractCorrection int     `mapstructure:"extract_correction"`
	BypassMode        string  `mapstructure:"bypass_mode"`
	BypassTemp        int     `mapstructure:"bypass_temp"`
	CFParamsMax       float64 `mapstructure:"cf_params_max"`

	DbPath string `mapstructure:"db_path"`
	Http   Http   `mapstructure:"http"`
	Mqtt   Mqtt   `mapstructure:"mqtt"`
}

type Http struct {
	Listen string `mapstructure:"listen"`
}

type Mqtt struct {
	IpAddress       string `mapstructure:"ip_address"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	TopicPrefix     string `mapstructure:"topic_prefix"`
	DiscoveryPrefix string `mapstructure:"discovery_prefix"`
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("type", TypeSerial)
	v.SetDefault("serial_port", "/dev/ttyUSB0")
	v.SetDefault("port", izzi.DefaultTCPPort)
	v.SetDefault("name", "iZZi ERV 302")
	v.SetDefault("mode", ModeMaster)
	v.SetDefault("extract_correction", 0)
	v.SetDefault("bypass_mode", "auto")
	v.SetDefault("bypass_temp", 23)
	v.SetDefault("cf_params_max", 0)
	v.SetDefault("db_path", "izzifast.db")
	v.SetDefault("http.listen", ":8080")
	v.SetDefault("mqtt.topic_prefix", "izzifast")
	v.SetDefault("mqtt.discovery_prefix", "homeassistant")
	// registered so that environment variables can override them
	v.SetDefault("host", "")
	v.SetDefault("mqtt.ip_address", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
}

// LoadConfiguration reads the configuration from cfgFile, or searches the
// usual locations when it is empty. Without a config file the defaults and
// IZZIFAST_* environment variables are used.
func LoadConfiguration(cfgFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigName("izzifast")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		} else {
			ui.Warning("Couldn't detect home directory: %v", err)
		}
		v.AddConfigPath("/etc/izzifast/")
	}

	v.SetEnvPrefix("izzifast")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaultValues(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		ui.Warning("No configuration file found, using defaults")
	} else {
		ui.Info("Using configuration file at: %s", v.ConfigFileUsed())
	}

	configuration := &Configuration{}
	if err := v.Unmarshal(configuration); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return configuration, nil
}

// Validate reports every invalid value at once.
func (c *Configuration) Validate() error {
	var errs []error

	switch c.Type {
	case TypeSerial:
		if c.SerialPort == "" {
			errs = append(errs, errors.New("serial_port is required for a serial connection"))
		}
	case TypeTCP:
		if c.Host == "" {
			errs = append(errs, errors.New("host is required for a tcp connection"))
		}
		if c.Port < 1 || c.Port > 65535 {
			errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown connection type %q, expected %q or %q", c.Type, TypeSerial, TypeTCP))
	}

	if c.ExtractCorrection < izzi.MinCorrection || c.ExtractCorrection > izzi.MaxCorrection {
		errs = append(errs, fmt.Errorf("extract_correction %d not in [%d, %d]", c.ExtractCorrection, izzi.MinCorrection, izzi.MaxCorrection))
	}
	if _, ok := bypassModes[c.BypassMode]; !ok {
		errs = append(errs, fmt.Errorf("unknown bypass_mode %q", c.BypassMode))
	}
	if c.BypassTemp < izzi.MinBypassTemp || c.BypassTemp > izzi.MaxBypassTemp {
		errs = append(errs, fmt.Errorf("bypass_temp %d not in [%d, %d]", c.BypassTemp, izzi.MinBypassTemp, izzi.MaxBypassTemp))
	}
	if c.CFParamsMax < 0 || c.CFParamsMax > izzi.CFMaxParamLimit {
		errs = append(errs, fmt.Errorf("cf_params_max %v not in [0, %v]", c.CFParamsMax, izzi.CFMaxParamLimit))
	}

	return errors.Join(errs...)
}

// Role falls back to master for anything but "slave".
func (c *Configuration) Role() izzi.Role {
	switch c.Mode {
	case ModeSlave:
		return izzi.Slave
	case ModeMaster:
		return izzi.Master
	}
	ui.Warning("Unknown mode %q, running as %s", c.Mode, ModeMaster)
	return izzi.Master
}

func (c *Configuration) BypassModeValue() int {
	return bypassModes[c.BypassMode]
}

func (c *Configuration) NewTransport() izzi.Transport {
	if c.Type == TypeTCP {
		return izzi.NewTCPTransport(c.Host, c.Port)
	}
	return izzi.NewSerialTransport(c.SerialPort)
}

// Enabled reports whether a broker is configured.
func (m *Mqtt) Enabled() bool {
	return m.IpAddress != ""
}

func (m *Mqtt) ClientOptions() *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%v:1883", m.IpAddress)).
		SetUsername(m.Username).
		SetPassword(m.Password).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(client mqtt.Client, err error) {
			ui.Warning("MQTT connection lost: %v", err)
		}).
		SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
			ui.Info("MQTT reconnecting")
		})
}
