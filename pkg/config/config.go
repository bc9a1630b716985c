// Package config provides device configuration from defaults, environment
// variables, command line flags and an optional YAML file, in increasing
// precedence.
package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/chain.go/pkg/l0/frame"
	"github.com/robotalks/chain.go/pkg/sink"
)

// Config defines the configurations of a device.
type Config struct {
	// ID is the device id in hex, derived from the machine id if empty.
	ID string `yaml:"id"`
	// Upstream and Downstream are line URLs, see line.Open.
	Upstream   string `yaml:"upstream"`
	Downstream string `yaml:"downstream"`
	// BufferSize is the receive buffer of each line in bytes.
	BufferSize int `yaml:"buffer_size"`
	// Interval between two polls of the lines.
	Interval time.Duration `yaml:"interval"`
	// SkipVerify accepts frames with bad checksums.
	SkipVerify bool `yaml:"skip_verify"`
	// Handler selects the built-in handler: log, echo or none.
	Handler string `yaml:"handler"`

	// DebugLog is the file frames are printed to, "-" for stderr.
	DebugLog string        `yaml:"debug_log"`
	Archive  ArchiveConfig `yaml:"archive"`
	// MQTTURL is the broker to publish frames to, e.g. mqtt://host:1883/chain/
	MQTTURL string `yaml:"mqtt"`
	// MetricsAddr is the listen address of the Prometheus endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// ArchiveConfig configures archiving of frames to files.
type ArchiveConfig struct {
	Dir       string `yaml:"dir"`
	Format    string `yaml:"format"`
	MaxFrames int    `yaml:"max_frames"`
}

var defaultConfig = Config{
	Upstream:   "none",
	Downstream: "none",
	Interval:   10 * time.Millisecond,
	Handler:    "log",
}

var configFile string

func init() {
	for env, dst := range map[string]*string{
		"CHAIN_ID":         &defaultConfig.ID,
		"CHAIN_UPSTREAM":   &defaultConfig.Upstream,
		"CHAIN_DOWNSTREAM": &defaultConfig.Downstream,
		"CHAIN_MQTT_URL":   &defaultConfig.MQTTURL,
		"CHAIN_CONFIG":     &configFile,
	} {
		if val := os.Getenv(env); val != "" {
			*dst = val
		}
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "YAML config file.")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Device ID in hex, derived from machine ID if empty.")
	flag.StringVar(&defaultConfig.Upstream, "upstream", defaultConfig.Upstream, "Upstream line URL.")
	flag.StringVar(&defaultConfig.Downstream, "downstream", defaultConfig.Downstream, "Downstream line URL.")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Line polling interval.")
	flag.BoolVar(&defaultConfig.SkipVerify, "skip-verify", defaultConfig.SkipVerify, "Accept frames with bad checksum.")
	flag.StringVar(&defaultConfig.Handler, "handler", defaultConfig.Handler, "Frame handler: log, echo, none.")
	flag.StringVar(&defaultConfig.DebugLog, "debug-log", defaultConfig.DebugLog, "Print frames to file, - for stderr.")
	flag.StringVar(&defaultConfig.Archive.Dir, "archive", defaultConfig.Archive.Dir, "Archive frames into directory.")
	flag.StringVar(&defaultConfig.Archive.Format, "archive-format", defaultConfig.Archive.Format, "Archive format: binary, csv.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL to publish frames.")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Prometheus listen address.")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Resolve creates the config from defaults and flags, overlaid with the
// config file if specified.
func Resolve() (*Config, error) {
	if configFile == "" {
		conf := NewConfig()
		return conf, conf.Validate()
	}
	return Load(configFile)
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	conf := NewConfig()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse %s: %v", path, err)
	}
	return conf, conf.Validate()
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.ID != "" {
		if _, err := frame.ParseID(c.ID); err != nil {
			return err
		}
	}
	switch c.Handler {
	case "", "log", "echo", "none":
	default:
		return fmt.Errorf("unknown handler %q", c.Handler)
	}
	if c.Interval < 0 {
		return fmt.Errorf("invalid interval %v", c.Interval)
	}
	if c.BufferSize != 0 && c.BufferSize < frame.Size {
		return fmt.Errorf("buffer size %d smaller than a frame (%d)", c.BufferSize, frame.Size)
	}
	if _, err := sink.ParseFormat(c.Archive.Format); err != nil {
		return err
	}
	return nil
}

// DeviceID returns the configured ID or derives one from the machine ID.
func (c *Config) DeviceID() (frame.ID, error) {
	if c.ID != "" {
		return frame.ParseID(c.ID)
	}
	return MachineID()
}

// MachineID derives a stable device ID from the machine ID.
func MachineID() (frame.ID, error) {
	id, err := machineid.ProtectedID("chain.go")
	if err != nil {
		return frame.Broadcast, err
	}
	b, err := hex.DecodeString(id)
	if err != nil {
		return frame.Broadcast, err
	}
	return frame.IDFromBytes(b), nil
}
