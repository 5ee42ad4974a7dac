// Package config loads the configuration of a node from a YAML file.
//
// Example:
//
//	link:
//	  type: serial
//	  address: /dev/ttyACM0
//	  baud: 115200
//	sampling:
//	  interval: 1s
//	log:
//	  level: info
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Link types.
const (
	Serial    = "serial"
	TCPDial   = "tcp"
	TCPListen = "tcp-listen"
)

// Config is the configuration of a node.
type Config struct {
	// Link configures the connection to the peer.
	Link LinkConfig `yaml:"link"`

	// Sampling configures the outbound light level messages.
	Sampling SamplingConfig `yaml:"sampling"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// LinkConfig configures the connection to the peer.
type LinkConfig struct {
	// Type is serial, tcp (connect to peer) or tcp-listen (wait for peer).
	Type string `yaml:"type"`

	// Address is the serial port device or host:port.
	Address string `yaml:"address"`

	// Baud is the baud rate of a serial port.
	Baud int `yaml:"baud,omitempty"`
}

// SamplingConfig configures the light sensor sampling.
type SamplingConfig struct {
	// Interval between two light level messages. 0 disables sampling.
	Interval time.Duration `yaml:"interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is off, error, warning, info, debug or trace.
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Link: LinkConfig{
			Type:    TCPDial,
			Address: "127.0.0.1:4700",
		},
		Sampling: SamplingConfig{
			Interval: time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a configuration file. Values missing in the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Reading of configuration %s failed: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a YAML configuration. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("Parsing of configuration failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Link.Type {
	case Serial, TCPDial, TCPListen:
	default:
		return fmt.Errorf("Invalid link type: %q", c.Link.Type)
	}
	if c.Link.Address == "" {
		return errors.New("Missing link address")
	}
	if c.Link.Baud < 0 {
		return fmt.Errorf("Invalid baud rate: %d", c.Link.Baud)
	}
	if c.Sampling.Interval < 0 {
		return fmt.Errorf("Invalid sampling interval: %s", c.Sampling.Interval)
	}
	return nil
}
