// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cast"
)

// Default parameter values.
const (
	DefaultPort             = "/dev/ttyACM0"
	DefaultBaud             = 115200
	DefaultFrameID          = "imu_link"
	DefaultMQTTBroker       = "tcp://localhost:1883"
	DefaultMQTTClientID     = "myahrs-driver"
	DefaultTopicIMU         = "imu/data"
	DefaultTopicMag         = "imu/mag"
	DefaultTopicTF          = "tf"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultCommandTimeoutMS = 1000
)

// Config holds all driver configuration values.
type Config struct {
	// Device
	Port          string
	Baud          int
	FrameID       string
	Autocalibrate bool

	// Noise, as standard deviations in output units. Zero means unknown.
	LinearAccelerationStddev float64
	AngularVelocityStddev    float64
	MagneticFieldStddev      float64
	OrientationStddev        float64

	// MQTT
	MQTTBroker   string
	MQTTClientID string

	// Topics
	TopicIMU string
	TopicMag string
	TopicTF  string

	// Logging
	LogLevel  string
	LogFormat string // "console" or "json"
	LogFile   string // empty: stderr only

	// Monitor HTTP server, empty disables it
	MonitorAddr string

	CommandTimeoutMS int

	// Fallbacks lists "key=value" entries whose value could not be
	// coerced and were replaced by the default.
	Fallbacks []string

	// Unknown lists keys that no parameter uses. They are ignored.
	Unknown []string
}

// Default returns a Config with every parameter at its default.
func Default() *Config {
	return &Config{
		Port:             DefaultPort,
		Baud:             DefaultBaud,
		FrameID:          DefaultFrameID,
		MQTTBroker:       DefaultMQTTBroker,
		MQTTClientID:     DefaultMQTTClientID,
		TopicIMU:         DefaultTopicIMU,
		TopicMag:         DefaultTopicMag,
		TopicTF:          DefaultTopicTF,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
		CommandTimeoutMS: DefaultCommandTimeoutMS,
	}
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the parameter file at configPath. A missing file is not an
// error: every parameter keeps its default.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return cfg, nil
}

// setValue sets a config value based on the key. Values that fail type
// coercion leave the default in place and unknown keys are recorded.
func (c *Config) setValue(key, value string) error {
	if !isKnownKey(key) {
		c.Unknown = append(c.Unknown, key)
		return nil
	}
	// An empty value is the same as leaving the key out.
	if value == "" {
		return nil
	}

	switch key {
	// Device
	case "port":
		c.Port = value
	case "baud":
		c.setInt(&c.Baud, key, value)
	case "frame_id":
		c.FrameID = value
	case "autocalibrate":
		c.setBool(&c.Autocalibrate, key, value)

	// Noise
	case "linear_acceleration_stddev":
		c.setFloat(&c.LinearAccelerationStddev, key, value)
	case "angular_velocity_stddev":
		c.setFloat(&c.AngularVelocityStddev, key, value)
	case "magnetic_field_stddev":
		c.setFloat(&c.MagneticFieldStddev, key, value)
	case "orientation_stddev":
		c.setFloat(&c.OrientationStddev, key, value)

	// MQTT
	case "mqtt_broker":
		c.MQTTBroker = value
	case "mqtt_client_id":
		c.MQTTClientID = value

	// Topics
	case "topic_imu":
		c.TopicIMU = value
	case "topic_mag":
		c.TopicMag = value
	case "topic_tf":
		c.TopicTF = value

	// Logging
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "log_file":
		c.LogFile = value

	case "monitor_addr":
		c.MonitorAddr = value
	case "command_timeout_ms":
		c.setInt(&c.CommandTimeoutMS, key, value)

	default:
		return fmt.Errorf("unhandled config key: %q", key)
	}

	return nil
}

func (c *Config) setInt(dst *int, key, value string) {
	v, err := cast.ToIntE(value)
	if err != nil {
		c.fallback(key, value)
		return
	}
	*dst = v
}

func (c *Config) setFloat(dst *float64, key, value string) {
	v, err := cast.ToFloat64E(value)
	if err != nil {
		c.fallback(key, value)
		return
	}
	*dst = v
}

func (c *Config) setBool(dst *bool, key, value string) {
	v, err := cast.ToBoolE(value)
	if err != nil {
		c.fallback(key, value)
		return
	}
	*dst = v
}

func (c *Config) fallback(key, value string) {
	c.Fallbacks = append(c.Fallbacks, key+"="+value)
}

var knownKeys = map[string]struct{}{
	"port": {}, "baud": {}, "frame_id": {}, "autocalibrate": {},
	"linear_acceleration_stddev": {}, "angular_velocity_stddev": {},
	"magnetic_field_stddev": {}, "orientation_stddev": {},
	"mqtt_broker": {}, "mqtt_client_id": {},
	"topic_imu": {}, "topic_mag": {}, "topic_tf": {},
	"log_level": {}, "log_format": {}, "log_file": {},
	"monitor_addr": {}, "command_timeout_ms": {},
}

func isKnownKey(key string) bool {
	_, ok := knownKeys[key]
	return ok
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
