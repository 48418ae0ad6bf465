package config

import (
	"fmt"
	"time"
)

// State store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds client and relay configuration values.
type Config struct {
	// Client
	URL            string        `mapstructure:"url" yaml:"url"`
	Name           string        `mapstructure:"name" yaml:"name"`
	Room           string        `mapstructure:"room" yaml:"room"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	SendBuffer     int           `mapstructure:"send_buffer" yaml:"send_buffer"`

	// Session record persistence
	StateDriver string `mapstructure:"state_driver" yaml:"state_driver"`
	StatePath   string `mapstructure:"state_path" yaml:"state_path"`
	RedisURL    string `mapstructure:"redis_url" yaml:"redis_url"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	// Relay
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// RateLimit caps inbound frames per connection per minute. Zero disables the limit.
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		URL:               "ws://localhost:8080/ws",
		Room:              "lobby",
		ReconnectDelay:    time.Second,
		DialTimeout:       20 * time.Second,
		SendBuffer:        64,
		StateDriver:       DriverSQLite,
		StatePath:         "wirechat-state.db",
		LogLevel:          "info",
		LogFile:           "wirechat-tui.log",
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		RateLimit:         120,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.URL != "" {
		c.URL = other.URL
	}
	if other.Name != "" {
		c.Name = other.Name
	}
	if other.Room != "" {
		c.Room = other.Room
	}
	if other.ReconnectDelay != 0 {
		c.ReconnectDelay = other.ReconnectDelay
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.SendBuffer != 0 {
		c.SendBuffer = other.SendBuffer
	}
	if other.StateDriver != "" {
		c.StateDriver = other.StateDriver
	}
	if other.StatePath != "" {
		c.StatePath = other.StatePath
	}
	if other.RedisURL != "" {
		c.RedisURL = other.RedisURL
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.RateLimit != 0 {
		c.RateLimit = other.RateLimit
	}
}

// Validate reports settings the client cannot start with.
func (c *Config) Validate() error {
	switch c.StateDriver {
	case DriverSQLite, DriverMemory:
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("state_driver %q requires redis_url", c.StateDriver)
		}
	default:
		return fmt.Errorf("unknown state_driver %q", c.StateDriver)
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect_delay must be positive, got %s", c.ReconnectDelay)
	}
	return nil
}
