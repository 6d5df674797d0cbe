package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"cdcfifo/constants"
	"cdcfifo/ring"
)

// Config represents the cdcfifo simulator configuration.
type Config struct {
	FIFO     FIFOConfig    `yaml:"fifo"`
	Producer SideConfig    `yaml:"producer"`
	Consumer SideConfig    `yaml:"consumer"`
	Run      RunConfig     `yaml:"run"`
	Store    StoreConfig   `yaml:"store"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Log      LogConfig     `yaml:"log"`
}

// FIFOConfig holds queue geometry.
type FIFOConfig struct {
	Capacity int `yaml:"capacity"` // Slot count, power of two >= 2
}

// SideConfig holds how one side is stepped.
type SideConfig struct {
	PeriodNs int64 `yaml:"period_ns"` // Step period in clocked mode
	Core     int   `yaml:"core"`      // CPU to pin to in pinned mode (-1 = no pin)
}

// RunConfig holds per-run settings.
type RunConfig struct {
	Mode      string `yaml:"mode"`       // clocked or pinned
	Items     int    `yaml:"items"`      // Sequence numbers pushed by the producer
	TimeoutMs int    `yaml:"timeout_ms"` // Abort the run after this long
}

// StoreConfig holds run-history persistence settings.
type StoreConfig struct {
	Path    string `yaml:"path"`    // sqlite file
	Enabled bool   `yaml:"enabled"` // Record each run
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr     string `yaml:"addr"`      // Listen address, empty = disabled
	Path     string `yaml:"path"`      // HTTP path for the handler
	LingerMs int    `yaml:"linger_ms"` // Keep serving this long after the run
}

// LogConfig holds diagnostic output settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		FIFO: FIFOConfig{Capacity: constants.DefaultCapacity},
		Producer: SideConfig{
			PeriodNs: constants.DefaultProducerPeriodNs,
			Core:     -1,
		},
		Consumer: SideConfig{
			PeriodNs: constants.DefaultConsumerPeriodNs,
			Core:     -1,
		},
		Run: RunConfig{
			Mode:      "clocked",
			Items:     constants.DefaultItems,
			TimeoutMs: constants.DefaultTimeoutMs,
		},
		Store: StoreConfig{
			Path:    constants.DefaultDBPath,
			Enabled: true,
		},
		Metrics: MetricsConfig{
			Path:     constants.DefaultMetricsPath,
			LingerMs: constants.DefaultMetricsLingerMs,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.FIFO.Capacity < 2 || !ring.IsPowerOfTwo(c.FIFO.Capacity) {
		return fmt.Errorf("fifo.capacity must be a power of two >= 2 (got: %d)", c.FIFO.Capacity)
	}
	if c.FIFO.Capacity > constants.MaxCapacity {
		return fmt.Errorf("fifo.capacity must be <= %d (got: %d)", constants.MaxCapacity, c.FIFO.Capacity)
	}
	if !isValidMode(c.Run.Mode) {
		return fmt.Errorf("run.mode must be clocked or pinned (got: %s)", c.Run.Mode)
	}
	if c.Run.Items < 0 {
		return errors.New("run.items must be >= 0")
	}
	if c.Run.TimeoutMs <= 0 {
		return errors.New("run.timeout_ms must be > 0")
	}
	if c.Run.Mode == "clocked" {
		if c.Producer.PeriodNs <= 0 {
			return errors.New("producer.period_ns must be > 0 in clocked mode")
		}
		if c.Consumer.PeriodNs <= 0 {
			return errors.New("consumer.period_ns must be > 0 in clocked mode")
		}
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return errors.New("store.path must be set when store.enabled is true")
	}
	if c.Metrics.Addr != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got: %s)", c.Metrics.Path)
	}
	if c.Metrics.LingerMs < 0 {
		return errors.New("metrics.linger_ms must be >= 0")
	}
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}
	return nil
}

func isValidMode(mode string) bool {
	switch mode {
	case "clocked", "pinned":
		return true
	default:
		return false
	}
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
// Unparseable values are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CDCFIFO_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FIFO.Capacity = n
		}
	}
	if v := os.Getenv("CDCFIFO_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Run.Items = n
		}
	}
	if v := os.Getenv("CDCFIFO_MODE"); v != "" {
		if isValidMode(v) {
			c.Run.Mode = v
		}
	}
	if v := os.Getenv("CDCFIFO_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("CDCFIFO_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("CDCFIFO_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
}

// Get returns the string value of a dotted key such as "fifo.capacity".
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "fifo.capacity":
		return strconv.Itoa(c.FIFO.Capacity), nil
	case "producer.period_ns":
		return strconv.FormatInt(c.Producer.PeriodNs, 10), nil
	case "producer.core":
		return strconv.Itoa(c.Producer.Core), nil
	case "consumer.period_ns":
		return strconv.FormatInt(c.Consumer.PeriodNs, 10), nil
	case "consumer.core":
		return strconv.Itoa(c.Consumer.Core), nil
	case "run.mode":
		return c.Run.Mode, nil
	case "run.items":
		return strconv.Itoa(c.Run.Items), nil
	case "run.timeout_ms":
		return strconv.Itoa(c.Run.TimeoutMs), nil
	case "store.path":
		return c.Store.Path, nil
	case "store.enabled":
		return strconv.FormatBool(c.Store.Enabled), nil
	case "metrics.addr":
		return c.Metrics.Addr, nil
	case "metrics.path":
		return c.Metrics.Path, nil
	case "metrics.linger_ms":
		return strconv.Itoa(c.Metrics.LingerMs), nil
	case "log.level":
		return c.Log.Level, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Set parses value into the dotted key.  The result is not validated; call
// Validate afterwards.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "fifo.capacity":
		c.FIFO.Capacity, err = strconv.Atoi(value)
	case "producer.period_ns":
		c.Producer.PeriodNs, err = strconv.ParseInt(value, 10, 64)
	case "producer.core":
		c.Producer.Core, err = strconv.Atoi(value)
	case "consumer.period_ns":
		c.Consumer.PeriodNs, err = strconv.ParseInt(value, 10, 64)
	case "consumer.core":
		c.Consumer.Core, err = strconv.Atoi(value)
	case "run.mode":
		c.Run.Mode = value
	case "run.items":
		c.Run.Items, err = strconv.Atoi(value)
	case "run.timeout_ms":
		c.Run.TimeoutMs, err = strconv.Atoi(value)
	case "store.path":
		c.Store.Path = value
	case "store.enabled":
		c.Store.Enabled, err = strconv.ParseBool(value)
	case "metrics.addr":
		c.Metrics.Addr = value
	case "metrics.path":
		c.Metrics.Path = value
	case "metrics.linger_ms":
		c.Metrics.LingerMs, err = strconv.Atoi(value)
	case "log.level":
		c.Log.Level = value
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// ListKeys returns every key accepted by Get and Set.
func ListKeys() []string {
	return []string{
		"fifo.capacity",
		"producer.period_ns",
		"producer.core",
		"consumer.period_ns",
		"consumer.core",
		"run.mode",
		"run.items",
		"run.timeout_ms",
		"store.path",
		"store.enabled",
		"metrics.addr",
		"metrics.path",
		"metrics.linger_ms",
		"log.level",
	}
}
