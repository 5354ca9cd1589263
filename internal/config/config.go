package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "bifrost.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BIFROST_"

// RedisConfig enables the distributed channel lock when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Config is the resolved process configuration.
type Config struct {
	Channel  string          `mapstructure:"channel" yaml:"channel"`
	Baud     int             `mapstructure:"baud" yaml:"baud"`
	Timeouts domain.Timeouts `mapstructure:"timeouts" yaml:"timeouts"`
	Devices  string          `mapstructure:"devices" yaml:"devices"`
	LogLevel string          `mapstructure:"log_level" yaml:"log_level"` // empty keeps the CLI quiet
	Redis    RedisConfig     `mapstructure:"redis" yaml:"redis"`
	HTTP     HTTPConfig      `mapstructure:"http" yaml:"http"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Channel:  domain.DefaultChannelName(),
		Baud:     domain.DefaultBaud,
		Timeouts: domain.DefaultTimeouts(),
		Devices:  "devices.yaml",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// ChannelConfig returns the evaluator channel described by c.
func (c Config) ChannelConfig() domain.ChannelConfig {
	return domain.ChannelConfig{
		Name:     c.Channel,
		Baud:     c.Baud,
		Timeouts: c.Timeouts,
	}.WithDefaults()
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	lookup func(string) (string, bool)
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(l *loader) {
		l.lookup = fn
	}
}

// envKeys maps environment variables onto dotted config keys.
var envKeys = map[string]string{
	"CHANNEL":                "channel",
	"BAUD":                   "baud",
	"DEVICES":                "devices",
	"LOG_LEVEL":              "log_level",
	"REDIS_ADDR":             "redis.addr",
	"REDIS_PASSWORD":         "redis.password",
	"REDIS_DB":               "redis.db",
	"REDIS_PREFIX":           "redis.prefix",
	"HTTP_ADDR":              "http.addr",
	"HTTP_SHUTDOWN_TIMEOUT":  "http.shutdown_timeout",
	"READ_INTERVAL":          "timeouts.read_interval",
	"READ_TOTAL_CONSTANT":    "timeouts.read_total_constant",
	"READ_TOTAL_MULTIPLIER":  "timeouts.read_total_multiplier",
	"WRITE_TOTAL_CONSTANT":   "timeouts.write_total_constant",
	"WRITE_TOTAL_MULTIPLIER": "timeouts.write_total_multiplier",
}

// Load reads path (DefaultPath when empty), overlays BIFROST_* variables and
// decodes the result over Default(). A missing DefaultPath is not an error.
func Load(path string, opts ...Option) (Config, error) {
	l := &loader{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}

	raw, err := readFile(path)
	if err != nil {
		return Config{}, err
	}

	for suffix, key := range envKeys {
		if v, ok := l.lookup(EnvPrefix + suffix); ok {
			set(raw, key, v)
		}
	}

	if b, ok := raw["baud"].(string); ok {
		raw["baud"] = domain.ParseBaud(b)
	}

	cfg := Default()
	if err := Decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode decodes a raw map into out, converting duration strings.
func Decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			intToDurationHook,
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// intToDurationHook reads bare numbers as milliseconds.
func intToDurationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Millisecond, nil
	case reflect.Float64, reflect.Float32:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Millisecond)), nil
	}
	return data, nil
}

func readFile(path string) (map[string]any, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return raw, nil
}

// set assigns a dotted key, creating nested maps on the way.
func set(raw map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	m := raw
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}
