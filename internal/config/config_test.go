package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/bifrost/internal/config"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) config.Option {
	return config.WithLookupEnv(func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	})
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bifrost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("", config.WithLookupEnv(noEnv))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, domain.DefaultChannelConfig(), cfg.ChannelConfig())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), config.WithLookupEnv(noEnv))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
channel: exec:emulator
baud: 115200
devices: ./devs.yaml
timeouts:
  read_interval: 20ms
  read_total_constant: 100
redis:
  addr: localhost:6379
  prefix: "lab:"
http:
  addr: ":9090"
  shutdown_timeout: 2s
`)

	cfg, err := config.Load(path, config.WithLookupEnv(noEnv))
	require.NoError(t, err)

	assert.Equal(t, "exec:emulator", cfg.Channel)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, "./devs.yaml", cfg.Devices)
	assert.Equal(t, 20*time.Millisecond, cfg.Timeouts.ReadInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Timeouts.ReadTotalConstant)
	// Unset timeouts keep their defaults.
	assert.Equal(t, domain.DefaultTimeouts().WriteTotalMultiplier, cfg.Timeouts.WriteTotalMultiplier)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "lab:", cfg.Redis.Prefix)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Second, cfg.HTTP.ShutdownTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "channel: COM3\nbaud: 4800\n")

	cfg, err := config.Load(path, envMap(map[string]string{
		"BIFROST_CHANNEL":       "tcp://lab:4000",
		"BIFROST_REDIS_ADDR":    "redis:6379",
		"BIFROST_REDIS_DB":      "2",
		"BIFROST_READ_INTERVAL": "15ms",
	}))
	require.NoError(t, err)

	assert.Equal(t, "tcp://lab:4000", cfg.Channel)
	assert.Equal(t, 4800, cfg.Baud)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 15*time.Millisecond, cfg.Timeouts.ReadInterval)
}

func TestLoad_InvalidBaudFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("", envMap(map[string]string{"BIFROST_BAUD": "fast"}))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBaud, cfg.Baud)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "http:\n  shutdown_timeout: soon\n")

	_, err := config.Load(path, config.WithLookupEnv(noEnv))
	assert.ErrorContains(t, err, "invalid config")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "channel: [unterminated\n")

	_, err := config.Load(path, config.WithLookupEnv(noEnv))
	assert.ErrorContains(t, err, "failed to parse config")
}
