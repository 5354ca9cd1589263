package main

import (
	"bytes"
	"testing"

	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	registerPersistentFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadOptions_FlagsOverrideConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BIFROST_CHANNEL", "COM9")

	opts, err := loadOptions(newTestCommand(t,
		"--channel", "tcp://lab:4001",
		"--baud", "115200",
		"--redis", "localhost:6379",
		"--debug",
	))
	require.NoError(t, err)

	assert.Equal(t, "tcp://lab:4001", opts.Config.Channel)
	assert.Equal(t, 115200, opts.Config.Baud)
	assert.Equal(t, "localhost:6379", opts.Config.Redis.Addr)
	assert.True(t, opts.Debug)
}

func TestLoadOptions_EnvWithoutFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BIFROST_CHANNEL", "COM9")

	opts, err := loadOptions(newTestCommand(t, "--baud", "fast"))
	require.NoError(t, err)
	assert.Equal(t, "COM9", opts.Config.Channel)
	assert.Equal(t, domain.DefaultBaud, opts.Config.Baud)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "bifrost version ")
}
