package domain

import (
	"runtime"
	"strconv"
	"strings"
	"time"
)

// DefaultBaud is used when no baud rate is configured or it cannot be parsed.
const DefaultBaud = 9600

// ReadBudget is the maximum number of reply bytes read per evaluation.
const ReadBudget = 200

// Timeouts composes the channel timeouts the same way a serial driver does:
// an inter-byte interval plus a total of constant + multiplier per byte.
type Timeouts struct {
	ReadInterval         time.Duration `json:"read_interval" mapstructure:"read_interval"`
	ReadTotalConstant    time.Duration `json:"read_total_constant" mapstructure:"read_total_constant"`
	ReadTotalMultiplier  time.Duration `json:"read_total_multiplier" mapstructure:"read_total_multiplier"`
	WriteTotalConstant   time.Duration `json:"write_total_constant" mapstructure:"write_total_constant"`
	WriteTotalMultiplier time.Duration `json:"write_total_multiplier" mapstructure:"write_total_multiplier"`
}

// DefaultTimeouts returns the timeouts used by the reference device firmware.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		ReadInterval:         50 * time.Millisecond,
		ReadTotalConstant:    50 * time.Millisecond,
		ReadTotalMultiplier:  10 * time.Millisecond,
		WriteTotalConstant:   50 * time.Millisecond,
		WriteTotalMultiplier: 10 * time.Millisecond,
	}
}

// ReadTotal is the total read budget for n bytes.
func (t Timeouts) ReadTotal(n int) time.Duration {
	return t.ReadTotalConstant + time.Duration(n)*t.ReadTotalMultiplier
}

// WriteTotal is the total write budget for n bytes.
func (t Timeouts) WriteTotal(n int) time.Duration {
	return t.WriteTotalConstant + time.Duration(n)*t.WriteTotalMultiplier
}

// ChannelConfig identifies the evaluator channel.
type ChannelConfig struct {
	Name     string   `json:"name" mapstructure:"name"`
	Baud     int      `json:"baud" mapstructure:"baud"`
	Timeouts Timeouts `json:"timeouts" mapstructure:"timeouts"`
}

// DefaultChannelName is the conventional port of the reference board.
func DefaultChannelName() string {
	if runtime.GOOS == "windows" {
		return "COM4"
	}
	return "/dev/ttyUSB0"
}

// DefaultChannelConfig returns a config for the default port at DefaultBaud.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		Name:     DefaultChannelName(),
		Baud:     DefaultBaud,
		Timeouts: DefaultTimeouts(),
	}
}

// WithDefaults fills unset fields.
func (c ChannelConfig) WithDefaults() ChannelConfig {
	if c.Name == "" {
		c.Name = DefaultChannelName()
	}
	if c.Baud <= 0 {
		c.Baud = DefaultBaud
	}
	if c.Timeouts == (Timeouts{}) {
		c.Timeouts = DefaultTimeouts()
	}
	return c
}

// ParseBaud parses a baud rate, falling back to DefaultBaud.
func ParseBaud(s string) int {
	baud, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || baud <= 0 {
		return DefaultBaud
	}
	return baud
}
