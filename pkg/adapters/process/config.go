package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DeviceConfig describes a local program that speaks the evaluator protocol on stdio.
type DeviceConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of devices.yaml.
type ConfigFile struct {
	Devices []DeviceConfig `yaml:"devices" json:"devices"`
}

// LoadDevices reads a configuration file (YAML or JSON) and returns the devices by name.
// A missing file yields an empty registry.
func LoadDevices(path string) (map[string]DeviceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]DeviceConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read devices config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	devices := make(map[string]DeviceConfig, len(cfg.Devices))
	for _, dev := range cfg.Devices {
		if dev.Name == "" || dev.Command == "" {
			continue
		}
		devices[dev.Name] = dev
	}
	return devices, nil
}
