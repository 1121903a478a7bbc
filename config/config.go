package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// EngineConfig tunes the trigger and meter engines. The defaults are the
// reference behavior; the zero value is not usable on its own.
type EngineConfig struct {
	GateThresholdMs      int     `json:"gateThresholdMs"`
	TickMs               int     `json:"tickMs"`
	MeterAttack          float64 `json:"meterAttack"`
	MeterDecay           float64 `json:"meterDecay"`
	MeterSnap            float64 `json:"meterSnap"`
	JitterMin            float64 `json:"jitterMin"`
	JitterMax            float64 `json:"jitterMax"`
	MaxVoices            int     `json:"maxVoices"`
	StopGateOnModeSwitch bool    `json:"stopGateOnModeSwitch"`
}

// KeysConfig defines the pad key layout: one character per channel, in
// index order.
type KeysConfig struct {
	Pads string `json:"pads"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette   string `json:"palette,omitempty"`   // path to a GPL palette file
	StartView string `json:"startView,omitempty"` // mixer | meter | assign
}

// Config is the main configuration structure
type Config struct {
	Engine EngineConfig `json:"engine"`
	Keys   KeysConfig   `json:"keys,omitempty"`
	UI     UIConfig     `json:"ui,omitempty"`
}

// DefaultConfig returns a config with the reference defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			GateThresholdMs: 500,
			TickMs:          10,
			MeterAttack:     0.5,
			MeterDecay:      0.1,
			MeterSnap:       0.01,
			JitterMin:       0.9,
			JitterMax:       1.0,
			MaxVoices:       32,
		},
		Keys: KeysConfig{
			Pads: "zxcvbnm,",
		},
		UI: UIConfig{
			StartView: "mixer",
		},
	}
}

// GateThreshold returns the gate sustain window as a duration.
func (c *Config) GateThreshold() time.Duration {
	return time.Duration(c.Engine.GateThresholdMs) * time.Millisecond
}

// TickInterval returns the scheduler cadence as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Engine.TickMs) * time.Millisecond
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tinydaw"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
