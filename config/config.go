package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go-euclid/realtime"
)

// ErrInvalid is returned by Validate for unusable settings
var ErrInvalid = errors.New("invalid config")

// OSCConfig defines the trigger transport
type OSCConfig struct {
	Address     string        `yaml:"address"`
	DestHost    string        `yaml:"destHost"`
	DestPort    int           `yaml:"destPort"`
	BindHost    string        `yaml:"bindHost"`
	BasePort    int           `yaml:"basePort"`
	SendTimeout time.Duration `yaml:"sendTimeout"`
}

// RealTimeConfig defines the scheduling class request for the sequencer thread
type RealTimeConfig struct {
	Policy       string `yaml:"policy"` // fail-fast or degrade
	BufferFrames int    `yaml:"bufferFrames"`
	SampleRate   int    `yaml:"sampleRate"`
	Priority     int    `yaml:"priority"`
}

// MIDIConfig defines the optional MIDI gate mirror (disabled when Port is empty)
type MIDIConfig struct {
	Port     string `yaml:"port,omitempty"`
	Channel  int    `yaml:"channel,omitempty"` // 1-16
	Note     int    `yaml:"note,omitempty"`
	Velocity int    `yaml:"velocity,omitempty"`
}

// UIConfig stores console output preferences
type UIConfig struct {
	Palette string `yaml:"palette,omitempty"` // GIMP .gpl file
	Quiet   bool   `yaml:"quiet,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Tempo       float64        `yaml:"tempo"`
	Length      int            `yaml:"length"`
	Pulses      int            `yaml:"pulses"`
	Tick        time.Duration  `yaml:"tick"`
	FireOnStart bool           `yaml:"fireOnStart,omitempty"`
	OSC         OSCConfig      `yaml:"osc"`
	RealTime    RealTimeConfig `yaml:"realtime"`
	MIDI        MIDIConfig     `yaml:"midi,omitempty"`
	UI          UIConfig       `yaml:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tempo:  127,
		Length: 12,
		Pulses: 7,
		Tick:   10 * time.Millisecond,
		OSC: OSCConfig{
			Address:     "/prefix/note",
			DestHost:    "127.0.0.1",
			DestPort:    8000,
			BindHost:    "127.0.0.1",
			BasePort:    8000,
			SendTimeout: 2 * time.Millisecond,
		},
		RealTime: RealTimeConfig{
			Policy:       string(realtime.FailFast),
			BufferFrames: 512,
			SampleRate:   44100,
			Priority:     10,
		},
		MIDI: MIDIConfig{
			Channel:  1,
			Note:     60,
			Velocity: 100,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-euclid"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path over the defaults.
// A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	return cfg, nil
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks that the config can drive the sequencer
func (c *Config) Validate() error {
	switch {
	case c.Tempo <= 0:
		return errors.Wrapf(ErrInvalid, "tempo %v must be positive", c.Tempo)
	case c.Length <= 0:
		return errors.Wrapf(ErrInvalid, "length %d must be positive", c.Length)
	case c.Pulses < 0 || c.Pulses > c.Length:
		return errors.Wrapf(ErrInvalid, "pulses %d out of range 0..%d", c.Pulses, c.Length)
	case c.Tick <= 0:
		return errors.Wrapf(ErrInvalid, "tick %v must be positive", c.Tick)
	case c.OSC.Address == "":
		return errors.Wrap(ErrInvalid, "osc address is empty")
	case !validPort(c.OSC.DestPort):
		return errors.Wrapf(ErrInvalid, "destination port %d out of range", c.OSC.DestPort)
	case !validPort(c.OSC.BasePort):
		return errors.Wrapf(ErrInvalid, "base port %d out of range", c.OSC.BasePort)
	case c.OSC.SendTimeout < 0:
		return errors.Wrapf(ErrInvalid, "send timeout %v is negative", c.OSC.SendTimeout)
	case c.RealTime.BufferFrames <= 0 || c.RealTime.SampleRate <= 0:
		return errors.Wrapf(ErrInvalid, "realtime hint %d frames @ %d Hz", c.RealTime.BufferFrames, c.RealTime.SampleRate)
	case c.RealTime.Priority < realtime.MinPriority || c.RealTime.Priority > realtime.MaxPriority:
		return errors.Wrapf(ErrInvalid, "realtime priority %d out of range %d..%d",
			c.RealTime.Priority, realtime.MinPriority, realtime.MaxPriority)
	}
	if _, err := realtime.ParsePolicy(c.RealTime.Policy); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if c.MIDI.Port != "" {
		if c.MIDI.Channel < 1 || c.MIDI.Channel > 16 {
			return errors.Wrapf(ErrInvalid, "midi channel %d out of range 1..16", c.MIDI.Channel)
		}
		if c.MIDI.Note < 0 || c.MIDI.Note > 127 || c.MIDI.Velocity < 1 || c.MIDI.Velocity > 127 {
			return errors.Wrapf(ErrInvalid, "midi note %d velocity %d", c.MIDI.Note, c.MIDI.Velocity)
		}
	}
	return nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
