package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Tempo != 127 || cfg.Length != 12 || cfg.Pulses != 7 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.OSC.Address != "/prefix/note" || cfg.OSC.DestPort != 8000 || cfg.OSC.BasePort != 8000 {
		t.Fatalf("unexpected osc defaults %+v", cfg.OSC)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Tick != 10*time.Millisecond {
		t.Fatalf("expected defaults, got tick %v", cfg.Tick)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
tempo: 90
pulses: 5
tick: 2ms
osc:
  destPort: 9000
realtime:
  policy: degrade
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Tempo != 90 || cfg.Pulses != 5 || cfg.Tick != 2*time.Millisecond {
		t.Fatalf("unexpected values %+v", cfg)
	}
	if cfg.OSC.DestPort != 9000 || cfg.OSC.Address != "/prefix/note" {
		t.Fatalf("unexpected osc %+v", cfg.OSC)
	}
	if cfg.Length != 12 {
		t.Fatalf("length default lost: %d", cfg.Length)
	}
	if cfg.RealTime.Policy != "degrade" || cfg.RealTime.BufferFrames != 512 {
		t.Fatalf("unexpected realtime %+v", cfg.RealTime)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tempo: [fast"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Tempo = 140
	cfg.MIDI.Port = "IAC Driver Bus 1"

	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Tempo != 140 || got.MIDI.Port != "IAC Driver Bus 1" || got.OSC.SendTimeout != cfg.OSC.SendTimeout {
		t.Fatalf("round trip mismatch %+v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero tempo", func(c *Config) { c.Tempo = 0 }},
		{"negative tempo", func(c *Config) { c.Tempo = -10 }},
		{"zero length", func(c *Config) { c.Length = 0 }},
		{"too many pulses", func(c *Config) { c.Pulses = 13 }},
		{"zero tick", func(c *Config) { c.Tick = 0 }},
		{"empty address", func(c *Config) { c.OSC.Address = "" }},
		{"dest port", func(c *Config) { c.OSC.DestPort = 70000 }},
		{"base port", func(c *Config) { c.OSC.BasePort = 0 }},
		{"policy", func(c *Config) { c.RealTime.Policy = "maybe" }},
		{"rt hint", func(c *Config) { c.RealTime.SampleRate = 0 }},
		{"rt priority zero", func(c *Config) { c.RealTime.Priority = 0 }},
		{"rt priority too high", func(c *Config) { c.RealTime.Priority = 150 }},
		{"midi channel", func(c *Config) { c.MIDI.Port = "x"; c.MIDI.Channel = 17 }},
		{"midi velocity", func(c *Config) { c.MIDI.Port = "x"; c.MIDI.Velocity = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}
