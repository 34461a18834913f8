// Package config loads the TOML configuration file that drives timing,
// audio and keymap options, matching the [timing]/[audio]/[keymap] schema
// spec.md §6 documents.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Timing controls the worker loop's cycle rate and how often it checks its
// own pace against the wall clock.
type Timing struct {
	ClockFrequency         float64 `toml:"clock_frequency"`
	CompensationFrequency  float64 `toml:"compensation_frequency"`
	WindowUpdateFrequency  float64 `toml:"window_update_frequency"`
}

// Audio controls the PC speaker beeper and the optional FM synth.
type Audio struct {
	Enabled             bool    `toml:"beeper_enabled"`
	BeeperVolume        float32 `toml:"beeper_volume"`
	SoundBlasterEnabled bool    `toml:"sound_blaster_enabled"`
}

// Config is the full, decoded configuration file.
type Config struct {
	Timing  Timing            `toml:"timing"`
	Audio   Audio             `toml:"audio"`
	Keymap  map[string]string `toml:"keymap"`
}

// Default returns the configuration the emulator falls back to when no
// file is given: a 4.77MHz clock (the original IBM PC's), a 1000Hz pacing
// check, a 60Hz window update, and the beeper on with the FM synth off.
func Default() Config {
	return Config{
		Timing: Timing{
			ClockFrequency:        4772726,
			CompensationFrequency: 1000,
			WindowUpdateFrequency: 60,
		},
		Audio: Audio{
			Enabled:      true,
			BeeperVolume: 0.25,
		},
		Keymap: map[string]string{},
	}
}

// Load reads and decodes a TOML configuration file at path.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg back out as TOML, e.g. so a first run can drop a
// starting point next to the binary. No comments are written.
func Save(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
