package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pcemu.toml")
	body := `
[timing]
clock_frequency = 4772726.0
compensation_frequency = 1000.0
window_update_frequency = 60.0

[audio]
beeper_enabled = true
beeper_volume = 0.5
sound_blaster_enabled = true

[keymap]
F1 = "help"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.BeeperVolume != 0.5 {
		t.Errorf("BeeperVolume=%v want 0.5", cfg.Audio.BeeperVolume)
	}
	if !cfg.Audio.SoundBlasterEnabled {
		t.Error("expected SoundBlasterEnabled=true")
	}
	if cfg.Keymap["F1"] != "help" {
		t.Errorf("keymap[F1]=%q want help", cfg.Keymap["F1"])
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/pcemu.toml"); err == nil {
		t.Fatal("expected an error loading a missing config file")
	}
}

func TestDefaultMatchesOriginalPCClock(t *testing.T) {
	d := Default()
	if d.Timing.ClockFrequency != 4772726 {
		t.Errorf("ClockFrequency=%v want 4772726", d.Timing.ClockFrequency)
	}
}
