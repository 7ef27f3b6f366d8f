package config

import (
	"runtime"
	"testing"
)

func setTempConfigDir(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("config dir override not supported on windows")
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoadCreatesDefaultsOnFirstRun(t *testing.T) {
	setTempConfigDir(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Volume != Default().Volume {
		t.Errorf("volume = %v, want default %v", config.Volume, Default().Volume)
	}

	// The defaults must have been persisted; a second load reads them back.
	if again, err := Load(); err != nil || again != config {
		t.Errorf("second Load() = %+v, %v, want %+v", again, err, config)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	setTempConfigDir(t)

	want := Config{
		Volume:    0.5,
		ServerURL: "https://miu.gacha.boo",
	}

	if err := Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadClampsVolume(t *testing.T) {
	setTempConfigDir(t)

	if err := Save(Config{Volume: 7}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.Volume != 1 {
		t.Errorf("volume = %v, want clamped to 1", got.Volume)
	}
}
