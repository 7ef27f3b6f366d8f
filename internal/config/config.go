package config

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultVolume = 0.8

// Config is the persisted client configuration.
type Config struct {
	Volume    float64 `json:"volume"`
	ServerURL string  `json:"serverUrl,omitempty"`
}

func Default() Config {
	return Config{
		Volume: defaultVolume,
	}
}

// Load reads the config file, creating it with defaults on first run.
func Load() (Config, error) {
	path, err := filePath()
	if err != nil {
		return Default(), err
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			config := Default()
			if err := Save(config); err != nil {
				return config, err
			}

			log.Debug().
				Str("path", path).
				Msg("Created default config")

			return config, nil
		}

		return Default(), err
	}

	var config Config
	if err := json.Unmarshal(contents, &config); err != nil {
		return Default(), err
	}

	if config.Volume < 0 {
		config.Volume = 0
	}

	if config.Volume > 1 {
		config.Volume = 1
	}

	return config, nil
}

func Save(config Config) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	contents, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, contents, 0o644)
}

func filePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "miu-sync", "config.json"), nil
}
