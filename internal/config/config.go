// Package config reads server settings from an optional .env file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseURL string
	MediaDir    string
	LogLevel    string
	LogFormat   string

	ElapsedTick   time.Duration
	DetectionTick time.Duration
	AnalysisDelay time.Duration

	CameraDeny bool
}

func Default() Config {
	return Config{
		Addr:          ":8080",
		LogLevel:      "info",
		LogFormat:     "json",
		ElapsedTick:   time.Second,
		DetectionTick: 3 * time.Second,
		AnalysisDelay: 2000 * time.Millisecond,
	}
}

// Load reads envFile (a missing file is fine) and then the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any key lookup, which keeps tests off the
// real environment.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("ADDR"); ok && v != "" {
		cfg.Addr = v
	} else if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Addr = ":" + v
	}
	if v, ok := lookup("DATABASE_URL"); ok {
		cfg.DatabaseURL = v
	}
	if v, ok := lookup("MEDIA_DIR"); ok {
		cfg.MediaDir = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		if v != "json" && v != "console" {
			return Config{}, fmt.Errorf("LOG_FORMAT: want json or console, got %q", v)
		}
		cfg.LogFormat = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ELAPSED_TICK", &cfg.ElapsedTick},
		{"DETECTION_TICK", &cfg.DetectionTick},
		{"ANALYSIS_DELAY", &cfg.AnalysisDelay},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", d.key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("%s: must be positive, got %s", d.key, v)
		}
		*d.dst = parsed
	}

	if v, ok := lookup("CAMERA_DENY"); ok && v != "" {
		deny, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("CAMERA_DENY: %w", err)
		}
		cfg.CameraDeny = deny
	}

	return cfg, nil
}
