package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/postpilot/postpilot-backend/internal/platform/envutil"
)

type ServerConfig struct {
	Port int `yaml:"port"`
}

type ModelConfig struct {
	Name string `yaml:"name"`
}

// DraftsConfig controls the three-variant generation pipeline. Temperatures
// must be strictly increasing: variant 1 stays closest to the user's style,
// variant 3 is the most exploratory.
type DraftsConfig struct {
	Temperatures []float64 `yaml:"temperatures"`
	WrapperTags  []string  `yaml:"wrapper_tags"`
}

type TranscriptsConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	DelayMS     int `yaml:"delay_ms"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Model       ModelConfig       `yaml:"model"`
	Drafts      DraftsConfig      `yaml:"drafts"`
	Transcripts TranscriptsConfig `yaml:"transcripts"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Model:  ModelConfig{Name: "gpt-5.2"},
		Drafts: DraftsConfig{
			Temperatures: []float64{0.7, 0.8, 0.9},
			WrapperTags:  []string{"<current_post>", "</current_post>"},
		},
		Transcripts: TranscriptsConfig{
			MaxAttempts: 10,
			DelayMS:     2000,
		},
	}
}

// Load reads the yaml config at path (optional; empty path or a missing file
// keeps defaults), applies env overrides, and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Server.Port = envutil.Int("SERVER_PORT", cfg.Server.Port)
	cfg.Model.Name = envutil.Str("OPENAI_MODEL", cfg.Model.Name)
	cfg.Transcripts.MaxAttempts = envutil.Int("TRANSCRIPT_MAX_ATTEMPTS", cfg.Transcripts.MaxAttempts)
	cfg.Transcripts.DelayMS = envutil.Int("TRANSCRIPT_DELAY_MS", cfg.Transcripts.DelayMS)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Drafts.Temperatures) != 3 {
		return fmt.Errorf("drafts.temperatures: want 3 entries, got %d", len(c.Drafts.Temperatures))
	}
	for i := 1; i < len(c.Drafts.Temperatures); i++ {
		if c.Drafts.Temperatures[i] <= c.Drafts.Temperatures[i-1] {
			return fmt.Errorf("drafts.temperatures must be strictly increasing, got %v", c.Drafts.Temperatures)
		}
	}
	if c.Transcripts.MaxAttempts <= 0 {
		return fmt.Errorf("transcripts.max_attempts must be positive, got %d", c.Transcripts.MaxAttempts)
	}
	if c.Transcripts.DelayMS < 0 {
		return fmt.Errorf("transcripts.delay_ms must not be negative, got %d", c.Transcripts.DelayMS)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

func (t TranscriptsConfig) Delay() time.Duration {
	return time.Duration(t.DelayMS) * time.Millisecond
}
