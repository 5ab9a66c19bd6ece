package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config describes where to extract from and where to apply to. Every field
// may come from the YAML file or from the environment; the environment wins
// when both are set.
type Config struct {
	SourceURL string   `yaml:"source_url"`
	TargetURL string   `yaml:"target_url"`
	Tables    []string `yaml:"tables"`
}

// Load reads the optional YAML config and overlays environment variables.
// A missing file is not an error; the environment alone can carry a full
// configuration.
func Load(filename string) (*Config, error) {
	loadEnv()

	cfg := &Config{}
	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshalling %s: %w", filename, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if url := os.Getenv("SOURCE_DATABASE_URL"); url != "" {
		cfg.SourceURL = url
	}
	if url := os.Getenv("TARGET_DATABASE_URL"); url != "" {
		cfg.TargetURL = url
	}
	// Single-database setups point both ends at DATABASE_URL.
	if url := os.Getenv("DATABASE_URL"); url != "" {
		if cfg.SourceURL == "" {
			cfg.SourceURL = url
		}
		if cfg.TargetURL == "" {
			cfg.TargetURL = url
		}
	}

	return cfg, nil
}

func loadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
}
