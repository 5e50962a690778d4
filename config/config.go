// Package config loads settings from defaults, an optional YAML file, an
// optional .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/banachtech/option-pricer/errs"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Address string `yaml:"address"`
	// APIKeyHash is a bcrypt hash of the bearer token. Empty disables auth.
	APIKeyHash string `yaml:"api_key_hash"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// EngineConfig holds pricing defaults shared by the CLI and the API.
type EngineConfig struct {
	Workers     int     `yaml:"workers"`
	Seed        uint64  `yaml:"seed"` // 0 seeds from the clock
	Paths       int     `yaml:"paths"`
	Batch       int     `yaml:"batch"`
	TargetWidth float64 `yaml:"target_width"`
	Depth       int     `yaml:"depth"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: "0.0.0.0:8080"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Engine: EngineConfig{
			Paths:       1000000,
			Batch:       100000,
			TargetWidth: 0.01,
			Depth:       500,
		},
	}
}

// Load reads path (skipped when empty or missing), then the env files (".env"
// when none are named, missing files are skipped), then the environment.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %v: %w", path, err, errs.ErrInvalidArgument)
			}
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var err error
	cfg.Server.Address = getEnv("SERVER_ADDRESS", cfg.Server.Address)
	cfg.Server.APIKeyHash = getEnv("API_KEY_HASH", cfg.Server.APIKeyHash)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	if cfg.Engine.Workers, err = getEnvInt("ENGINE_WORKERS", cfg.Engine.Workers); err != nil {
		return nil, err
	}
	if cfg.Engine.Seed, err = getEnvUint("ENGINE_SEED", cfg.Engine.Seed); err != nil {
		return nil, err
	}
	if cfg.Engine.Paths, err = getEnvInt("ENGINE_PATHS", cfg.Engine.Paths); err != nil {
		return nil, err
	}
	if cfg.Engine.Batch, err = getEnvInt("ENGINE_BATCH", cfg.Engine.Batch); err != nil {
		return nil, err
	}
	if cfg.Engine.TargetWidth, err = getEnvFloat("ENGINE_TARGET_WIDTH", cfg.Engine.TargetWidth); err != nil {
		return nil, err
	}
	if cfg.Engine.Depth, err = getEnvInt("ENGINE_DEPTH", cfg.Engine.Depth); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Engine.Paths <= 0:
		return fmt.Errorf("config: engine.paths %d must be > 0: %w", c.Engine.Paths, errs.ErrInvalidArgument)
	case c.Engine.Batch <= 0:
		return fmt.Errorf("config: engine.batch %d must be > 0: %w", c.Engine.Batch, errs.ErrInvalidArgument)
	case c.Engine.Depth <= 0:
		return fmt.Errorf("config: engine.depth %d must be > 0: %w", c.Engine.Depth, errs.ErrInvalidArgument)
	case c.Engine.TargetWidth < 0:
		return fmt.Errorf("config: engine.target_width %v must be >= 0: %w", c.Engine.TargetWidth, errs.ErrInvalidArgument)
	case c.Engine.Workers < 0:
		return fmt.Errorf("config: engine.workers %d must be >= 0: %w", c.Engine.Workers, errs.ErrInvalidArgument)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: logging.level: %v: %w", err, errs.ErrInvalidArgument)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: logging.format %q must be text or json: %w", c.Logging.Format, errs.ErrInvalidArgument)
	}
	return nil
}

// SetupLogging applies the logging section to the standard logrus logger.
func (c *Config) SetupLogging() error {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return fmt.Errorf("config: logging.level: %v: %w", err, errs.ErrInvalidArgument)
	}
	log.SetLevel(level)
	if strings.EqualFold(c.Logging.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %v: %w", key, value, err, errs.ErrInvalidArgument)
	}
	return n, nil
}

func getEnvUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %v: %w", key, value, err, errs.ErrInvalidArgument)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %v: %w", key, value, err, errs.ErrInvalidArgument)
	}
	return f, nil
}
