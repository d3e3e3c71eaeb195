package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"braindrive-settings/internal/models"
)

// Config holds application configuration.
type Config struct {
	// Base URL of the host application's HTTP API. Empty disables the REST
	// fallback.
	APIURL   string `yaml:"apiUrl"`
	APIToken string `yaml:"apiToken"`
	UserID   string `yaml:"userId"`

	// SQLite file for the local settings store. Empty uses the build default.
	DBPath string `yaml:"dbPath"`

	PollInterval      time.Duration `yaml:"pollInterval"`
	VisibilityTimeout time.Duration `yaml:"visibilityTimeout"`
	VisibilityPoll    time.Duration `yaml:"visibilityPoll"`

	// UseKeyring keeps server API keys in the OS keyring instead of the
	// settings blob.
	UseKeyring bool `yaml:"useKeyring"`
	Debug      bool `yaml:"debug"`
}

// Load reads an optional .env file from the project root, then the
// environment.
func Load() *Config {
	_ = LoadEnv()
	return FromEnv()
}

func FromEnv() *Config {
	return &Config{
		APIURL:            getEnvOrDefault("BRAINDRIVE_API_URL", "http://localhost:8005"),
		APIToken:          getEnvOrDefault("BRAINDRIVE_API_TOKEN", ""),
		UserID:            getEnvOrDefault("BRAINDRIVE_USER_ID", models.CurrentUser),
		DBPath:            getEnvOrDefault("BRAINDRIVE_DB_PATH", ""),
		PollInterval:      getDurationOrDefault("BRAINDRIVE_POLL_INTERVAL", 2*time.Second),
		VisibilityTimeout: getDurationOrDefault("BRAINDRIVE_VISIBILITY_TIMEOUT", 30*time.Second),
		VisibilityPoll:    getDurationOrDefault("BRAINDRIVE_VISIBILITY_POLL", 2*time.Second),
		UseKeyring:        getBoolOrDefault("BRAINDRIVE_USE_KEYRING", false),
		Debug:             getBoolOrDefault("DEBUG_MODE", false),
	}
}

// fileConfig is the YAML overlay. Booleans are pointers so a file can turn
// an option off.
type fileConfig struct {
	APIURL            string        `yaml:"apiUrl"`
	APIToken          string        `yaml:"apiToken"`
	UserID            string        `yaml:"userId"`
	DBPath            string        `yaml:"dbPath"`
	PollInterval      time.Duration `yaml:"pollInterval"`
	VisibilityTimeout time.Duration `yaml:"visibilityTimeout"`
	VisibilityPoll    time.Duration `yaml:"visibilityPoll"`
	UseKeyring        *bool         `yaml:"useKeyring"`
	Debug             *bool         `yaml:"debug"`
}

// MergeFile overlays the fields a YAML file sets onto c.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if file.APIURL != "" {
		c.APIURL = file.APIURL
	}
	if file.APIToken != "" {
		c.APIToken = file.APIToken
	}
	if file.UserID != "" {
		c.UserID = file.UserID
	}
	if file.DBPath != "" {
		c.DBPath = file.DBPath
	}
	if file.PollInterval > 0 {
		c.PollInterval = file.PollInterval
	}
	if file.VisibilityTimeout > 0 {
		c.VisibilityTimeout = file.VisibilityTimeout
	}
	if file.VisibilityPoll > 0 {
		c.VisibilityPoll = file.VisibilityPoll
	}
	if file.UseKeyring != nil {
		c.UseKeyring = *file.UseKeyring
	}
	if file.Debug != nil {
		c.Debug = *file.Debug
	}
	return nil
}

// FindProjectRoot walks up from the working directory to the nearest go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// LoadEnv loads <project root>/.env, or ./.env outside a source checkout.
func LoadEnv() error {
	path := ".env"
	if root, err := FindProjectRoot(); err == nil {
		path = filepath.Join(root, ".env")
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
