package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".estatewatch"

// DefaultEnvFile is the dotenv file loaded from the current directory.
const DefaultEnvFile = ".env"

// Environment variables overriding the configuration file.
const (
	EnvEndpoint      = "ESTATEWATCH_ENDPOINT"
	EnvLinkBase      = "ESTATEWATCH_LINK_BASE"
	EnvSchedule      = "ESTATEWATCH_SCHEDULE"
	EnvStorageDriver = "ESTATEWATCH_STORAGE_DRIVER"
	EnvPostgresDSN   = "ESTATEWATCH_POSTGRES_DSN"
	EnvSMTPHost      = "ESTATEWATCH_SMTP_HOST"
	EnvSMTPUsername  = "ESTATEWATCH_SMTP_USERNAME"
	EnvSMTPPassword  = "ESTATEWATCH_SMTP_PASSWORD"
	EnvMailTo        = "ESTATEWATCH_MAIL_TO"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .estatewatch in the current directory
// 3. Look for .estatewatch in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment. Variables already set are not overridden, and a missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays the ESTATEWATCH_* variables found by lookup onto c.
// ESTATEWATCH_MAIL_TO is a comma-separated list.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(&c.Endpoint, EnvEndpoint)
	str(&c.LinkBase, EnvLinkBase)
	str(&c.Schedule, EnvSchedule)
	str(&c.StorageDriver, EnvStorageDriver)
	str(&c.PostgresDSN, EnvPostgresDSN)
	str(&c.SMTPHost, EnvSMTPHost)
	str(&c.SMTPUsername, EnvSMTPUsername)
	str(&c.SMTPPassword, EnvSMTPPassword)

	if v, ok := lookup(EnvMailTo); ok && v != "" {
		c.MailTo = splitList(v)
	}
}

// Load overlays the configuration file and the environment onto c.
// An explicitly given ConfigFilePath that does not exist is an error;
// a missing default file is not.
func Load(c *Config) error {
	if err := LoadEnvFile(""); err != nil {
		return err
	}

	path := FindConfigFile(c.ConfigFilePath)
	if path == "" && c.ConfigFilePath != "" {
		return fmt.Errorf("%w: %s", ErrConfigNotFound, c.ConfigFilePath)
	}
	if path != "" {
		f, err := LoadConfigFile(path)
		if err != nil {
			return err
		}
		f.Apply(c)
	}

	ApplyEnv(c, os.LookupEnv)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
