// Package config reads the cira settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/JulianFrattini/cira/internal/logger"
)

// Config holds the runtime settings.
type Config struct {
	// DataDir holds the requirement database.
	DataDir string
	Debug   bool

	// Model locations are recorded for the collaborators; cira never loads them itself.
	ClassificationModel string
	LabelingModel       string

	// Annotations is a file of sentence documents answering label requests.
	Annotations string
}

// Load reads .env files (missing ones are ignored) and then the environment.
// When DEV_CONTAINER is set the model locations are read from the _DEV variants.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		logger.Debug("no .env file found, using system environment variables")
	}

	dataDir := getEnvString("CIRA_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".cira")
	}

	suffix := ""
	if _, ok := os.LookupEnv("DEV_CONTAINER"); ok {
		suffix = "_DEV"
	}

	return &Config{
		DataDir:             dataDir,
		Debug:               getEnvBool("CIRA_DEBUG", false),
		ClassificationModel: getEnvString("MODEL_CLASSIFICATION"+suffix, ""),
		LabelingModel:       getEnvString("MODEL_LABELING"+suffix, ""),
		Annotations:         getEnvString("CIRA_ANNOTATIONS", ""),
	}, nil
}

// DatabasePath is the location of the requirement database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "cira.db")
}

func getEnvString(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if value == "true" || value == "false" {
		return value == "true"
	}
	return defaultValue
}
