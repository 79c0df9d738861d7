package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/quantmind-br/sri-ingest/internal/portal"
	"github.com/quantmind-br/sri-ingest/internal/utils"
	"github.com/quantmind-br/sri-ingest/pkg/version"
)

// Default values
const (
	DefaultDatasetName = "vehiculos"

	DefaultStorageBackend = "local"
	DefaultBaseDir        = "./output"
	DefaultStorageTimeout = 60 * time.Second

	DefaultDedupPolicy  = "auto"
	DefaultCacheEnabled = true

	DefaultHTTPTimeout    = 40 * time.Second
	DefaultHTTPMaxRetries = 0

	DefaultStartYear = 2017

	DefaultTriggerMaxRetries = 2

	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"

	// EnvPrefix prefixes every environment override
	EnvPrefix = "SRI_INGEST"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sri-ingest"
	}
	return filepath.Join(home, ".sri-ingest")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			CSVURL:      portal.DefaultCSVURL,
			MetaPageURL: portal.DefaultMetaPageURL,
			CKANAPIURL:  portal.DefaultCKANAPIURL,
			DatasetID:   portal.DefaultDatasetID,
			SourceName:  portal.DefaultSourceName,
		},
		Dataset: DatasetConfig{
			Name: DefaultDatasetName,
		},
		Storage: StorageConfig{
			Backend: DefaultStorageBackend,
			BaseDir: DefaultBaseDir,
			Timeout: DefaultStorageTimeout,
		},
		Dedup: DedupConfig{
			Policy:       DefaultDedupPolicy,
			CacheEnabled: DefaultCacheEnabled,
			CacheDir:     CacheDir(),
		},
		HTTP: HTTPConfig{
			Timeout:    DefaultHTTPTimeout,
			UserAgent:  version.UserAgent(),
			MaxRetries: DefaultHTTPMaxRetries,
		},
		Run: RunConfig{
			DefaultStart: DefaultStartYear,
			Timezone:     utils.DefaultTimezone,
		},
		Trigger: TriggerConfig{
			MaxRetries: DefaultTriggerMaxRetries,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
