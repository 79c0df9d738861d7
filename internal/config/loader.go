package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envAliases maps config keys to extra variable names accepted for them
var envAliases = map[string][]string{
	"trigger.host":   {"DATABRICKS_HOST"},
	"trigger.token":  {"DATABRICKS_TOKEN"},
	"trigger.job_id": {"DATABRICKS_JOB_ID", "JOB_ID"},
	"storage.bucket": {"GCS_BUCKET"},
}

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load loads configuration from file, environment, and defaults.
// Flags bound on v take precedence. An empty configFile searches
// ~/.sri-ingest and the working directory for config.yaml.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Environment variables (SRI_INGEST_*)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("source.csv_url", d.Source.CSVURL)
	v.SetDefault("source.meta_page_url", d.Source.MetaPageURL)
	v.SetDefault("source.ckan_api_url", d.Source.CKANAPIURL)
	v.SetDefault("source.dataset_id", d.Source.DatasetID)
	v.SetDefault("source.source_name", d.Source.SourceName)

	v.SetDefault("dataset.name", d.Dataset.Name)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.base_dir", d.Storage.BaseDir)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.timeout", d.Storage.Timeout)

	v.SetDefault("dedup.policy", d.Dedup.Policy)
	v.SetDefault("dedup.cache_enabled", d.Dedup.CacheEnabled)
	v.SetDefault("dedup.cache_dir", d.Dedup.CacheDir)

	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.max_retries", d.HTTP.MaxRetries)
	v.SetDefault("http.proxy_url", "")

	v.SetDefault("run.default_start", d.Run.DefaultStart)
	v.SetDefault("run.timezone", d.Run.Timezone)

	v.SetDefault("trigger.enabled", false)
	v.SetDefault("trigger.host", "")
	v.SetDefault("trigger.token", "")
	v.SetDefault("trigger.job_id", 0)
	v.SetDefault("trigger.max_retries", d.Trigger.MaxRetries)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// WriteDefault writes the default configuration to path unless it exists
func WriteDefault(path string) error {
	data, err := Default().YAML()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
