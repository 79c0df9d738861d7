package config

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/quantmind-br/sri-ingest/internal/domain"
	"github.com/quantmind-br/sri-ingest/internal/utils"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Source  SourceConfig  `mapstructure:"source" yaml:"source"`
	Dataset DatasetConfig `mapstructure:"dataset" yaml:"dataset"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Dedup   DedupConfig   `mapstructure:"dedup" yaml:"dedup"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
	Run     RunConfig     `mapstructure:"run" yaml:"run"`
	Trigger TriggerConfig `mapstructure:"trigger" yaml:"trigger"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SourceConfig locates the portal. URL templates substitute {year}.
type SourceConfig struct {
	CSVURL      string `mapstructure:"csv_url" yaml:"csv_url" validate:"required"`
	MetaPageURL string `mapstructure:"meta_page_url" yaml:"meta_page_url" validate:"required"`
	CKANAPIURL  string `mapstructure:"ckan_api_url" yaml:"ckan_api_url"`
	DatasetID   string `mapstructure:"dataset_id" yaml:"dataset_id" validate:"required"`
	SourceName  string `mapstructure:"source_name" yaml:"source_name" validate:"required"`
}

// DatasetConfig names the dataset in storage paths and manifests
type DatasetConfig struct {
	Name string `mapstructure:"name" yaml:"name" validate:"required,excludesall=/"`
}

// StorageConfig selects where artifacts, state and manifests live
type StorageConfig struct {
	Backend  string        `mapstructure:"backend" yaml:"backend" validate:"oneof=local gcs"`
	BaseDir  string        `mapstructure:"base_dir" yaml:"base_dir" validate:"required_if=Backend local"`
	Bucket   string        `mapstructure:"bucket" yaml:"bucket" validate:"required_if=Backend gcs"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DedupConfig selects the duplicate detection policy
type DedupConfig struct {
	Policy       string `mapstructure:"policy" yaml:"policy" validate:"oneof=auto last_hash scan"`
	CacheEnabled bool   `mapstructure:"cache_enabled" yaml:"cache_enabled"`
	CacheDir     string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

// HTTPConfig contains portal client settings
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent  string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`
	ProxyURL   string        `mapstructure:"proxy_url" yaml:"proxy_url" validate:"omitempty,url"`
}

// RunConfig contains run defaults
type RunConfig struct {
	DefaultStart int    `mapstructure:"default_start" yaml:"default_start" validate:"min=1900,max=2100"`
	Timezone     string `mapstructure:"timezone" yaml:"timezone"`
}

// TriggerConfig configures the downstream Databricks job
type TriggerConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Host       string `mapstructure:"host" yaml:"host" validate:"required_if=Enabled true"`
	Token      string `mapstructure:"token" yaml:"token" validate:"required_if=Enabled true"`
	JobID      int64  `mapstructure:"job_id" yaml:"job_id" validate:"required_if=Enabled true,min=0"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=pretty json"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate fills zero values with defaults and checks the result. Failures
// are *domain.ValidationError values, joined when several fields fail.
func (c *Config) Validate() error {
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultStorageBackend
	}
	if c.Storage.Timeout < time.Second {
		c.Storage.Timeout = DefaultStorageTimeout
	}
	if c.Dedup.Policy == "" {
		c.Dedup.Policy = DefaultDedupPolicy
	}
	if c.HTTP.Timeout < time.Second {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.HTTP.MaxRetries < 0 {
		c.HTTP.MaxRetries = DefaultHTTPMaxRetries
	}
	if c.Trigger.MaxRetries < 0 {
		c.Trigger.MaxRetries = DefaultTriggerMaxRetries
	}
	if c.Run.Timezone == "" {
		c.Run.Timezone = utils.DefaultTimezone
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	c.Storage.Prefix = strings.Trim(c.Storage.Prefix, "/")

	if err := validate.Struct(c); err != nil {
		return describe(err)
	}

	for name, tmpl := range map[string]string{
		"source.csv_url":       c.Source.CSVURL,
		"source.meta_page_url": c.Source.MetaPageURL,
		"source.dataset_id":    c.Source.DatasetID,
	} {
		if !strings.Contains(tmpl, "{year}") {
			return domain.NewValidationError(name, "missing {year} placeholder")
		}
	}

	if _, err := time.LoadLocation(c.Run.Timezone); err != nil && c.Run.Timezone != utils.DefaultTimezone {
		return domain.NewValidationError("run.timezone", err.Error())
	}
	return nil
}

// describe turns validator errors into one ValidationError per field
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
		msg := "fails " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		errs = append(errs, domain.NewValidationError(field, msg))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy with secrets masked
func (c *Config) Redacted() *Config {
	out := *c
	if out.Trigger.Token != "" {
		out.Trigger.Token = "********"
	}
	return &out
}

// YAML renders the configuration with secrets masked
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}
