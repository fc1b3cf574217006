// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Defaults applied by the CLI when neither a flag, environment variable, nor
// config file sets a value.
const (
	DefaultFieldName       = "files"
	DefaultFilename        = "download.zip"
	DefaultDownloadDir     = "downloads"
	DefaultDropDir         = "drop"
	DefaultSettle          = 500 * time.Millisecond
	DefaultHistoryDir      = ".convert-drop"
	DefaultPreviewAddr     = "127.0.0.1:8091"
	DefaultUserAgentPrefix = "convert-drop/"
)

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no timeout: a hung
	// conversion request waits until the process is interrupted.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "convert-drop/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ConvertConfig holds settings for the upload-convert-download round trip.
type ConvertConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the conversion service URL every file is POSTed to.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// FieldName is the multipart form field carrying the file (default "files").
	FieldName string `json:"field_name" yaml:"field_name" mapstructure:"field_name"`

	// DefaultFilename names saved artifacts whose response carries no usable
	// attachment filename (default "download.zip").
	DefaultFilename string `json:"default_filename" yaml:"default_filename" mapstructure:"default_filename"`

	// DownloadDir is where converted artifacts are saved (default "downloads").
	DownloadDir string `json:"download_dir" yaml:"download_dir" mapstructure:"download_dir"`
}

// WatchConfig holds settings for the drop folder.
type WatchConfig struct {
	// Dir is the drop folder watched for new files (default "drop").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Settle is how long a file must stay unmodified before it counts as
	// dropped (default 500ms).
	Settle time.Duration `json:"settle" yaml:"settle" mapstructure:"settle"`
}

// HistoryConfig holds settings for the job history ledger.
type HistoryConfig struct {
	// Enabled turns job recording on or off (default true).
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Dir is the directory holding the history database (default ".convert-drop").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// PreviewConfig holds settings for the artifact preview server.
type PreviewConfig struct {
	// Addr is the listen address (default "127.0.0.1:8091").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Config groups all component configurations.
type Config struct {
	Convert ConvertConfig `json:"convert" yaml:"convert" mapstructure:"convert"`
	Watch   WatchConfig   `json:"watch" yaml:"watch" mapstructure:"watch"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Preview PreviewConfig `json:"preview" yaml:"preview" mapstructure:"preview"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
// History.Enabled is left alone since false is a meaningful setting.
func (c Config) WithDefaults(version string) Config {
	if c.Convert.FieldName == "" {
		c.Convert.FieldName = DefaultFieldName
	}
	if c.Convert.DefaultFilename == "" {
		c.Convert.DefaultFilename = DefaultFilename
	}
	if c.Convert.DownloadDir == "" {
		c.Convert.DownloadDir = DefaultDownloadDir
	}
	if c.Convert.UserAgent == "" {
		c.Convert.UserAgent = DefaultUserAgentPrefix + version
	}
	if c.Watch.Dir == "" {
		c.Watch.Dir = DefaultDropDir
	}
	if c.Watch.Settle <= 0 {
		c.Watch.Settle = DefaultSettle
	}
	if c.History.Dir == "" {
		c.History.Dir = DefaultHistoryDir
	}
	if c.Preview.Addr == "" {
		c.Preview.Addr = DefaultPreviewAddr
	}
	return c
}
