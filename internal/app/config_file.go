package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections map naturally to flags.
type FileConfig struct {
	Source struct {
		BaseURL        string `yaml:"baseURL" json:"baseURL"`
		UserAgent      string `yaml:"userAgent" json:"userAgent"`
		AcceptLanguage string `yaml:"acceptLanguage" json:"acceptLanguage"`
		Insecure       bool   `yaml:"insecure" json:"insecure"`
	} `yaml:"source" json:"source"`

	Walk struct {
		DaysAgo        int           `yaml:"daysAgo" json:"daysAgo"`
		MaxPages       int           `yaml:"maxPages" json:"maxPages"`
		MinPageRecords int           `yaml:"minPageRecords" json:"minPageRecords"`
		PageDelay      time.Duration `yaml:"pageDelay" json:"pageDelay"`
	} `yaml:"walk" json:"walk"`

	Fetch struct {
		MaxAttempts int           `yaml:"maxAttempts" json:"maxAttempts"`
		RetryDelay  time.Duration `yaml:"retryDelay" json:"retryDelay"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"fetch" json:"fetch"`

	Output struct {
		Path         string `yaml:"path" json:"path"`
		AppendDedupe bool   `yaml:"appendDedupe" json:"appendDedupe"`
	} `yaml:"output" json:"output"`

	Debug struct {
		Dir string `yaml:"dir" json:"dir"`
	} `yaml:"debug" json:"debug"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Defaults the flag layer applies; file config may override a field only
// while it still holds its default.
const (
	DefaultBaseURL        = "https://www.bcc.com.tw/news3_search.asp"
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"
	DefaultAcceptLanguage = "zh-TW,zh;q=0.9,en;q=0.8"
	DefaultOutputPath     = "data/playlog.csv"
	DefaultMaxPages       = 50
	DefaultMinPageRecords = 5
	DefaultMaxAttempts    = 6
	DefaultPageDelay      = 600 * time.Millisecond
	DefaultRetryDelay     = 1500 * time.Millisecond
	DefaultRequestTimeout = 30 * time.Second
)

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that still hold their defaults. Flags should already have been parsed;
// this lets file config supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.BaseURL == "" || cfg.BaseURL == DefaultBaseURL) && fc.Source.BaseURL != "" {
		cfg.BaseURL = fc.Source.BaseURL
	}
	if (cfg.UserAgent == "" || cfg.UserAgent == DefaultUserAgent) && fc.Source.UserAgent != "" {
		cfg.UserAgent = fc.Source.UserAgent
	}
	if (cfg.AcceptLanguage == "" || cfg.AcceptLanguage == DefaultAcceptLanguage) && fc.Source.AcceptLanguage != "" {
		cfg.AcceptLanguage = fc.Source.AcceptLanguage
	}
	if !cfg.Insecure && fc.Source.Insecure {
		cfg.Insecure = true
	}

	if cfg.DaysAgo == 0 && fc.Walk.DaysAgo > 0 {
		cfg.DaysAgo = fc.Walk.DaysAgo
	}
	if (cfg.MaxPages == 0 || cfg.MaxPages == DefaultMaxPages) && fc.Walk.MaxPages > 0 {
		cfg.MaxPages = fc.Walk.MaxPages
	}
	if (cfg.MinPageRecords == 0 || cfg.MinPageRecords == DefaultMinPageRecords) && fc.Walk.MinPageRecords > 0 {
		cfg.MinPageRecords = fc.Walk.MinPageRecords
	}
	if (cfg.PageDelay == 0 || cfg.PageDelay == DefaultPageDelay) && fc.Walk.PageDelay > 0 {
		cfg.PageDelay = fc.Walk.PageDelay
	}

	if (cfg.MaxAttempts == 0 || cfg.MaxAttempts == DefaultMaxAttempts) && fc.Fetch.MaxAttempts > 0 {
		cfg.MaxAttempts = fc.Fetch.MaxAttempts
	}
	if (cfg.RetryDelay == 0 || cfg.RetryDelay == DefaultRetryDelay) && fc.Fetch.RetryDelay > 0 {
		cfg.RetryDelay = fc.Fetch.RetryDelay
	}
	if (cfg.RequestTimeout == 0 || cfg.RequestTimeout == DefaultRequestTimeout) && fc.Fetch.Timeout > 0 {
		cfg.RequestTimeout = fc.Fetch.Timeout
	}

	if (cfg.OutputPath == "" || cfg.OutputPath == DefaultOutputPath) && fc.Output.Path != "" {
		cfg.OutputPath = fc.Output.Path
	}
	if !cfg.AppendDedupe && fc.Output.AppendDedupe {
		cfg.AppendDedupe = true
	}

	if cfg.DebugDir == "" && fc.Debug.Dir != "" {
		cfg.DebugDir = fc.Debug.Dir
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return errors.New("config: source base URL is required")
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return errors.New("config: output path is required")
	}
	if cfg.MaxPages <= 0 {
		return errors.New("config: maxPages must be positive")
	}
	if cfg.DaysAgo < 0 || cfg.MinPageRecords < 0 || cfg.MaxAttempts < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
