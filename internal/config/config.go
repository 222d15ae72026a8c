// Package config holds the settings that stay fixed for one mirror run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-scripts/sitemirror/internal/site"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	DefaultSiteRoot     = "https://sites.google.com/view/spc-student-it-club"
	DefaultStartPath    = "/home"
	DefaultOutputDir    = "spc-site"
	DefaultFetchTimeout = 30 * time.Second
	DefaultFallbackWait = 5 * time.Second
	DefaultSettleWait   = 2 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120 Safari/537.36"
)

// Config holds the mirror settings.
type Config struct {
	SiteRoot  string `yaml:"site_root"`
	StartURL  string `yaml:"start_url"`
	OutputDir string `yaml:"output_dir"`
	// BaseHref is written into every page's <base>. Empty means the origin of
	// SiteRoot.
	BaseHref string `yaml:"base_href"`

	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	FallbackWait   time.Duration `yaml:"fallback_wait"`
	SettleWait     time.Duration `yaml:"settle_wait"`
	CaptureTimeout time.Duration `yaml:"capture_timeout"`

	Browser Browser `yaml:"browser"`
}

// Browser configures the rendering engine.
type Browser struct {
	Headless  bool   `yaml:"headless"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	UserAgent string `yaml:"user_agent"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SiteRoot:       DefaultSiteRoot,
		StartURL:       DefaultSiteRoot + DefaultStartPath,
		OutputDir:      DefaultOutputDir,
		FetchTimeout:   DefaultFetchTimeout,
		FallbackWait:   DefaultFallbackWait,
		SettleWait:     DefaultSettleWait,
		CaptureTimeout: DefaultFetchTimeout,
		Browser: Browser{
			Headless:  true,
			Width:     1280,
			Height:    900,
			UserAgent: DefaultUserAgent,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cfg and fills the derived fields: StartURL from SiteRoot,
// CaptureTimeout from FetchTimeout and BaseHref from the origin of SiteRoot.
func (c *Config) Validate() error {
	if c.SiteRoot == "" {
		return fmt.Errorf("%w: site_root is required", ErrInvalid)
	}
	root, err := site.New(c.SiteRoot)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.StartURL == "" {
		c.StartURL = c.SiteRoot
	}
	if !root.IsInternal(c.StartURL) {
		return fmt.Errorf("%w: start_url %q is outside site_root %q", ErrInvalid, c.StartURL, c.SiteRoot)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalid)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalid)
	}
	if c.FallbackWait < 0 || c.SettleWait < 0 {
		return fmt.Errorf("%w: waits must not be negative", ErrInvalid)
	}
	if c.CaptureTimeout <= 0 {
		c.CaptureTimeout = c.FetchTimeout
	}
	if c.BaseHref == "" {
		c.BaseHref = root.Origin()
	}
	return nil
}
