package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/pfr-stats/internal/scraper"
	yaml "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "PFR_STATS_"

// Config holds every setting the CLI needs
type Config struct {
	DataDir string `yaml:"dataDir"`
	Format  string `yaml:"format"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Fetch struct {
		UserAgent  string        `yaml:"userAgent"`
		Timeout    time.Duration `yaml:"timeout"`
		Wait       time.Duration `yaml:"wait"`
		Browser    bool          `yaml:"browser"`
		Headless   bool          `yaml:"headless"`
		BrowserBin string        `yaml:"browserBin"`
		Settle     time.Duration `yaml:"settle"`
		// CacheTTL is how long downloaded pages are reused; 0, the default, disables the cache
		CacheTTL time.Duration `yaml:"cacheTTL"`
	} `yaml:"fetch"`

	Sites struct {
		Combine string `yaml:"combine"`
		College string `yaml:"college"`
	} `yaml:"sites"`
}

// Default returns the built-in settings
func Default() Config {
	var c Config
	c.DataDir = "~/.local/share/pfr-stats"
	c.Format = "text"
	c.Log.Level = "warn"
	c.Log.Format = "console"
	c.Fetch.UserAgent = scraper.UserAgent
	c.Fetch.Timeout = scraper.Timeout
	c.Fetch.Wait = scraper.DefaultWait
	c.Fetch.Headless = true
	c.Sites.Combine = scraper.CombineBaseURL
	c.Sites.College = scraper.CollegeBaseURL
	return c
}

// Load returns the defaults overlaid with the YAML file at path, if any, and
// then with environment overrides. A missing file is an error only when path
// was given explicitly, and so is an environment value that does not parse.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return c, err
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := envDurationOr(key, fallback)
		errs = append(errs, err)
		return d
	}
	boolean := func(key string, fallback bool) bool {
		b, err := envBoolOr(key, fallback)
		errs = append(errs, err)
		return b
	}

	c.DataDir = envOr("DATA_DIR", c.DataDir)
	c.Format = envOr("FORMAT", c.Format)
	c.Log.Level = envOr("LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("LOG_FORMAT", c.Log.Format)
	c.Fetch.UserAgent = envOr("USER_AGENT", c.Fetch.UserAgent)
	c.Fetch.Timeout = duration("TIMEOUT", c.Fetch.Timeout)
	c.Fetch.Wait = duration("WAIT", c.Fetch.Wait)
	c.Fetch.Browser = boolean("BROWSER", c.Fetch.Browser)
	c.Fetch.Headless = boolean("HEADLESS", c.Fetch.Headless)
	c.Fetch.BrowserBin = envOr("BROWSER_BIN", c.Fetch.BrowserBin)
	c.Fetch.Settle = duration("SETTLE", c.Fetch.Settle)
	c.Fetch.CacheTTL = duration("CACHE_TTL", c.Fetch.CacheTTL)
	c.Sites.Combine = envOr("COMBINE_URL", c.Sites.Combine)
	c.Sites.College = envOr("COLLEGE_URL", c.Sites.College)

	return errors.Join(errs...)
}

// Formats lists the accepted output formats
var Formats = []string{"text", "json", "csv", "xlsx"}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: dataDir is required")
	}
	if !validFormat(c.Format) {
		return fmt.Errorf("config: invalid format %q (must be one of %s)", c.Format, strings.Join(Formats, ", "))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("config: invalid log format %q (must be console or json)", c.Log.Format)
	}
	if c.Fetch.Timeout < 0 || c.Fetch.Wait < 0 || c.Fetch.Settle < 0 || c.Fetch.CacheTTL < 0 {
		return errors.New("config: durations must not be negative")
	}
	if c.Sites.Combine == "" || c.Sites.College == "" {
		return errors.New("config: site URLs are required")
	}
	return nil
}

func validFormat(f string) bool {
	f = strings.ToLower(f)
	for _, v := range Formats {
		if f == v {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("config: %s%s=%q is not a boolean", EnvPrefix, key, v)
	}
	return b, nil
}

func envDurationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("config: %s%s=%q is not a duration (e.g. 3s): %w", EnvPrefix, key, v, err)
	}
	return d, nil
}
