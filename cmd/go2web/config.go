package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ericselin/go2web/cache"
	responsetransformer "github.com/ericselin/go2web/pkg/response-transformer"
	"github.com/ericselin/go2web/pkg/search"
	"github.com/ericselin/go2web/pkg/transport"
	"github.com/ericselin/go2web/rfc9111"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Cache        CacheConfig   `yaml:"cache"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRedirects int           `yaml:"maxRedirects"`
	UserAgent    string        `yaml:"userAgent"`
	Accept       string        `yaml:"accept"`
	Search       SearchConfig  `yaml:"search"`
	// Path of the last search result set.
	Session string `yaml:"session"`
}

type CacheConfig struct {
	Provider   string                    `yaml:"provider"`
	Dir        string                    `yaml:"dir"`
	DefaultTTL time.Duration             `yaml:"defaultTTL"`
	Rules      responsetransformer.Rules `yaml:"rules"`
}

type SearchConfig struct {
	Engine string `yaml:"engine"`
	Limit  int    `yaml:"limit"`
}

func defaultConfig() Config {
	dir := "~/.cache/go2web"
	if userCache, err := os.UserCacheDir(); err == nil {
		dir = filepath.Join(userCache, "go2web")
	}
	return Config{
		Cache: CacheConfig{
			Provider:   cache.ProviderFile,
			Dir:        dir,
			DefaultTTL: rfc9111.DefaultTTL,
		},
		Timeout:      transport.DefaultTimeout,
		MaxRedirects: 5,
		Search: SearchConfig{
			Engine: search.DefaultEngine,
			Limit:  search.DefaultLimit,
		},
		Session: filepath.Join(dir, "last-search.yaml"),
	}
}

// defaultConfigFile returns the config file used when none is given,
// or "" if it does not exist.
func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	filename := filepath.Join(dir, "go2web", "config.yaml")
	if _, err := os.Stat(filename); err != nil {
		return ""
	}
	return filename
}

// getConfig reads the given config file on top of the defaults.
// An empty filename returns the defaults.
func getConfig(filename string) (Config, error) {
	config := defaultConfig()
	if filename != "" {
		configBytes, err := os.ReadFile(filename)
		if errors.Is(err, fs.ErrNotExist) {
			return config, fmt.Errorf("config file %s not found", filename)
		}
		if err != nil {
			return config, err
		}
		if err := yaml.Unmarshal(configBytes, &config); err != nil {
			return config, fmt.Errorf("parsing %s: %w", filename, err)
		}
	}
	config.Cache.Dir = expandHome(config.Cache.Dir)
	config.Session = expandHome(config.Session)
	return config, config.validate()
}

func (c Config) validate() error {
	var errs []error
	switch c.Cache.Provider {
	case cache.ProviderFile, cache.ProviderSQLite, cache.ProviderLevelDB, cache.ProviderMemory:
	default:
		errs = append(errs, fmt.Errorf("cache.provider: unknown provider %q", c.Cache.Provider))
	}
	if c.Cache.Dir == "" && c.Cache.Provider != cache.ProviderMemory {
		errs = append(errs, errors.New("cache.dir: must be set"))
	}
	if c.Cache.DefaultTTL < 0 {
		errs = append(errs, errors.New("cache.defaultTTL: must not be negative"))
	}
	for i, rule := range c.Cache.Rules {
		if rule.Default == "" && rule.Override == "" {
			errs = append(errs, fmt.Errorf("cache.rules[%d]: needs default or override", i))
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout: must not be negative"))
	}
	if c.MaxRedirects < 0 {
		errs = append(errs, errors.New("maxRedirects: must not be negative"))
	}
	if c.Search.Limit < 0 {
		errs = append(errs, errors.New("search.limit: must not be negative"))
	}
	if c.Session == "" {
		errs = append(errs, errors.New("session: must be set"))
	}
	return errors.Join(errs...)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
