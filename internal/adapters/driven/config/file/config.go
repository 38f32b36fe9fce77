package file

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConcurrency is the default number of documents processed
// concurrently.
const DefaultConcurrency = 4

// Config holds the local CLI configuration.
type Config struct {
	// SiteURL is the WordPress site root.
	SiteURL string `toml:"site_url"`

	// Username and AppPassword authenticate against the site's REST
	// API. Optional for sites that expose published content
	// anonymously.
	Username    string `toml:"username"`
	AppPassword string `toml:"app_password"`

	// SettingsURL is the remote settings document endpoint. Defaults
	// to the site's pressvec settings route.
	SettingsURL string `toml:"settings_url"`

	// OpenAIAPIKey authenticates against the embeddings API.
	OpenAIAPIKey string `toml:"openai_api_key"`

	// PineconeAPIKey authenticates against the vector index.
	PineconeAPIKey string `toml:"pinecone_api_key"`

	// Namespace scopes operations within the index.
	Namespace string `toml:"namespace"`

	// Domain identifies this site in vector metadata. Defaults to
	// the site URL's host.
	Domain string `toml:"domain"`

	// Concurrency is the number of documents processed at once.
	Concurrency int `toml:"concurrency"`
}

// DefaultPath returns the default config file location,
// ~/.pressvec/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pressvec", "config.toml"), nil
}

// Load reads the config file at path, applies environment overrides
// and fills defaults. A missing file is not an error; environment
// variables alone can carry a full configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to env overrides.
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.SiteURL, "PRESSVEC_SITE_URL")
	setString(&c.Username, "PRESSVEC_USERNAME")
	setString(&c.AppPassword, "PRESSVEC_APP_PASSWORD")
	setString(&c.SettingsURL, "PRESSVEC_SETTINGS_URL")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.PineconeAPIKey, "PINECONE_API_KEY")
	setString(&c.Namespace, "PRESSVEC_NAMESPACE")
	setString(&c.Domain, "PRESSVEC_DOMAIN")

	if v := os.Getenv("PRESSVEC_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Concurrency = n
		}
	}
}

// applyDefaults fills derived and default values.
func (c *Config) applyDefaults() {
	if c.Concurrency < 1 {
		c.Concurrency = DefaultConcurrency
	}
	if c.SettingsURL == "" && c.SiteURL != "" {
		c.SettingsURL = c.SiteURL + "/wp-json/pressvec/v1/settings"
	}
	if c.Domain == "" && c.SiteURL != "" {
		if u, err := url.Parse(c.SiteURL); err == nil {
			c.Domain = u.Host
		}
	}
}

// Validate checks that the config can drive a run.
func (c *Config) Validate() error {
	if c.SiteURL == "" {
		return fmt.Errorf("site_url is required (config file or PRESSVEC_SITE_URL)")
	}
	if c.SettingsURL == "" {
		return fmt.Errorf("settings_url is required")
	}
	if c.Domain == "" {
		return fmt.Errorf("domain is required")
	}
	return nil
}

// Save writes the config to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
