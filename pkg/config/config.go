// Package config loads Universal Ads credentials and client settings from a
// YAML file and the environment.
//
// A config file looks like:
//
//	api_key: ${UNIVERSAL_ADS_API_KEY}
//	private_key_file: ~/.config/uads/private_key.pem
//	base_url: https://api.universalads.com/v1
//	timeout: 30s # or 30, in seconds
//	max_retries: 3
//
// ${VAR} references are expanded from the environment before parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/universal-ads/universal-ads-sdk-go/pkg/client"
)

// Environment variables read by FromEnv.
const (
	EnvAPIKey         = "UNIVERSAL_ADS_API_KEY"
	EnvPrivateKey     = "UNIVERSAL_ADS_PRIVATE_KEY"
	EnvPrivateKeyFile = "UNIVERSAL_ADS_PRIVATE_KEY_FILE"
	EnvBaseURL        = "UNIVERSAL_ADS_BASE_URL"
	EnvConfig         = "UNIVERSAL_ADS_CONFIG"
)

// Config holds the settings needed to build a client.
type Config struct {
	APIKey         string `yaml:"api_key"`
	PrivateKey     string `yaml:"private_key"`      // PEM text, "\n" escapes allowed
	PrivateKeyFile string `yaml:"private_key_file"` // path to a PEM file, ~ expanded
	BaseURL        string `yaml:"base_url"`
	Timeout        string `yaml:"timeout"` // e.g. "30s", "1m", or 30 for seconds
	MaxRetries     *int   `yaml:"max_retries"`
}

// Load reads a YAML config file, substitutes environment variables and
// parses it. The result is not validated; see Validate.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	contentWithEnv := os.ExpandEnv(string(rawBytes))

	var cfg Config
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	return &cfg, nil
}

// FromEnv returns the settings present in the environment.
func FromEnv() Config {
	return Config{
		APIKey:         os.Getenv(EnvAPIKey),
		PrivateKey:     os.Getenv(EnvPrivateKey),
		PrivateKeyFile: os.Getenv(EnvPrivateKeyFile),
		BaseURL:        os.Getenv(EnvBaseURL),
	}
}

// Merge returns c with every field that is set in override replaced.
func (c Config) Merge(override Config) Config {
	result := c

	if override.APIKey != "" {
		result.APIKey = override.APIKey
	}
	// Key source is replaced as a unit so a lower layer's inline key
	// cannot shadow a key file given by a higher one.
	if override.PrivateKey != "" || override.PrivateKeyFile != "" {
		result.PrivateKey = override.PrivateKey
		result.PrivateKeyFile = override.PrivateKeyFile
	}
	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.Timeout != "" {
		result.Timeout = override.Timeout
	}
	if override.MaxRetries != nil {
		n := *override.MaxRetries
		result.MaxRetries = &n
	}

	return result
}

// GetDefaults returns c with unset fields filled with default values.
func (c Config) GetDefaults() Config {
	result := c

	if result.BaseURL == "" {
		result.BaseURL = client.DefaultBaseURL
	}
	if result.Timeout == "" {
		result.Timeout = "30s"
	}
	if result.MaxRetries == nil {
		n := 3
		result.MaxRetries = &n
	}

	return result
}

// Validate checks that the credentials are present and the settings parse.
func (c Config) Validate() error {
	var errs []error

	if c.APIKey == "" {
		errs = append(errs, errors.New("api_key is required"))
	}
	if c.PrivateKey == "" && c.PrivateKeyFile == "" {
		errs = append(errs, errors.New("private_key or private_key_file is required"))
	}
	if c.Timeout != "" {
		if d, err := parseTimeout(c.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("timeout: %w", err))
		} else if d <= 0 {
			errs = append(errs, errors.New("timeout must be positive"))
		}
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		errs = append(errs, errors.New("max_retries cannot be negative"))
	}

	return errors.Join(errs...)
}

// PrivateKeyPEM returns the PEM-encoded private key. An inline key wins over
// a key file. Literal "\n" sequences in an inline key become newlines, so a
// key can be passed through a single-line environment variable.
func (c Config) PrivateKeyPEM() ([]byte, error) {
	if c.PrivateKey != "" {
		return []byte(strings.ReplaceAll(c.PrivateKey, `\n`, "\n")), nil
	}
	if c.PrivateKeyFile == "" {
		return nil, errors.New("no private key configured")
	}

	path, err := expandHome(c.PrivateKeyFile)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	return b, nil
}

// ClientOptions converts the settings into client options. Unset fields
// produce no option.
func (c Config) ClientOptions() ([]client.Option, error) {
	var opts []client.Option

	if c.BaseURL != "" {
		opts = append(opts, client.WithBaseURL(c.BaseURL))
	}
	if c.Timeout != "" {
		d, err := parseTimeout(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}
		opts = append(opts, client.WithTimeout(d))
	}
	if c.MaxRetries != nil {
		opts = append(opts, client.WithMaxRetries(*c.MaxRetries))
	}

	return opts, nil
}

// parseTimeout accepts a Go duration or a bare integer number of seconds.
func parseTimeout(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// NewClient validates c and builds a client from it. Extra options are
// applied after the configured ones.
func (c Config) NewClient(extra ...client.Option) (*client.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	pemBytes, err := c.PrivateKeyPEM()
	if err != nil {
		return nil, err
	}
	opts, err := c.ClientOptions()
	if err != nil {
		return nil, err
	}

	return client.New(c.APIKey, pemBytes, append(opts, extra...)...)
}

// DefaultPath returns the config file location: $UNIVERSAL_ADS_CONFIG when
// set, otherwise uads/config.yaml under the user config directory.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "uads", "config.yaml")
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand ~: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
