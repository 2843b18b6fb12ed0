package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint     = "http://127.0.0.1:5000/check_url"
	DefaultListen       = "127.0.0.1:5000"
	DefaultProbeTimeout = 5 * time.Second
	DefaultHistorySize  = 100
)

// Config holds all the configuration settings for the client and the server.
type Config struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"` // 0 means a request may hang forever
	Verbose  bool          `yaml:"verbose"`
	NoColor  bool          `yaml:"no_color"`

	Server ServerConfig `yaml:"server"`
}

// ServerConfig configures the classification endpoint.
type ServerConfig struct {
	Listen        string        `yaml:"listen"`
	Model         string        `yaml:"model"` // Path to a YAML model, empty for the built-in one
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	NetworkProbes *bool         `yaml:"network_probes"`
	DNSServer     string        `yaml:"dns_server"` // host:port, empty to use resolv.conf
	HistorySize   int           `yaml:"history_size"`
}

// ProbesEnabled reports whether DNS/HTTP/RDAP lookups are allowed.
func (s ServerConfig) ProbesEnabled() bool {
	return s.NetworkProbes == nil || *s.NetworkProbes
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	return &Config{
		Endpoint: DefaultEndpoint,
		Server: ServerConfig{
			Listen:       DefaultListen,
			ProbeTimeout: DefaultProbeTimeout,
			HistorySize:  DefaultHistorySize,
		},
	}
}

// Load reads configuration from a YAML file, then applies environment
// overrides. A missing file is not an error: defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through with defaults
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PHISHWATCH_ENDPOINT")); v != "" {
		cfg.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("PHISHWATCH_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("PHISHWATCH_MODEL")); v != "" {
		cfg.Server.Model = v
	}
}

// Validate repairs out-of-range values and rejects an unusable endpoint.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		log.Println("[!] Empty endpoint, defaulting to " + DefaultEndpoint)
		c.Endpoint = DefaultEndpoint
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: must be an absolute http(s) URL", c.Endpoint)
	}

	if c.Timeout < 0 {
		log.Println("[!] Invalid timeout value, defaulting to 0 (none)")
		c.Timeout = 0
	}
	if strings.TrimSpace(c.Server.Listen) == "" {
		log.Println("[!] Empty listen address, defaulting to " + DefaultListen)
		c.Server.Listen = DefaultListen
	}
	if c.Server.ProbeTimeout <= 0 {
		log.Printf("[!] Invalid probe timeout, defaulting to %s", DefaultProbeTimeout)
		c.Server.ProbeTimeout = DefaultProbeTimeout
	}
	if c.Server.HistorySize <= 0 {
		log.Printf("[!] Invalid history size, defaulting to %d", DefaultHistorySize)
		c.Server.HistorySize = DefaultHistorySize
	}
	return nil
}
